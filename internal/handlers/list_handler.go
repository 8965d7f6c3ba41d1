package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"listify/internal/models"
	"listify/internal/service"
	"listify/internal/utils"
)

// ListHandler handles list CRUD HTTP requests
type ListHandler struct {
	listService *service.ListService
}

// NewListHandler creates a new list handler
func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

type createListRequest struct {
	ListName    string        `json:"listName"`
	Description string        `json:"description"`
	Items       []itemRequest `json:"items"`
}

type itemRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quantity    string `json:"quantity"`
	Notes       string `json:"notes"`
	Explanation string `json:"explanation"`
	SourceType  string `json:"sourceType"`
}

type addItemsRequest struct {
	Items []itemRequest `json:"items"`
}

func (req itemRequest) toModel() models.ListItem {
	return models.ListItem{
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
		Explanation: req.Explanation,
		SourceType:  models.SourceType(req.SourceType),
	}
}

// GetLists returns lists, newest first
func (h *ListHandler) GetLists(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	lists, err := h.listService.GetLists(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lists)
}

// GetList returns one list with its items
func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	list, err := h.listService.GetList(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateList creates a list from manually provided items
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, utils.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	items := make([]models.ListItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.toModel()
	}

	result, err := h.listService.CreateList(r.Context(), req.ListName, req.Description, items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// AddItems appends items to an existing list
func (h *ListHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, utils.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	items := make([]models.ListItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.toModel()
	}

	result, err := h.listService.AddItems(r.Context(), id, items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// UpdateItem applies a partial update to one item
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var upd models.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, r, utils.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	item, err := h.listService.UpdateItem(r.Context(), id, upd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteList removes a list and all its items
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.listService.DeleteList(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// DeleteItem removes one item
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.listService.DeleteItem(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// Search finds items across all lists
func (h *ListHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 0)

	items, err := h.listService.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Stats returns aggregate counts
func (h *ListHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.listService.Statistics(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Health is a liveness probe
func (h *ListHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
