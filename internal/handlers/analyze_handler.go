package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"listify/internal/ingest"
	"listify/internal/service"
	"listify/internal/utils"
)

// AnalyzeHandler handles the three analysis entry points: image upload,
// pasted text and link.
type AnalyzeHandler struct {
	listService   *service.ListService
	uploadMaxSize int64
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(listService *service.ListService, uploadMaxSize int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		listService:   listService,
		uploadMaxSize: uploadMaxSize,
	}
}

type analyzeTextRequest struct {
	Text string `json:"text"`
	saveFields
}

type analyzeLinkRequest struct {
	URL string `json:"url"`
	saveFields
}

type saveFields struct {
	SaveMode    string `json:"saveMode"`
	ListID      int64  `json:"listId"`
	ListName    string `json:"listName"`
	Description string `json:"description"`
}

func (f saveFields) options() service.SaveOptions {
	return service.SaveOptions{
		Mode:        service.SaveMode(f.SaveMode),
		ListID:      f.ListID,
		ListName:    f.ListName,
		Description: f.Description,
	}
}

// Upload analyzes an uploaded image. Expects multipart form data with the
// file in the "image" field.
func (h *AnalyzeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		respondError(w, r, utils.ValidationError{Field: "image", Message: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, utils.ValidationError{Field: "image", Message: "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.uploadMaxSize+1))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if int64(len(data)) > h.uploadMaxSize {
		respondError(w, r, utils.ValidationError{Field: "image", Message: "image exceeds the upload size limit"})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		// Browsers don't always set it; sniff the bytes instead.
		mimeType = http.DetectContentType(data)
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
	}

	opts := service.SaveOptions{
		Mode:        service.SaveMode(r.FormValue("saveMode")),
		ListName:    r.FormValue("listName"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("listId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, r, utils.ValidationError{Field: "listId", Message: "must be an integer"})
			return
		}
		opts.ListID = id
	}

	result, err := h.listService.AnalyzeAndSave(r.Context(), ingest.Input{
		Kind:     ingest.KindImage,
		Data:     data,
		MimeType: mimeType,
	}, opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AnalyzeText analyzes pasted free-form text
func (h *AnalyzeHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, utils.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	result, err := h.listService.AnalyzeAndSave(r.Context(), ingest.Input{
		Kind: ingest.KindText,
		Text: req.Text,
	}, req.options())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AnalyzeLink fetches a web page and analyzes its readable content
func (h *AnalyzeHandler) AnalyzeLink(w http.ResponseWriter, r *http.Request) {
	var req analyzeLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, utils.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	result, err := h.listService.AnalyzeAndSave(r.Context(), ingest.Input{
		Kind: ingest.KindURL,
		URL:  req.URL,
	}, req.options())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
