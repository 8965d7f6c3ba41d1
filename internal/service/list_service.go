package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"listify/internal/extract"
	"listify/internal/ingest"
	"listify/internal/models"
	"listify/internal/utils"
)

// SaveMode controls where extracted items land.
type SaveMode string

const (
	SaveModeNew      SaveMode = "new"
	SaveModeExisting SaveMode = "existing"
)

// SaveOptions directs AnalyzeAndSave. ListID is required for existing mode;
// ListName and Description only apply when creating a new list.
type SaveOptions struct {
	Mode        SaveMode
	ListID      int64
	ListName    string
	Description string
}

// AnalyzeResult is the outcome of one analysis request.
type AnalyzeResult struct {
	AnalysisID     string                 `json:"analysisId"`
	ListID         int64                  `json:"listId,omitempty"`
	ListName       string                 `json:"listName,omitempty"`
	ItemCount      int                    `json:"itemCount"`
	Items          []models.ListItem      `json:"items"`
	Source         models.SourceType      `json:"source"`
	SourceMetadata map[string]interface{} `json:"sourceMetadata,omitempty"`
	Message        string                 `json:"message,omitempty"`
}

// ListStore is the persistence surface the service needs.
type ListStore interface {
	CreateList(ctx context.Context, name, description string, items []models.ListItem) (*models.ListWithItems, error)
	AppendItems(ctx context.Context, listID int64, items []models.ListItem) (*models.ListWithItems, error)
	GetList(ctx context.Context, id int64) (*models.ListWithItems, error)
	GetLists(ctx context.Context, limit int) ([]models.List, error)
	UpdateItem(ctx context.Context, id int64, upd models.ItemUpdate) (*models.ListItem, error)
	DeleteItem(ctx context.Context, id int64) error
	DeleteList(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]models.ListItem, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// InputNormalizer turns raw inputs into model-ready payloads.
type InputNormalizer interface {
	Normalize(ctx context.Context, in ingest.Input) (*ingest.Payload, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListService orchestrates analysis and list CRUD.
type ListService struct {
	store      ListStore
	extractor  extract.Extractor
	normalizer InputNormalizer
}

func NewListService(store ListStore, extractor extract.Extractor, normalizer InputNormalizer) *ListService {
	return &ListService{
		store:      store,
		extractor:  extractor,
		normalizer: normalizer,
	}
}

// AnalyzeAndSave runs the full pipeline: normalize the input, extract items
// with the model, then persist. When the model finds nothing the result
// carries a message and no list is created or touched.
func (s *ListService) AnalyzeAndSave(ctx context.Context, in ingest.Input, opts SaveOptions) (*AnalyzeResult, error) {
	if opts.Mode == "" {
		opts.Mode = SaveModeNew
	}
	if opts.Mode != SaveModeNew && opts.Mode != SaveModeExisting {
		return nil, utils.ValidationError{Field: "saveMode", Message: fmt.Sprintf("unknown save mode: %s", opts.Mode)}
	}
	if opts.Mode == SaveModeExisting && opts.ListID <= 0 {
		return nil, utils.ValidationError{Field: "listId", Message: "listId is required when appending"}
	}

	payload, err := s.normalizer.Normalize(ctx, in)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractor.Extract(ctx, payload)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{
		AnalysisID:     uuid.NewString(),
		Source:         payload.SourceType,
		SourceMetadata: payload.Metadata,
	}

	if len(extracted) == 0 {
		result.Items = []models.ListItem{}
		result.Message = "No list items found in the provided input"
		return result, nil
	}

	metadata := metadataBlob(result.AnalysisID, payload.Metadata)
	items := make([]models.ListItem, len(extracted))
	for i, e := range extracted {
		items[i] = models.ListItem{
			Name:        e.Name,
			Category:    e.Category,
			Quantity:    e.Quantity,
			Notes:       e.Notes,
			Explanation: e.Explanation,
			Status:      models.StatusPending,
			SourceType:  payload.SourceType,
			Metadata:    metadata,
		}
	}

	var saved *models.ListWithItems
	if opts.Mode == SaveModeExisting {
		saved, err = s.store.AppendItems(ctx, opts.ListID, items)
	} else {
		name := strings.TrimSpace(opts.ListName)
		if name == "" {
			name = derivedListName(in, payload.SourceType)
		}
		saved, err = s.store.CreateList(ctx, name, opts.Description, items)
	}
	if err != nil {
		return nil, err
	}

	// ItemCount and Items describe the same thing: the full list after the
	// write, whether it was just created or appended to.
	result.ListID = saved.List.ID
	result.ListName = saved.List.Name
	result.ItemCount = saved.List.ItemCount
	result.Items = saved.Items
	return result, nil
}

// CreateList creates a list from manually provided items.
func (s *ListService) CreateList(ctx context.Context, name, description string, items []models.ListItem) (*models.ListWithItems, error) {
	if err := utils.ValidateListName(name); err != nil {
		return nil, err
	}

	cleaned := make([]models.ListItem, 0, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, utils.ValidationError{Field: fmt.Sprintf("items[%d].name", i), Message: "item name is required"}
		}
		if item.SourceType != "" && !models.ValidSourceType(item.SourceType) {
			return nil, utils.ValidationError{Field: fmt.Sprintf("items[%d].sourceType", i), Message: fmt.Sprintf("unknown source type: %s", item.SourceType)}
		}
		cleaned = append(cleaned, item)
	}

	return s.store.CreateList(ctx, strings.TrimSpace(name), strings.TrimSpace(description), cleaned)
}

// AddItems appends manually provided items to an existing list.
func (s *ListService) AddItems(ctx context.Context, listID int64, items []models.ListItem) (*models.ListWithItems, error) {
	if len(items) == 0 {
		return nil, utils.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, utils.ValidationError{Field: fmt.Sprintf("items[%d].name", i), Message: "item name is required"}
		}
		if item.SourceType != "" && !models.ValidSourceType(item.SourceType) {
			return nil, utils.ValidationError{Field: fmt.Sprintf("items[%d].sourceType", i), Message: fmt.Sprintf("unknown source type: %s", item.SourceType)}
		}
		items[i].Name = strings.TrimSpace(item.Name)
	}
	return s.store.AppendItems(ctx, listID, items)
}

func (s *ListService) GetList(ctx context.Context, id int64) (*models.ListWithItems, error) {
	return s.store.GetList(ctx, id)
}

func (s *ListService) GetLists(ctx context.Context, limit int) ([]models.List, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.GetLists(ctx, limit)
}

// UpdateItem validates the partial update before handing it to the store.
func (s *ListService) UpdateItem(ctx context.Context, id int64, upd models.ItemUpdate) (*models.ListItem, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, utils.ValidationError{Field: "name", Message: "item name cannot be blank"}
	}
	if upd.Status != nil && !models.ValidItemStatus(*upd.Status) {
		return nil, utils.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status: %s", *upd.Status)}
	}
	return s.store.UpdateItem(ctx, id, upd)
}

func (s *ListService) DeleteItem(ctx context.Context, id int64) error {
	return s.store.DeleteItem(ctx, id)
}

func (s *ListService) DeleteList(ctx context.Context, id int64) error {
	return s.store.DeleteList(ctx, id)
}

func (s *ListService) Search(ctx context.Context, query string, limit int) ([]models.ListItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, utils.ValidationError{Field: "q", Message: "search query is required"}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.Search(ctx, query, limit)
}

func (s *ListService) Statistics(ctx context.Context) (*models.Statistics, error) {
	return s.store.Statistics(ctx)
}

// derivedListName names a list when the caller didn't. URL sources use the
// host; everything else gets a timestamped default.
func derivedListName(in ingest.Input, source models.SourceType) string {
	if source == models.SourceURL {
		if host := ingest.Hostname(in.URL); host != "" {
			return "List from " + host
		}
		return "List from link"
	}

	stamp := time.Now().Format("Jan 2, 2006 15:04")
	switch source {
	case models.SourcePhoto, models.SourceScreenshot:
		return "Photo analysis " + stamp
	case models.SourceManual:
		return "Text analysis " + stamp
	default:
		return "Analysis " + stamp
	}
}

// metadataBlob serializes per-analysis context onto each stored item.
func metadataBlob(analysisID string, source map[string]interface{}) string {
	blob := map[string]interface{}{
		"analysisId": analysisID,
		"analyzedAt": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range source {
		blob[k] = v
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return ""
	}
	return string(data)
}
