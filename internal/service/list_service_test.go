package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"listify/internal/extract"
	"listify/internal/ingest"
	"listify/internal/models"
	"listify/internal/utils"
)

type fakeExtractor struct {
	items []extract.Item
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, payload *ingest.Payload) ([]extract.Item, error) {
	return f.items, f.err
}

type fakeNormalizer struct {
	payload *ingest.Payload
	err     error
}

func (f *fakeNormalizer) Normalize(ctx context.Context, in ingest.Input) (*ingest.Payload, error) {
	return f.payload, f.err
}

// spyStore records every write so tests can assert none happened.
type spyStore struct {
	createCalls int
	appendCalls int
	lastName    string
	lastItems   []models.ListItem
	appendErr   error
}

func (s *spyStore) CreateList(ctx context.Context, name, description string, items []models.ListItem) (*models.ListWithItems, error) {
	s.createCalls++
	s.lastName = name
	s.lastItems = items
	list := models.List{ID: 1, Name: name, Description: description, ItemCount: len(items)}
	return &models.ListWithItems{List: list, Items: items}, nil
}

func (s *spyStore) AppendItems(ctx context.Context, listID int64, items []models.ListItem) (*models.ListWithItems, error) {
	s.appendCalls++
	s.lastItems = items
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	// the real store reads the whole list back, pre-existing items included
	all := append([]models.ListItem{{ID: 1, ListID: listID, Name: "Old"}}, items...)
	list := models.List{ID: listID, Name: "existing", ItemCount: len(all)}
	return &models.ListWithItems{List: list, Items: all}, nil
}

func (s *spyStore) GetList(ctx context.Context, id int64) (*models.ListWithItems, error) {
	return nil, errors.New("not implemented")
}

func (s *spyStore) GetLists(ctx context.Context, limit int) ([]models.List, error) {
	return nil, nil
}

func (s *spyStore) UpdateItem(ctx context.Context, id int64, upd models.ItemUpdate) (*models.ListItem, error) {
	return &models.ListItem{ID: id}, nil
}

func (s *spyStore) DeleteItem(ctx context.Context, id int64) error  { return nil }
func (s *spyStore) DeleteList(ctx context.Context, id int64) error  { return nil }
func (s *spyStore) Statistics(ctx context.Context) (*models.Statistics, error) {
	return &models.Statistics{}, nil
}

func (s *spyStore) Search(ctx context.Context, query string, limit int) ([]models.ListItem, error) {
	return nil, nil
}

func textPayload() *ingest.Payload {
	return &ingest.Payload{
		Prompt:     "prompt",
		SourceType: models.SourceManual,
		Metadata:   map[string]interface{}{"textLength": 9},
	}
}

func TestAnalyzeAndSaveCreatesList(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store,
		&fakeExtractor{items: []extract.Item{
			{Name: "Milk", Category: "groceries", Quantity: "2"},
			{Name: "Eggs", Category: "groceries"},
		}},
		&fakeNormalizer{payload: textPayload()})

	result, err := svc.AnalyzeAndSave(context.Background(), ingest.Input{Kind: ingest.KindText, Text: "milk eggs"}, SaveOptions{ListName: "Groceries"})
	if err != nil {
		t.Fatalf("AnalyzeAndSave failed: %v", err)
	}

	if store.createCalls != 1 {
		t.Errorf("expected 1 create call, got %d", store.createCalls)
	}
	if result.AnalysisID == "" {
		t.Error("expected an analysis id")
	}
	if result.ItemCount != 2 || len(result.Items) != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Source != models.SourceManual {
		t.Errorf("expected source manual, got %s", result.Source)
	}

	item := store.lastItems[0]
	if item.SourceType != models.SourceManual {
		t.Errorf("expected items tagged with payload source, got %s", item.SourceType)
	}
	if item.Status != models.StatusPending {
		t.Errorf("expected pending, got %s", item.Status)
	}
	if !strings.Contains(item.Metadata, "analysisId") || !strings.Contains(item.Metadata, "analyzedAt") {
		t.Errorf("expected metadata blob, got %q", item.Metadata)
	}
	if !strings.Contains(item.Metadata, "textLength") {
		t.Errorf("expected source metadata carried into blob, got %q", item.Metadata)
	}
}

func TestAnalyzeAndSaveZeroItemsWritesNothing(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store,
		&fakeExtractor{items: nil},
		&fakeNormalizer{payload: textPayload()})

	result, err := svc.AnalyzeAndSave(context.Background(), ingest.Input{Kind: ingest.KindText, Text: "nothing here"}, SaveOptions{})
	if err != nil {
		t.Fatalf("zero items must not be an error: %v", err)
	}

	if store.createCalls != 0 || store.appendCalls != 0 {
		t.Errorf("expected no store writes, got create=%d append=%d", store.createCalls, store.appendCalls)
	}
	if result.Message == "" {
		t.Error("expected an explanatory message")
	}
	if result.ListID != 0 {
		t.Errorf("expected no list id, got %d", result.ListID)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("expected empty items slice, got %+v", result.Items)
	}
}

func TestAnalyzeAndSaveAppendMode(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store,
		&fakeExtractor{items: []extract.Item{{Name: "Butter", Category: "groceries"}}},
		&fakeNormalizer{payload: textPayload()})

	result, err := svc.AnalyzeAndSave(context.Background(), ingest.Input{Kind: ingest.KindText, Text: "butter"},
		SaveOptions{Mode: SaveModeExisting, ListID: 42})
	if err != nil {
		t.Fatalf("AnalyzeAndSave failed: %v", err)
	}

	if store.appendCalls != 1 || store.createCalls != 0 {
		t.Errorf("expected append only, got create=%d append=%d", store.createCalls, store.appendCalls)
	}
	if result.ListID != 42 {
		t.Errorf("expected list 42, got %d", result.ListID)
	}
	// the result describes the whole list, so the count matches the items
	if result.ItemCount != len(result.Items) {
		t.Errorf("itemCount %d disagrees with %d returned items", result.ItemCount, len(result.Items))
	}
	if result.ItemCount != 2 {
		t.Errorf("expected full list count 2 after append, got %d", result.ItemCount)
	}
}

func TestAnalyzeAndSaveAppendRequiresListID(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store, &fakeExtractor{}, &fakeNormalizer{payload: textPayload()})

	_, err := svc.AnalyzeAndSave(context.Background(), ingest.Input{Kind: ingest.KindText, Text: "x"},
		SaveOptions{Mode: SaveModeExisting})

	var ve utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if store.createCalls != 0 && store.appendCalls != 0 {
		t.Error("expected no store calls on validation failure")
	}
}

func TestAnalyzeAndSavePropagatesExtractionError(t *testing.T) {
	store := &spyStore{}
	extractErr := &extract.ExtractionError{Err: errors.New("model unavailable")}
	svc := NewListService(store, &fakeExtractor{err: extractErr}, &fakeNormalizer{payload: textPayload()})

	_, err := svc.AnalyzeAndSave(context.Background(), ingest.Input{Kind: ingest.KindText, Text: "x"}, SaveOptions{})

	var ee *extract.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %T: %v", err, err)
	}
	if store.createCalls != 0 {
		t.Error("expected no writes on extraction failure")
	}
}

func TestAnalyzeAndSaveDerivedURLName(t *testing.T) {
	store := &spyStore{}
	payload := &ingest.Payload{
		Prompt:     "prompt",
		SourceType: models.SourceURL,
		Metadata:   map[string]interface{}{"url": "https://recipes.example.com/cake"},
	}
	svc := NewListService(store,
		&fakeExtractor{items: []extract.Item{{Name: "Flour"}}},
		&fakeNormalizer{payload: payload})

	_, err := svc.AnalyzeAndSave(context.Background(),
		ingest.Input{Kind: ingest.KindURL, URL: "https://recipes.example.com/cake"}, SaveOptions{})
	if err != nil {
		t.Fatalf("AnalyzeAndSave failed: %v", err)
	}

	if store.lastName != "List from recipes.example.com" {
		t.Errorf("expected derived name from host, got %q", store.lastName)
	}
}

func TestCreateListValidation(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store, &fakeExtractor{}, &fakeNormalizer{})

	_, err := svc.CreateList(context.Background(), "  ", "", nil)
	var ve utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for blank name, got %v", err)
	}

	_, err = svc.CreateList(context.Background(), "Groceries", "", []models.ListItem{{Name: "   "}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for blank item name, got %v", err)
	}

	_, err = svc.CreateList(context.Background(), "Groceries", "", []models.ListItem{{Name: "Milk", SourceType: "carrier-pigeon"}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for bad source type, got %v", err)
	}

	if _, err := svc.CreateList(context.Background(), "Groceries", "", []models.ListItem{{Name: " Milk "}}); err != nil {
		t.Fatalf("expected valid create, got %v", err)
	}
	if store.lastItems[0].Name != "Milk" {
		t.Errorf("expected trimmed item name, got %q", store.lastItems[0].Name)
	}
}

func TestAddItemsValidation(t *testing.T) {
	store := &spyStore{}
	svc := NewListService(store, &fakeExtractor{}, &fakeNormalizer{})

	var ve utils.ValidationError

	_, err := svc.AddItems(context.Background(), 1, nil)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty items, got %v", err)
	}

	_, err = svc.AddItems(context.Background(), 1, []models.ListItem{{Name: "  "}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for blank item name, got %v", err)
	}

	_, err = svc.AddItems(context.Background(), 1, []models.ListItem{{Name: "Milk", SourceType: "carrier-pigeon"}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for bad source type, got %v", err)
	}
	if store.appendCalls != 0 {
		t.Errorf("expected no store calls on validation failure, got %d", store.appendCalls)
	}

	if _, err := svc.AddItems(context.Background(), 1, []models.ListItem{{Name: "Milk", SourceType: models.SourcePhoto}}); err != nil {
		t.Fatalf("expected valid append, got %v", err)
	}
}

func TestUpdateItemValidation(t *testing.T) {
	svc := NewListService(&spyStore{}, &fakeExtractor{}, &fakeNormalizer{})

	bad := models.ItemStatus("done")
	_, err := svc.UpdateItem(context.Background(), 1, models.ItemUpdate{Status: &bad})
	var ve utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for bad status, got %v", err)
	}

	blank := "   "
	_, err = svc.UpdateItem(context.Background(), 1, models.ItemUpdate{Name: &blank})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for blank name, got %v", err)
	}

	good := models.StatusCompleted
	if _, err := svc.UpdateItem(context.Background(), 1, models.ItemUpdate{Status: &good}); err != nil {
		t.Fatalf("expected valid update, got %v", err)
	}
}

func TestSearchValidation(t *testing.T) {
	svc := NewListService(&spyStore{}, &fakeExtractor{}, &fakeNormalizer{})

	_, err := svc.Search(context.Background(), "   ", 10)
	var ve utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for blank query, got %v", err)
	}
}
