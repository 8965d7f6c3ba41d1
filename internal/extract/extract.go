package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"listify/internal/ingest"
)

// Item is one candidate entry returned by the extraction model, before
// persistence. Only Name is required; everything else is defaulted by
// NormalizeItems.
type Item struct {
	Name        string `json:"item_name"`
	Category    string `json:"category,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Extractor requests structured item extraction from a model. A nil/empty
// result with a nil error means the model found no list-like content; that
// is a success, distinct from an ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, payload *ingest.Payload) ([]Item, error)
}

// ExtractionError marks a model/network failure during extraction. It is
// never used for the legitimate zero-items case.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DefaultCategory is applied when the model omits a category.
const DefaultCategory = "other"

// NormalizeItems applies all field defaults in one place: items without a
// usable name are dropped, categories default to "other", and every field
// is trimmed. Call sites never re-check these.
func NormalizeItems(items []Item) []Item {
	valid := make([]Item, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}

		category := strings.ToLower(strings.TrimSpace(item.Category))
		if category == "" {
			category = DefaultCategory
		}

		valid = append(valid, Item{
			Name:        name,
			Category:    category,
			Quantity:    strings.TrimSpace(item.Quantity),
			Notes:       strings.TrimSpace(item.Notes),
			Explanation: strings.TrimSpace(item.Explanation),
		})
	}
	return valid
}

// decodeItems parses the model's JSON array response. Models occasionally
// emit quantities as bare numbers, so fields are coerced rather than
// strictly typed.
func decodeItems(data []byte) ([]Item, error) {
	text := strings.TrimSpace(string(data))

	// Tolerate stray prose around the array.
	if !strings.HasPrefix(text, "[") {
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start == -1 || end == -1 || end < start {
			return nil, fmt.Errorf("no JSON array in model response")
		}
		text = text[start : end+1]
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		items = append(items, Item{
			Name:        asString(entry["item_name"]),
			Category:    asString(entry["category"]),
			Quantity:    asString(entry["quantity"]),
			Notes:       asString(entry["notes"]),
			Explanation: asString(entry["explanation"]),
		})
	}
	return items, nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers; quantities like 5 come through here
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
