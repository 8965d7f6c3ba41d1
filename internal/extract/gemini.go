package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"listify/internal/ingest"
)

// itemSchema forces the model to return an array of item objects; only
// item_name is required, matching NormalizeItems.
var itemSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"item_name":   {Type: genai.TypeString},
			"category":    {Type: genai.TypeString},
			"quantity":    {Type: genai.TypeString},
			"notes":       {Type: genai.TypeString},
			"explanation": {Type: genai.TypeString},
		},
		Required: []string{"item_name"},
	},
}

// GeminiExtractor implements Extractor against the Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiExtractor creates an extractor using the given API key and model.
// The timeout applies per extraction call when the caller's context carries
// no deadline of its own.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiExtractor{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Extract sends the payload to the model and returns normalized items. An
// empty slice with a nil error means the source had no list-like content.
func (g *GeminiExtractor) Extract(ctx context.Context, payload *ingest.Payload) ([]Item, error) {
	if _, ok := ctx.Deadline(); !ok && g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(payload.Prompt)}
	if len(payload.ImageData) > 0 {
		parts = append(parts, genai.NewPartFromBytes(payload.ImageData, payload.ImageMIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
		ResponseSchema:   itemSchema,
	}

	var resp *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, &ExtractionError{Err: ctx.Err()}
			}
		}

		resp, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}
		if !isRetryable(err) {
			return nil, &ExtractionError{Err: err}
		}
	}
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	text := resp.Text()
	if text == "" {
		return nil, &ExtractionError{Err: fmt.Errorf("empty model response")}
	}

	items, err := decodeItems([]byte(text))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	return NormalizeItems(items), nil
}

// isRetryable reports whether the call is worth one more attempt. Rate
// limits and server errors are transient; any other 4xx is not.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
