package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"listify/internal/models"
	"listify/internal/utils"
)

// InputKind discriminates the three accepted input shapes.
type InputKind string

const (
	KindImage InputKind = "image"
	KindText  InputKind = "text"
	KindURL   InputKind = "url"
)

// Input is the raw, heterogeneous request payload before normalization.
type Input struct {
	Kind     InputKind
	Data     []byte // image bytes
	MimeType string // image mime type
	Text     string // pasted text
	URL      string // link to analyze
}

// Payload is the canonical extraction request handed to the model adapter.
type Payload struct {
	Prompt        string
	ImageData     []byte
	ImageMIMEType string
	SourceType    models.SourceType
	// Metadata describes the source for the caller; it is carried through
	// to persisted items as an opaque blob.
	Metadata map[string]interface{}
}

// extractionPrompt is the shared instruction set for the model. The category
// vocabulary and the empty-array contract are part of the adapter's response
// validation, so keep them in sync with extract.NormalizeItems.
const extractionPrompt = `You are an expert at extracting and structuring information from %s.

Analyze this %s and extract ALL visible list items, tasks, notes, or structured information.

For EACH item you find, provide:
- item_name: The main text/title of the item (required)
- category: Choose the most appropriate category from: groceries, tasks, contacts, events, inventory, ideas, recipes, shopping, bills, other
- quantity: Any number or quantity mentioned (if visible, otherwise null)
- notes: Any additional details, context, or descriptions
- explanation: A short, helpful explanation of what this item is or why it might be useful (1-2 sentences)

Return ONLY a valid JSON array of objects. Each object must have the structure described above.

If no list items are found, return an empty array: []`

// maxPromptText caps how much fetched page text is sent to the model.
const maxPromptText = 20000

// Normalizer converts heterogeneous inputs into a model-ready Payload.
type Normalizer struct {
	fetcher *PageFetcher
}

// NewNormalizer creates a normalizer. The fetcher is only used for URL inputs.
func NewNormalizer(fetcher *PageFetcher) *Normalizer {
	return &Normalizer{fetcher: fetcher}
}

// Normalize validates the input and produces the canonical payload.
// Locally-detectable bad input fails here, before any external call.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Payload, error) {
	switch in.Kind {
	case KindImage:
		return n.normalizeImage(in)
	case KindText:
		return n.normalizeText(in)
	case KindURL:
		return n.normalizeURL(ctx, in)
	default:
		return nil, utils.ValidationError{Field: "input", Message: fmt.Sprintf("unknown input kind: %s", in.Kind)}
	}
}

func (n *Normalizer) normalizeImage(in Input) (*Payload, error) {
	if err := utils.ValidateImage(in.Data, in.MimeType); err != nil {
		return nil, err
	}

	return &Payload{
		Prompt:        fmt.Sprintf(extractionPrompt, "images", "image"),
		ImageData:     in.Data,
		ImageMIMEType: in.MimeType,
		SourceType:    models.SourcePhoto,
		Metadata: map[string]interface{}{
			"imageType": in.MimeType,
			"imageSize": len(in.Data),
		},
	}, nil
}

func (n *Normalizer) normalizeText(in Input) (*Payload, error) {
	if err := utils.ValidateText(in.Text); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	prompt := fmt.Sprintf(extractionPrompt, "text", "text") +
		"\n\nText to analyze:\n" + truncate(text, maxPromptText)

	return &Payload{
		Prompt:     prompt,
		SourceType: models.SourceManual,
		Metadata: map[string]interface{}{
			"textLength": len(text),
		},
	}, nil
}

func (n *Normalizer) normalizeURL(ctx context.Context, in Input) (*Payload, error) {
	if err := utils.ValidateURL(in.URL); err != nil {
		return nil, err
	}

	page, err := n.fetcher.Fetch(ctx, in.URL)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(page.Text) == "" {
		return nil, utils.ValidationError{Field: "url", Message: "page has no readable content"}
	}

	var body strings.Builder
	if page.Title != "" {
		body.WriteString("Page title: " + page.Title + "\n\n")
	}
	body.WriteString(truncate(page.Text, maxPromptText))

	prompt := fmt.Sprintf(extractionPrompt, "web pages", "page content") +
		"\n\nContent from " + in.URL + ":\n" + body.String()

	return &Payload{
		Prompt:     prompt,
		SourceType: models.SourceURL,
		Metadata: map[string]interface{}{
			"url":        in.URL,
			"pageTitle":  page.Title,
			"textLength": len(page.Text),
		},
	}, nil
}

// Hostname returns the host part of a URL for derived list names, or "" when
// the URL cannot be parsed.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
