package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error caught before any external
// call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// allowed image mime types for uploads
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateListName checks if a list name is usable
func ValidateListName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "listName", Message: "list name is required"}
	}
	if len(name) > 255 {
		return ValidationError{Field: "listName", Message: "list name must be at most 255 characters"}
	}
	return nil
}

// ValidateText checks that analysis text is present
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ValidationError{Field: "text", Message: "text is required"}
	}
	return nil
}

// ValidateImage checks uploaded image bytes and mime type
func ValidateImage(data []byte, mimeType string) error {
	if len(data) == 0 {
		return ValidationError{Field: "image", Message: "image file is required"}
	}
	if !allowedImageTypes[mimeType] {
		return ValidationError{Field: "image", Message: fmt.Sprintf("unsupported image type: %s", mimeType)}
	}
	return nil
}

// ValidateURL checks that a link is an absolute http(s) URL
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValidationError{Field: "url", Message: "url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ValidationError{Field: "url", Message: "invalid url"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "url", Message: "url must use http or https"}
	}
	return nil
}
