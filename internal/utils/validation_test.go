package utils

import (
	"errors"
	"testing"
)

func TestValidateListName(t *testing.T) {
	if err := ValidateListName("Groceries"); err != nil {
		t.Errorf("expected valid name, got %v", err)
	}
	if err := ValidateListName("   "); err == nil {
		t.Error("expected error for blank name")
	}

	var ve ValidationError
	err := ValidateListName("")
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "listName" {
		t.Errorf("expected field listName, got %s", ve.Field)
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("milk\neggs"); err != nil {
		t.Errorf("expected valid text, got %v", err)
	}
	if err := ValidateText("\n\t "); err == nil {
		t.Error("expected error for whitespace-only text")
	}
}

func TestValidateImage(t *testing.T) {
	if err := ValidateImage([]byte{0xFF, 0xD8}, "image/jpeg"); err != nil {
		t.Errorf("expected valid image, got %v", err)
	}
	if err := ValidateImage(nil, "image/jpeg"); err == nil {
		t.Error("expected error for empty image")
	}
	if err := ValidateImage([]byte{0x01}, "application/pdf"); err == nil {
		t.Error("expected error for unsupported mime type")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/list", false},
		{"http://example.com", false},
		{"", true},
		{"not a url", true},
		{"ftp://example.com/file", true},
		{"/relative/path", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
