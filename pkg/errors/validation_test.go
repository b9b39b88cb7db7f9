package errors

import (
	"strings"
	"testing"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https url", "https://example.com/pic.png", false},
		{"http url", "http://example.com/pic.png", false},
		{"blob ref", "blob:4f7c", false},
		{"catalog path", "/templates/paper.jpg", false},
		{"relative path", "stickers/cat.png", false},

		{"empty", "", true},
		{"too long", "https://x/" + strings.Repeat("a", 3000), true},
		{"empty blob", "blob:", true},
		{"ftp scheme", "ftp://example.com/a.png", true},
		{"traversal", "../etc/passwd", true},
		{"control char", "pic\x01.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) == "" {
				t.Errorf("ValidateRef(%q) returned uncoded error", tt.input)
			}
		})
	}

	if err := ValidateRef("ftp://example.com/a.png"); GetCode(err) != ErrCodeUnsupported {
		t.Errorf("ftp ref code = %q, want %q", GetCode(err), ErrCodeUnsupported)
	}
	if err := ValidateRef("../a.png"); GetCode(err) != ErrCodeInvalidRef {
		t.Errorf("traversal code = %q, want %q", GetCode(err), ErrCodeInvalidRef)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"anchored", "/predefined/pic1.png", false},
		{"nested", "templates/dark/black.jpg", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "a\x00b", true},
		{"traversal", "templates/../../x", true},
		{"backslash", "templates\\paper.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com", false},
		{"", true},
		{"javascript:alert(1)", true},
		{"file:///etc/passwd", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
