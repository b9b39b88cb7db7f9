package errors

import (
	"strings"
	"unicode"
)

// Ref schemes understood by the resource loader.
const (
	SchemeHTTP  = "http://"
	SchemeHTTPS = "https://"
	SchemeBlob  = "blob:"
)

// maxRefLength bounds image refs stored in layers and share tokens.
const maxRefLength = 2048

// ValidateRef validates an image resource reference.
//
// A ref is one of:
//   - an http or https URL
//   - a session-local "blob:<id>" reference
//   - a file path (absolute, or relative to the asset root)
//
// Validation rules:
//   - Ref cannot be empty
//   - Maximum length of 2048 characters
//   - No control characters
//   - Relative paths cannot contain traversal sequences (..)
func ValidateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidRef, "image ref cannot be empty")
	}
	if len(ref) > maxRefLength {
		return New(ErrCodeInvalidRef, "image ref too long (max %d characters)", maxRefLength)
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRef, "image ref contains invalid control characters")
		}
	}

	switch {
	case strings.HasPrefix(ref, SchemeHTTP), strings.HasPrefix(ref, SchemeHTTPS):
		return ValidateURL(ref)
	case strings.HasPrefix(ref, SchemeBlob):
		if strings.TrimPrefix(ref, SchemeBlob) == "" {
			return New(ErrCodeInvalidRef, "blob ref has no id")
		}
		return nil
	case strings.Contains(ref, "://"):
		return New(ErrCodeUnsupported, "unsupported ref scheme: %q", ref)
	}

	if strings.Contains(ref, "..") {
		return New(ErrCodeInvalidRef, "image ref cannot contain path traversal sequences (..)")
	}
	return nil
}

// ValidatePath validates a file path within the asset root for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//
// Unlike refs, catalog paths may start with "/" because they are anchored
// at the asset root rather than the filesystem root.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, SchemeHTTP) && !strings.HasPrefix(rawURL, SchemeHTTPS) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
