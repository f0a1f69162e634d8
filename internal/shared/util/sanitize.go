package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned for upload names that cannot become part of
// an object key.
var ErrInvalidFileName = errors.New("invalid file name")

// MaxFileNameRunes caps the stored name of an uploaded document.
const MaxFileNameRunes = 120

// SanitizeFileName turns an uploaded document name into a safe last key
// element. Separators become underscores and control characters are dropped.
// Long names are shortened, keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return "", ErrInvalidFileName
	}
	return truncateName(s, MaxFileNameRunes), nil
}

func truncateName(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	ext := []rune(path.Ext(s))
	if len(ext) >= limit {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ext)]) + string(ext)
}
