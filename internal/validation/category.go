package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxCategoryLength is counted in characters, not bytes.
const MaxCategoryLength = 100

// NormalizeCategory trims and NFC-normalizes a category so that composed and
// decomposed spellings ("manhã") map to the same unique value.
func NormalizeCategory(category string) (string, error) {
	normalized := norm.NFC.String(strings.TrimSpace(category))

	if normalized == "" {
		return "", errors.New("category is required")
	}

	if utf8.RuneCountInString(normalized) > MaxCategoryLength {
		return "", errors.New("category is too long (max 100 characters)")
	}

	return normalized, nil
}
