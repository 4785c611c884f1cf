package extractor

import (
	"strings"

	"label-intake-api/internal/models"
)

// Classify picks an item type and category from keywords in the label
// text. Keywords match whole words, case-insensitively.
func (e *Extractor) Classify(raw string) models.Classification {
	text := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	for _, c := range e.classes {
		for _, kw := range c.Keywords {
			if containsWord(text, strings.ToLower(strings.TrimSpace(kw))) {
				return models.Classification{ItemType: c.ItemType, Category: c.Category}
			}
		}
	}
	return e.fallback
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if bounded(text, start, end) {
			return true
		}
		offset = start + 1
	}
}

func bounded(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	return end >= len(text) || !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}
