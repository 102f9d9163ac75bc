package ai

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits free text into bounded fragments sized for embedding input.
// Pure string policy, no side effects.
type Chunker struct {
	maxChars int
	maxCount int
}

func NewChunker(maxChars, maxCount int) *Chunker {
	if maxChars <= 0 {
		maxChars = 1000
	}
	if maxCount <= 0 {
		maxCount = 20
	}
	return &Chunker{maxChars: maxChars, maxCount: maxCount}
}

// Chunk splits on sentence-terminal punctuation, trims each fragment, drops
// empty fragments and fragments at or above the length cap, and keeps only
// the first maxCount fragments. Overlong fragments are noise, not something
// to truncate; silently cutting a sentence in half would corrupt its meaning.
func (c *Chunker) Chunk(text string) []string {
	parts := strings.FieldsFunc(strings.TrimSpace(text), func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		// Length cap counts characters, not bytes; profile text is often
		// multibyte (Devanagari names, regional languages).
		if part == "" || utf8.RuneCountInString(part) >= c.maxChars {
			continue
		}
		chunks = append(chunks, part)
		if len(chunks) >= c.maxCount {
			break
		}
	}
	return chunks
}
