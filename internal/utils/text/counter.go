// Package text provides small text utilities shared by the generator, CMS, and
// social adapters: rune counting for length logging and paragraph splitting for
// turning generated plain text into HTML.
package text

import "strings"

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Emoji and multi-byte characters count once each.
//
// Examples:
//
//	CountRunes("hello")   // returns 5
//	CountRunes("hi🤖")    // returns 3
//	CountRunes("")        // returns 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Paragraphs splits text on blank lines and returns the trimmed, non-empty blocks.
// Line breaks inside a block are preserved.
func Paragraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	blocks := strings.Split(normalized, "\n\n")

	paragraphs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
