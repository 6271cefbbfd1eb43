package rag

import (
	"strings"
	"unicode/utf8"

	"policyassist/types"
)

const (
	maxExcerptChars = 300
	// Lines shorter than this are likely headings or titles, not prose
	// worth quoting.
	minSubstantialLine = 35
)

// buildCitations derives citations from the retrieved chunks themselves,
// deduplicated by chunk id in retrieval order. The generated answer plays no
// part here.
func buildCitations(chunks []types.ScoredChunk) []types.Citation {
	seen := make(map[string]struct{}, len(chunks))
	citations := make([]types.Citation, 0, len(chunks))

	for _, c := range chunks {
		if _, ok := seen[c.ChunkID]; ok {
			continue
		}
		seen[c.ChunkID] = struct{}{}
		citations = append(citations, types.Citation{
			Page:    c.Page,
			Excerpt: smartExcerpt(c.Content),
		})
	}
	return citations
}

// smartExcerpt skips leading short lines and joins the rest into a single
// prose excerpt of at most 300 characters. When every line is short the
// whole text is used as-is.
func smartExcerpt(text string) string {
	lines := strings.Split(text, "\n")

	start := 0
	for start < len(lines) && len(strings.TrimSpace(lines[start])) < minSubstantialLine {
		start++
	}
	if start == len(lines) {
		start = 0
	}

	kept := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}

	excerpt := strings.Join(kept, " ")
	if len(excerpt) > maxExcerptChars {
		// Back up to a rune boundary so the cut never splits a multibyte
		// character.
		cut := maxExcerptChars
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = strings.TrimSpace(excerpt[:cut])
	}
	return excerpt
}
