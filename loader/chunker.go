package loader

import (
	"fmt"
	"strings"

	"policyassist/types"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separator hierarchy, coarse to fine. The empty string is the character
// fallback for text with no split points at all.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits page text into overlapping chunks. Splits happen on the
// coarsest separator that keeps pieces within the size limit; adjacent
// chunks share up to overlap characters of context.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits every page of doc and stamps each piece with page, source and
// a deterministic chunk id: {source}_p{page}_c{index}. The index runs across
// the whole document, so chunking the same input twice yields the same ids.
func (c *Chunker) Chunk(doc *Document) []types.Chunk {
	var chunks []types.Chunk
	index := 0

	for _, page := range doc.Pages {
		for _, text := range c.splitText(page.Text) {
			chunks = append(chunks, types.Chunk{
				ChunkID:  fmt.Sprintf("%s_p%d_c%d", doc.Source, page.Number, index),
				Content:  text,
				Page:     page.Number,
				Source:   doc.Source,
				Position: index,
			})
			index++
		}
	}
	return chunks
}

func (c *Chunker) splitText(text string) []string {
	return c.splitRecursive(text, separators)
}

func (c *Chunker) splitRecursive(text string, seps []string) []string {
	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		splits = hardCut(text, c.chunkSize, c.overlap)
	} else {
		splits = splitKeep(text, sep)
	}

	var final []string
	var good []string
	for _, s := range splits {
		if len(s) <= c.chunkSize {
			good = append(good, s)
			continue
		}
		// Oversized piece: flush what we have and split it with finer
		// separators.
		final = append(final, c.merge(good)...)
		good = nil
		final = append(final, c.splitRecursive(s, rest)...)
	}
	return append(final, c.merge(good)...)
}

// merge packs small pieces into chunks up to chunkSize. On flush the tail
// pieces totalling at most overlap characters carry over into the next
// chunk.
func (c *Chunker) merge(pieces []string) []string {
	var out []string
	var cur []string
	curLen := 0

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(cur, ""))
		if chunk != "" {
			out = append(out, chunk)
		}
	}

	for _, p := range pieces {
		if curLen+len(p) > c.chunkSize && curLen > 0 {
			flush()
			for len(cur) > 0 && (curLen > c.overlap || curLen+len(p) > c.chunkSize) {
				curLen -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	flush()
	return out
}

// splitKeep splits on sep but keeps the separator attached to the preceding
// piece, so no characters are lost when pieces are re-joined.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// hardCut is the last resort for text without any separator: fixed-size
// character windows stepping by size-overlap.
func hardCut(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}
	var out []string
	step := size - overlap
	for i := 0; i < len(text); i += step {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[i:end])
		if end == len(text) {
			break
		}
	}
	return out
}
