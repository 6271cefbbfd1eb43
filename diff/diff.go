// Package diff compares two isolated chunk collections and produces a
// structured semantic diff from all-pairs embedding similarity.
package diff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"policyassist/model"
	"policyassist/store"
	"policyassist/types"
)

// SimilarityThreshold separates "same content" from "semantically absent".
// A best-match score of exactly 0.70 still counts as common.
const SimilarityThreshold = 0.70

const (
	maxDiffItems    = 20
	rawExcerptChars = 250
)

var (
	ErrNoChunksBoth = errors.New("neither document was found; upload both documents for comparison first")
	ErrNoChunksA    = errors.New("document A has no indexed content")
	ErrNoChunksB    = errors.New("document B has no indexed content")
	// ErrSharedCollection rejects comparisons against the shared Q&A
	// collection, which would pollute the diff with unrelated documents.
	ErrSharedCollection = errors.New("comparison requires isolated collections, not the shared default")
)

// Engine computes semantic diffs between two collections.
type Engine struct {
	store    store.VectorStorer
	embedder model.Embedder
}

func NewEngine(s store.VectorStorer, e model.Embedder) *Engine {
	return &Engine{store: s, embedder: e}
}

// Compare fetches every chunk of both collections, batch-embeds each side in
// a single call, builds the full cosine similarity matrix, and classifies
// chunks below the threshold as removed (A's perspective) or added (B's
// perspective).
func (e *Engine) Compare(ctx context.Context, collectionA, collectionB string) (*types.DiffResult, error) {
	if collectionA == types.DefaultCollection || collectionB == types.DefaultCollection {
		return nil, ErrSharedCollection
	}

	chunksA, err := e.store.FetchAll(ctx, collectionA)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", collectionA, err)
	}
	chunksB, err := e.store.FetchAll(ctx, collectionB)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", collectionB, err)
	}

	switch {
	case len(chunksA) == 0 && len(chunksB) == 0:
		return nil, ErrNoChunksBoth
	case len(chunksA) == 0:
		return nil, fmt.Errorf("%w (collection: %s)", ErrNoChunksA, collectionA)
	case len(chunksB) == 0:
		return nil, fmt.Errorf("%w (collection: %s)", ErrNoChunksB, collectionB)
	}

	// One batch embedding call per side. The two calls are independent and
	// run concurrently.
	var (
		wg         sync.WaitGroup
		embA, embB [][]float32
		errA, errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		embA, errA = e.embedder.EmbedBatch(ctx, contents(chunksA))
	}()
	go func() {
		defer wg.Done()
		embB, errB = e.embedder.EmbedBatch(ctx, contents(chunksB))
	}()
	wg.Wait()
	if errA != nil {
		return nil, fmt.Errorf("failed to embed collection %s: %w", collectionA, errA)
	}
	if errB != nil {
		return nil, fmt.Errorf("failed to embed collection %s: %w", collectionB, errB)
	}

	sim := similarityMatrix(normalizeAll(embA), normalizeAll(embB))

	var removed, added []types.DiffItem
	commonCount := 0

	// A's perspective: chunks with no close match in B were removed. The
	// common count is taken from this pass only.
	for i, chunk := range chunksA {
		score := rowMax(sim, i)
		if chunkAbsent(score) {
			removed = append(removed, diffItem(chunk, score))
		} else {
			commonCount++
		}
	}

	// B's perspective: chunks with no close match in A were added.
	for j, chunk := range chunksB {
		score := colMax(sim, j)
		if chunkAbsent(score) {
			added = append(added, diffItem(chunk, score))
		}
	}

	// The summary reports full counts; only the emitted item lists are
	// capped.
	summary := summarize(len(removed), len(added), commonCount)
	if len(removed) > maxDiffItems {
		removed = removed[:maxDiffItems]
	}
	if len(added) > maxDiffItems {
		added = added[:maxDiffItems]
	}

	return &types.DiffResult{
		SourceA:     collectionA,
		SourceB:     collectionB,
		AddedInB:    added,
		RemovedInB:  removed,
		CommonCount: commonCount,
		Summary:     summary,
	}, nil
}

func chunkAbsent(score float64) bool {
	return score < SimilarityThreshold
}

// truncateRunes cuts s to at most max bytes without splitting a multibyte
// rune at the boundary.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func diffItem(chunk types.Chunk, score float64) types.DiffItem {
	excerpt := truncateRunes(chunk.Content, rawExcerptChars)
	return types.DiffItem{
		Page:       chunk.Page,
		Excerpt:    strings.TrimSpace(excerpt),
		Similarity: round3(score),
	}
}

func summarize(removed, added, common int) string {
	if removed == 0 && added == 0 {
		return "The two documents appear semantically identical."
	}
	var parts []string
	if removed > 0 {
		parts = append(parts, fmt.Sprintf(
			"%d section(s) from Document A have no close match in Document B - possibly revised or removed.", removed))
	}
	if added > 0 {
		parts = append(parts, fmt.Sprintf(
			"%d section(s) in Document B have no close match in Document A - possibly new content.", added))
	}
	parts = append(parts, fmt.Sprintf("%d section(s) are semantically common to both documents.", common))
	return strings.Join(parts, " ")
}

func contents(chunks []types.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return texts
}

// normalizeAll converts vectors to unit-length float64 rows so the
// similarity matrix reduces to dot products.
func normalizeAll(vectors [][]float32) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		rows[i] = model.Normalize64(row)
	}
	return rows
}

func similarityMatrix(a, b [][]float64) [][]float64 {
	sim := make([][]float64, len(a))
	for i := range a {
		sim[i] = make([]float64, len(b))
		for j := range b {
			sim[i][j] = dot(a[i], b[j])
		}
	}
	return sim
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func rowMax(sim [][]float64, i int) float64 {
	best := math.Inf(-1)
	for _, s := range sim[i] {
		if s > best {
			best = s
		}
	}
	return best
}

func colMax(sim [][]float64, j int) float64 {
	best := math.Inf(-1)
	for i := range sim {
		if sim[i][j] > best {
			best = sim[i][j]
		}
	}
	return best
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
