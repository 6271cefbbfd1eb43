package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyassist/types"
)

type fakeStore struct {
	scored    []types.ScoredChunk
	tables    []types.Chunk
	searchErr error
}

func (f *fakeStore) Upsert(context.Context, string, []types.Chunk, [][]float32) error { return nil }

func (f *fakeStore) Search(ctx context.Context, collection string, query []float32, k int) ([]types.Chunk, error) {
	scored, err := f.SearchWithScores(ctx, collection, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]types.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}

func (f *fakeStore) SearchWithScores(context.Context, string, []float32, int) ([]types.ScoredChunk, error) {
	return f.scored, f.searchErr
}

func (f *fakeStore) SearchTables(context.Context, string, []float32, int) ([]types.Chunk, error) {
	return f.tables, nil
}

func (f *fakeStore) FetchAll(context.Context, string) ([]types.Chunk, error) { return nil, nil }

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	return vecs[0], err
}

type fakeGenerator struct {
	response string
	err      error
	calls    int
	system   string
	prompt   string
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.calls++
	g.system = system
	g.prompt = prompt
	return g.response, g.err
}

func scoredChunk(id string, page int, score float64, content string) types.ScoredChunk {
	return types.ScoredChunk{
		Chunk: types.Chunk{ChunkID: id, Page: page, Content: content, Source: "handbook"},
		Score: score,
	}
}

const proseLine = "Employees accrue twenty days of paid annual leave per calendar year of service."

func TestConfidenceBoundaries(t *testing.T) {
	tests := []struct {
		scores []float64
		want   types.Confidence
	}{
		{[]float64{0.75}, types.ConfidenceHigh},
		{[]float64{0.749999}, types.ConfidenceMedium},
		{[]float64{0.50}, types.ConfidenceMedium},
		{[]float64{0.4999}, types.ConfidenceLow},
		{[]float64{0.3, 0.8, 0.1}, types.ConfidenceHigh},
		{nil, types.ConfidenceLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, confidenceFor(tt.scores), "scores: %v", tt.scores)
	}
}

func TestAnswerNoRetrievalIsGap(t *testing.T) {
	a := NewAnswerer(&fakeStore{}, fakeEmbedder{}, &fakeGenerator{response: "unused"})

	result, err := a.Answer(context.Background(), "any question", types.DefaultCollection, 5, types.FactualLookup)
	require.NoError(t, err)

	assert.True(t, result.GapDetected)
	assert.Empty(t, result.Sources)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
	assert.NotEmpty(t, result.Suggestion)
}

func TestAnswerRefusalSentinelIsGap(t *testing.T) {
	st := &fakeStore{scored: []types.ScoredChunk{scoredChunk("c1", 2, 0.92, proseLine)}}
	gen := &fakeGenerator{response: RefusalAnswer}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.Answer(context.Background(), "unknown topic", types.DefaultCollection, 5, types.FactualLookup)
	require.NoError(t, err)

	// The high retrieval score does not matter once the generator refuses.
	assert.True(t, result.GapDetected)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
	assert.Empty(t, result.Sources)
	assert.NotEmpty(t, result.Suggestion)
}

func TestAnswerGrounded(t *testing.T) {
	st := &fakeStore{scored: []types.ScoredChunk{
		scoredChunk("c1", 3, 0.81, proseLine),
		scoredChunk("c2", 5, 0.62, "Carry-over of unused leave requires written manager approval each December."),
	}}
	gen := &fakeGenerator{response: "Employees accrue twenty days per year (page 3)."}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.Answer(context.Background(), "How much leave do employees get?", types.DefaultCollection, 5, types.NumericLookup)
	require.NoError(t, err)

	assert.False(t, result.GapDetected)
	assert.Equal(t, types.ConfidenceHigh, result.Confidence)
	assert.Equal(t, types.NumericLookup, result.QueryType)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, 3, result.Sources[0].Page)
	assert.Contains(t, result.Sources[0].Excerpt, "twenty days")

	// Context is page-annotated and built from retrieved chunks.
	assert.Contains(t, gen.prompt, "[Page 3]")
	assert.Contains(t, gen.prompt, "[Page 5]")
}

func TestAnswerNumericMergesTablesFirst(t *testing.T) {
	st := &fakeStore{
		scored: []types.ScoredChunk{scoredChunk("text1", 1, 0.6, proseLine)},
		tables: []types.Chunk{
			{ChunkID: "tbl1", Page: 4, IsTable: true, Content: "[TABLE - Page 4]\nGrade | Limit\n--- | ---\nJunior | 50"},
			{ChunkID: "text1", Page: 1, Content: proseLine}, // already retrieved, must not duplicate
		},
	}
	gen := &fakeGenerator{response: "The junior daily limit is 50 (page 4)."}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.Answer(context.Background(), "What is the daily limit?", types.DefaultCollection, 4, types.NumericLookup)
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, 4, result.Sources[0].Page, "table citation should come first")
	assert.Equal(t, 1, result.Sources[1].Page)
}

func TestAnswerInjectedTableScoreDoesNotInflateConfidence(t *testing.T) {
	st := &fakeStore{
		scored: []types.ScoredChunk{scoredChunk("text1", 1, 0.41, proseLine)},
		tables: []types.Chunk{{ChunkID: "tbl1", Page: 2, IsTable: true, Content: "[TABLE - Page 2]\nA | B\n--- | ---\n1 | 2"}},
	}
	gen := &fakeGenerator{response: "Grounded answer."}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.Answer(context.Background(), "what is the reimbursement limit", types.DefaultCollection, 4, types.NumericLookup)
	require.NoError(t, err)

	// Genuine top score is 0.41: Low, regardless of the injected table rank.
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
}

func TestAnswerTopKZeroChunksNonNumeric(t *testing.T) {
	st := &fakeStore{tables: []types.Chunk{{ChunkID: "tbl1", Page: 1, IsTable: true, Content: "table"}}}
	a := NewAnswerer(st, fakeEmbedder{}, &fakeGenerator{response: "x"})

	// Tables are only merged for numeric lookups; a factual query with no
	// regular hits stays a gap.
	result, err := a.Answer(context.Background(), "question", types.DefaultCollection, 5, types.FactualLookup)
	require.NoError(t, err)
	assert.True(t, result.GapDetected)
}

func TestAnalyzeScenarioRefusal(t *testing.T) {
	st := &fakeStore{scored: []types.ScoredChunk{scoredChunk("c1", 1, 0.9, proseLine)}}
	gen := &fakeGenerator{response: RefusalScenario}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.AnalyzeScenario(context.Background(), "I brought my pet iguana to work", types.DefaultCollection, 7)
	require.NoError(t, err)

	assert.True(t, result.GapDetected)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "I brought my pet iguana to work", result.Scenario)
}

func TestAnalyzeScenarioGrounded(t *testing.T) {
	st := &fakeStore{scored: []types.ScoredChunk{scoredChunk("c1", 6, 0.77, proseLine)}}
	gen := &fakeGenerator{response: "Per the clause on page 6, this is allowed."}
	a := NewAnswerer(st, fakeEmbedder{}, gen)

	result, err := a.AnalyzeScenario(context.Background(), "I requested leave one day ahead", types.DefaultCollection, 7)
	require.NoError(t, err)

	assert.False(t, result.GapDetected)
	assert.Equal(t, types.ConfidenceHigh, result.Confidence)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, 6, result.Sources[0].Page)
}

func TestSummarizeEmptyTextSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{response: "unused"}
	a := NewAnswerer(&fakeStore{}, fakeEmbedder{}, gen)

	summary, err := a.Summarize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "No content to summarize.", summary)
	assert.Zero(t, gen.calls)
}

func TestGenerationFailurePropagates(t *testing.T) {
	st := &fakeStore{scored: []types.ScoredChunk{scoredChunk("c1", 1, 0.9, proseLine)}}
	a := NewAnswerer(st, fakeEmbedder{}, &fakeGenerator{err: errors.New("model offline")})

	_, err := a.Answer(context.Background(), "question", types.DefaultCollection, 5, types.FactualLookup)
	assert.Error(t, err)
}

func TestSmartExcerptSkipsLeadingShortLines(t *testing.T) {
	text := "Leave Policy\n3.2\n" + proseLine + "\nMore prose follows on the same clause."

	excerpt := smartExcerpt(text)
	assert.False(t, strings.HasPrefix(excerpt, "Leave Policy"))
	assert.True(t, strings.HasPrefix(excerpt, "Employees accrue"))
	assert.Contains(t, excerpt, "More prose follows")
}

func TestSmartExcerptAllShortLinesFallsBack(t *testing.T) {
	excerpt := smartExcerpt("Short one\nShort two")
	assert.Equal(t, "Short one Short two", excerpt)
}

func TestSmartExcerptTruncates(t *testing.T) {
	long := strings.Repeat("This clause keeps going with more words. ", 20)
	excerpt := smartExcerpt(long)
	assert.LessOrEqual(t, len(excerpt), 300)
}

func TestSmartExcerptKeepsValidUTF8(t *testing.T) {
	// A leading ASCII byte misaligns the three-byte runes so a byte cut at
	// 300 would split a character.
	long := "x" + strings.Repeat("€", 300)
	excerpt := smartExcerpt(long)

	assert.True(t, utf8.ValidString(excerpt))
	assert.LessOrEqual(t, len(excerpt), 300)
}

func TestCitationsDedupeByChunkID(t *testing.T) {
	chunks := []types.ScoredChunk{
		scoredChunk("c1", 1, 0.9, proseLine),
		scoredChunk("c1", 1, 0.8, proseLine),
		scoredChunk("c2", 2, 0.7, "Second clause about overtime compensation and scheduling of weekend work."),
	}

	citations := buildCitations(chunks)
	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Page)
	assert.Equal(t, 2, citations[1].Page)
}
