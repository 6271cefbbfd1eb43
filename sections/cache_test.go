package sections

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyassist/types"
)

func TestCacheSaveAndLoadAll(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	first := []types.Section{
		{SectionName: "Leave Policy", Summary: "Twenty days per year.", StartPage: 1, EndPage: 2},
	}
	second := []types.Section{
		{SectionName: "Attendance", Summary: "Core hours apply.", StartPage: 3, EndPage: 3},
		{SectionName: "Benefits", Summary: "Health cover included.", StartPage: 4, EndPage: 5},
	}

	require.NoError(t, cache.Save(first, "upload-a"))
	require.NoError(t, cache.Save(second, "upload-b"))

	all, err := cache.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Leave Policy", all[0].SectionName)
	assert.Equal(t, "Attendance", all[1].SectionName)
}

func TestCacheSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	require.NoError(t, err)

	require.NoError(t, cache.Save([]types.Section{
		{SectionName: "Valid", Summary: "ok", StartPage: 1, EndPage: 1},
	}, "good"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	all, err := cache.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Valid", all[0].SectionName)
}

func TestCacheOverwriteSameUpload(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save([]types.Section{{SectionName: "v1", Summary: "s"}}, "id"))
	require.NoError(t, cache.Save([]types.Section{{SectionName: "v2", Summary: "s"}}, "id"))

	all, err := cache.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "v2", all[0].SectionName)
}

type scriptedGenerator struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (g *scriptedGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func TestSummarizeSkipsShortSections(t *testing.T) {
	gen := &scriptedGenerator{response: "A fine summary."}

	secs := []types.Section{
		{SectionName: "Tiny", Text: "too short"},
		{SectionName: "Real", Text: "This section is comfortably longer than fifty characters of policy text."},
	}

	out := Summarize(context.Background(), secs, gen)
	require.Len(t, out, 1)
	assert.Equal(t, "Real", out[0].SectionName)
	assert.Equal(t, "A fine summary.", out[0].Summary)
	assert.Equal(t, 1, gen.calls)
}

func TestSummarizeFailureYieldsPlaceholder(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("model offline")}

	secs := []types.Section{
		{SectionName: "Leave", Text: "Annual leave accrues monthly and must be approved by a manager in advance."},
	}

	out := Summarize(context.Background(), secs, gen)
	require.Len(t, out, 1)
	assert.Equal(t, "Summary unavailable.", out[0].Summary)
}

func TestSummarizeTruncatesLongSections(t *testing.T) {
	gen := &scriptedGenerator{response: "Summary."}

	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}

	Summarize(context.Background(), []types.Section{{SectionName: "Huge", Text: string(long)}}, gen)
	require.Len(t, gen.prompts, 1)
	assert.Less(t, len(gen.prompts[0]), 3200)
}
