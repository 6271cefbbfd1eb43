// Package rag orchestrates classification-aware retrieval, confidence
// scoring, strictly grounded generation, and citation assembly.
//
// Confidence and citations are computed here from retrieval scores and chunk
// metadata, never from generated text: the model is not a trustworthy source
// of provenance or of calibrated certainty.
package rag

import (
	"context"
	"fmt"
	"strings"

	"policyassist/model"
	"policyassist/store"
	"policyassist/types"
)

const (
	// RefusalAnswer is the exact sentinel the generator must return when the
	// context cannot answer the question.
	RefusalAnswer = "The document does not contain this information."
	// RefusalScenario is the scenario-analysis counterpart.
	RefusalScenario = "The document does not contain a policy for this scenario."

	// injectedTableScore ranks table chunks ahead of regular retrieval for
	// numeric lookups. It is an artificial rank, not a cosine similarity,
	// and is therefore excluded from confidence computation.
	injectedTableScore = 0.9

	maxContextTokens = 3000

	noContentAnswer = "No relevant content was found in the uploaded documents. " +
		"Please upload policy documents first or rephrase your question."
	uploadSuggestion = "Upload policy documents before asking questions."
	gapSuggestion    = "This topic appears to be missing from the uploaded documents. " +
		"Consider adding a policy section that covers it."
)

const answerSystem = "You are PolicyAssist, a policy intelligence assistant. " +
	"Answer the question using ONLY the provided context from policy documents. " +
	"Quote the exact clause and page number that supports your answer. " +
	"If the context does not contain the answer, reply with exactly: " +
	"\"" + RefusalAnswer + "\" " +
	"Never invent page numbers, clauses, or citations. " +
	"Do not open with phrases like 'Based on the context' or 'According to the documents'. " +
	"Be concise."

const scenarioSystem = "You are PolicyAssist, an AI compliance advisor. " +
	"Analyze the scenario against the provided policy context ONLY. " +
	"Explain the likely outcome, referencing the exact clause text and page numbers that apply. " +
	"If no policy in the context covers the scenario, reply with exactly: " +
	"\"" + RefusalScenario + "\" " +
	"Never invent page numbers, clauses, or citations. " +
	"Do not open with meta commentary. Be concise."

// Answerer answers questions and analyzes scenarios against indexed policy
// documents.
type Answerer struct {
	store     store.VectorStorer
	embedder  model.Embedder
	generator model.Generator
}

func NewAnswerer(s store.VectorStorer, e model.Embedder, g model.Generator) *Answerer {
	return &Answerer{store: s, embedder: e, generator: g}
}

// Answer runs the grounded Q&A pipeline: retrieve topK chunks, widen with
// table chunks for numeric lookups, score confidence from retrieval, generate
// under the strict system instruction, and build citations from the chunks
// that were actually retrieved.
func (a *Answerer) Answer(ctx context.Context, question, collection string, topK int, label types.QueryLabel) (*types.AnswerResult, error) {
	retrieved, err := a.retrieve(ctx, question, collection, topK, label)
	if err != nil {
		return nil, err
	}

	if len(retrieved.chunks) == 0 {
		return &types.AnswerResult{
			Answer:      noContentAnswer,
			Confidence:  types.ConfidenceLow,
			Sources:     []types.Citation{},
			GapDetected: true,
			Suggestion:  uploadSuggestion,
			QueryType:   label,
		}, nil
	}

	confidence := confidenceFor(retrieved.genuineScores)

	output, err := a.generator.Generate(ctx, answerSystem, buildPrompt(retrieved.chunks, "Question", question))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(output), RefusalAnswer) {
		return &types.AnswerResult{
			Answer:      RefusalAnswer,
			Confidence:  types.ConfidenceLow,
			Sources:     []types.Citation{},
			GapDetected: true,
			Suggestion:  gapSuggestion,
			QueryType:   label,
		}, nil
	}

	return &types.AnswerResult{
		Answer:     strings.TrimSpace(output),
		Confidence: confidence,
		Sources:    buildCitations(retrieved.chunks),
		QueryType:  label,
	}, nil
}

// AnalyzeScenario reuses the retrieval, confidence and citation machinery
// with the compliance-advisor instruction and its own refusal sentinel.
func (a *Answerer) AnalyzeScenario(ctx context.Context, scenario, collection string, topK int) (*types.ScenarioResult, error) {
	retrieved, err := a.retrieve(ctx, scenario, collection, topK, types.ScenarioAnalysis)
	if err != nil {
		return nil, err
	}

	if len(retrieved.chunks) == 0 {
		return &types.ScenarioResult{
			Scenario:    scenario,
			Outcome:     noContentAnswer,
			Confidence:  types.ConfidenceLow,
			Sources:     []types.Citation{},
			GapDetected: true,
			Suggestion:  uploadSuggestion,
		}, nil
	}

	confidence := confidenceFor(retrieved.genuineScores)

	output, err := a.generator.Generate(ctx, scenarioSystem, buildPrompt(retrieved.chunks, "Scenario", scenario))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(output), RefusalScenario) {
		return &types.ScenarioResult{
			Scenario:    scenario,
			Outcome:     RefusalScenario,
			Confidence:  types.ConfidenceLow,
			Sources:     []types.Citation{},
			GapDetected: true,
			Suggestion:  gapSuggestion,
		}, nil
	}

	return &types.ScenarioResult{
		Scenario:   scenario,
		Outcome:    strings.TrimSpace(output),
		Confidence: confidence,
		Sources:    buildCitations(retrieved.chunks),
	}, nil
}

// Summarize condenses raw section text. Empty input short-circuits without a
// generator call.
func (a *Answerer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "No content to summarize.", nil
	}

	system := "You are PolicyAssist. Summarize the following section from a policy document " +
		"in simple, clear language. Preserve key points (rules, deadlines, conditions). " +
		"Do not add information that is not in the text."
	output, err := a.generator.Generate(ctx, system, "Section:\n"+text+"\n\nProvide a concise summary.")
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(output), nil
}

type retrieval struct {
	chunks []types.ScoredChunk
	// genuineScores holds only real cosine-derived relevance scores, not the
	// injected ranks of merged table chunks.
	genuineScores []float64
}

func (a *Answerer) retrieve(ctx context.Context, query, collection string, topK int, label types.QueryLabel) (*retrieval, error) {
	vec, err := a.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	scored, err := a.store.SearchWithScores(ctx, collection, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	genuine := make([]float64, len(scored))
	for i, s := range scored {
		genuine[i] = s.Score
	}

	chunks := scored
	if label == types.NumericLookup {
		tables, err := a.store.SearchTables(ctx, collection, vec, topK)
		if err != nil {
			return nil, fmt.Errorf("table search failed: %w", err)
		}
		chunks = mergeTablesFirst(scored, tables)
	}

	return &retrieval{chunks: chunks, genuineScores: genuine}, nil
}

// mergeTablesFirst puts table chunks ahead of the regular results with an
// injected rank, skipping tables the regular search already returned.
func mergeTablesFirst(scored []types.ScoredChunk, tables []types.Chunk) []types.ScoredChunk {
	seen := make(map[string]struct{}, len(scored))
	for _, s := range scored {
		seen[s.ChunkID] = struct{}{}
	}

	var merged []types.ScoredChunk
	for _, t := range tables {
		if _, ok := seen[t.ChunkID]; ok {
			continue
		}
		merged = append(merged, types.ScoredChunk{Chunk: t, Score: injectedTableScore})
		seen[t.ChunkID] = struct{}{}
	}
	return append(merged, scored...)
}

// buildPrompt assembles the page-annotated context block followed by the
// user's text. The context is token-bounded so long retrievals do not blow
// the model's window.
func buildPrompt(chunks []types.ScoredChunk, kind, text string) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "[Page %d]\n%s", c.Page, c.Content)
	}
	contextBlock := model.TruncateTokens(sb.String(), maxContextTokens)

	return fmt.Sprintf("Context:\n%s\n\n%s:\n%s\n\nAnswer:", contextBlock, kind, text)
}
