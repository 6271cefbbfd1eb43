package types

import (
	"fmt"
	"time"
)

// DefaultCollection is the shared collection regular uploads are indexed
// into. Compare uploads go to isolated "compare_<uuid>" collections and must
// never mix with it.
const DefaultCollection = "policy_docs"

// QueryLabel is the classifier's verdict about what kind of question the
// user asked. The label drives retrieval width and, for numeric lookups,
// table-aware retrieval.
type QueryLabel string

const (
	FactualLookup    QueryLabel = "factual_lookup"
	NumericLookup    QueryLabel = "numeric_lookup"
	ScenarioAnalysis QueryLabel = "scenario_analysis"
	SummaryRequest   QueryLabel = "summary_request"
	PolicyGap        QueryLabel = "policy_gap"
)

type QueryClass struct {
	Label  QueryLabel `json:"label"`
	TopK   int        `json:"top_k"`
	Reason string     `json:"reason"`
}

// Chunk is the atomic unit of retrieval: a contiguous slice of a source
// document plus the metadata citations are built from. ChunkID is
// deterministic (source, page, running index) so re-ingesting the same file
// overwrites instead of duplicating.
type Chunk struct {
	ChunkID      string `json:"chunk_id"`
	Content      string `json:"content"`
	Page         int    `json:"page"`
	Source       string `json:"source"`
	Position     int    `json:"position"`
	IsTable      bool   `json:"is_table"`
	SectionTitle string `json:"section_title"`
}

// ScoredChunk pairs a retrieved chunk with its relevance score in [0,1],
// higher meaning more relevant. Ephemeral, never persisted.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Citation is built exclusively from retrieved chunk metadata. Generated
// text never supplies page numbers or excerpts.
type Citation struct {
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
}

type AnswerResult struct {
	Answer      string     `json:"answer"`
	Confidence  Confidence `json:"confidence"`
	Sources     []Citation `json:"sources"`
	GapDetected bool       `json:"gap_detected"`
	Suggestion  string     `json:"suggestion,omitempty"`
	QueryType   QueryLabel `json:"query_type,omitempty"`
}

type ScenarioResult struct {
	Scenario    string     `json:"scenario"`
	Outcome     string     `json:"outcome"`
	Confidence  Confidence `json:"confidence"`
	Sources     []Citation `json:"sources"`
	GapDetected bool       `json:"gap_detected"`
	Suggestion  string     `json:"suggestion,omitempty"`
}

// Section is a heading-delimited slice of a document. Created at upload,
// summarized once, cached to disk keyed by upload id, never mutated after.
type Section struct {
	SectionName string `json:"section_name"`
	Text        string `json:"text,omitempty"`
	StartPage   int    `json:"start_page"`
	EndPage     int    `json:"end_page"`
	Summary     string `json:"summary,omitempty"`
}

func (s Section) PageRange() string {
	return fmt.Sprintf("%d-%d", s.StartPage, s.EndPage)
}

type DiffItem struct {
	Page       int     `json:"page"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

type DiffResult struct {
	SourceA     string     `json:"source_a"`
	SourceB     string     `json:"source_b"`
	AddedInB    []DiffItem `json:"added_in_b"`
	RemovedInB  []DiffItem `json:"removed_in_b"`
	CommonCount int        `json:"common_count"`
	Summary     string     `json:"summary"`
}

type UploadResult struct {
	Message          string    `json:"message"`
	FileID           string    `json:"file_id"`
	Filename         string    `json:"filename"`
	ChunksIngested   int       `json:"chunks_ingested"`
	TablesIngested   int       `json:"tables_ingested"`
	SectionsDetected int       `json:"sections_detected"`
	Timestamp        time.Time `json:"timestamp"`
}

type Config struct {
	ServerAddr   string
	UploadsDir   string
	SectionsDir  string
	ChunkSize    int
	ChunkOverlap int
	ConvertURL   string
}
