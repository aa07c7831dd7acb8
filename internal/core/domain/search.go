package domain

// QueryState is a stage of answering a single question.
type QueryState string

// Question lifecycle states, in pipeline order.
const (
	QueryStateReceived        QueryState = "RECEIVED"
	QueryStateEmbedding       QueryState = "EMBEDDING"
	QueryStateRetrieving      QueryState = "RETRIEVING"
	QueryStateContextAssembly QueryState = "CONTEXT_ASSEMBLY"
	QueryStateGenerating      QueryState = "GENERATING"
	QueryStateDone            QueryState = "DONE"
	QueryStateFailed          QueryState = "FAILED"
)

// IsTerminal returns true for DONE and FAILED.
func (s QueryState) IsTerminal() bool {
	return s == QueryStateDone || s == QueryStateFailed
}

// String returns the string representation.
func (s QueryState) String() string {
	return string(s)
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query vector.
	Score float64

	// Rank is the 1-based position in the result list.
	Rank int
}

// Answer is the outcome of one question.
type Answer struct {
	// ID correlates log lines for this question.
	ID string

	// Question is the trimmed question text.
	Question string

	// Text is the final answer.
	Text string

	// Sources are the chunks used as context, best first.
	Sources []ScoredChunk

	// State is the last state reached.
	State QueryState

	// Turns is the number of generation calls made.
	Turns int

	// ContextTruncated is set when the token budget cut the context short.
	ContextTruncated bool
}
