package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// charsPerToken estimates token counts from character counts.
const charsPerToken = 4

const (
	noContextNote = "No relevant context was found in the document."

	// continuePrompt follows an empty reply within the same exchange.
	continuePrompt = "Please answer the question using the context above."

	defaultSystemPrompt = "You are a helpful assistant. When answering questions, use the retrieved " +
		"context to provide accurate and detailed answers. If the context doesn't contain enough " +
		"information to fully answer a question, acknowledge this and answer with what you can " +
		"from the available context."

	defaultUserPrompt = "Context:\n%s\n\nQuestion: %s"
)

// AskConfig tunes retrieval and generation.
type AskConfig struct {
	TopK          int
	ContextTokens int
	MaxTurns      int
	Temperature   float64
	MaxTokens     int
}

// askConfigFrom derives an AskConfig from settings, filling gaps with defaults.
func askConfigFrom(settings *domain.AppSettings) AskConfig {
	cfg := AskConfig{
		TopK:          domain.DefaultTopK,
		ContextTokens: domain.DefaultContextTokens,
		MaxTurns:      domain.DefaultMaxTurns,
		Temperature:   domain.DefaultTemperature,
	}
	if settings == nil {
		return cfg
	}
	if settings.Retrieval.TopK > 0 {
		cfg.TopK = settings.Retrieval.TopK
	}
	if settings.Retrieval.ContextTokens > 0 {
		cfg.ContextTokens = settings.Retrieval.ContextTokens
	}
	if settings.Retrieval.MaxTurns > 0 {
		cfg.MaxTurns = settings.Retrieval.MaxTurns
	}
	if settings.LLM.Temperature > 0 {
		cfg.Temperature = settings.LLM.Temperature
	}
	return cfg
}

// AskService answers questions about one ingested file at a time.
type AskService struct {
	indexes  driven.IndexStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
	dataDir  string
	cfg      AskConfig
}

// NewAskService creates a new ask service reading indexes below dataDir.
// The llm and prompts parameters are optional (can be nil).
func NewAskService(
	indexes driven.IndexStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	dataDir string,
	settings *domain.AppSettings,
) *AskService {
	return &AskService{
		indexes:  indexes,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		dataDir:  dataDir,
		cfg:      askConfigFrom(settings),
	}
}

// question tracks one Ask call through its states.
type question struct {
	answer *domain.Answer
}

func (q *question) enter(state domain.QueryState) {
	q.answer.State = state
	logger.Debug("question state", "id", q.answer.ID, "state", state.String())
}

func (q *question) fail(err error) (*domain.Answer, error) {
	logger.Warn("question failed", "id", q.answer.ID, "state", q.answer.State.String(), "err", err)
	q.answer.State = domain.QueryStateFailed
	return q.answer, err
}

// Ask runs a question from RECEIVED to DONE or FAILED.
//
//nolint:gocyclo // State machine with necessary sequential steps
func (s *AskService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	q := &question{answer: &domain.Answer{
		ID:       uuid.NewString(),
		Question: strings.TrimSpace(req.Question),
	}}

	// RECEIVED
	q.enter(domain.QueryStateReceived)
	if q.answer.Question == "" {
		return q.fail(fmt.Errorf("%w: empty question", domain.ErrInvalidArgument))
	}
	if err := domain.ValidatePathComponent(req.Tenant); err != nil {
		return q.fail(fmt.Errorf("tenant %q: %w", req.Tenant, err))
	}
	if err := domain.ValidatePathComponent(req.Filename); err != nil {
		return q.fail(fmt.Errorf("filename %q: %w", req.Filename, err))
	}

	index, err := s.indexes.Load(ctx, IndexPath(s.dataDir, req.Tenant, req.Filename))
	if err != nil {
		return q.fail(fmt.Errorf("load index: %w", err))
	}
	if s.llm == nil {
		return q.fail(domain.ErrLLMUnavailable)
	}

	// EMBEDDING
	q.enter(domain.QueryStateEmbedding)
	if index.Model() != s.embedder.ModelName() {
		return q.fail(fmt.Errorf("%w: index built with %q, configured model is %q",
			domain.ErrModelMismatch, index.Model(), s.embedder.ModelName()))
	}
	vector, err := s.embedder.Embed(ctx, q.answer.Question)
	if err != nil {
		return q.fail(fmt.Errorf("embed question: %w", err))
	}

	// RETRIEVING
	q.enter(domain.QueryStateRetrieving)
	k := s.cfg.TopK
	if req.TopK > 0 {
		k = req.TopK
	}
	hits, err := index.Query(vector, k)
	if err != nil {
		return q.fail(fmt.Errorf("query index: %w", err))
	}

	// CONTEXT_ASSEMBLY
	q.enter(domain.QueryStateContextAssembly)
	contextText, used, truncated := assembleContext(hits, s.cfg.ContextTokens*charsPerToken)
	q.answer.Sources = used
	q.answer.ContextTruncated = truncated
	logger.Debug("assembled context", "id", q.answer.ID, "chunks", len(used), "truncated", truncated)

	// GENERATING
	q.enter(domain.QueryStateGenerating)
	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.systemPrompt()},
		{Role: driven.RoleUser, Content: fmt.Sprintf(s.userTemplate(), contextText, q.answer.Question)},
	}
	opts := driven.ChatOptions{MaxTokens: s.cfg.MaxTokens, Temperature: s.cfg.Temperature}

	var raw []byte
	for turn := 1; turn <= s.cfg.MaxTurns; turn++ {
		completion, err := s.llm.Chat(ctx, messages, opts)
		if err != nil {
			return q.fail(fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err))
		}
		q.answer.Turns = turn
		if strings.TrimSpace(completion.Content) != "" {
			q.answer.Text = completion.Content
			break
		}
		raw = completion.Raw
		logger.Debug("empty reply", "id", q.answer.ID, "turn", turn)
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleAssistant, Content: completion.Content},
			driven.ChatMessage{Role: driven.RoleUser, Content: continuePrompt},
		)
	}
	if q.answer.Text == "" {
		q.answer.Text = string(raw)
	}

	// DONE
	q.enter(domain.QueryStateDone)
	logger.Info("answered question", "id", q.answer.ID, "file", req.Filename, "turns", q.answer.Turns)
	return q.answer, nil
}

func (s *AskService) systemPrompt() string {
	if s.prompts == nil {
		return defaultSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// userTemplate returns the user prompt template. A customised template
// without exactly two %s placeholders is ignored.
func (s *AskService) userTemplate() string {
	if s.prompts == nil {
		return defaultUserPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil || strings.Count(tmpl, "%s") != 2 || strings.Count(tmpl, "%") != 2 {
		if err == nil {
			logger.Warn("ignoring prompt template", "prompt", driven.PromptAnswerUser,
				"reason", "needs exactly two %s placeholders")
		}
		return defaultUserPrompt
	}
	return tmpl
}

// assembleContext joins chunk contents in score order until budget
// characters are used. The first chunk that does not fit is cut to the
// remaining budget when nothing has been added yet.
func assembleContext(hits []domain.ScoredChunk, budget int) (text string, used []domain.ScoredChunk, truncated bool) {
	if len(hits) == 0 {
		return noContextNote, nil, false
	}

	const sep = "\n\n"
	var b strings.Builder
	remaining := budget

	for _, hit := range hits {
		content := hit.Chunk.Content
		cost := utf8.RuneCountInString(content)
		if b.Len() > 0 {
			cost += len(sep)
		}
		if cost > remaining {
			truncated = true
			if b.Len() == 0 && remaining > 0 {
				b.WriteString(string([]rune(content)[:remaining]))
				used = append(used, hit)
			}
			break
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(content)
		used = append(used, hit)
		remaining -= cost
	}

	if b.Len() == 0 {
		return noContextNote, nil, truncated
	}
	return b.String(), used, truncated
}
