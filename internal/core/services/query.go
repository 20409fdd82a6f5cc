package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// contextSeparator joins retrieved passages in the prompt.
const contextSeparator = "\n\n"

// QueryConfig holds answer synthesis options.
type QueryConfig struct {
	// MaxContextChars bounds the retrieved text placed in the prompt.
	MaxContextChars int

	// Generate is passed through to the synthesizer.
	Generate driven.GenerateOptions
}

// QueryService answers questions from retrieved passages.
// Answers are never cached; every question runs retrieval and synthesis.
type QueryService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       QueryConfig
}

// NewQueryService creates a new query service.
func NewQueryService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg QueryConfig,
) *QueryService {
	return &QueryService{retriever: retriever, llm: llm, prompts: prompts, cfg: cfg}
}

// Answer retrieves context and returns the synthesizer's output verbatim.
// When nothing is retrieved the synthesizer still runs, with the no-context
// signal in place of the passages.
func (s *QueryService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	logger.Section("Answer")

	retrieved, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, report("retrieve", err)
	}

	prompt, noContext, err := s.compose(retrieved)
	if err != nil {
		return nil, report("compose prompt", err)
	}
	logger.Debug("Prompt: %d characters, no context: %v", utf8.RuneCountInString(prompt), noContext)

	text, err := s.llm.Generate(ctx, prompt, s.cfg.Generate)
	if err != nil {
		return nil, report("generate answer", err)
	}

	return &domain.Answer{
		Text:      text,
		Sources:   retrieved.Results,
		NoContext: noContext,
	}, nil
}

// compose fills the answer template with the bounded context and the question.
func (s *QueryService) compose(r *domain.RetrievalResult) (string, bool, error) {
	template, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", false, fmt.Errorf("%w: load answer prompt: %w", domain.ErrInternal, err)
	}

	passages := BoundContext(r.Texts(), s.cfg.MaxContextChars)
	noContext := strings.TrimSpace(passages) == ""
	if noContext {
		passages, err = s.prompts.Load(driven.PromptNoContext)
		if err != nil {
			return "", false, fmt.Errorf("%w: load no-context prompt: %w", domain.ErrInternal, err)
		}
	}

	return fmt.Sprintf(template, passages, r.Question), noContext, nil
}

// BoundContext joins passages with blank lines, keeping whole passages in
// relevance order while they fit within limit characters. A first passage
// longer than limit is truncated so the prompt always carries the best match.
// A limit of zero or less disables the bound.
func BoundContext(passages []string, limit int) string {
	if limit <= 0 {
		return strings.Join(passages, contextSeparator)
	}

	var b strings.Builder
	used := 0
	for i, p := range passages {
		n := utf8.RuneCountInString(p)
		sep := 0
		if i > 0 {
			sep = len(contextSeparator)
		}
		if used+sep+n > limit {
			if i == 0 {
				b.WriteString(string([]rune(p)[:limit]))
			}
			break
		}
		if i > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(p)
		used += sep + n
	}
	return b.String()
}
