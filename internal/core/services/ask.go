package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driving"
	"github.com/sahay-labs/sahay-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// User-facing fallback messages. Ask never surfaces a raw error; every
// failure mode maps to one of these.
const (
	msgEmptyQuestion = "Please enter a question about the PM-KISAN scheme."

	msgIndexUnavailable = "I'm sorry, there was an issue accessing the PM-KISAN knowledge base. Please try again later."

	msgNoContext = "I'm sorry, I couldn't find relevant information in the PM-KISAN documents to answer your question."
)

func msgGenerationFailure(err error) string {
	return fmt.Sprintf("I apologize, but I'm having trouble generating a response right now: %v. Please try again later.", err)
}

func msgUnexpected(err error) string {
	return fmt.Sprintf("I apologize, but I encountered an unexpected error: %v. Please try rephrasing your question.", err)
}

// IndexOpener lazily opens the persisted vector index. It is called at most
// once per AskService; the returned index is held for the process lifetime.
type IndexOpener func(ctx context.Context) (driven.VectorIndex, error)

// AskService answers questions over the indexed PM-KISAN document.
//
// The index is opened lazily on the first question and shared across calls.
// Every question, whatever its outcome, appends exactly one record to the
// interaction log.
type AskService struct {
	openIndex IndexOpener
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	log       driven.InteractionLog
	topK      int
	genOpts   driven.GenerateOptions

	indexOnce sync.Once
	index     driven.VectorIndex
	indexErr  error
}

// NewAskService creates an ask service.
func NewAskService(
	openIndex IndexOpener,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	log driven.InteractionLog,
	topK int,
	genOpts driven.GenerateOptions,
) *AskService {
	return &AskService{
		openIndex: openIndex,
		embedder:  embedder,
		llm:       llm,
		log:       log,
		topK:      topK,
		genOpts:   genOpts,
	}
}

// Ask answers a question. It never returns an error: every failure mode
// maps to a fixed apologetic message, and one log record is appended
// regardless of outcome.
func (s *AskService) Ask(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return s.finish(ctx, question, nil, msgEmptyQuestion)
	}

	idx, err := s.loadIndex(ctx)
	if err != nil {
		logger.Warn("Index unavailable: %v", err)
		return s.finish(ctx, question, nil, msgIndexUnavailable)
	}

	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("Embedding query failed: %v", err)
		return s.finish(ctx, question, nil, msgUnexpected(err))
	}

	hits, err := idx.Search(ctx, queryVec, s.topK)
	if err != nil {
		logger.Warn("Index search failed: %v", err)
		return s.finish(ctx, question, nil, msgUnexpected(err))
	}
	if len(hits) == 0 {
		logger.Debug("No chunks retrieved, skipping generation")
		return s.finish(ctx, question, nil, msgNoContext)
	}

	contexts := make([]string, len(hits))
	for i, h := range hits {
		contexts[i] = h.Chunk.Content
		logger.Debug("Retrieved chunk %d: page=%d similarity=%.4f",
			i+1, h.Chunk.Page, h.Similarity)
	}

	answer, err := s.llm.Generate(ctx, buildPrompt(question, contexts), s.genOpts)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		answer = msgGenerationFailure(err)
	}
	return s.finish(ctx, question, contexts, answer)
}

// loadIndex opens the index exactly once and caches the outcome. A failed
// open is cached too: retrying on every question would just repeat the same
// filesystem error until the process restarts.
func (s *AskService) loadIndex(ctx context.Context) (driven.VectorIndex, error) {
	s.indexOnce.Do(func() {
		s.index, s.indexErr = s.openIndex(ctx)
	})
	return s.index, s.indexErr
}

// finish appends the interaction record and returns the response. A log
// write failure is reported but never changes the answer.
func (s *AskService) finish(ctx context.Context, question string, contexts []string, response string) string {
	err := s.log.Append(ctx, domain.Interaction{
		Timestamp: time.Now().UTC(),
		Query:     question,
		Context:   contexts,
		Response:  response,
	})
	if err != nil {
		logger.Warn("Failed to write interaction log: %v", err)
	}
	return response
}

// Close releases the lazily opened index, if any.
func (s *AskService) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
