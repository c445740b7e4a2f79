package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kuapa-ai/kuapa/internal/history"
	"github.com/kuapa-ai/kuapa/internal/language"
	"github.com/kuapa-ai/kuapa/internal/llm"
	"github.com/kuapa-ai/kuapa/internal/retriever"
)

// Advisor orchestrates one advisory turn: retrieve passages for the
// question, compose a grounded answer, and record the exchange.
type Advisor struct {
	retrieval *retriever.Service
	llm       *llm.Client
	history   *history.Store // nil when history is disabled
	logger    *slog.Logger
}

// Answer is the outcome of one advisory turn with per-stage timings.
type Answer struct {
	Response     string
	Results      []retriever.Result
	Language     string
	RetrievalMS  int64
	GenerationMS int64
}

// NewAdvisor creates an advisor. historyStore may be nil to run without
// persistence.
func NewAdvisor(retrieval *retriever.Service, llmClient *llm.Client, historyStore *history.Store, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		retrieval: retrieval,
		llm:       llmClient,
		history:   historyStore,
		logger:    logger,
	}
}

// Ask answers a question. When lang is empty the language is detected
// from the question; when phone is non-empty the exchange is recorded
// against that user's active conversation.
func (a *Advisor) Ask(ctx context.Context, question, lang, phone string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is empty")
	}
	if lang == "" {
		lang, _ = language.Detect(question)
	}

	ragStart := time.Now()
	results := a.retrieval.RetrieveContext(question)
	ragMS := time.Since(ragStart).Milliseconds()
	a.logger.Info("retrieved context", "chunks", len(results), "language", lang)

	llmStart := time.Now()
	response, err := a.llm.Answer(ctx, question, results, lang)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	llmMS := time.Since(llmStart).Milliseconds()

	a.record(ctx, phone, question, response, lang)

	return &Answer{
		Response:     response,
		Results:      results,
		Language:     lang,
		RetrievalMS:  ragMS,
		GenerationMS: llmMS,
	}, nil
}

// AskStream answers a question and streams the response through handler.
func (a *Advisor) AskStream(ctx context.Context, question, lang string, handler llm.StreamHandler) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is empty")
	}
	if lang == "" {
		lang, _ = language.Detect(question)
	}

	results := a.retrieval.RetrieveContext(question)
	a.logger.Info("retrieved context", "chunks", len(results), "language", lang)

	var full strings.Builder
	err := a.llm.AnswerStream(ctx, question, results, lang, func(content string, done bool) error {
		full.WriteString(content)
		return handler(content, done)
	})
	if err != nil {
		return err
	}

	a.record(ctx, "", question, full.String(), lang)
	return nil
}

// Transcribe turns an audio payload into text and detects its language.
func (a *Advisor) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, string, error) {
	text, err := a.llm.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", "en", err
	}
	lang, _ := language.Detect(text)
	return text, lang, nil
}

// Retrieve exposes raw retrieval results for the search endpoint.
func (a *Advisor) Retrieve(query string, k int) []retriever.Result {
	return a.retrieval.Search(query, k)
}

// ChunkCount returns the number of indexed corpus entries.
func (a *Advisor) ChunkCount() int {
	return a.retrieval.Len()
}

// CheckHealth checks whether the generative backend is reachable.
func (a *Advisor) CheckHealth(ctx context.Context) error {
	return a.llm.CheckHealth(ctx)
}

// record persists an exchange. History failures are logged, never
// surfaced: answering the farmer always wins over bookkeeping.
func (a *Advisor) record(ctx context.Context, phone, question, response, lang string) {
	if a.history == nil || phone == "" {
		return
	}

	user, err := a.history.EnsureUser(ctx, phone)
	if err != nil {
		a.logger.Warn("history: ensure user failed", "error", err)
		return
	}
	conv, err := a.history.ActiveConversation(ctx, user.ID)
	if err != nil {
		a.logger.Warn("history: conversation lookup failed", "error", err)
		return
	}
	if err := a.history.AppendMessage(ctx, conv.ID, "user", question, lang); err != nil {
		a.logger.Warn("history: append user message failed", "error", err)
		return
	}
	if err := a.history.AppendMessage(ctx, conv.ID, "assistant", response, lang); err != nil {
		a.logger.Warn("history: append assistant message failed", "error", err)
	}
}
