// Package brain wires the query pipeline: intent resolution first, then
// memory export, vector retrieval, response generation, and history upkeep.
package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotsetgreg/secondbrain/pkg/ingest"
	"github.com/dotsetgreg/secondbrain/pkg/intent"
	"github.com/dotsetgreg/secondbrain/pkg/memory"
	"github.com/dotsetgreg/secondbrain/pkg/providers"
	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

// Response is the answer shape every query returns. A query never fails
// structurally once validated; degraded paths lower Confidence instead.
type Response struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

const (
	searchTopK     = 5
	defaultTimeout = 30 * time.Second

	apologyResponse = "I encountered an error while processing your request. Please try again."
)

var (
	// ErrMissingUser and ErrEmptyQuestion are the validation failures; they
	// are the only errors HandleQuery returns.
	ErrMissingUser   = errors.New("user id is required")
	ErrEmptyQuestion = errors.New("question is required")

	// ErrNotConfigured marks operations whose collaborator was not wired.
	ErrNotConfigured = errors.New("not configured")
)

// Brain is the session orchestrator.
type Brain struct {
	resolver  *intent.Resolver
	memory    *memory.Manager
	exporter  *memory.Exporter
	index     vectorindex.Index
	ingestor  *ingest.Ingestor
	completer providers.Completer
	history   *History
	actions   *ActionLog
	auto      *AutoExporter
	timeout   time.Duration
	log       *slog.Logger
}

// Config carries the Brain's collaborators. Resolver, Memory, Exporter, and
// Index are required; a nil Completer degrades every passthrough query to
// the templated fallback.
type Config struct {
	Resolver  *intent.Resolver
	Memory    *memory.Manager
	Exporter  *memory.Exporter
	Index     vectorindex.Index
	Ingestor  *ingest.Ingestor
	Completer providers.Completer
	// AutoExport, when set, learns about active users so its scheduled
	// export passes cover them.
	AutoExport *AutoExporter
	Timeout    time.Duration
	Log        *slog.Logger
}

func New(cfg Config) (*Brain, error) {
	if cfg.Resolver == nil || cfg.Memory == nil || cfg.Exporter == nil || cfg.Index == nil {
		return nil, fmt.Errorf("brain: resolver, memory, exporter, and index are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Brain{
		resolver:  cfg.Resolver,
		memory:    cfg.Memory,
		exporter:  cfg.Exporter,
		index:     cfg.Index,
		ingestor:  cfg.Ingestor,
		completer: cfg.Completer,
		history:   NewHistory(),
		actions:   NewActionLog(),
		auto:      cfg.AutoExport,
		timeout:   cfg.Timeout,
		log:       cfg.Log,
	}, nil
}

// History exposes the conversation log, mainly for the chat front-end.
func (b *Brain) History() *History { return b.history }

// Memory exposes the structured memory manager.
func (b *Brain) Memory() *memory.Manager { return b.memory }

// HandleQuery answers one question. The returned error is non-nil only for
// validation failures; every downstream failure degrades to a well-formed
// low-confidence Response.
func (b *Brain) HandleQuery(ctx context.Context, userID, question string, useHistory bool) (Response, error) {
	if userID == "" {
		return Response{}, fmt.Errorf("handle query: %w", ErrMissingUser)
	}
	if question == "" {
		return Response{}, fmt.Errorf("handle query: %w", ErrEmptyQuestion)
	}

	b.actions.Record(userID, ActionQuery, map[string]string{"query": question})
	if b.auto != nil {
		b.auto.Track(userID)
	}

	// Memory commands short-circuit: no retrieval, no generation.
	if res := b.resolver.Resolve(ctx, userID, question); res != nil {
		return Response{
			Response:   res.Response,
			Sources:    res.Sources,
			Confidence: res.Confidence,
		}, nil
	}

	tctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Refresh the memory export so the search below sees current facts.
	if !b.exporter.Export(tctx, userID) {
		b.log.Warn("memory export before search failed", "user_id", userID)
	}

	results, err := b.index.Search(tctx, question, searchTopK, userID)
	if err != nil {
		b.log.Error("vector search failed", "user_id", userID, "error", err)
		return Response{Response: apologyResponse, Sources: []string{}, Confidence: 0.0}, nil
	}

	var turns []Turn
	if useHistory {
		turns = b.history.Recent(userID, promptHistoryTurns)
	}
	actions := b.actions.Recent(userID, promptActionCount)
	var lastImage *Action
	if img, ok := b.actions.LastImageIngest(userID); ok {
		lastImage = &img
	}

	prompt := buildPrompt(question, results, turns, actions, lastImage)

	response := b.generate(tctx, question, prompt, results)
	b.history.Append(userID, question, response.Response)
	return response, nil
}

func (b *Brain) generate(ctx context.Context, question, prompt string, results []vectorindex.Result) Response {
	if b.completer == nil {
		return fallbackAnswer(question, results)
	}

	text, err := b.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		b.log.Warn("generation failed, using templated fallback", "error", err)
		return fallbackAnswer(question, results)
	}
	return Response{Response: text, Sources: sourceNames(results), Confidence: 0.9}
}

// Ingest adds a file to the user's knowledge base and records the action so
// follow-up questions can reference it.
func (b *Brain) Ingest(ctx context.Context, userID, path string) (*ingest.Result, error) {
	if b.ingestor == nil {
		return nil, fmt.Errorf("ingest: %w", ErrNotConfigured)
	}
	result, err := b.ingestor.IngestFile(ctx, userID, path)
	if err != nil {
		return nil, err
	}
	if b.auto != nil {
		b.auto.Track(userID)
	}
	b.actions.Record(userID, ActionIngest, map[string]string{
		"file_name": result.FileName,
		"file_type": result.FileType,
		"preview":   result.Preview,
	})
	return result, nil
}

// Documents lists the user's ingested files.
func (b *Brain) Documents(ctx context.Context, userID string) ([]vectorindex.DocumentInfo, error) {
	return b.index.Documents(ctx, userID)
}

// DeleteDocument removes an ingested file from the user's knowledge base.
func (b *Brain) DeleteDocument(ctx context.Context, userID, fileName string) error {
	if b.ingestor == nil {
		return fmt.Errorf("delete document: %w", ErrNotConfigured)
	}
	return b.ingestor.DeleteDocument(ctx, userID, fileName)
}

// Status summarizes the stores behind the assistant.
type Status struct {
	DocumentChunks int `json:"document_chunks"`
	TotalMemories  int `json:"total_memories"`
}

// Status is the one anonymous operation: it requires no user id.
func (b *Brain) Status(ctx context.Context, userID string) (Status, error) {
	count, err := b.index.Count(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	st := Status{DocumentChunks: count}
	if userID != "" {
		st.TotalMemories = b.memory.Stats(ctx, userID).TotalMemories
	}
	return st, nil
}
