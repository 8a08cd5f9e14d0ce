package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

// Result summarizes a completed ingestion.
type Result struct {
	FileName string
	FileType string
	Chunks   int
	Preview  string
}

// Ingestor runs the extract, chunk, embed-and-store pipeline for one file.
type Ingestor struct {
	extractor Extractor
	chunker   Chunker
	index     vectorindex.Index
	log       *slog.Logger
}

func NewIngestor(extractor Extractor, chunker Chunker, index vectorindex.Index, log *slog.Logger) *Ingestor {
	if extractor == nil {
		extractor = FileExtractor{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{extractor: extractor, chunker: chunker, index: index, log: log}
}

// IngestFile extracts, chunks, and indexes one file for the user. Re-ingesting
// the same file name replaces the prior version.
func (g *Ingestor) IngestFile(ctx context.Context, userID, path string) (*Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("ingest: user id is required")
	}

	extracted, err := g.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	pieces := g.chunker.Split(extracted.Text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("ingest %s: no content extracted", extracted.FileName)
	}

	// Stale chunks from an earlier ingestion of this file must not linger.
	err = g.index.DeleteByMetadata(ctx, vectorindex.Filter{
		UserID:   userID,
		FileName: extracted.FileName,
	})
	if err != nil {
		g.log.Warn("ingest: could not clear prior version", "file", extracted.FileName, "error", err)
	}

	now := time.Now()
	chunks := make([]vectorindex.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, vectorindex.Chunk{
			Text: piece,
			Metadata: vectorindex.Metadata{
				FileName:      extracted.FileName,
				FileType:      extracted.FileType,
				FileSize:      extracted.FileSize,
				IngestionTime: now,
				ChunkIndex:    i,
				ChunkCount:    len(pieces),
			},
		})
	}
	if err := g.index.Add(ctx, userID, chunks); err != nil {
		return nil, fmt.Errorf("index %s: %w", extracted.FileName, err)
	}

	g.log.Info("ingested file",
		"user_id", userID,
		"file", extracted.FileName,
		"chunks", len(pieces))

	return &Result{
		FileName: extracted.FileName,
		FileType: extracted.FileType,
		Chunks:   len(pieces),
		Preview:  preview(extracted.Text),
	}, nil
}

// DeleteDocument removes every chunk of the named file for the user.
func (g *Ingestor) DeleteDocument(ctx context.Context, userID, fileName string) error {
	if userID == "" || fileName == "" {
		return fmt.Errorf("delete document: user id and file name are required")
	}
	err := g.index.DeleteByMetadata(ctx, vectorindex.Filter{UserID: userID, FileName: fileName})
	if err != nil {
		return fmt.Errorf("delete %s: %w", fileName, err)
	}
	return nil
}

func preview(text string) string {
	const max = 100
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
