// Package vectorindex stores embedded text chunks and serves
// nearest-neighbor search filtered by user. Every read and write is scoped
// to a user_id; cross-user leakage here is a correctness violation.
package vectorindex

import (
	"context"
	"time"
)

// Metadata travels with every stored chunk.
type Metadata struct {
	FileName       string
	FileType       string
	FileSize       int64
	IngestionTime  time.Time
	ChunkIndex     int
	ChunkCount     int
	UserID         string
	PersonalMemory bool
}

// Chunk is a unit of text to index. UserID is stamped by Add.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// Result is a search hit. Distance ascends: lower means more similar.
type Result struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// Filter is a compound metadata predicate; zero-valued fields are ignored.
// PersonalMemory uses a pointer so "don't care" and "must be false" differ.
type Filter struct {
	UserID         string
	FileName       string
	PersonalMemory *bool
}

// DocumentInfo summarizes one ingested file's presence in the index.
type DocumentInfo struct {
	FileName   string
	FileType   string
	Chunks     int
	IngestedAt time.Time
}

// Index is the adapter contract over the embedding service plus ANN store.
type Index interface {
	// Add embeds and stores chunks for the user. Chunk IDs are freshly
	// generated opaque identifiers, never reused.
	Add(ctx context.Context, userID string, chunks []Chunk) error
	// Search returns up to k results filtered to the user, ordered by
	// ascending distance.
	Search(ctx context.Context, query string, k int, userID string) ([]Result, error)
	// DeleteByMetadata removes every chunk matching the compound predicate.
	DeleteByMetadata(ctx context.Context, filter Filter) error
	// Count reports the total number of stored chunks across all users.
	Count(ctx context.Context) (int, error)
	// Documents lists the user's ingested files (excluding memory exports).
	Documents(ctx context.Context, userID string) ([]DocumentInfo, error)
	Close() error
}

// BoolPtr is a convenience for Filter.PersonalMemory.
func BoolPtr(v bool) *bool { return &v }
