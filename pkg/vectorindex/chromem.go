package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/dotsetgreg/secondbrain/pkg/embedding"
)

const collectionName = "secondbrain"

// ChromemIndex implements Index over chromem-go, an embedded pure-Go vector
// database. All users share one collection; isolation is enforced by the
// user_id metadata filter on every query and delete.
type ChromemIndex struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder embedding.Embedder

	mu   sync.RWMutex
	docs map[string]map[string]*DocumentInfo // user_id -> file_name -> info
}

// NewChromemIndex opens the index. With a non-empty persistDir the collection
// survives restarts; otherwise everything stays in memory (tests).
func NewChromemIndex(embedder embedding.Embedder, persistDir string) (*ChromemIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("vector index: embedder is required")
	}

	var (
		db  *chromem.DB
		err error
	)
	if persistDir != "" {
		db, err = chromem.NewPersistentDB(persistDir, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent vector db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	return &ChromemIndex{
		db:       db,
		col:      col,
		embedder: embedder,
		docs:     map[string]map[string]*DocumentInfo{},
	}, nil
}

func (ix *ChromemIndex) Add(ctx context.Context, userID string, chunks []Chunk) error {
	if userID == "" {
		return fmt.Errorf("vector index add: user id is required")
	}

	for _, chunk := range chunks {
		meta := chunk.Metadata
		meta.UserID = userID
		if meta.IngestionTime.IsZero() {
			meta.IngestionTime = time.Now()
		}

		vector, err := ix.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk of %s: %w", meta.FileName, err)
		}

		doc := chromem.Document{
			ID:        uuid.NewString(),
			Content:   chunk.Text,
			Embedding: vector,
			Metadata:  encodeMetadata(meta),
		}
		if err := ix.col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk of %s: %w", meta.FileName, err)
		}

		if !meta.PersonalMemory {
			ix.trackDocument(meta)
		}
	}
	return nil
}

func (ix *ChromemIndex) Search(ctx context.Context, query string, k int, userID string) ([]Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("vector index search: user id is required")
	}
	if k <= 0 {
		k = 5
	}

	vector, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem rejects nResults larger than the collection size.
	if total := ix.col.Count(); total == 0 {
		return nil, nil
	} else if k > total {
		k = total
	}

	hits, err := ix.col.QueryEmbedding(ctx, vector, k, map[string]string{"user_id": userID}, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		meta := decodeMetadata(hit.Metadata)
		if meta.UserID != userID {
			// The where-filter already guarantees this; kept as a hard
			// isolation check because leakage would be silent otherwise.
			continue
		}
		results = append(results, Result{
			ID:       hit.ID,
			Text:     hit.Content,
			Metadata: meta,
			Distance: 1 - float64(hit.Similarity),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results, nil
}

func (ix *ChromemIndex) DeleteByMetadata(ctx context.Context, filter Filter) error {
	where := map[string]string{}
	if filter.UserID != "" {
		where["user_id"] = filter.UserID
	}
	if filter.FileName != "" {
		where["file_name"] = filter.FileName
	}
	if filter.PersonalMemory != nil {
		where["is_personal_memory"] = strconv.FormatBool(*filter.PersonalMemory)
	}
	if len(where) == 0 {
		return fmt.Errorf("delete by metadata: empty predicate")
	}

	if err := ix.col.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if filter.UserID != "" && filter.FileName != "" {
		ix.mu.Lock()
		if files := ix.docs[filter.UserID]; files != nil {
			delete(files, filter.FileName)
		}
		ix.mu.Unlock()
	}
	return nil
}

func (ix *ChromemIndex) Count(ctx context.Context) (int, error) {
	return ix.col.Count(), nil
}

// Documents reflects files added during this process lifetime.
func (ix *ChromemIndex) Documents(ctx context.Context, userID string) ([]DocumentInfo, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := ix.docs[userID]
	out := make([]DocumentInfo, 0, len(files))
	for _, info := range files {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (ix *ChromemIndex) Close() error { return nil }

func (ix *ChromemIndex) trackDocument(meta Metadata) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	files := ix.docs[meta.UserID]
	if files == nil {
		files = map[string]*DocumentInfo{}
		ix.docs[meta.UserID] = files
	}
	info := files[meta.FileName]
	if info == nil {
		info = &DocumentInfo{
			FileName:   meta.FileName,
			FileType:   meta.FileType,
			IngestedAt: meta.IngestionTime,
		}
		files[meta.FileName] = info
	}
	info.Chunks++
}

func encodeMetadata(meta Metadata) map[string]string {
	return map[string]string{
		"file_name":          meta.FileName,
		"file_type":          meta.FileType,
		"file_size":          strconv.FormatInt(meta.FileSize, 10),
		"ingestion_time":     meta.IngestionTime.Format(time.RFC3339),
		"chunk_index":        strconv.Itoa(meta.ChunkIndex),
		"chunk_count":        strconv.Itoa(meta.ChunkCount),
		"user_id":            meta.UserID,
		"is_personal_memory": strconv.FormatBool(meta.PersonalMemory),
	}
}

func decodeMetadata(raw map[string]string) Metadata {
	size, _ := strconv.ParseInt(raw["file_size"], 10, 64)
	ingested, _ := time.Parse(time.RFC3339, raw["ingestion_time"])
	index, _ := strconv.Atoi(raw["chunk_index"])
	count, _ := strconv.Atoi(raw["chunk_count"])
	personal, _ := strconv.ParseBool(raw["is_personal_memory"])
	return Metadata{
		FileName:       raw["file_name"],
		FileType:       raw["file_type"],
		FileSize:       size,
		IngestionTime:  ingested,
		ChunkIndex:     index,
		ChunkCount:     count,
		UserID:         raw["user_id"],
		PersonalMemory: personal,
	}
}
