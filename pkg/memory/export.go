package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

// ExportFileName is the synthetic file name carried by every memory export
// chunk. At most one such chunk exists per user at any time.
const ExportFileName = "personal_memories"

// Exporter projects a user's structured memory snapshot into the vector
// index as one synthetic searchable document. Each export deletes the prior
// export before inserting the new one (the index has no partial update), so
// a concurrent search may briefly see no memory chunk.
type Exporter struct {
	manager *Manager
	index   vectorindex.Index
	log     *slog.Logger
}

func NewExporter(manager *Manager, index vectorindex.Index, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{manager: manager, index: index, log: log}
}

// Export refreshes the user's memory document in the index. It is safe to
// call repeatedly; the last writer wins. Returns false when the index could
// not be updated.
func (e *Exporter) Export(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}

	err := e.index.DeleteByMetadata(ctx, vectorindex.Filter{
		UserID:         userID,
		FileName:       ExportFileName,
		PersonalMemory: vectorindex.BoolPtr(true),
	})
	if err != nil {
		e.log.Warn("memory export: could not clear prior export", "user_id", userID, "error", err)
	}

	snap, err := e.manager.List(ctx, userID, "")
	if err != nil {
		e.log.Error("memory export: load failed", "user_id", userID, "error", err)
		return false
	}

	text, hasContent := renderExport(userID, snap)
	if !hasContent {
		// Nothing to export; the deletion above already left zero chunks.
		return true
	}

	chunk := vectorindex.Chunk{
		Text: text,
		Metadata: vectorindex.Metadata{
			FileName:       ExportFileName,
			FileType:       ".memory",
			FileSize:       int64(len(text)),
			IngestionTime:  time.Now(),
			ChunkIndex:     0,
			ChunkCount:     1,
			PersonalMemory: true,
		},
	}
	if err := e.index.Add(ctx, userID, []vectorindex.Chunk{chunk}); err != nil {
		e.log.Error("memory export: insert failed", "user_id", userID, "error", err)
		return false
	}
	return true
}

// renderExport serializes the snapshot into one text block. The contacts
// category is deliberately excluded: contact facts mentioned inside ingested
// documents should not be shadowed by the structured memory version.
func renderExport(userID string, snap Snapshot) (string, bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "PERSONAL MEMORIES AND INFORMATION FOR USER %s:\n\n", userID)
	b.WriteString("=== USER'S PERSONAL INFORMATION ===\n")
	fmt.Fprintf(&b, "This section contains personal details for user %s.\n\n", userID)

	hasContent := false
	for _, cat := range categoryOrder {
		if cat == CategoryContacts {
			continue
		}
		recs := snap[cat]
		if len(recs) == 0 {
			continue
		}
		hasContent = true
		fmt.Fprintf(&b, "=== %s ===\n", strings.ToUpper(string(cat)))
		for _, key := range sortedKeys(recs) {
			rec := recs[key]
			fmt.Fprintf(&b, "- %s: %s", key, rec.Value)
			if rec.Description != "" {
				fmt.Fprintf(&b, " (%s)", rec.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String(), hasContent
}
