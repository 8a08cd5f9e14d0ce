// Package intent classifies free-text queries as memory writes, memory
// reads, or passthrough, before any retrieval happens. Pattern matching is
// deliberately layered and ordered: WRITE templates fail closed with a help
// prompt, READ lookups degrade gracefully toward a full-store listing.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dotsetgreg/secondbrain/pkg/memory"
)

// Kind tags a terminal resolution.
type Kind int

const (
	KindWrite Kind = iota
	KindRead
)

// Resolution is the finished answer for a WRITE or READ intent. A nil
// *Resolution from Resolve means passthrough: the caller should run document
// retrieval and generation instead.
type Resolution struct {
	Kind       Kind
	Response   string
	Sources    []string
	Confidence float64
}

// memorySource attributes direct memory answers.
var memorySource = []string{memory.ExportFileName}

// Resolver executes memory commands against the store. The exporter keeps
// the vector index fresh after successful recalls.
type Resolver struct {
	memory   *memory.Manager
	exporter *memory.Exporter
	log      *slog.Logger
}

func NewResolver(mem *memory.Manager, exporter *memory.Exporter, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{memory: mem, exporter: exporter, log: log}
}

// Resolve runs WRITE detection first, then the trigger-keyword check, then
// READ detection. Order matters: "memorize my phone number as X" contains a
// READ trigger substring but must always classify as a write.
func (r *Resolver) Resolve(ctx context.Context, userID, query string) *Resolution {
	query = strings.TrimSpace(query)
	if userID == "" || query == "" {
		return nil
	}

	if res := r.resolveWrite(ctx, userID, query); res != nil {
		return res
	}
	if hasWriteTrigger(query) {
		// A memorize trigger with no matching template is a failed write
		// attempt, never a document query.
		return &Resolution{Kind: KindWrite, Response: helpMessage, Confidence: 0.0}
	}
	return r.resolveRead(ctx, userID, query)
}

// writeTriggers mark a query as a memory command even when no template
// extracts anything usable from it.
var writeTriggers = []string{
	"memorize",
	"remember this",
	"store this",
	"save this",
	"remember my",
	"memorize my",
}

func hasWriteTrigger(query string) bool {
	lower := strings.ToLower(query)
	for _, trigger := range writeTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// titleCase uppercases the first letter of each word. Used for person names
// in responses; standardized keys store them lowercased.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

const helpMessage = `I couldn't understand that memory command. Try one of these:
- "memorize my phone number as 1234567890"
- "remember that my Aadhaar is 1234-5678-9012"
- "store this: my license plate is ABC123"
- "memorize Tulasi's phone number as 9876543210"
- "Arjun owes me 5000 rupees"
- "I lent my charger to Sam"
- "remind me to call the bank tomorrow"`
