package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dotsetgreg/secondbrain/pkg/memory"
)

var directRecallRegex = regexp.MustCompile(`(?i)\b(?:what(?:'s| is| are)|show me|tell me|give me|do i have)\s+(?:my|any)\s+(.+?)\s*\??$`)

// knownFactWords are hard-coded recall subjects: "...my aadhaar..." is a
// memory lookup even when the sentence shape matches no recall template.
var knownFactWords = []string{"phone", "aadhaar", "address", "email", "license", "password", "username"}

// reminderWords and friends drive the READ dispatch priority inside
// resolveRead. Checked in this order; the first family that fires wins.
var (
	reminderWords = []string{"reminder", "meeting", "appointment", "schedule", "call", "todo", "to-do"}
	borrowWords   = []string{"borrow", "lent", "return", "give back", "get back"}
	debtWords     = []string{"owe", "debt", "loan", "money"}
	phoneWords    = []string{"phone", "contact", "number"}
)

func (r *Resolver) resolveRead(ctx context.Context, userID, query string) *Resolution {
	key, structural := extractRecallKey(query)
	if !structural {
		return nil
	}
	lower := strings.ToLower(query)

	switch {
	case containsAny(lower, reminderWords):
		return r.readReminders(ctx, userID)
	case containsAny(lower, borrowWords):
		return r.readBorrowedItems(ctx, userID)
	case containsAny(lower, debtWords):
		return r.readDebts(ctx, userID)
	case containsAny(lower, phoneWords):
		// Third-party phone questions ("what is John's number") belong to
		// document retrieval; only the user's own details resolve here.
		if !strings.Contains(lower, "my phone") &&
			!strings.Contains(lower, "my number") &&
			!strings.Contains(lower, "my contact") {
			return nil
		}
		return r.readRecall(ctx, userID, key, query)
	default:
		return r.readRecall(ctx, userID, key, query)
	}
}

// extractRecallKey pulls the lookup subject out of the query. The boolean
// reports whether the query structurally looks like a memory read at all.
// Deliberately narrow: "what is my X" and bare "my X" are recall-shaped,
// but a question that merely mentions "my" somewhere ("what is in my recent
// screenshot?") is document territory and must pass through.
func extractRecallKey(query string) (string, bool) {
	if m := directRecallRegex.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	lower := strings.ToLower(query)
	for _, word := range knownFactWords {
		if strings.Contains(lower, "my "+word) {
			return word, true
		}
	}
	if rest, ok := strings.CutPrefix(lower, "my "); ok {
		return strings.TrimRight(strings.TrimSpace(rest), "?"), true
	}
	return "", false
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// actionWords identify reminder-like entries inside important_notes.
var actionWords = []string{"remind", "meeting", "appointment", "call", "todo", "deadline", "schedule"}

func (r *Resolver) readReminders(ctx context.Context, userID string) *Resolution {
	notes := r.memory.ListByCategory(ctx, userID, memory.CategoryImportantNotes)

	var lines []string
	for _, note := range notes {
		haystack := strings.ToLower(note.Key + " " + note.Record.Value + " " + note.Record.Description)
		if containsAny(haystack, actionWords) {
			lines = append(lines, "- "+note.Record.Value)
		}
	}
	if len(lines) == 0 {
		return &Resolution{
			Kind:       KindRead,
			Response:   "You have no reminders or scheduled notes saved.",
			Confidence: 1.0,
		}
	}
	r.refreshExport(ctx, userID)
	return &Resolution{
		Kind:       KindRead,
		Response:   "Your reminders and notes:\n" + strings.Join(lines, "\n"),
		Sources:    memorySource,
		Confidence: 1.0,
	}
}

func (r *Resolver) readBorrowedItems(ctx context.Context, userID string) *Resolution {
	toReturn := r.memory.ItemsToReturn(ctx, userID)
	toReceive := r.memory.ItemsToReceive(ctx, userID)
	if len(toReturn) == 0 && len(toReceive) == 0 {
		return &Resolution{
			Kind:       KindRead,
			Response:   "No borrowed or lent items on record.",
			Confidence: 1.0,
		}
	}

	var b strings.Builder
	if len(toReturn) > 0 {
		b.WriteString("Items you need to return:\n")
		for _, e := range toReturn {
			item, person := splitItemPerson(e.Key)
			fmt.Fprintf(&b, "- %s to %s\n", item, titleCase(person))
		}
	}
	if len(toReceive) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Items others need to return to you:\n")
		for _, e := range toReceive {
			item, person := splitItemPerson(e.Key)
			fmt.Fprintf(&b, "- %s from %s\n", item, titleCase(person))
		}
	}
	r.refreshExport(ctx, userID)
	return &Resolution{
		Kind:       KindRead,
		Response:   strings.TrimRight(b.String(), "\n"),
		Sources:    memorySource,
		Confidence: 1.0,
	}
}

// splitItemPerson recovers "{item}" and "{person}" from the composite
// "{item}_{person}" key shape written by MemorizeBorrowedItem.
func splitItemPerson(key string) (string, string) {
	idx := strings.LastIndex(key, "_")
	if idx < 0 {
		return key, ""
	}
	return strings.ReplaceAll(key[:idx], "_", " "), key[idx+1:]
}

func (r *Resolver) readDebts(ctx context.Context, userID string) *Resolution {
	debts := r.memory.AllDebts(ctx, userID)
	if len(debts) == 0 {
		return &Resolution{
			Kind:       KindRead,
			Response:   "No debts on record.",
			Confidence: 1.0,
		}
	}

	var lines []string
	for _, debt := range debts {
		person := strings.TrimSuffix(debt.Key, "_debt")
		lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(strings.ReplaceAll(person, "_", " ")), debt.Record.Value))
	}
	r.refreshExport(ctx, userID)
	return &Resolution{
		Kind:       KindRead,
		Response:   "Money owed to you:\n" + strings.Join(lines, "\n"),
		Sources:    memorySource,
		Confidence: 1.0,
	}
}

// readRecall is the standard lookup path: exact/fuzzy recall first, then a
// substring search over every field, then the full grouped listing with a
// storage hint. It never returns nil; a structural READ match always gets a
// memory-shaped answer.
func (r *Resolver) readRecall(ctx context.Context, userID, key, query string) *Resolution {
	if key != "" {
		if rec, ok := r.memory.Recall(ctx, userID, key, ""); ok {
			r.refreshExport(ctx, userID)
			response := fmt.Sprintf("Your %s: %s", rec.OriginalKey, rec.Value)
			if rec.Description != "" {
				response += " (" + rec.Description + ")"
			}
			return &Resolution{Kind: KindRead, Response: response, Sources: memorySource, Confidence: 1.0}
		}

		hits := r.memory.Search(ctx, userID, key)
		if len(hits) == 0 {
			// Multi-word subjects get one more chance: match records
			// containing every token ("car parking spot" hits "parking spot").
			if terms := strings.Fields(key); len(terms) > 1 {
				hits = r.memory.SearchAllTerms(ctx, userID, terms)
			}
		}
		if len(hits) > 0 {
			var lines []string
			for _, hit := range hits {
				lines = append(lines, fmt.Sprintf("- %s: %s", hit.OriginalKey, hit.Record.Value))
			}
			r.refreshExport(ctx, userID)
			return &Resolution{
				Kind:       KindRead,
				Response:   "I found these related memories:\n" + strings.Join(lines, "\n"),
				Sources:    memorySource,
				Confidence: 0.8,
			}
		}
	}
	return r.readFullListing(ctx, userID)
}

const storeHint = `You can store new memories with commands like "memorize my phone number as 1234567890".`

func (r *Resolver) readFullListing(ctx context.Context, userID string) *Resolution {
	snap, err := r.memory.List(ctx, userID, "")
	if err != nil || snap.Total() == 0 {
		return &Resolution{
			Kind:       KindRead,
			Response:   "You haven't stored any personal memories yet. " + storeHint,
			Confidence: 0.3,
		}
	}

	var b strings.Builder
	b.WriteString("I couldn't find that exact memory. Here is everything you have stored:\n")
	for _, cat := range memory.Categories() {
		entries := r.memory.ListByCategory(ctx, userID, cat)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(strings.ReplaceAll(string(cat), "_", " ")))
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s: %s\n", e.OriginalKey, e.Record.Value)
		}
	}
	b.WriteString("\n" + storeHint)
	return &Resolution{
		Kind:       KindRead,
		Response:   b.String(),
		Sources:    memorySource,
		Confidence: 0.3,
	}
}

// refreshExport keeps the vector index in sync with the record the user just
// touched, so a follow-up document query sees current memory state.
func (r *Resolver) refreshExport(ctx context.Context, userID string) {
	if r.exporter == nil {
		return
	}
	if !r.exporter.Export(ctx, userID) {
		r.log.Warn("memory export after recall failed", "user_id", userID)
	}
}
