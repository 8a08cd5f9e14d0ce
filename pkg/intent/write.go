package intent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dotsetgreg/secondbrain/pkg/memory"
)

var (
	reminderRegex = regexp.MustCompile(`(?i)\bremind me to\s+(.+?)[.!?]*$`)
	noteRegex     = regexp.MustCompile(`(?i)\b(?:memorize|remember|note|save)(?:\s+this)?\s*[:,]?\s*(?:that\s+)?i have (?:a |an )?(meeting|appointment|call|deadline)\s+(.+?)[.!?]*$`)
	borrowedRegex = regexp.MustCompile(`(?i)\bi borrowed\s+(?:a |an |the |my )?(.+?)\s+from\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)[.!?]*$`)
	lentRegex     = regexp.MustCompile(`(?i)\bi (?:lent|loaned)\s+(?:a |an |the |my )?(.+?)\s+to\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)[.!?]*$`)
	contactRegex  = regexp.MustCompile(`(?i)\b(?:memorize|remember|store|save)\s+(?:that\s+)?([A-Za-z]+(?:\s+[A-Za-z]+)?)(?:'s)?\s+(?:phone|mobile|contact)\s*(?:number)?\s+(?:is|as)\s+([+\d][\d\-\s]{5,})`)
	debtRegex     = regexp.MustCompile(`(?i)\b([A-Za-z]+(?:\s+[A-Za-z]+)?)\s+owes me\s+(?:rs\.?\s*|inr\s*|\$\s*)?([\d,]+(?:\.\d+)?)\s*(rupees|dollars|usd|inr|euros)?`)
	factRegex     = regexp.MustCompile(`(?i)\b(?:memorize|remember|store|save|note)(?:\s+this)?\s*[:,]?\s*(?:that\s+)?my\s+(.+?)\s+(?:is|are|as)\s+(.+?)[.!?]*$`)
	catchAllRegex = regexp.MustCompile(`(?i)^(?:memorize|remember this|store this|save this)\s*[:,]?\s*(?:that\s+)?(.+)$`)
)

// credentialWords route generic facts into the credentials category.
var credentialWords = []string{"password", "passcode", "pin", "username", "login", "secret"}

// writeRule pairs a template with its store mutation. Rules are evaluated in
// order; the first matching template wins.
type writeRule struct {
	re    *regexp.Regexp
	apply func(ctx context.Context, r *Resolver, userID string, m []string) *Resolution
}

var writeRules = []writeRule{
	{reminderRegex, applyReminder},
	{noteRegex, applyNote},
	{borrowedRegex, applyBorrowed},
	{lentRegex, applyLent},
	{contactRegex, applyContact},
	{debtRegex, applyDebt},
	{factRegex, applyFact},
	{catchAllRegex, applyCatchAll},
}

func (r *Resolver) resolveWrite(ctx context.Context, userID, query string) *Resolution {
	for _, rule := range writeRules {
		m := rule.re.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		if res := rule.apply(ctx, r, userID, m); res != nil {
			return res
		}
		// A rule may decline its match (e.g. the contact template seeing
		// "my" as the name); later rules still get a chance.
	}
	return nil
}

func (r *Resolver) written(ok bool, response string) *Resolution {
	if !ok {
		return &Resolution{
			Kind:       KindWrite,
			Response:   "I couldn't save that right now. Please try again.",
			Confidence: 0.0,
		}
	}
	return &Resolution{Kind: KindWrite, Response: response, Sources: memorySource, Confidence: 1.0}
}

func applyReminder(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	text := strings.TrimSpace(m[1])
	key := "reminder " + uuid.NewString()[:4]
	ok := r.memory.Memorize(ctx, userID, memory.CategoryImportantNotes, key, text, "Reminder")
	return r.written(ok, fmt.Sprintf("Reminder saved: %s", text))
}

func applyNote(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	kind := strings.ToLower(m[1])
	details := strings.TrimSpace(m[2])
	key := kind + " " + uuid.NewString()[:4]
	value := kind + " " + details
	ok := r.memory.Memorize(ctx, userID, memory.CategoryImportantNotes, key, value, "Scheduled "+kind)
	return r.written(ok, fmt.Sprintf("Noted your %s: %s", kind, details))
}

func applyBorrowed(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	item := strings.TrimSpace(m[1])
	person := strings.TrimSpace(m[2])
	ok := r.memory.MemorizeBorrowedItem(ctx, userID, item, person, memory.BorrowedFrom, "")
	return r.written(ok, fmt.Sprintf("Got it. You borrowed %s from %s and need to return it.", item, titleCase(person)))
}

func applyLent(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	item := strings.TrimSpace(m[1])
	person := strings.TrimSpace(m[2])
	ok := r.memory.MemorizeBorrowedItem(ctx, userID, item, person, memory.LentTo, "")
	return r.written(ok, fmt.Sprintf("Got it. You lent %s to %s and should get it back.", item, titleCase(person)))
}

func applyContact(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	name := strings.TrimSpace(m[1])
	switch strings.ToLower(name) {
	case "my", "me", "mine":
		// "memorize my phone number as X" is the user's own fact, not a
		// contact; yield so the generic fact template handles it.
		return nil
	}
	phone := strings.TrimSpace(m[2])
	ok := r.memory.MemorizeContact(ctx, userID, name, phone, "")
	return r.written(ok, fmt.Sprintf("Saved %s's phone number: %s", titleCase(name), phone))
}

func applyDebt(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	person := stripLeadingTrigger(strings.TrimSpace(m[1]))
	raw := strings.ReplaceAll(m[2], ",", "")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	currency := strings.ToLower(strings.TrimSpace(m[3]))
	switch currency {
	case "usd":
		currency = "dollars"
	case "inr":
		currency = "rupees"
	}
	ok := r.memory.MemorizeDebt(ctx, userID, person, amount, currency, "")
	if currency == "" {
		currency = "rupees"
	}
	return r.written(ok, fmt.Sprintf("Recorded: %s owes you %s %s.", titleCase(person), raw, currency))
}

func applyFact(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	key := strings.TrimSpace(m[1])
	value := strings.TrimSpace(m[2])
	category := memory.CategoryPersonalInfo
	lowerKey := strings.ToLower(key)
	for _, word := range credentialWords {
		if strings.Contains(lowerKey, word) {
			category = memory.CategoryCredentials
			break
		}
	}
	ok := r.memory.Memorize(ctx, userID, category, key, value, "")
	return r.written(ok, fmt.Sprintf("Memorized your %s: %s", key, value))
}

func applyCatchAll(ctx context.Context, r *Resolver, userID string, m []string) *Resolution {
	text := strings.TrimSpace(m[1])
	if text == "" {
		return nil
	}
	key := shortKey(text)
	ok := r.memory.Memorize(ctx, userID, memory.CategoryCustom, key, text, "Free-form memory")
	return r.written(ok, fmt.Sprintf("Memorized: %s", text))
}

// stripLeadingTrigger removes a memorize keyword that the person-name group
// of a template greedily swallowed ("remember Arjun owes me 5000").
func stripLeadingTrigger(name string) string {
	idx := strings.Index(name, " ")
	if idx < 0 {
		return name
	}
	switch strings.ToLower(name[:idx]) {
	case "memorize", "remember", "store", "save", "note", "that":
		return strings.TrimSpace(name[idx+1:])
	}
	return name
}

// shortKey derives a compact key from the first words of free text.
func shortKey(text string) string {
	words := strings.Fields(text)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
