package memory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	possessivePattern = regexp.MustCompile(`(?i)([\p{L}\p{N}])['’]s\b`)
)

// NormalizeKey produces the standardized form of a memory key: lowercased,
// punctuation stripped, whitespace collapsed to single underscores. It is
// idempotent: NormalizeKey(NormalizeKey(x)) == NormalizeKey(x).
func NormalizeKey(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	key = nonWordPattern.ReplaceAllString(key, "")
	key = whitespacePattern.ReplaceAllString(key, "_")
	return key
}

// Manager owns all structured memory operations for every user. Writes for
// the same user are serialized through a per-user mutex so concurrent
// read-modify-write cycles cannot interleave partial snapshots; writes from
// different users never contend.
type Manager struct {
	store Store
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store: store,
		log:   log,
		locks: map[string]*sync.Mutex{},
	}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// Memorize stores a fact under (category, standardized key), overwriting any
// existing record for that pair. It returns false on persistence failure;
// it never panics or propagates errors.
func (m *Manager) Memorize(ctx context.Context, userID string, category Category, key, value, description string) bool {
	if userID == "" || strings.TrimSpace(key) == "" {
		return false
	}
	if category == "" {
		category = CategoryCustom
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("memorize: load failed", "user_id", userID, "error", err)
		return false
	}

	now := time.Now()
	record := Record{
		ID:           uuid.NewString()[:8],
		OriginalKey:  key,
		Value:        value,
		Description:  description,
		Category:     category,
		UserID:       userID,
		CreatedAt:    now,
		LastAccessed: now,
	}

	std := NormalizeKey(key)
	if snap[category] == nil {
		snap[category] = map[string]Record{}
	}
	if prior, exists := snap[category][std]; exists {
		record.CreatedAt = prior.CreatedAt
	}
	snap[category][std] = record

	if err := m.store.Save(ctx, userID, snap); err != nil {
		m.log.Error("memorize: save failed", "user_id", userID, "error", err)
		return false
	}
	return true
}

// Recall looks a fact up by key. With a category it is an exact
// standardized-key lookup. Without one it walks categories in canonical
// order: exact match first, then fuzzy (stored key contains or is contained
// by the query key, the query key appears in the original key, or every
// token of the query key appears in the stored key, which lets
// "John's phone" find john_smith_phone). The first match wins. A successful
// recall bumps last_accessed and persists it.
func (m *Manager) Recall(ctx context.Context, userID, key string, category Category) (Record, bool) {
	if userID == "" {
		return Record{}, false
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("recall: load failed", "user_id", userID, "error", err)
		return Record{}, false
	}

	// Possessives collapse to the bare name ("john's" -> "john") before
	// standardization so natural recall phrasing lines up with stored keys.
	std := NormalizeKey(possessivePattern.ReplaceAllString(key, "$1"))

	touch := func(cat Category, matchedKey string) Record {
		rec := snap[cat][matchedKey]
		rec.LastAccessed = time.Now()
		snap[cat][matchedKey] = rec
		if err := m.store.Save(ctx, userID, snap); err != nil {
			m.log.Warn("recall: last_accessed not persisted", "user_id", userID, "error", err)
		}
		return rec
	}

	if category != "" {
		if _, ok := snap[category][std]; ok {
			return touch(category, std), true
		}
		return Record{}, false
	}

	for _, cat := range categoryOrder {
		recs := snap[cat]
		if len(recs) == 0 {
			continue
		}
		if _, ok := recs[std]; ok {
			return touch(cat, std), true
		}
		for _, existing := range sortedKeys(recs) {
			rec := recs[existing]
			if strings.Contains(existing, std) ||
				strings.Contains(std, existing) ||
				strings.Contains(strings.ToLower(rec.OriginalKey), std) ||
				allTokensPresent(existing, std) {
				return touch(cat, existing), true
			}
		}
	}
	return Record{}, false
}

// Search returns every record where the raw term (case-insensitive) or its
// standardized form appears in the standardized key, original key, value, or
// description. Results follow category then key order, not relevance.
func (m *Manager) Search(ctx context.Context, userID, term string) []Entry {
	return m.searchWhere(ctx, userID, func(key string, rec Record) bool {
		return recordMatchesTerm(key, rec, term)
	})
}

// SearchAllTerms returns records matching every one of the given terms.
func (m *Manager) SearchAllTerms(ctx context.Context, userID string, terms []string) []Entry {
	return m.searchWhere(ctx, userID, func(key string, rec Record) bool {
		for _, term := range terms {
			if !recordMatchesTerm(key, rec, term) {
				return false
			}
		}
		return len(terms) > 0
	})
}

func (m *Manager) searchWhere(ctx context.Context, userID string, match func(string, Record) bool) []Entry {
	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("search: load failed", "user_id", userID, "error", err)
		return nil
	}

	var results []Entry
	for _, cat := range categoryOrder {
		for _, key := range sortedKeys(snap[cat]) {
			rec := snap[cat][key]
			if match(key, rec) {
				results = append(results, Entry{
					Category:    cat,
					Key:         key,
					OriginalKey: rec.OriginalKey,
					Record:      rec,
				})
			}
		}
	}
	return results
}

func recordMatchesTerm(key string, rec Record, term string) bool {
	lower := strings.ToLower(term)
	std := NormalizeKey(term)
	for _, field := range []string{key, rec.OriginalKey, rec.Value, rec.Description} {
		if strings.Contains(strings.ToLower(field), lower) {
			return true
		}
		if std != "" && strings.Contains(NormalizeKey(field), std) {
			return true
		}
	}
	return false
}

// Forget deletes by exact standardized key only, stricter than Recall's
// fuzzy matching so a delete cannot hit the wrong fact. With no
// category, the first category containing the key (canonical order) is used.
// Categories left empty are pruned. Returns false when nothing was deleted.
func (m *Manager) Forget(ctx context.Context, userID, key string, category Category) bool {
	if userID == "" {
		return false
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("forget: load failed", "user_id", userID, "error", err)
		return false
	}

	std := NormalizeKey(key)
	remove := func(cat Category) bool {
		if _, ok := snap[cat][std]; !ok {
			return false
		}
		delete(snap[cat], std)
		if len(snap[cat]) == 0 {
			delete(snap, cat)
		}
		if err := m.store.Save(ctx, userID, snap); err != nil {
			m.log.Error("forget: save failed", "user_id", userID, "error", err)
			return false
		}
		return true
	}

	if category != "" {
		return remove(category)
	}
	for _, cat := range categoryOrder {
		if remove(cat) {
			return true
		}
	}
	return false
}

// List returns the whole snapshot, or just one category when given.
func (m *Manager) List(ctx context.Context, userID string, category Category) (Snapshot, error) {
	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	if category == "" {
		return snap, nil
	}
	out := Snapshot{}
	if recs, ok := snap[category]; ok {
		out[category] = recs
	}
	return out, nil
}

// ListByCategory returns the entries of one category in key order.
func (m *Manager) ListByCategory(ctx context.Context, userID string, category Category) []Entry {
	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("list by category: load failed", "user_id", userID, "error", err)
		return nil
	}
	var entries []Entry
	for _, key := range sortedKeys(snap[category]) {
		rec := snap[category][key]
		entries = append(entries, Entry{
			Category:    category,
			Key:         key,
			OriginalKey: rec.OriginalKey,
			Record:      rec,
		})
	}
	return entries
}

// Stats reports total and per-category record counts.
func (m *Manager) Stats(ctx context.Context, userID string) Stats {
	snap, err := m.store.Load(ctx, userID)
	if err != nil {
		m.log.Error("stats: load failed", "user_id", userID, "error", err)
		return Stats{Categories: map[Category]int{}}
	}
	stats := Stats{Categories: map[Category]int{}}
	for cat, recs := range snap {
		stats.Categories[cat] = len(recs)
		stats.TotalMemories += len(recs)
	}
	return stats
}

// allTokensPresent reports whether every underscore-separated token of the
// query key occurs somewhere in the stored key.
func allTokensPresent(storedKey, queryKey string) bool {
	tokens := strings.Split(queryKey, "_")
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if token == "" || !strings.Contains(storedKey, token) {
			return false
		}
	}
	return true
}

func sortedKeys(recs map[string]Record) []string {
	keys := make([]string, 0, len(recs))
	for k := range recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Convenience writers -------------------------------------------------
//
// The composite key shapes below are part of the contract: recall and
// listing code splits them back apart (e.g. "{name}_phone" -> name), so the
// formats must stay stable.

// MemorizeContact stores a phone number under "{name}_phone" in contacts.
func (m *Manager) MemorizeContact(ctx context.Context, userID, name, phone, relationship string) bool {
	key := name + " phone"
	description := "Phone number for " + name
	if relationship != "" {
		description += " (" + relationship + ")"
	}
	return m.Memorize(ctx, userID, CategoryContacts, key, phone, description)
}

// MemorizeDebt stores an amount owed under "{person}_debt" in financial.
func (m *Manager) MemorizeDebt(ctx context.Context, userID, person string, amount float64, currency, notes string) bool {
	if currency == "" {
		currency = "rupees"
	}
	key := person + " debt"
	description := fmt.Sprintf("%s owes %s %s", person, formatAmount(amount), currency)
	if notes != "" {
		description += " - " + notes
	}
	return m.Memorize(ctx, userID, CategoryFinancial, key, formatAmount(amount), description)
}

// BorrowAction is the direction of a borrowed-item record.
type BorrowAction string

const (
	BorrowedFrom BorrowAction = "borrowed_from"
	LentTo       BorrowAction = "lent_to"
)

// MemorizeBorrowedItem stores an item exchange under "{item}_{person}".
// Direction is carried in the description text ("Borrowed ... from" /
// "Lent ... to"), which ItemsToReturn / ItemsToReceive later match against.
// Unknown actions are stored verbatim and appear in neither list.
func (m *Manager) MemorizeBorrowedItem(ctx context.Context, userID, item, person string, action BorrowAction, notes string) bool {
	key := item + " " + person
	var value, description string
	switch action {
	case BorrowedFrom:
		value = "Borrowed from " + person
		description = fmt.Sprintf("Borrowed %s from %s. Need to return it.", item, person)
	case LentTo:
		value = "Lent to " + person
		description = fmt.Sprintf("Lent %s to %s. Need to get it back.", item, person)
	default:
		value = string(action)
		description = fmt.Sprintf("%s - %s: %s", item, person, action)
	}
	if notes != "" {
		description += " | Notes: " + notes
	}
	return m.Memorize(ctx, userID, CategoryBorrowedItems, key, value, description)
}

// BorrowedItems lists every borrowed/lent record.
func (m *Manager) BorrowedItems(ctx context.Context, userID string) []Entry {
	return m.ListByCategory(ctx, userID, CategoryBorrowedItems)
}

// ItemsToReturn lists items the user borrowed and still has to give back.
func (m *Manager) ItemsToReturn(ctx context.Context, userID string) []Entry {
	return filterByDescription(m.BorrowedItems(ctx, userID), "borrowed from", "need to return")
}

// ItemsToReceive lists items the user lent out and should get back.
func (m *Manager) ItemsToReceive(ctx context.Context, userID string) []Entry {
	return filterByDescription(m.BorrowedItems(ctx, userID), "lent to", "need to get back")
}

func filterByDescription(entries []Entry, markers ...string) []Entry {
	var out []Entry
	for _, e := range entries {
		desc := strings.ToLower(e.Record.Description)
		for _, marker := range markers {
			if strings.Contains(desc, marker) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// AllDebts lists every financial record.
func (m *Manager) AllDebts(ctx context.Context, userID string) []Entry {
	return m.ListByCategory(ctx, userID, CategoryFinancial)
}

// AllContacts lists every contact record.
func (m *Manager) AllContacts(ctx context.Context, userID string) []Entry {
	return m.ListByCategory(ctx, userID, CategoryContacts)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
