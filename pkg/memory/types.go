package memory

import "time"

// Category groups related facts inside one user's store.
type Category string

const (
	CategoryPersonalInfo   Category = "personal_info"
	CategoryContacts       Category = "contacts"
	CategoryFinancial      Category = "financial"
	CategoryBorrowedItems  Category = "borrowed_items"
	CategoryImportantNotes Category = "important_notes"
	CategoryCredentials    Category = "credentials"
	CategoryCustom         Category = "custom_memories"
)

// categoryOrder fixes the iteration order for recall and listing so that
// fuzzy matches are deterministic across runs.
var categoryOrder = []Category{
	CategoryPersonalInfo,
	CategoryContacts,
	CategoryFinancial,
	CategoryBorrowedItems,
	CategoryImportantNotes,
	CategoryCredentials,
	CategoryCustom,
}

// Categories returns all known categories in their canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Record is a single user-declared fact. Within one user's store the pair
// (category, standardized key) is unique; re-memorizing the same pair
// overwrites the record in place with a freshly generated ID.
type Record struct {
	ID           string    `json:"id"`
	OriginalKey  string    `json:"original_key"`
	Value        string    `json:"value"`
	Description  string    `json:"description,omitempty"`
	Category     Category  `json:"category"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Snapshot is one user's full memory state: category -> standardized key ->
// record. It is loaded and persisted as a whole unit; empty categories are
// pruned on save.
type Snapshot map[Category]map[string]Record

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for cat, recs := range s {
		m := make(map[string]Record, len(recs))
		for k, r := range recs {
			m[k] = r
		}
		out[cat] = m
	}
	return out
}

// Total counts records across all categories.
func (s Snapshot) Total() int {
	n := 0
	for _, recs := range s {
		n += len(recs)
	}
	return n
}

// Entry is a located record returned by listing and search operations.
type Entry struct {
	Category    Category
	Key         string // standardized key
	OriginalKey string
	Record      Record
}

// Stats summarizes one user's store.
type Stats struct {
	TotalMemories int              `json:"total_memories"`
	Categories    map[Category]int `json:"categories"`
}
