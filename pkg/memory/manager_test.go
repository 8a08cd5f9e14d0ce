package memory

import (
	"context"
	"strings"
	"testing"
)

func newTestManager() *Manager {
	return NewManager(NewMemStore(), nil)
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	cases := map[string]string{
		"Tulasi's Birthday":   "tulasis_birthday",
		"  John  Smith Phone": "john_smith_phone",
		"wifi-password!":      "wifipassword",
		"already_normal":      "already_normal",
		"José número":         "josé_número",
	}
	for in, want := range cases {
		got := NormalizeKey(in)
		if got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeKey(got); again != got {
			t.Errorf("NormalizeKey not idempotent: %q -> %q", got, again)
		}
	}
}

func TestRecallUnicodeKeyWithPossessive(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if !m.Memorize(ctx, "u1", CategoryContacts, "José phone", "5551234", "") {
		t.Fatal("memorize failed")
	}

	rec, ok := m.Recall(ctx, "u1", "José's Phone", "")
	if !ok || rec.Value != "5551234" {
		t.Fatalf("recall josé's phone = (%+v, %v)", rec, ok)
	}
	if rec.OriginalKey != "José phone" {
		t.Errorf("original key = %q, accented letters must survive", rec.OriginalKey)
	}
}

func TestMemorizeOverwritesSameKey(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if !m.Memorize(ctx, "u1", CategoryPersonalInfo, "Favorite Color", "blue", "") {
		t.Fatal("first memorize failed")
	}
	if !m.Memorize(ctx, "u1", CategoryPersonalInfo, "favorite color", "green", "") {
		t.Fatal("second memorize failed")
	}

	rec, ok := m.Recall(ctx, "u1", "favorite color", CategoryPersonalInfo)
	if !ok {
		t.Fatal("recall failed after overwrite")
	}
	if rec.Value != "green" {
		t.Errorf("value = %q, want %q", rec.Value, "green")
	}

	stats := m.Stats(ctx, "u1")
	if stats.TotalMemories != 1 {
		t.Errorf("total memories = %d, want 1 (overwrite must not duplicate)", stats.TotalMemories)
	}
}

func TestMemorizePreservesCreatedAt(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "u1", CategoryPersonalInfo, "city", "Pune", "")
	first, _ := m.Recall(ctx, "u1", "city", CategoryPersonalInfo)
	m.Memorize(ctx, "u1", CategoryPersonalInfo, "city", "Mumbai", "")
	second, _ := m.Recall(ctx, "u1", "city", CategoryPersonalInfo)

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed on overwrite: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestUserIsolation(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "alice", CategoryCredentials, "wifi password", "hunter2", "")
	if _, ok := m.Recall(ctx, "bob", "wifi password", ""); ok {
		t.Fatal("bob recalled alice's memory")
	}
	if hits := m.Search(ctx, "bob", "hunter2"); len(hits) != 0 {
		t.Fatalf("bob's search returned %d of alice's records", len(hits))
	}
	if m.Forget(ctx, "bob", "wifi password", "") {
		t.Fatal("bob deleted alice's memory")
	}
	if _, ok := m.Recall(ctx, "alice", "wifi password", ""); !ok {
		t.Fatal("alice's memory lost")
	}
}

func TestRecallFuzzyForgetExact(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if !m.MemorizeContact(ctx, "u1", "John Smith", "555-0101", "colleague") {
		t.Fatal("memorize contact failed")
	}

	// "John's Phone" normalizes to johns_phone; stored key is
	// john_smith_phone. Recall bridges the gap, Forget must not.
	rec, ok := m.Recall(ctx, "u1", "John's Phone", "")
	if !ok {
		t.Fatal("fuzzy recall failed for John's Phone")
	}
	if rec.Value != "555-0101" {
		t.Errorf("value = %q, want %q", rec.Value, "555-0101")
	}

	if m.Forget(ctx, "u1", "John's Phone", "") {
		t.Fatal("forget with non-exact key should fail")
	}
	if _, ok := m.Recall(ctx, "u1", "John Smith phone", ""); !ok {
		t.Fatal("record vanished after failed forget")
	}
	if !m.Forget(ctx, "u1", "John Smith phone", "") {
		t.Fatal("forget with exact key should succeed")
	}
	if _, ok := m.Recall(ctx, "u1", "John Smith phone", ""); ok {
		t.Fatal("record survived exact forget")
	}
}

func TestRecallWithinCategoryIsExactOnly(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "u1", CategoryPersonalInfo, "home address details", "12 Main St", "")

	if _, ok := m.Recall(ctx, "u1", "home address", CategoryPersonalInfo); ok {
		t.Fatal("category-scoped recall must not fuzzy match")
	}
	if _, ok := m.Recall(ctx, "u1", "home address", ""); !ok {
		t.Fatal("uncategorized recall should fuzzy match")
	}
}

func TestTulasiBirthdayScenario(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if !m.Memorize(ctx, "u1", CategoryPersonalInfo, "Tulasi's birthday", "June 28", "") {
		t.Fatal("memorize failed")
	}
	rec, ok := m.Recall(ctx, "u1", "tulasi birthday", "")
	if !ok {
		t.Fatal("recall of tulasi birthday failed")
	}
	if rec.Value != "June 28" {
		t.Errorf("value = %q, want %q", rec.Value, "June 28")
	}
}

func TestDebtAmountFormatting(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if !m.MemorizeDebt(ctx, "u1", "Ravi", 5000, "", "") {
		t.Fatal("memorize debt failed")
	}
	rec, ok := m.Recall(ctx, "u1", "Ravi debt", "")
	if !ok {
		t.Fatal("recall debt failed")
	}
	if rec.Value != "5000" {
		t.Errorf("amount = %q, want %q (no trailing zeros)", rec.Value, "5000")
	}
	if !strings.Contains(rec.Description, "5000 rupees") {
		t.Errorf("description = %q, want default currency rupees", rec.Description)
	}

	if !m.MemorizeDebt(ctx, "u1", "Meera", 1250.50, "USD", "lunch") {
		t.Fatal("memorize fractional debt failed")
	}
	rec, _ = m.Recall(ctx, "u1", "Meera debt", "")
	if rec.Value != "1250.5" {
		t.Errorf("fractional amount = %q, want %q", rec.Value, "1250.5")
	}
}

func TestBorrowedItemDirections(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.MemorizeBorrowedItem(ctx, "u1", "drill", "Sam", BorrowedFrom, "")
	m.MemorizeBorrowedItem(ctx, "u1", "ladder", "Priya", LentTo, "till Sunday")
	m.MemorizeBorrowedItem(ctx, "u1", "book", "Ed", BorrowAction("misplaced"), "")

	toReturn := m.ItemsToReturn(ctx, "u1")
	if len(toReturn) != 1 || toReturn[0].Key != "drill_sam" {
		t.Fatalf("items to return = %+v, want only drill_sam", toReturn)
	}
	toReceive := m.ItemsToReceive(ctx, "u1")
	if len(toReceive) != 1 || toReceive[0].Key != "ladder_priya" {
		t.Fatalf("items to receive = %+v, want only ladder_priya", toReceive)
	}
	if all := m.BorrowedItems(ctx, "u1"); len(all) != 3 {
		t.Fatalf("borrowed items = %d, want 3 (unknown action still listed)", len(all))
	}
	if !strings.Contains(toReceive[0].Record.Description, "Notes: till Sunday") {
		t.Errorf("notes missing from description: %q", toReceive[0].Record.Description)
	}
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "u1", CategoryImportantNotes, "meeting room", "4B", "weekly standup location")
	m.Memorize(ctx, "u1", CategoryImportantNotes, "parking spot", "17", "")

	if hits := m.Search(ctx, "u1", "standup"); len(hits) != 1 {
		t.Fatalf("description search hits = %d, want 1", len(hits))
	}
	if hits := m.Search(ctx, "u1", "Meeting Room"); len(hits) != 1 {
		t.Fatalf("case-insensitive key search hits = %d, want 1", len(hits))
	}
	if hits := m.SearchAllTerms(ctx, "u1", []string{"parking", "17"}); len(hits) != 1 {
		t.Fatalf("all-terms search hits = %d, want 1", len(hits))
	}
	if hits := m.SearchAllTerms(ctx, "u1", []string{"parking", "standup"}); len(hits) != 0 {
		t.Fatalf("all-terms search hits = %d, want 0", len(hits))
	}
}

func TestForgetPrunesEmptyCategory(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "u1", CategoryFinancial, "rent", "900", "")
	if !m.Forget(ctx, "u1", "rent", "") {
		t.Fatal("forget failed")
	}
	stats := m.Stats(ctx, "u1")
	if _, ok := stats.Categories[CategoryFinancial]; ok {
		t.Error("empty category not pruned from snapshot")
	}
}

func TestStats(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	m.Memorize(ctx, "u1", CategoryPersonalInfo, "name", "Asha", "")
	m.Memorize(ctx, "u1", CategoryPersonalInfo, "city", "Pune", "")
	m.MemorizeContact(ctx, "u1", "Ravi", "555-2222", "")

	stats := m.Stats(ctx, "u1")
	if stats.TotalMemories != 3 {
		t.Errorf("total = %d, want 3", stats.TotalMemories)
	}
	if stats.Categories[CategoryPersonalInfo] != 2 {
		t.Errorf("personal_info = %d, want 2", stats.Categories[CategoryPersonalInfo])
	}
	if stats.Categories[CategoryContacts] != 1 {
		t.Errorf("contacts = %d, want 1", stats.Categories[CategoryContacts])
	}
}
