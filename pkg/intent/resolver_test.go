package intent

import (
	"context"
	"strings"
	"testing"

	"github.com/dotsetgreg/secondbrain/pkg/memory"
	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

type recordingIndex struct {
	added   int
	deleted int
}

func (f *recordingIndex) Add(ctx context.Context, userID string, chunks []vectorindex.Chunk) error {
	f.added += len(chunks)
	return nil
}

func (f *recordingIndex) Search(ctx context.Context, query string, k int, userID string) ([]vectorindex.Result, error) {
	return nil, nil
}

func (f *recordingIndex) DeleteByMetadata(ctx context.Context, filter vectorindex.Filter) error {
	f.deleted++
	return nil
}

func (f *recordingIndex) Count(ctx context.Context) (int, error) { return 0, nil }

func (f *recordingIndex) Documents(ctx context.Context, userID string) ([]vectorindex.DocumentInfo, error) {
	return nil, nil
}

func (f *recordingIndex) Close() error { return nil }

func newTestResolver() (*Resolver, *memory.Manager, *recordingIndex) {
	mgr := memory.NewManager(memory.NewMemStore(), nil)
	ix := &recordingIndex{}
	exp := memory.NewExporter(mgr, ix, nil)
	return NewResolver(mgr, exp, nil), mgr, ix
}

func TestWritePrecedenceOverRead(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	// Contains the READ trigger substring "my phone number" but must still
	// classify as a write.
	res := r.Resolve(ctx, "u1", "memorize my phone number as 1234567890")
	if res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want a write", res)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}

	rec, ok := mgr.Recall(ctx, "u1", "phone number", "")
	if !ok || rec.Value != "1234567890" {
		t.Fatalf("recall after write = (%+v, %v)", rec, ok)
	}
	if rec.Category != memory.CategoryPersonalInfo {
		t.Errorf("category = %v, want personal_info", rec.Category)
	}
}

func TestTriggerWithoutTemplateReturnsHelp(t *testing.T) {
	r, _, _ := newTestResolver()

	res := r.Resolve(context.Background(), "u1", "memorize")
	if res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want terminal write-attempt response", res)
	}
	if res.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", res.Confidence)
	}
	if !strings.Contains(res.Response, "memorize my phone number") {
		t.Errorf("help message missing examples: %q", res.Response)
	}
}

func TestContactWriteAndThirdPartyReadYields(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	res := r.Resolve(ctx, "u1", "memorize Tulasi's phone number as 9876543210")
	if res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want write", res)
	}

	rec, ok := mgr.Recall(ctx, "u1", "tulasi's phone", "")
	if !ok || rec.Value != "9876543210" {
		t.Fatalf("recall tulasi's phone = (%+v, %v)", rec, ok)
	}
	if rec.Category != memory.CategoryContacts {
		t.Errorf("category = %v, want contacts", rec.Category)
	}

	// A third party's number is document-retrieval territory.
	if res := r.Resolve(ctx, "u1", "what is Tulasi's phone number?"); res != nil {
		t.Errorf("third-party phone question resolved to %+v, want passthrough", res)
	}
}

func TestCredentialFactCategorization(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "remember that my wifi password is hunter2"); res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want write", res)
	}
	rec, ok := mgr.Recall(ctx, "u1", "wifi password", "")
	if !ok || rec.Category != memory.CategoryCredentials {
		t.Fatalf("recall = (%+v, %v), want credentials category", rec, ok)
	}
}

func TestStoreThisColonForm(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "store this: my license plate is ABC123"); res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want write", res)
	}
	rec, ok := mgr.Recall(ctx, "u1", "license plate", "")
	if !ok || rec.Value != "ABC123" {
		t.Fatalf("recall = (%+v, %v), want ABC123", rec, ok)
	}
}

func TestDebtWriteAndRead(t *testing.T) {
	r, _, _ := newTestResolver()
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "Arjun owes me 5000 rupees"); res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want write", res)
	}

	res := r.Resolve(ctx, "u1", "what are my debts?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if !strings.Contains(res.Response, "Arjun: 5000") {
		t.Errorf("debt listing missing entry:\n%s", res.Response)
	}
}

func TestBorrowedItemsWriteAndRead(t *testing.T) {
	r, _, _ := newTestResolver()
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "I borrowed a drill from Sam"); res == nil || res.Kind != KindWrite {
		t.Fatalf("borrow resolution = %+v, want write", res)
	}
	if res := r.Resolve(ctx, "u1", "I lent my charger to Priya"); res == nil || res.Kind != KindWrite {
		t.Fatalf("lend resolution = %+v, want write", res)
	}

	res := r.Resolve(ctx, "u1", "do I have any borrowed items?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if !strings.Contains(res.Response, "drill to Sam") {
		t.Errorf("missing item to return:\n%s", res.Response)
	}
	if !strings.Contains(res.Response, "charger from Priya") {
		t.Errorf("missing item to receive:\n%s", res.Response)
	}
}

func TestReminderWriteAndRead(t *testing.T) {
	r, _, _ := newTestResolver()
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "remind me to call the bank tomorrow"); res == nil || res.Kind != KindWrite {
		t.Fatalf("resolution = %+v, want write", res)
	}

	res := r.Resolve(ctx, "u1", "what are my reminders?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if !strings.Contains(res.Response, "call the bank tomorrow") {
		t.Errorf("reminder missing from listing:\n%s", res.Response)
	}
}

func TestCallQuestionsListReminders(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	mgr.Memorize(ctx, "u1", memory.CategoryImportantNotes, "reminder dentist", "call the dentist on Friday", "")

	// "call" belongs to the reminder family, which outranks the phone
	// family's own-details guard; the question must not fall through to
	// document retrieval.
	res := r.Resolve(ctx, "u1", "do I have any calls to make?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want reminder listing", res)
	}
	if !strings.Contains(res.Response, "call the dentist on Friday") {
		t.Errorf("call note missing from listing:\n%s", res.Response)
	}
}

func TestRecallFallsBackToSearch(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	mgr.Memorize(ctx, "u1", memory.CategoryPersonalInfo, "car", "blue Honda Civic", "")

	res := r.Resolve(ctx, "u1", "what is my honda?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if res.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8 for search fallback", res.Confidence)
	}
	if !strings.Contains(res.Response, "blue Honda Civic") {
		t.Errorf("search fallback missing record:\n%s", res.Response)
	}
}

func TestRecallMatchesAllTermsAcrossFields(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	mgr.Memorize(ctx, "u1", memory.CategoryCredentials, "wifi password", "hunter2", "home router")

	// "router" only appears in the description and "wifi" only in the key,
	// so neither fuzzy recall nor single-term search can find the record.
	res := r.Resolve(ctx, "u1", "what is my router wifi?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if res.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8 for all-terms match", res.Confidence)
	}
	if !strings.Contains(res.Response, "hunter2") {
		t.Errorf("all-terms match missing record:\n%s", res.Response)
	}
}

func TestRecallFallsBackToFullListing(t *testing.T) {
	r, mgr, _ := newTestResolver()
	ctx := context.Background()

	mgr.Memorize(ctx, "u1", memory.CategoryPersonalInfo, "city", "Pune", "")

	res := r.Resolve(ctx, "u1", "what is my frequent flyer id?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if res.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3 for full listing", res.Confidence)
	}
	if !strings.Contains(res.Response, "city: Pune") {
		t.Errorf("listing missing stored record:\n%s", res.Response)
	}
	if !strings.Contains(res.Response, "memorize my phone number") {
		t.Errorf("listing missing storage hint:\n%s", res.Response)
	}
}

func TestEmptyStoreRead(t *testing.T) {
	r, _, _ := newTestResolver()

	res := r.Resolve(context.Background(), "u1", "what is my phone number?")
	if res == nil || res.Kind != KindRead {
		t.Fatalf("resolution = %+v, want read", res)
	}
	if res.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", res.Confidence)
	}
	if !strings.Contains(res.Response, "haven't stored any personal memories") {
		t.Errorf("unexpected empty-store message:\n%s", res.Response)
	}
}

func TestSuccessfulRecallRefreshesExport(t *testing.T) {
	r, mgr, ix := newTestResolver()
	ctx := context.Background()

	mgr.Memorize(ctx, "u1", memory.CategoryPersonalInfo, "blood group", "O+", "")

	res := r.Resolve(ctx, "u1", "what is my blood group?")
	if res == nil || res.Kind != KindRead || !strings.Contains(res.Response, "O+") {
		t.Fatalf("resolution = %+v, want direct recall of O+", res)
	}
	if ix.added == 0 || ix.deleted == 0 {
		t.Errorf("export not refreshed after recall: added=%d deleted=%d", ix.added, ix.deleted)
	}
}

func TestPlainDocumentQuestionPassesThrough(t *testing.T) {
	r, _, _ := newTestResolver()

	for _, q := range []string{
		"What were the key objectives in the project plan?",
		"Summarize the meeting notes document",
		"",
	} {
		if res := r.Resolve(context.Background(), "u1", q); res != nil {
			t.Errorf("query %q resolved to %+v, want passthrough", q, res)
		}
	}
}
