package brain

import (
	"fmt"
	"testing"
)

func TestHistoryCapFIFO(t *testing.T) {
	h := NewHistory()

	for i := 0; i < 11; i++ {
		h.Append("u1", fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	if got := h.Len("u1"); got != maxHistoryTurns {
		t.Fatalf("history length = %d, want %d", got, maxHistoryTurns)
	}

	turns := h.Recent("u1", 0)
	if turns[0].Content != "question 1" {
		t.Errorf("oldest turn = %q, want question 1 (exchange 0 evicted)", turns[0].Content)
	}
	if turns[len(turns)-1].Content != "answer 10" {
		t.Errorf("newest turn = %q, want answer 10", turns[len(turns)-1].Content)
	}
}

func TestHistoryRecentWindow(t *testing.T) {
	h := NewHistory()
	h.Append("u1", "q1", "a1")
	h.Append("u1", "q2", "a2")
	h.Append("u1", "q3", "a3")

	recent := h.Recent("u1", 4)
	if len(recent) != 4 {
		t.Fatalf("recent = %d turns, want 4", len(recent))
	}
	if recent[0].Content != "q2" || recent[3].Content != "a3" {
		t.Errorf("window = %+v", recent)
	}
}

func TestHistoryPerUser(t *testing.T) {
	h := NewHistory()
	h.Append("alice", "her question", "her answer")

	if h.Len("bob") != 0 {
		t.Error("bob sees alice's history")
	}
	h.Clear("alice")
	if h.Len("alice") != 0 {
		t.Error("clear did not empty history")
	}
}

func TestActionLogRingAndImageLookup(t *testing.T) {
	l := NewActionLog()

	for i := 0; i < 12; i++ {
		l.Record("u1", ActionQuery, map[string]string{"query": fmt.Sprintf("q%d", i)})
	}
	if got := len(l.Recent("u1", maxRecentActions+5)); got != maxRecentActions {
		t.Fatalf("ring holds %d actions, want %d", got, maxRecentActions)
	}

	l.Record("u1", ActionIngest, map[string]string{"file_name": "shot1.png", "file_type": ".png"})
	l.Record("u1", ActionIngest, map[string]string{"file_name": "notes.txt", "file_type": ".txt"})

	img, ok := l.LastImageIngest("u1")
	if !ok || img.Details["file_name"] != "shot1.png" {
		t.Fatalf("last image = (%+v, %v), want shot1.png", img, ok)
	}

	if _, ok := l.LastImageIngest("u2"); ok {
		t.Error("image ingest leaked across users")
	}
}
