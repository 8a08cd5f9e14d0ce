package brain

import "sync"

// maxHistoryTurns bounds per-user conversation history: 10 exchanges.
const maxHistoryTurns = 20

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// History keeps a bounded ordered log of turns per user, in memory for the
// process lifetime. Eviction is FIFO: the oldest turns drop first.
type History struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

func NewHistory() *History {
	return &History{turns: map[string][]Turn{}}
}

// Append records a completed exchange (user question, assistant answer) and
// trims to capacity.
func (h *History) Append(userID, question, answer string) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	turns := append(h.turns[userID],
		Turn{Role: "user", Content: question},
		Turn{Role: "assistant", Content: answer},
	)
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	h.turns[userID] = turns
}

// Recent returns up to n most recent turns, oldest first.
func (h *History) Recent(userID string, n int) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	turns := h.turns[userID]
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len reports the stored turn count for the user.
func (h *History) Len(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns[userID])
}

// Clear drops the user's history.
func (h *History) Clear(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, userID)
}
