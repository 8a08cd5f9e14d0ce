package brain

import (
	"strings"
	"sync"
	"time"
)

// maxRecentActions bounds the per-user action ring.
const maxRecentActions = 10

// ActionKind tags a recent action.
type ActionKind string

const (
	ActionIngest ActionKind = "ingest"
	ActionQuery  ActionKind = "query"
)

// Action records something the user recently did, for situational context
// like "the most recently ingested image".
type Action struct {
	Time    time.Time
	Kind    ActionKind
	Details map[string]string
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff"}

// IsImageIngest reports whether the action ingested an image file.
func (a Action) IsImageIngest() bool {
	if a.Kind != ActionIngest {
		return false
	}
	fileType := strings.ToLower(a.Details["file_type"])
	for _, ext := range imageExtensions {
		if fileType == ext {
			return true
		}
	}
	return false
}

// ActionLog keeps the last few actions per user. Scoping by user matters:
// one user's ingest must never color another user's answers.
type ActionLog struct {
	mu      sync.RWMutex
	actions map[string][]Action
}

func NewActionLog() *ActionLog {
	return &ActionLog{actions: map[string][]Action{}}
}

func (l *ActionLog) Record(userID string, kind ActionKind, details map[string]string) {
	if userID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	actions := append(l.actions[userID], Action{
		Time:    time.Now(),
		Kind:    kind,
		Details: details,
	})
	if len(actions) > maxRecentActions {
		actions = actions[len(actions)-maxRecentActions:]
	}
	l.actions[userID] = actions
}

// Recent returns up to n most recent actions, newest first.
func (l *ActionLog) Recent(userID string, n int) []Action {
	l.mu.RLock()
	defer l.mu.RUnlock()

	actions := l.actions[userID]
	out := make([]Action, 0, n)
	for i := len(actions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, actions[i])
	}
	return out
}

// LastImageIngest returns the most recent image ingestion, if any.
func (l *ActionLog) LastImageIngest(userID string) (Action, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	actions := l.actions[userID]
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].IsImageIngest() {
			return actions[i], true
		}
	}
	return Action{}, false
}
