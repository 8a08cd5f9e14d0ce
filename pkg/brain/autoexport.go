package brain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/dotsetgreg/secondbrain/pkg/memory"
)

// AutoExporter periodically re-exports memories for every active user on a
// cron schedule, so the vector index stays fresh even for users who only
// write memories and rarely query.
type AutoExporter struct {
	exporter *memory.Exporter
	expr     string
	log      *slog.Logger

	mu    sync.Mutex
	users map[string]struct{}
}

// NewAutoExporter validates the cron expression and builds the worker.
func NewAutoExporter(exporter *memory.Exporter, cronExpr string, log *slog.Logger) (*AutoExporter, error) {
	if !gronx.New().IsValid(cronExpr) {
		return nil, fmt.Errorf("auto export: invalid cron expression %q", cronExpr)
	}
	if log == nil {
		log = slog.Default()
	}
	return &AutoExporter{
		exporter: exporter,
		expr:     cronExpr,
		log:      log,
		users:    map[string]struct{}{},
	}, nil
}

// Track marks a user as active so the next scheduled run includes them.
func (a *AutoExporter) Track(userID string) {
	if userID == "" {
		return
	}
	a.mu.Lock()
	a.users[userID] = struct{}{}
	a.mu.Unlock()
}

// Run blocks until the context is cancelled, exporting tracked users at each
// scheduled tick.
func (a *AutoExporter) Run(ctx context.Context) {
	for {
		next, err := gronx.NextTick(a.expr, false)
		if err != nil {
			a.log.Error("auto export: schedule computation failed", "error", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		a.exportAll(ctx)
	}
}

func (a *AutoExporter) exportAll(ctx context.Context) {
	a.mu.Lock()
	users := make([]string, 0, len(a.users))
	for userID := range a.users {
		users = append(users, userID)
	}
	a.mu.Unlock()

	for _, userID := range users {
		if !a.exporter.Export(ctx, userID) {
			a.log.Warn("auto export failed", "user_id", userID)
		}
	}
	a.log.Debug("auto export pass complete", "users", len(users))
}
