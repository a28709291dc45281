package service

import (
	"context"
	"log"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/store"
)

const defaultPruneInterval = 6 * time.Hour

// PrunerConfig holds the parameters for NewEventPruner.
type PrunerConfig struct {
	// RetentionDays of audit history are kept. 0 keeps everything.
	RetentionDays int
	// IntervalHours between runs. Defaults to 6.
	IntervalHours int
}

// EventPruner deletes security events older than the retention window,
// once at start and then on every interval.
type EventPruner struct {
	events    store.EventStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEventPruner(s store.EventStore, cfg PrunerConfig, logger *log.Logger) *EventPruner {
	p := &EventPruner{
		events:    s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  time.Duration(cfg.IntervalHours) * time.Hour,
		logger:    orDiscard(logger),
		now:       func() time.Time { return time.Now().UTC() },
		done:      make(chan struct{}),
	}
	if p.interval <= 0 {
		p.interval = defaultPruneInterval
	}
	return p
}

// Start launches the pruning goroutine. With retention 0 it does nothing.
func (p *EventPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("event pruner disabled")
		close(p.done)
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	go func() {
		defer close(p.done)
		p.run(ctx)
	}()
	p.logger.Printf("event pruner retention=%s interval=%s", p.retention, p.interval)
}

// Stop cancels the goroutine and waits for it. Safe to call repeatedly.
func (p *EventPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// RunOnce deletes everything older than the retention window and returns
// the number of rows removed.
func (p *EventPruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.events.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Printf("pruned %d events before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

func (p *EventPruner) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Printf("event prune: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
