// Package poller drives the relay: fetch recent purchases, classify,
// dedup, number, and hand the resulting tickets to the dispatcher.
package poller

import (
	"context"
	"time"

	"github.com/google/uuid"

	"print-relay/internal/alert"
	"print-relay/internal/classify"
	"print-relay/internal/dedup"
	"print-relay/internal/dispatch"
	"print-relay/internal/domain"
	"print-relay/internal/feed"
	"print-relay/internal/logger"
	"print-relay/internal/orderid"
)

// Dispatcher is the consumed port into the print side.
type Dispatcher interface {
	Dispatch(ctx context.Context, t domain.Ticket) (dispatch.Outcome, error)
}

type Poller struct {
	src    feed.Source
	gate   *dedup.Gate
	ids    *orderid.Allocator
	disp   Dispatcher
	alerts *alert.Notifier
	lg     *logger.Logger

	batch    int
	interval time.Duration
	meme     *string
}

type Config struct {
	// BatchSize is how many recent purchases each cycle fetches.
	BatchSize int
	// Interval is the sleep between cycles.
	Interval time.Duration
	// Meme, when set, rides along on every customer receipt.
	Meme *string
}

func New(src feed.Source, gate *dedup.Gate, ids *orderid.Allocator, disp Dispatcher,
	alerts *alert.Notifier, lg *logger.Logger, cfg Config) *Poller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Poller{
		src:      src,
		gate:     gate,
		ids:      ids,
		disp:     disp,
		alerts:   alerts,
		lg:       lg,
		batch:    cfg.BatchSize,
		interval: cfg.Interval,
		meme:     cfg.Meme,
	}
}

// Run polls until ctx is canceled. One cycle fully completes, dispatch
// included, before the next fetch; a failed cycle only costs itself.
func (p *Poller) Run(ctx context.Context) error {
	p.lg.Info("poller_started", map[string]any{
		"batch_size": p.batch,
		"interval":   p.interval.String(),
	})
	for {
		p.cycle(ctx)
		select {
		case <-ctx.Done():
			p.lg.Info("poller_stopped", nil)
			return nil
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	trace := uuid.NewString()

	p.lg.Debug("cycle_fetch", map[string]any{"trace_id": trace, "limit": p.batch})
	purchases, err := p.src.LatestPurchases(ctx, p.batch, true)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.lg.Error("feed_fetch_failed", err, map[string]any{"trace_id": trace})
		p.alerts.CycleError(ctx, trace, err)
		return
	}

	var toPrint []domain.Ticket
	for _, pur := range purchases {
		t := classify.Classify(pur)
		if !t.HasItems() {
			continue
		}
		first, err := p.gate.Accept(ctx, pur.UUID)
		if err != nil {
			// State store down: stop the whole cycle, never dispatch
			// degraded. Next interval retries from a clean fetch.
			if ctx.Err() != nil {
				return
			}
			p.lg.Error("state_store_failed", err, map[string]any{"trace_id": trace})
			p.alerts.CycleError(ctx, trace, err)
			return
		}
		if !first {
			p.lg.Debug("purchase_skipped", map[string]any{
				"trace_id": trace,
				"purchase": pur.UUID,
			})
			continue
		}
		t.Meme = p.meme
		t.ID, err = p.ids.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.lg.Error("state_store_failed", err, map[string]any{"trace_id": trace})
			p.alerts.CycleError(ctx, trace, err)
			return
		}
		toPrint = append(toPrint, t)
	}

	for _, t := range toPrint {
		if ctx.Err() != nil {
			return
		}
		out, err := p.disp.Dispatch(ctx, t)
		if err != nil {
			// Only context cancellation reaches here; the dispatcher
			// contains per-job failures itself.
			return
		}
		p.lg.Info("ticket_dispatched", map[string]any{
			"trace_id":  trace,
			"ticket_id": t.ID,
			"register":  t.Register,
			"routed":    out.Status == dispatch.StatusRouted,
			"jobs_sent": out.JobsSent,
		})
	}
}
