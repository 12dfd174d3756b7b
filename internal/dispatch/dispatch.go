// Package dispatch routes a classified ticket to its physical printers
// and sequences the individual print jobs.
package dispatch

import (
	"context"
	"time"

	"print-relay/internal/alert"
	"print-relay/internal/domain"
	"print-relay/internal/logger"
	"print-relay/internal/printer"
)

// Status tags the outcome of a dispatch attempt.
type Status int

const (
	// StatusRouted means the ticket matched a register printer and its
	// job sequence ran (individual jobs may still have failed).
	StatusRouted Status = iota + 1
	// StatusDropped means no printer is routed for the ticket's
	// register; nothing was sent.
	StatusDropped
)

// Outcome describes what happened to one ticket.
type Outcome struct {
	Status   Status
	Reason   string
	JobsSent int
}

// Job kind labels used in logs and alerts.
const (
	jobCustomerReceipt  = "customer_receipt"
	jobKitchenInternal  = "kitchen_internal"
	jobRegisterInternal = "register_internal"
)

// Dispatcher owns the routing table: each known register display name
// maps to its customer-facing printer, and every ticket's kitchen
// items go to the one shared kitchen printer.
type Dispatcher struct {
	registers map[string]printer.Printer
	kitchen   printer.Printer

	pacing     time.Duration
	attempts   int
	retryDelay time.Duration

	lg     *logger.Logger
	alerts *alert.Notifier
}

type Config struct {
	// Registers maps register display names to their printers.
	Registers map[string]printer.Printer
	// Kitchen is the shared kitchen printer.
	Kitchen printer.Printer

	// Pacing is the wait after each job send, so a burst of jobs does
	// not overrun the device's input buffer. Zero disables pacing.
	Pacing time.Duration
	// Attempts bounds how often one job is tried before giving up.
	Attempts int
	// RetryDelay is the wait between attempts of the same job.
	RetryDelay time.Duration
}

func New(cfg Config, lg *logger.Logger, alerts *alert.Notifier) *Dispatcher {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &Dispatcher{
		registers:  cfg.Registers,
		kitchen:    cfg.Kitchen,
		pacing:     cfg.Pacing,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		lg:         lg,
		alerts:     alerts,
	}
}

// Dispatch sends the ticket's jobs in fixed order: customer receipt,
// then kitchen internal (if any kitchen items), then register internal
// (if any register items), with a pacing wait after each send. A job
// that exhausts its retries is logged and alerted but does not stop
// the remaining jobs. The returned error is non-nil only when the
// context was canceled mid-sequence.
func (d *Dispatcher) Dispatch(ctx context.Context, t domain.Ticket) (Outcome, error) {
	dest, ok := d.registers[t.Register]
	if !ok {
		d.lg.Warn("unrouted_order", map[string]any{
			"register":  t.Register,
			"ticket_id": t.ID,
			"purchase":  t.PurchaseUUID,
		})
		d.alerts.UnroutedOrder(ctx, t)
		return Outcome{Status: StatusDropped, Reason: "no printer for register"}, nil
	}

	out := Outcome{Status: StatusRouted}
	merged := t.MergedItems()

	jobs := []struct {
		kind string
		skip bool
		send func(context.Context) error
	}{
		{
			kind: jobCustomerReceipt,
			send: func(ctx context.Context) error {
				return dest.PrintCustomerReceipt(ctx, t.ID, merged, t.Meme)
			},
		},
		{
			kind: jobKitchenInternal,
			skip: len(t.KitchenItems) == 0,
			send: func(ctx context.Context) error {
				return d.kitchen.PrintInternal(ctx, t.Register, t.ID, t.KitchenItems)
			},
		},
		{
			kind: jobRegisterInternal,
			skip: len(t.RegisterItems) == 0,
			send: func(ctx context.Context) error {
				return dest.PrintInternal(ctx, t.Register, t.ID, t.RegisterItems)
			},
		},
	}

	for _, job := range jobs {
		if job.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := d.sendJob(ctx, t, job.kind, job.send); err == nil {
			out.JobsSent++
		} else if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if err := d.pace(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Dispatcher) sendJob(ctx context.Context, t domain.Ticket, kind string, send func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		err = send(ctx)
		if err == nil {
			d.lg.Info("job_printed", map[string]any{
				"ticket_id": t.ID,
				"register":  t.Register,
				"job":       kind,
				"attempt":   attempt,
			})
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		d.lg.Debug("job_retry", map[string]any{
			"ticket_id": t.ID,
			"job":       kind,
			"attempt":   attempt,
		})
		if attempt < d.attempts {
			select {
			case <-time.After(d.retryDelay):
			case <-ctx.Done():
				return err
			}
		}
	}
	d.lg.Error("print_failed", err, map[string]any{
		"ticket_id": t.ID,
		"register":  t.Register,
		"job":       kind,
		"attempts":  d.attempts,
	})
	d.alerts.PrintFailed(ctx, t, kind, err)
	return err
}

// pace blocks for the configured inter-job delay, or returns early
// with the context's error on shutdown.
func (d *Dispatcher) pace(ctx context.Context) error {
	if d.pacing <= 0 {
		return nil
	}
	select {
	case <-time.After(d.pacing):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
