// Package alert publishes operator-facing events to RabbitMQ: orders
// that could not be routed, print jobs that exhausted their retries,
// and failed poll cycles. Alerts are advisories; the relay never
// blocks on the broker and runs fine without one configured.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"print-relay/internal/domain"
	"print-relay/internal/logger"
)

const (
	exchange = "print_alerts"
	queue    = "print_alerts.q"
)

// Notifier is nil-safe: every method on a nil *Notifier is a no-op, so
// callers wire it unconditionally and only Dial decides whether alerts
// are on.
type Notifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	lg   *logger.Logger
}

// Dial connects to the broker and declares the alert fanout exchange
// with one durable queue bound to it.
func Dial(host string, port int, user, pass string, lg *logger.Logger) (*Notifier, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, pass, host, port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Notifier{conn: conn, ch: ch, lg: lg}, nil
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

type event struct {
	Event      string    `json:"event"`
	Register   string    `json:"register,omitempty"`
	TicketID   string    `json:"ticket_id,omitempty"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	Job        string    `json:"job,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	Detail     string    `json:"detail"`
	Timestamp  time.Time `json:"timestamp"`
}

// UnroutedOrder reports a ticket whose register name matched no
// configured printer, so nothing was printed for it.
func (n *Notifier) UnroutedOrder(ctx context.Context, t domain.Ticket) {
	n.publish(ctx, event{
		Event:      "unrouted_order",
		Register:   t.Register,
		TicketID:   t.ID,
		PurchaseID: t.PurchaseUUID,
		Detail:     fmt.Sprintf("no printer routed for register %q", t.Register),
	})
}

// PrintFailed reports a job that exhausted its retry budget. The
// ticket id and job kind are enough for staff to reprint by hand.
func (n *Notifier) PrintFailed(ctx context.Context, t domain.Ticket, job string, cause error) {
	n.publish(ctx, event{
		Event:      "print_failed",
		Register:   t.Register,
		TicketID:   t.ID,
		PurchaseID: t.PurchaseUUID,
		Job:        job,
		Detail:     cause.Error(),
	})
}

// CycleError reports a poll cycle aborted by a feed or store failure.
func (n *Notifier) CycleError(ctx context.Context, traceID string, cause error) {
	n.publish(ctx, event{
		Event:   "cycle_error",
		TraceID: traceID,
		Detail:  cause.Error(),
	})
}

func (n *Notifier) publish(ctx context.Context, ev event) {
	if n == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	err = n.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil && n.lg != nil {
		n.lg.Error("alert_publish_failed", err, map[string]any{"event": ev.Event})
	}
}
