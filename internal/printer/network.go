package printer

import (
	"context"
	"fmt"
	"net"
	"time"

	"print-relay/internal/domain"
)

// Network sends encoded jobs to a jet-direct style raw socket, the
// interface both printer families expose on port 9100. Each job is one
// connection; a per-send timeout keeps a hung device from stalling the
// dispatch loop.
type Network struct {
	addr    string
	enc     Encoder
	timeout time.Duration
}

func NewNetwork(addr string, enc Encoder, timeout time.Duration) *Network {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Network{addr: addr, enc: enc, timeout: timeout}
}

func (n *Network) PrintCustomerReceipt(ctx context.Context, ticketID string, items []domain.TicketItem, meme *string) error {
	return n.send(ctx, n.enc.CustomerReceipt(ticketID, items, meme))
}

func (n *Network) PrintInternal(ctx context.Context, register, ticketID string, items []domain.TicketItem) error {
	return n.send(ctx, n.enc.Internal(register, ticketID, items))
}

func (n *Network) send(ctx context.Context, payload []byte) error {
	sctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(sctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("printer %s: %w", n.addr, err)
	}
	defer conn.Close()

	deadline, _ := sctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("printer %s: %w", n.addr, err)
	}
	return nil
}

var _ Printer = (*Network)(nil)
