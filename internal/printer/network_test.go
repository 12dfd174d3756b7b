package printer

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-relay/internal/domain"
)

// startDevice listens like a raw-socket printer: each connection's
// payload is read to EOF and delivered on the returned channel.
func startDevice(t *testing.T) (addr string, jobs <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	ch := make(chan []byte, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			payload, _ := io.ReadAll(conn)
			conn.Close()
			ch <- payload
		}
	}()
	return ln.Addr().String(), ch
}

func receive(t *testing.T, jobs <-chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-jobs:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("no job arrived at the device")
		return nil
	}
}

func TestNetwork_PrintInternalDeliversFramedJob(t *testing.T) {
	addr, jobs := startDevice(t)
	enc, err := NewEncoder("epson")
	require.NoError(t, err)
	n := NewNetwork(addr, enc, time.Second)

	items := []domain.TicketItem{{Amount: 2, Item: "Burger", Extra: strptr("no onion")}}
	require.NoError(t, n.PrintInternal(context.Background(), "Kassa Uppe 1", "002", items))

	assert.Equal(t, enc.Internal("Kassa Uppe 1", "002", items), receive(t, jobs),
		"the device must receive exactly the encoder's framed bytes")
}

func TestNetwork_PrintCustomerReceiptDeliversFramedJob(t *testing.T) {
	addr, jobs := startDevice(t)
	enc, err := NewEncoder("star")
	require.NoError(t, err)
	n := NewNetwork(addr, enc, time.Second)

	items := sampleItems()
	meme := strptr("Stay hydrated")
	require.NoError(t, n.PrintCustomerReceipt(context.Background(), "002", items, meme))

	assert.Equal(t, enc.CustomerReceipt("002", items, meme), receive(t, jobs))
}

func TestNetwork_OneConnectionPerJob(t *testing.T) {
	addr, jobs := startDevice(t)
	enc, err := NewEncoder("epson")
	require.NoError(t, err)
	n := NewNetwork(addr, enc, time.Second)

	items := []domain.TicketItem{{Amount: 1, Item: "Fries"}}
	require.NoError(t, n.PrintInternal(context.Background(), "Kassa Uppe 1", "002", items))
	require.NoError(t, n.PrintInternal(context.Background(), "Kassa Uppe 2", "003", items))

	first := receive(t, jobs)
	second := receive(t, jobs)
	assert.Equal(t, enc.Internal("Kassa Uppe 1", "002", items), first)
	assert.Equal(t, enc.Internal("Kassa Uppe 2", "003", items), second)
}

func TestNetwork_CanceledContext(t *testing.T) {
	addr, jobs := startDevice(t)
	enc, err := NewEncoder("epson")
	require.NoError(t, err)
	n := NewNetwork(addr, enc, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err = n.PrintInternal(ctx, "Kassa Uppe 1", "002",
		[]domain.TicketItem{{Amount: 1, Item: "Burger"}})
	require.Error(t, err, "a dead context must not produce a print")
	assert.Less(t, time.Since(start), time.Second, "send must fail promptly, not hang")

	select {
	case payload := <-jobs:
		t.Fatalf("device received %d bytes despite canceled context", len(payload))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNetwork_UnreachableDevice(t *testing.T) {
	// Grab a port and close it again so the dial target is dead.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	enc, err := NewEncoder("star")
	require.NoError(t, err)
	n := NewNetwork(addr, enc, 200*time.Millisecond)

	start := time.Now()
	err = n.PrintInternal(context.Background(), "Kassa Uppe 1", "002",
		[]domain.TicketItem{{Amount: 1, Item: "Burger"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, addr, "errors must name the device for the operator")
	assert.Less(t, time.Since(start), 2*time.Second,
		"the per-send timeout bounds a device that never answers")
}
