// Package orderid allocates the short recurring ticket numbers printed
// on receipts. Numbers cycle through 000-199 and are reused; they are
// ticket labels for a short operational window, not unique keys.
package orderid

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"print-relay/internal/store"
)

const (
	counterKey = "currentOrderId"
	modulus    = 200
)

// Allocator hands out the next ticket number from the persisted
// counter. Read-then-increment is serialized by a mutex so concurrent
// callers can never observe the same pre-increment value.
type Allocator struct {
	mu sync.Mutex
	kv store.KV
}

func New(kv store.KV) *Allocator { return &Allocator{kv: kv} }

// Next increments the counter modulo 200, persists the new value, and
// returns it as a 3-character zero-padded numeral. A fresh store
// yields "002": the first call initializes the counter to 1, then
// increments.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := 0
	raw, ok, err := a.kv.Get(ctx, counterKey)
	if err != nil {
		return "", err
	}
	if !ok {
		current = 1
		if err := a.kv.Set(ctx, counterKey, strconv.Itoa(current)); err != nil {
			return "", err
		}
	} else {
		current, err = strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("corrupt ticket counter %q: %w", raw, err)
		}
	}

	next := (current + 1) % modulus
	if err := a.kv.Set(ctx, counterKey, strconv.Itoa(next)); err != nil {
		return "", err
	}
	return Format(next), nil
}

// Format pads n to at least three digits and keeps the trailing three.
func Format(n int) string {
	s := fmt.Sprintf("%03d", n)
	return s[len(s)-3:]
}
