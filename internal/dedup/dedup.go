// Package dedup guards against reprocessing purchases the at-least-once
// feed delivers more than once.
package dedup

import (
	"context"

	"print-relay/internal/store"
)

const keyPrefix = "seen:"

// Gate persists one marker per accepted purchase. Markers are never
// cleared; a purchase id seen once is skipped forever, across restarts.
type Gate struct {
	kv store.KV
}

func New(kv store.KV) *Gate { return &Gate{kv: kv} }

// Accept returns true exactly once per purchase id: on first sight the
// marker is persisted in the same atomic store operation that checks
// for it. A store error means the caller must not proceed with the
// purchase.
func (g *Gate) Accept(ctx context.Context, purchaseID string) (bool, error) {
	return g.kv.PutIfAbsent(ctx, keyPrefix+purchaseID, "1")
}
