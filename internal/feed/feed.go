// Package feed reads recent purchases from the point-of-sale API.
package feed

import (
	"context"

	"print-relay/internal/domain"
)

// Source is the consumed port for the purchase feed.
type Source interface {
	// LatestPurchases returns the most recent purchases, newest last,
	// up to limit. includeRefunded asks the feed not to filter
	// refunded purchases out (the dedup gate handles repeats anyway).
	LatestPurchases(ctx context.Context, limit int, includeRefunded bool) ([]domain.Purchase, error)
}
