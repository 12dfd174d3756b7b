// Package printer delivers formatted jobs to network receipt printers.
package printer

import (
	"context"

	"print-relay/internal/domain"
)

// Printer accepts the two job kinds a physical device prints.
type Printer interface {
	// PrintCustomerReceipt prints the copy handed to the customer:
	// the merged item list plus an optional meme payload.
	PrintCustomerReceipt(ctx context.Context, ticketID string, items []domain.TicketItem, meme *string) error

	// PrintInternal prints a staff-facing job for one station.
	PrintInternal(ctx context.Context, register, ticketID string, items []domain.TicketItem) error
}
