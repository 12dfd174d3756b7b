// Package classify turns raw feed purchases into printable tickets.
package classify

import "print-relay/internal/domain"

// The feed reports every sellable product under one of two fixed
// category names; the category decides which station prints the item.
const (
	kitchenCategory  = "Mat - Köket"
	registerCategory = "Mat - Baren"
)

// Classify partitions a purchase's line items by destination. Items
// outside the known categories are dropped. Pure: same purchase in,
// same ticket out, no side effects. The ticket ID is left unset.
func Classify(p domain.Purchase) domain.Ticket {
	t := domain.Ticket{
		PurchaseUUID: p.UUID,
		Register:     p.UserDisplayName,
	}
	for _, prod := range p.Products {
		item := domain.TicketItem{
			Amount: prod.Quantity,
			Item:   prod.VariantName,
			Extra:  prod.Comment,
		}
		switch prod.Name {
		case kitchenCategory:
			t.KitchenItems = append(t.KitchenItems, item)
		case registerCategory:
			t.RegisterItems = append(t.RegisterItems, item)
		}
	}
	return t
}
