package domain

// Purchase is one checkout transaction as delivered by the POS feed.
// Field names follow the feed's wire format.
type Purchase struct {
	UUID            string    `json:"purchaseUUID"`
	UserDisplayName string    `json:"userDisplayName"`
	Products        []Product `json:"products"`
}

// Product is one raw line item on a purchase.
type Product struct {
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	VariantName string  `json:"variantName"`
	Comment     *string `json:"comment,omitempty"`
}

// TicketItem is one line on a printed ticket.
type TicketItem struct {
	Amount int     `json:"amnt"`
	Item   string  `json:"item"`
	Extra  *string `json:"extra"`
}

// Ticket is a purchase classified by fulfillment destination.
// ID stays empty until the purchase has passed the dedup gate.
type Ticket struct {
	ID            string
	PurchaseUUID  string
	Register      string
	KitchenItems  []TicketItem
	RegisterItems []TicketItem
	Meme          *string
}

// HasItems reports whether anything on the ticket is worth printing.
func (t Ticket) HasItems() bool {
	return len(t.KitchenItems) > 0 || len(t.RegisterItems) > 0
}

// MergedItems returns kitchen items followed by register items, the
// order they appear on the customer receipt.
func (t Ticket) MergedItems() []TicketItem {
	merged := make([]TicketItem, 0, len(t.KitchenItems)+len(t.RegisterItems))
	merged = append(merged, t.KitchenItems...)
	merged = append(merged, t.RegisterItems...)
	return merged
}
