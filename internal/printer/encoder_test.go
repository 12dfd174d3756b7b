package printer

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-relay/internal/domain"
)

func strptr(s string) *string { return &s }

func sampleItems() []domain.TicketItem {
	return []domain.TicketItem{
		{Amount: 2, Item: "Burger", Extra: strptr("no onion")},
		{Amount: 1, Item: "Cola"},
	}
}

// The byte output is what the physical devices consume; lock it with
// golden files so framing changes are always deliberate.

func TestStarEncoder_CustomerReceipt(t *testing.T) {
	enc, err := NewEncoder("star")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "star_customer_receipt", enc.CustomerReceipt("002", sampleItems(), strptr("Stay hydrated")))
}

func TestStarEncoder_CustomerReceiptNoMeme(t *testing.T) {
	enc, err := NewEncoder("star")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "star_customer_receipt_no_meme", enc.CustomerReceipt("002", sampleItems(), nil))
}

func TestEpsonEncoder_Internal(t *testing.T) {
	enc, err := NewEncoder("epson")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "epson_internal", enc.Internal("Kassa Uppe 1", "002",
		[]domain.TicketItem{{Amount: 2, Item: "Burger", Extra: strptr("no onion")}}))
}

func TestNewEncoder_Families(t *testing.T) {
	for _, family := range []string{"star", "STAR", "epson", " Epson "} {
		_, err := NewEncoder(family)
		assert.NoError(t, err, "family %q", family)
	}
	_, err := NewEncoder("dotmatrix")
	assert.Error(t, err)
}

func TestEncoders_FramingDiffers(t *testing.T) {
	star, err := NewEncoder("star")
	require.NoError(t, err)
	epson, err := NewEncoder("epson")
	require.NoError(t, err)

	items := sampleItems()
	assert.NotEqual(t, star.CustomerReceipt("002", items, nil),
		epson.CustomerReceipt("002", items, nil),
		"the two families use different cut sequences")
}
