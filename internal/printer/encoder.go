package printer

import (
	"bytes"
	"fmt"
	"strings"

	"print-relay/internal/domain"
)

// Encoder renders a job into the raw bytes one protocol family accepts.
// Two families are in service: STAR line-mode printers at the registers
// and an ESC/POS (Epson) printer in the kitchen. Layout beyond plain
// ticket text is deliberately out of scope; the framing bytes here are
// the minimum each family needs to feed and cut.
type Encoder interface {
	CustomerReceipt(ticketID string, items []domain.TicketItem, meme *string) []byte
	Internal(register, ticketID string, items []domain.TicketItem) []byte
}

// NewEncoder returns the encoder for a protocol family name from config.
func NewEncoder(family string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "star":
		return starEncoder{}, nil
	case "epson":
		return epsonEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown printer protocol %q", family)
	}
}

func writeItems(b *bytes.Buffer, items []domain.TicketItem) {
	for _, it := range items {
		fmt.Fprintf(b, "%d x %s\n", it.Amount, it.Item)
		if it.Extra != nil && *it.Extra != "" {
			fmt.Fprintf(b, "  + %s\n", *it.Extra)
		}
	}
}

func customerBody(ticketID string, items []domain.TicketItem, meme *string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "ORDER %s\n", ticketID)
	b.WriteString("----------------\n")
	writeItems(&b, items)
	b.WriteString("----------------\n")
	if meme != nil && *meme != "" {
		fmt.Fprintf(&b, "%s\n", *meme)
	}
	b.WriteString("Tack!\n")
	return b.Bytes()
}

func internalBody(register, ticketID string, items []domain.TicketItem) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "ORDER %s\n", ticketID)
	fmt.Fprintf(&b, "FROM %s\n", register)
	b.WriteString("----------------\n")
	writeItems(&b, items)
	return b.Bytes()
}

type starEncoder struct{}

var (
	// ESC @ init, then feed and ESC d 2 partial cut after the body.
	starInit = []byte{0x1b, 0x40}
	starCut  = []byte{0x0a, 0x0a, 0x1b, 0x64, 0x02}
)

func (starEncoder) frame(body []byte) []byte {
	out := make([]byte, 0, len(starInit)+len(body)+len(starCut))
	out = append(out, starInit...)
	out = append(out, body...)
	out = append(out, starCut...)
	return out
}

func (e starEncoder) CustomerReceipt(ticketID string, items []domain.TicketItem, meme *string) []byte {
	return e.frame(customerBody(ticketID, items, meme))
}

func (e starEncoder) Internal(register, ticketID string, items []domain.TicketItem) []byte {
	return e.frame(internalBody(register, ticketID, items))
}

type epsonEncoder struct{}

var (
	// ESC @ init, then feed and GS V 0 full cut after the body.
	epsonInit = []byte{0x1b, 0x40}
	epsonCut  = []byte{0x0a, 0x0a, 0x1d, 0x56, 0x00}
)

func (epsonEncoder) frame(body []byte) []byte {
	out := make([]byte, 0, len(epsonInit)+len(body)+len(epsonCut))
	out = append(out, epsonInit...)
	out = append(out, body...)
	out = append(out, epsonCut...)
	return out
}

func (e epsonEncoder) CustomerReceipt(ticketID string, items []domain.TicketItem, meme *string) []byte {
	return e.frame(customerBody(ticketID, items, meme))
}

func (e epsonEncoder) Internal(register, ticketID string, items []domain.TicketItem) []byte {
	return e.frame(internalBody(register, ticketID, items))
}
