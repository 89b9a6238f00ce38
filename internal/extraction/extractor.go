// Package extraction turns a photo of a bill into structured line items.
package extraction

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable means the extraction service could not be reached or
	// refused the request (missing key, timeouts, 5xx after retries).
	ErrUnavailable = errors.New("extraction service unavailable")

	// ErrUnparseable means the service answered but its content was not a
	// JSON list of line items. Never retried.
	ErrUnparseable = errors.New("extraction output unparseable")
)

// LineItem is one entry as returned by the extraction service. Pointer
// fields are nil when the service left them out.
type LineItem struct {
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
}

// Extractor extracts line items from image bytes.
type Extractor interface {
	ExtractLineItems(ctx context.Context, image []byte) ([]LineItem, error)
}

// Disabled is used when no extraction service is configured.
type Disabled struct{}

// ExtractLineItems always fails with ErrUnavailable.
func (Disabled) ExtractLineItems(context.Context, []byte) ([]LineItem, error) {
	return nil, errors.Join(ErrUnavailable, errors.New("no extraction service configured"))
}

// NormalizedItem is a line item with every field resolved.
type NormalizedItem struct {
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Normalize applies defaults and drops entries that cannot become items:
//   - quantity defaults to 1 when missing or not positive
//   - totalPrice defaults to unitPrice × quantity
//   - unitPrice falls back to totalPrice / quantity
//   - entries without a name, without any price, or with a negative price are skipped
//
// It returns the kept items and how many were skipped.
func Normalize(lineItems []LineItem) ([]NormalizedItem, int) {
	out := make([]NormalizedItem, 0, len(lineItems))
	skipped := 0
	for _, li := range lineItems {
		name := strings.TrimSpace(li.Name)
		if name == "" {
			skipped++
			continue
		}

		qty := decimal.NewFromInt(1)
		if li.Quantity != nil && li.Quantity.IsPositive() {
			qty = *li.Quantity
		}

		var unit, total decimal.Decimal
		switch {
		case li.UnitPrice != nil && li.TotalPrice != nil:
			unit, total = *li.UnitPrice, *li.TotalPrice
		case li.UnitPrice != nil:
			unit = *li.UnitPrice
			total = unit.Mul(qty)
		case li.TotalPrice != nil:
			total = *li.TotalPrice
			unit = total.Div(qty)
		default:
			skipped++
			continue
		}
		if unit.IsNegative() || total.IsNegative() {
			skipped++
			continue
		}

		out = append(out, NormalizedItem{Name: name, Quantity: qty, UnitPrice: unit, TotalPrice: total})
	}
	return out, skipped
}
