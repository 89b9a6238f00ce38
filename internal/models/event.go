package models

import "github.com/shopspring/decimal"

// SplitMode selects how tax or tip is distributed across people.
type SplitMode string

const (
	// SplitEqual divides the amount evenly by headcount.
	SplitEqual SplitMode = "EQUAL"
	// SplitProportional divides the amount in proportion to each person's
	// already-allocated share.
	SplitProportional SplitMode = "PROPORTIONAL"
)

// Valid reports whether m is a known split mode.
func (m SplitMode) Valid() bool {
	return m == SplitEqual || m == SplitProportional
}

// Event is a single bill-splitting session.
type Event struct {
	// ID is the unique identifier for the event (random UUID, not guessable).
	ID string `json:"eventId"`

	// Name is the display name of the event (e.g., "Friday dinner").
	Name string `json:"name"`

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64 `json:"createdAt"`

	// Tax is the tax amount on the bill (non-negative).
	Tax decimal.Decimal `json:"tax"`

	// Tip is the tip amount on the bill (non-negative).
	Tip decimal.Decimal `json:"tip"`

	TaxSplitMode SplitMode `json:"taxSplitMode"`
	TipSplitMode SplitMode `json:"tipSplitMode"`

	// BillImage is the image store reference of the attached bill photo.
	// Empty when no image is attached.
	BillImage string `json:"billImage,omitempty"`

	// BillParsed is true once items were extracted from the current BillImage.
	// It is reset whenever BillImage changes.
	BillParsed bool `json:"billParsed"`
}

// SetBillImage replaces the image reference and resets the parsed flag.
func (e *Event) SetBillImage(ref string) {
	e.BillImage = ref
	e.BillParsed = false
}

// Person is a participant of an event.
type Person struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`
	Name    string `json:"name"`
}
