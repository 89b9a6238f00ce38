package models

import "github.com/shopspring/decimal"

// Claim records how much of an item one person consumed.
// Quantity may exceed the item's quantity (see Item.Overclaimed).
type Claim struct {
	PersonID string          `json:"personId"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Item is a single line item on a bill.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// EventID is the event this item belongs to.
	EventID string `json:"eventId"`

	// Name is the description of the item (e.g., "Pizza", "Beer").
	Name string `json:"name"`

	// Quantity is how many units were ordered. Fractional values are allowed
	// (1.5 kg of ribs).
	Quantity decimal.Decimal `json:"quantity"`

	// UnitPrice is the price of one unit. Shares are computed from it.
	UnitPrice decimal.Decimal `json:"unitPrice"`

	// TotalPrice is stored independently of Quantity × UnitPrice and is what
	// the bill total is summed from.
	TotalPrice decimal.Decimal `json:"totalPrice"`

	// Claims holds at most one claim per person, none with quantity <= 0.
	Claims []Claim `json:"claims"`
}

// SetClaim sets personID's claimed quantity. A quantity <= 0 removes the
// claim; otherwise an existing claim is replaced (not accumulated) or a new
// one is appended.
func (it *Item) SetClaim(personID string, quantity decimal.Decimal) {
	if !quantity.IsPositive() {
		it.RemoveClaim(personID)
		return
	}
	for i := range it.Claims {
		if it.Claims[i].PersonID == personID {
			it.Claims[i].Quantity = quantity
			return
		}
	}
	it.Claims = append(it.Claims, Claim{PersonID: personID, Quantity: quantity})
}

// RemoveClaim drops personID's claim and reports whether one existed.
func (it *Item) RemoveClaim(personID string) bool {
	kept := it.Claims[:0]
	removed := false
	for _, c := range it.Claims {
		if c.PersonID == personID {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	it.Claims = kept
	return removed
}

// ClearClaims removes every claim on the item.
func (it *Item) ClearClaims() {
	it.Claims = []Claim{}
}

// ClaimOf returns personID's claimed quantity, zero if none.
func (it *Item) ClaimOf(personID string) decimal.Decimal {
	for _, c := range it.Claims {
		if c.PersonID == personID {
			return c.Quantity
		}
	}
	return decimal.Zero
}

// ClaimedQuantity is the sum of all claimed quantities.
func (it *Item) ClaimedQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range it.Claims {
		sum = sum.Add(c.Quantity)
	}
	return sum
}

// Overclaimed reports whether more was claimed than the item's quantity.
// This is a warning state for display, not an error.
func (it *Item) Overclaimed() bool {
	return it.ClaimedQuantity().GreaterThan(it.Quantity)
}

// Aggregate is the complete state of one event: what gets persisted piecewise,
// broadcast as a whole, and fed to the calculator.
type Aggregate struct {
	Event  Event    `json:"event"`
	Items  []Item   `json:"items"`
	People []Person `json:"people"`
}

// RemovePerson deletes the person and sweeps their claims from every item.
func (a *Aggregate) RemovePerson(personID string) {
	people := a.People[:0]
	for _, p := range a.People {
		if p.ID != personID {
			people = append(people, p)
		}
	}
	a.People = people
	for i := range a.Items {
		a.Items[i].RemoveClaim(personID)
	}
}

// Person looks up a person by ID.
func (a *Aggregate) Person(personID string) (Person, bool) {
	for _, p := range a.People {
		if p.ID == personID {
			return p, true
		}
	}
	return Person{}, false
}
