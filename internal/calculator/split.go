package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// Policy is the tax/tip configuration of an event.
type Policy struct {
	Tax     decimal.Decimal
	Tip     decimal.Decimal
	TaxMode models.SplitMode
	TipMode models.SplitMode
}

// PolicyFor returns the tax/tip policy stored on an event.
func PolicyFor(ev models.Event) Policy {
	return Policy{Tax: ev.Tax, Tip: ev.Tip, TaxMode: ev.TaxSplitMode, TipMode: ev.TipSplitMode}
}

// PersonItem represents one item's share for one person.
type PersonItem struct {
	ItemID   string
	Name     string
	Quantity decimal.Decimal // claimed quantity
	Amount   decimal.Decimal // Quantity × unit price
}

// PersonSplit represents the calculated split for one person.
type PersonSplit struct {
	PersonID string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
	Total    decimal.Decimal
	Items    []PersonItem
}

// Result is the full outcome of a split calculation.
type Result struct {
	Splits map[string]*PersonSplit

	// ItemsTotal is the sum of stored item total prices.
	ItemsTotal decimal.Decimal
	// TotalBill is ItemsTotal + tax + tip.
	TotalBill decimal.Decimal
	// Allocated is the sum of every person's Total.
	Allocated decimal.Decimal
	// Unallocated is TotalBill - Allocated: unclaimed items, tax or tip that
	// could not be distributed, and price mismatches.
	Unallocated decimal.Decimal
}

// ComputeShares returns how much each person owes.
//
// Algorithm:
//   - Every known person starts at 0
//   - Each claim adds quantity × unit price to its person
//   - Tax is added, EQUAL (tax / headcount) or PROPORTIONAL (share × tax / allocated)
//   - Tip is added the same way, its proportional basis already including tax
//
// PROPORTIONAL with nothing allocated distributes nothing. Claims naming
// people not in the list are ignored.
func ComputeShares(items []models.Item, people []models.Person, policy Policy) map[string]decimal.Decimal {
	res := CalculateSplit(items, people, policy)
	shares := make(map[string]decimal.Decimal, len(res.Splits))
	for id, split := range res.Splits {
		shares[id] = split.Total
	}
	return shares
}

// CalculateSplit computes each person's itemized share of the bill
// including tax and tip. It never fails; degenerate inputs (no people,
// nothing claimed) simply leave amounts unallocated.
func CalculateSplit(items []models.Item, people []models.Person, policy Policy) *Result {
	splits := make(map[string]*PersonSplit, len(people))

	// Initialize splits for all people so those without claims show up at 0
	for _, p := range people {
		splits[p.ID] = &PersonSplit{
			PersonID: p.ID,
			Subtotal: decimal.Zero,
			Tax:      decimal.Zero,
			Tip:      decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	for _, item := range items {
		for _, claim := range item.Claims {
			split, ok := splits[claim.PersonID]
			if !ok || !claim.Quantity.IsPositive() {
				continue
			}
			amount := claim.Quantity.Mul(item.UnitPrice)
			split.Subtotal = split.Subtotal.Add(amount)
			split.Total = split.Total.Add(amount)
			split.Items = append(split.Items, PersonItem{
				ItemID:   item.ID,
				Name:     item.Name,
				Quantity: claim.Quantity,
				Amount:   amount,
			})
		}
	}

	for id, amount := range distribute(splits, policy.Tax, policy.TaxMode) {
		splits[id].Tax = amount
		splits[id].Total = splits[id].Total.Add(amount)
	}
	// Tip runs second so its proportional basis includes the tax just added.
	for id, amount := range distribute(splits, policy.Tip, policy.TipMode) {
		splits[id].Tip = amount
		splits[id].Total = splits[id].Total.Add(amount)
	}

	res := &Result{
		Splits:     splits,
		ItemsTotal: ItemsTotal(items),
		TotalBill:  TotalBill(items, policy.Tax, policy.Tip),
		Allocated:  decimal.Zero,
	}
	for _, split := range splits {
		res.Allocated = res.Allocated.Add(split.Total)
	}
	res.Unallocated = res.TotalBill.Sub(res.Allocated)
	return res
}

// distribute returns the per-person portion of amount under mode, computed
// against the current running totals. The ratio is computed once so the
// result does not depend on map iteration order.
func distribute(splits map[string]*PersonSplit, amount decimal.Decimal, mode models.SplitMode) map[string]decimal.Decimal {
	if !amount.IsPositive() || len(splits) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(splits))

	if mode == models.SplitEqual {
		perPerson := amount.Div(decimal.NewFromInt(int64(len(splits))))
		for id := range splits {
			out[id] = perPerson
		}
		return out
	}

	allocated := decimal.Zero
	for _, split := range splits {
		allocated = allocated.Add(split.Total)
	}
	if !allocated.IsPositive() {
		return nil
	}
	ratio := amount.Div(allocated)
	for id, split := range splits {
		out[id] = split.Total.Mul(ratio)
	}
	return out
}

// ItemsTotal sums the stored total price of every item.
func ItemsTotal(items []models.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// TotalBill is the sum of stored item totals plus tax and tip. It uses the
// stored TotalPrice, not Quantity × UnitPrice.
func TotalBill(items []models.Item, tax, tip decimal.Decimal) decimal.Decimal {
	return ItemsTotal(items).Add(tax).Add(tip)
}

// ClaimStatus summarizes how much of an item has been claimed.
type ClaimStatus struct {
	ItemID      string
	Claimed     decimal.Decimal
	Remaining   decimal.Decimal // negative when overclaimed
	Overclaimed bool
}

// ClaimStatuses reports claim progress for every item, in item order.
func ClaimStatuses(items []models.Item) []ClaimStatus {
	out := make([]ClaimStatus, len(items))
	for i := range items {
		claimed := items[i].ClaimedQuantity()
		out[i] = ClaimStatus{
			ItemID:      items[i].ID,
			Claimed:     claimed,
			Remaining:   items[i].Quantity.Sub(claimed),
			Overclaimed: items[i].Overclaimed(),
		}
	}
	return out
}
