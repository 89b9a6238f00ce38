// Package models defines the core domain models for FairShare.
//
// # Models
//
//   - Event: one bill-splitting session, identified by an opaque UUID
//   - Person: someone taking part in an event
//   - Item: a line item on the bill; owns its claims
//   - Claim: how much of an item one person consumed
//   - Aggregate: event + items + people, the unit that is broadcast and split
//
// # Design Principles
//
// 1. **Exact arithmetic**: money and quantities are decimal.Decimal, never float64
// 2. **Weak references**: a Claim names its person by ID only. Nothing enforces that
// the person still exists, so removing a person requires an explicit sweep
// (see Aggregate.RemovePerson and storage.Store.DeleteClaimsForPerson)
// 3. **No zero claims**: a claim with quantity <= 0 is the same as no claim and
// is never stored
package models
