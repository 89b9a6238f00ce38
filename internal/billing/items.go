package billing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// ItemInput carries item fields for create and update. Nil fields are
// defaulted on create and left unchanged on update.
type ItemInput struct {
	Name       *string
	Quantity   *decimal.Decimal
	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal
}

// apply validates in and writes it onto item, reconciling prices:
//   - missing total becomes quantity × unit price
//   - missing unit price becomes total ÷ quantity
//   - a quantity change alone recomputes the total from the unit price
func (in ItemInput) apply(item *models.Item, creating bool) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalidf("item name cannot be empty")
		}
		item.Name = name
	} else if creating {
		return invalidf("item name is required")
	}

	if in.Quantity != nil {
		if !in.Quantity.IsPositive() {
			return invalidf("item quantity must be positive")
		}
		item.Quantity = *in.Quantity
	} else if creating {
		item.Quantity = decimal.NewFromInt(1)
	}

	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return invalidf("unit price cannot be negative")
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return invalidf("total price cannot be negative")
	}

	switch {
	case in.UnitPrice != nil && in.TotalPrice != nil:
		item.UnitPrice = *in.UnitPrice
		item.TotalPrice = *in.TotalPrice
	case in.UnitPrice != nil:
		item.UnitPrice = *in.UnitPrice
		item.TotalPrice = item.UnitPrice.Mul(item.Quantity)
	case in.TotalPrice != nil:
		item.TotalPrice = *in.TotalPrice
		item.UnitPrice = item.TotalPrice.Div(item.Quantity)
	case creating:
		return invalidf("unit price or total price is required")
	case in.Quantity != nil:
		item.TotalPrice = item.UnitPrice.Mul(item.Quantity)
	}
	return nil
}

// AddItem adds a line item with no claims.
func (s *Service) AddItem(ctx context.Context, eventID string, in ItemInput) (*models.Item, error) {
	var item *models.Item
	err := s.mutate(ctx, "add_item", eventID, func() error {
		it := &models.Item{EventID: eventID, Claims: []models.Claim{}}
		if err := in.apply(it, true); err != nil {
			return err
		}
		if _, err := s.store.GetEvent(ctx, eventID); err != nil {
			return storeErr(err, "get event")
		}
		if err := s.store.SaveItem(ctx, it); err != nil {
			return storeErr(err, "save item")
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem changes an item's name, quantity or prices. Claims are kept.
func (s *Service) UpdateItem(ctx context.Context, itemID string, in ItemInput) (*models.Item, error) {
	return s.mutateItem(ctx, "update_item", itemID, func(it *models.Item) error {
		return in.apply(it, false)
	})
}

// DeleteItem removes an item together with its claims.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	eventID, err := s.itemEvent(ctx, "delete_item", itemID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "delete_item", eventID, func() error {
		if err := s.store.DeleteItem(ctx, itemID); err != nil {
			return storeErr(err, "delete item")
		}
		return nil
	})
}

// SetClaim sets how much of an item a person claims. A quantity <= 0 removes
// the claim; otherwise it replaces any previous quantity.
func (s *Service) SetClaim(ctx context.Context, itemID, personID string, quantity decimal.Decimal) (*models.Item, error) {
	return s.mutateItem(ctx, "set_claim", itemID, func(it *models.Item) error {
		if personID == "" {
			return invalidf("person id is required")
		}
		if quantity.IsPositive() {
			if err := s.checkMember(ctx, it.EventID, personID); err != nil {
				return err
			}
		}
		it.SetClaim(personID, quantity)
		return nil
	})
}

// SplitEvenly gives each selected person item.Quantity / len(selection) and
// removes everyone else's claim. An empty selection is rejected.
func (s *Service) SplitEvenly(ctx context.Context, itemID string, personIDs []string) (*models.Item, error) {
	return s.mutateItem(ctx, "split_evenly", itemID, func(it *models.Item) error {
		selected := dedupe(personIDs)
		if len(selected) == 0 {
			return invalidf("select at least one person to split with")
		}
		for _, id := range selected {
			if err := s.checkMember(ctx, it.EventID, id); err != nil {
				return err
			}
		}
		share := it.Quantity.Div(decimal.NewFromInt(int64(len(selected))))
		claims := make([]models.Claim, 0, len(selected))
		for _, id := range selected {
			claims = append(claims, models.Claim{PersonID: id, Quantity: share})
		}
		it.Claims = claims
		return nil
	})
}

// ClearClaims removes every claim on an item.
func (s *Service) ClearClaims(ctx context.Context, itemID string) (*models.Item, error) {
	return s.mutateItem(ctx, "clear_claims", itemID, func(it *models.Item) error {
		it.ClearClaims()
		return nil
	})
}

// mutateItem loads an item under its event's lock, applies fn and saves it.
func (s *Service) mutateItem(ctx context.Context, op, itemID string, fn func(*models.Item) error) (*models.Item, error) {
	eventID, err := s.itemEvent(ctx, op, itemID)
	if err != nil {
		return nil, err
	}
	var item *models.Item
	err = s.mutate(ctx, op, eventID, func() error {
		it, err := s.store.GetItem(ctx, itemID)
		if err != nil {
			return storeErr(err, "get item")
		}
		if err := fn(it); err != nil {
			return err
		}
		if err := s.store.SaveItem(ctx, it); err != nil {
			return storeErr(err, "save item")
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// itemEvent resolves the event an item belongs to. The owning event never
// changes, so it is safe to read before taking the event lock.
func (s *Service) itemEvent(ctx context.Context, op, itemID string) (string, error) {
	it, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		err = storeErr(err, "get item")
		metrics.Mutations.WithLabelValues(op, outcome(err)).Inc()
		return "", err
	}
	return it.EventID, nil
}

func (s *Service) checkMember(ctx context.Context, eventID, personID string) error {
	p, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return storeErr(err, "get person "+personID)
	}
	if p.EventID != eventID {
		return invalidf("person %s is not part of this event", personID)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
