package billing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/storage"
)

// EventUpdate is a partial update; nil fields are left unchanged.
type EventUpdate struct {
	Name         *string
	Tax          *decimal.Decimal
	Tip          *decimal.Decimal
	TaxSplitMode *models.SplitMode
	TipSplitMode *models.SplitMode
}

// CreateEvent creates an event with zero tax and tip, both split equally.
func (s *Service) CreateEvent(ctx context.Context, name string) (*models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.Mutations.WithLabelValues("create_event", "invalid_input").Inc()
		return nil, invalidf("event name is required")
	}
	event := &models.Event{
		Name:         name,
		Tax:          decimal.Zero,
		Tip:          decimal.Zero,
		TaxSplitMode: models.SplitEqual,
		TipSplitMode: models.SplitEqual,
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		err = storeErr(err, "save event")
		metrics.Mutations.WithLabelValues("create_event", outcome(err)).Inc()
		return nil, err
	}
	metrics.Mutations.WithLabelValues("create_event", metrics.OutcomeOK).Inc()
	slog.Info("Event created", "event_id", event.ID, "name", event.Name)
	return event, nil
}

// UpdateEvent applies a partial update to the event's name, tax, tip and split modes.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, upd EventUpdate) (*models.Event, error) {
	var event *models.Event
	err := s.mutate(ctx, "update_event", eventID, func() error {
		if err := upd.validate(); err != nil {
			return err
		}
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return storeErr(err, "get event")
		}
		if upd.Name != nil {
			ev.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Tax != nil {
			ev.Tax = *upd.Tax
		}
		if upd.Tip != nil {
			ev.Tip = *upd.Tip
		}
		if upd.TaxSplitMode != nil {
			ev.TaxSplitMode = *upd.TaxSplitMode
		}
		if upd.TipSplitMode != nil {
			ev.TipSplitMode = *upd.TipSplitMode
		}
		if err := s.store.SaveEvent(ctx, ev); err != nil {
			return storeErr(err, "save event")
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (u EventUpdate) validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return invalidf("event name cannot be empty")
	}
	if u.Tax != nil && u.Tax.IsNegative() {
		return invalidf("tax cannot be negative")
	}
	if u.Tip != nil && u.Tip.IsNegative() {
		return invalidf("tip cannot be negative")
	}
	if u.TaxSplitMode != nil && !u.TaxSplitMode.Valid() {
		return invalidf("unknown tax split mode %q", *u.TaxSplitMode)
	}
	if u.TipSplitMode != nil && !u.TipSplitMode.Valid() {
		return invalidf("unknown tip split mode %q", *u.TipSplitMode)
	}
	return nil
}

// AddPerson adds a participant to an event.
func (s *Service) AddPerson(ctx context.Context, eventID, name string) (*models.Person, error) {
	var person *models.Person
	err := s.mutate(ctx, "add_person", eventID, func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return invalidf("person name is required")
		}
		if _, err := s.store.GetEvent(ctx, eventID); err != nil {
			return storeErr(err, "get event")
		}
		p := &models.Person{EventID: eventID, Name: name}
		if err := s.store.SavePerson(ctx, p); err != nil {
			return storeErr(err, "save person")
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// deletePerson sweeps claims and deletes the person, atomically when the
// store supports it.
func (s *Service) deletePerson(ctx context.Context, eventID, personID string) error {
	if remover, ok := s.store.(storage.PersonRemover); ok {
		if err := remover.RemovePersonWithClaims(ctx, eventID, personID); err != nil {
			return storeErr(err, "remove person")
		}
		return nil
	}
	if err := s.store.DeleteClaimsForPerson(ctx, eventID, personID); err != nil {
		return storeErr(err, "delete claims")
	}
	if err := s.store.DeletePerson(ctx, personID); err != nil {
		return storeErr(err, "delete person")
	}
	return nil
}

// RemovePerson deletes a person and every claim they hold on the event's
// items. Both happen before the single broadcast, so no subscriber ever sees
// a claim referencing the removed person.
func (s *Service) RemovePerson(ctx context.Context, personID string) error {
	p, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		err = storeErr(err, "get person")
		metrics.Mutations.WithLabelValues("remove_person", outcome(err)).Inc()
		return err
	}
	return s.mutate(ctx, "remove_person", p.EventID, func() error {
		// re-check under the lock; a concurrent removal may have won
		if _, err := s.store.GetPerson(ctx, personID); err != nil {
			return storeErr(err, "get person")
		}
		if err := s.deletePerson(ctx, p.EventID, personID); err != nil {
			return err
		}
		slog.Info("Person removed", "event_id", p.EventID, "person_id", personID)
		return nil
	})
}
