// Package billing applies mutations to an event's aggregate. Mutations on one
// event are serialized; after each successful commit the full aggregate is
// handed to a Publisher.
package billing

import (
	"context"
	"log/slog"

	"github.com/hppanpaliya/FairShare-AI/internal/calculator"
	"github.com/hppanpaliya/FairShare-AI/internal/extraction"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/storage"
)

// DefaultMaxImageBytes caps bill image uploads.
const DefaultMaxImageBytes = 5 << 20

// Publisher delivers an aggregate snapshot to the event's subscribers.
type Publisher interface {
	Publish(ctx context.Context, snapshot *models.Aggregate) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *models.Aggregate) error { return nil }

// Option configures a Service.
type Option func(*Service)

// WithMaxImageBytes overrides DefaultMaxImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

// Service implements every mutation and read on events.
type Service struct {
	store         storage.Store
	images        imagestore.Store
	extractor     extraction.Extractor
	publisher     Publisher
	maxImageBytes int64
	locks         eventLocks
}

// New creates a Service. A nil extractor disables bill parsing and a nil
// publisher disables broadcasting.
func New(store storage.Store, images imagestore.Store, extractor extraction.Extractor, publisher Publisher, opts ...Option) *Service {
	if extractor == nil {
		extractor = extraction.Disabled{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	s := &Service{
		store:         store,
		images:        images,
		extractor:     extractor,
		publisher:     publisher,
		maxImageBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate runs fn while holding eventID's lock. When fn succeeds the new
// aggregate is broadcast before the lock is released, so subscribers see
// snapshots in commit order.
func (s *Service) mutate(ctx context.Context, op, eventID string, fn func() error) error {
	unlock := s.locks.lock(eventID)
	defer unlock()

	err := fn()
	metrics.Mutations.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.broadcast(ctx, op, eventID)
	return nil
}

// broadcast publishes the current aggregate. Failures are logged only; the
// mutation has already been committed.
func (s *Service) broadcast(ctx context.Context, op, eventID string) {
	ctx = context.WithoutCancel(ctx)
	agg, err := s.load(ctx, eventID)
	if err != nil {
		metrics.BroadcastFailures.Inc()
		slog.Warn("Broadcast skipped: failed to load aggregate", "op", op, "event_id", eventID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, agg); err != nil {
		metrics.BroadcastFailures.Inc()
		slog.Warn("Broadcast failed", "op", op, "event_id", eventID, "error", err)
	}
}

// load reads the full aggregate of an event.
func (s *Service) load(ctx context.Context, eventID string) (*models.Aggregate, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "get event")
	}
	items, err := s.store.ListItems(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "list items")
	}
	people, err := s.store.ListPeople(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "list people")
	}
	if items == nil {
		items = []models.Item{}
	}
	if people == nil {
		people = []models.Person{}
	}
	return &models.Aggregate{Event: *event, Items: items, People: people}, nil
}

// Aggregate returns the current state of an event. Subscribers that join
// late use it to catch up.
func (s *Service) Aggregate(ctx context.Context, eventID string) (*models.Aggregate, error) {
	return s.load(ctx, eventID)
}

// Shares computes the itemized split of an event's current state.
func (s *Service) Shares(ctx context.Context, eventID string) (*models.Aggregate, *calculator.Result, error) {
	agg, err := s.load(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return agg, calculator.CalculateSplit(agg.Items, agg.People, calculator.PolicyFor(agg.Event)), nil
}
