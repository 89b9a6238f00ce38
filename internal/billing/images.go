package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hppanpaliya/FairShare-AI/internal/extraction"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// ImageUpload is an uploaded bill photo.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseResult reports what ParseBill created.
type ParseResult struct {
	Event   models.Event
	Items   []models.Item
	Skipped int
}

// AttachBillImage stores a new bill image, replaces the event's reference and
// resets its parsed flag. The previous image is deleted.
func (s *Service) AttachBillImage(ctx context.Context, eventID string, up ImageUpload) (*models.Event, error) {
	var event *models.Event
	err := s.mutate(ctx, "attach_bill_image", eventID, func() error {
		contentType, err := s.checkUpload(&up)
		if err != nil {
			return err
		}
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return storeErr(err, "get event")
		}
		ref, err := s.images.Store(ctx, eventID, up.Filename, contentType, up.Data)
		if err != nil {
			return storeErr(err, "store image")
		}
		previous := ev.BillImage
		ev.SetBillImage(ref)
		if err := s.store.SaveEvent(ctx, ev); err != nil {
			s.deleteImage(ctx, eventID, ref)
			return storeErr(err, "save event")
		}
		if previous != "" && previous != ref {
			s.deleteImage(ctx, eventID, previous)
		}
		slog.Info("Bill image attached", "event_id", eventID, "ref", ref, "bytes", len(up.Data))
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) checkUpload(up *ImageUpload) (string, error) {
	if len(up.Data) == 0 {
		return "", invalidf("bill image is empty")
	}
	if int64(len(up.Data)) > s.maxImageBytes {
		return "", invalidf("bill image exceeds %d bytes", s.maxImageBytes)
	}
	contentType := strings.ToLower(strings.TrimSpace(up.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(up.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", invalidf("only image files are allowed, got %s", contentType)
	}
	return contentType, nil
}

// ClearBillImage removes the event's bill image and resets its parsed flag.
func (s *Service) ClearBillImage(ctx context.Context, eventID string) (*models.Event, error) {
	var event *models.Event
	err := s.mutate(ctx, "clear_bill_image", eventID, func() error {
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return storeErr(err, "get event")
		}
		if ev.BillImage == "" {
			return notFoundf("event %s has no bill image", eventID)
		}
		ref := ev.BillImage
		ev.SetBillImage("")
		if err := s.store.SaveEvent(ctx, ev); err != nil {
			return storeErr(err, "save event")
		}
		s.deleteImage(ctx, eventID, ref)
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// BillImage returns the bytes and content type of the event's bill image.
// If the stored object has vanished, the event's reference is cleared and
// ErrNotFound returned.
func (s *Service) BillImage(ctx context.Context, eventID string) ([]byte, string, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, "", storeErr(err, "get event")
	}
	if ev.BillImage == "" {
		return nil, "", notFoundf("event %s has no bill image", eventID)
	}
	data, err := s.retrieveImage(ctx, ev)
	if err != nil {
		return nil, "", err
	}
	return data, imagestore.ContentTypeForRef(ev.BillImage), nil
}

// retrieveImage reads ev's bill image, forgetting the reference when the
// object no longer exists.
func (s *Service) retrieveImage(ctx context.Context, ev *models.Event) ([]byte, error) {
	data, err := s.images.Retrieve(ctx, ev.BillImage)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, imagestore.ErrNotFound) {
		return nil, storeErr(err, "retrieve image")
	}

	ref := ev.BillImage
	slog.Warn("Bill image missing from store, clearing reference", "event_id", ev.ID, "ref", ref)
	clearErr := s.mutate(ctx, "forget_bill_image", ev.ID, func() error {
		cur, err := s.store.GetEvent(ctx, ev.ID)
		if err != nil {
			return storeErr(err, "get event")
		}
		if cur.BillImage != ref {
			return nil
		}
		cur.SetBillImage("")
		if err := s.store.SaveEvent(ctx, cur); err != nil {
			return storeErr(err, "save event")
		}
		return nil
	})
	if clearErr != nil {
		slog.Error("Failed to clear missing bill image", "event_id", ev.ID, "error", clearErr)
	}
	return nil, storeErr(err, "retrieve image")
}

// ParseBill extracts line items from the event's bill image and adds one
// item per extracted entry. The extraction call runs without holding the
// event lock; the result is discarded if the image was replaced meanwhile.
// The parsed flag is set only when at least one item was created.
func (s *Service) ParseBill(ctx context.Context, eventID string) (*ParseResult, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		err = storeErr(err, "get event")
		metrics.Mutations.WithLabelValues("parse_bill", outcome(err)).Inc()
		return nil, err
	}
	if ev.BillImage == "" {
		metrics.Mutations.WithLabelValues("parse_bill", "invalid_input").Inc()
		return nil, invalidf("no bill image found for event %s", eventID)
	}
	ref := ev.BillImage

	image, err := s.retrieveImage(ctx, ev)
	if err != nil {
		metrics.Mutations.WithLabelValues("parse_bill", outcome(err)).Inc()
		return nil, err
	}

	lineItems, err := s.extractor.ExtractLineItems(ctx, image)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrExternalService, err)
		metrics.Mutations.WithLabelValues("parse_bill", outcome(err)).Inc()
		slog.Error("Bill extraction failed", "event_id", eventID, "error", err)
		return nil, err
	}
	normalized, skipped := extraction.Normalize(lineItems)
	if skipped > 0 {
		slog.Warn("Skipped unusable extracted line items", "event_id", eventID, "skipped", skipped)
	}

	res := &ParseResult{Items: []models.Item{}, Skipped: skipped}
	unlock := s.locks.lock(eventID)
	defer unlock()

	err = s.persistParsed(ctx, eventID, ref, normalized, res)
	metrics.Mutations.WithLabelValues("parse_bill", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	if len(res.Items) > 0 {
		s.broadcast(ctx, "parse_bill", eventID)
	}
	slog.Info("Bill parsed", "event_id", eventID, "items", len(res.Items), "skipped", skipped)
	return res, nil
}

// persistParsed creates the extracted items. Must hold the event lock. On
// failure the items created so far are removed again.
func (s *Service) persistParsed(ctx context.Context, eventID, ref string, normalized []extraction.NormalizedItem, res *ParseResult) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return storeErr(err, "get event")
	}
	if ev.BillImage != ref {
		return fmt.Errorf("%w: bill image changed while parsing", ErrPersistence)
	}

	for _, n := range normalized {
		it := models.Item{
			EventID:    eventID,
			Name:       n.Name,
			Quantity:   n.Quantity,
			UnitPrice:  n.UnitPrice,
			TotalPrice: n.TotalPrice,
			Claims:     []models.Claim{},
		}
		if err := s.store.SaveItem(ctx, &it); err != nil {
			s.rollbackItems(ctx, eventID, res.Items)
			return storeErr(err, "save item")
		}
		res.Items = append(res.Items, it)
	}

	if len(res.Items) > 0 {
		ev.BillParsed = true
		if err := s.store.SaveEvent(ctx, ev); err != nil {
			s.rollbackItems(ctx, eventID, res.Items)
			return storeErr(err, "save event")
		}
	}
	res.Event = *ev
	return nil
}

func (s *Service) rollbackItems(ctx context.Context, eventID string, items []models.Item) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range items {
		if err := s.store.DeleteItem(ctx, it.ID); err != nil {
			slog.Error("Failed to roll back parsed item", "event_id", eventID, "item_id", it.ID, "error", err)
		}
	}
}

func (s *Service) deleteImage(ctx context.Context, eventID, ref string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		slog.Warn("Failed to delete bill image", "event_id", eventID, "ref", ref, "error", err)
	}
}
