package billing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hppanpaliya/FairShare-AI/internal/extraction"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
)

func lineItems(t *testing.T, content string) []extraction.LineItem {
	t.Helper()
	items, err := extraction.ParseLineItems(content)
	require.NoError(t, err)
	return items
}

func TestService_AttachBillImage(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()
	ev, err := env.svc.CreateEvent(ctx, "Dinner")
	require.NoError(t, err)

	first, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)
	require.NotEmpty(t, first.BillImage)
	assert.False(t, first.BillParsed)

	t.Run("replacing resets parsed flag and deletes the old image", func(t *testing.T) {
		stored, err := env.store.GetEvent(ctx, ev.ID)
		require.NoError(t, err)
		stored.BillParsed = true
		require.NoError(t, env.store.SaveEvent(ctx, stored))

		second, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill2.png", Data: pngBytes})
		require.NoError(t, err)
		assert.NotEqual(t, first.BillImage, second.BillImage)
		assert.False(t, second.BillParsed)

		_, err = env.images.Retrieve(ctx, first.BillImage)
		assert.ErrorIs(t, err, imagestore.ErrNotFound)
	})

	t.Run("rejects non-images", func(t *testing.T) {
		_, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		big := append(append([]byte(nil), pngBytes...), bytes.Repeat([]byte{0}, 2048)...)
		_, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{ContentType: "image/png", Data: big})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := env.svc.AttachBillImage(ctx, "missing", ImageUpload{ContentType: "image/png", Data: pngBytes})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_BillImageAndClear(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()
	ev, err := env.svc.CreateEvent(ctx, "Dinner")
	require.NoError(t, err)

	_, _, err = env.svc.BillImage(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	attached, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)

	data, contentType, err := env.svc.BillImage(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)

	cleared, err := env.svc.ClearBillImage(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.BillImage)
	_, err = env.images.Retrieve(ctx, attached.BillImage)
	assert.ErrorIs(t, err, imagestore.ErrNotFound)

	_, err = env.svc.ClearBillImage(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_BillImageMissingObjectClearsReference(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()
	ev, err := env.svc.CreateEvent(ctx, "Dinner")
	require.NoError(t, err)
	attached, err := env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)

	require.NoError(t, env.images.Delete(ctx, attached.BillImage))

	_, _, err = env.svc.BillImage(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := env.store.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.BillImage)
	assert.False(t, stored.BillParsed)
}

func TestService_ParseBill(t *testing.T) {
	ctx := context.Background()

	t.Run("creates items and marks the event parsed", func(t *testing.T) {
		env := setup(t, extractorFunc(func(_ context.Context, image []byte) ([]extraction.LineItem, error) {
			assert.Equal(t, pngBytes, image)
			return lineItems(t, `[
				{"name":"Pizza","quantity":1,"unitPrice":20,"totalPrice":20},
				{"name":"Soda","quantity":2,"unitPrice":3},
				{"name":"","unitPrice":5}
			]`), nil
		}))
		ev, err := env.svc.CreateEvent(ctx, "Dinner")
		require.NoError(t, err)
		_, err = env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", Data: pngBytes})
		require.NoError(t, err)
		before := env.pub.count()

		res, err := env.svc.ParseBill(ctx, ev.ID)
		require.NoError(t, err)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, 1, res.Skipped)
		assert.True(t, res.Event.BillParsed)
		assert.True(t, res.Items[1].TotalPrice.Equal(d("6")))
		assert.Empty(t, res.Items[0].Claims)
		assert.Equal(t, before+1, env.pub.count())

		snap := env.pub.last()
		assert.True(t, snap.Event.BillParsed)
		assert.Len(t, snap.Items, 2)
	})

	t.Run("no items leaves the flag unset", func(t *testing.T) {
		env := setup(t, extractorFunc(func(context.Context, []byte) ([]extraction.LineItem, error) {
			return lineItems(t, `[]`), nil
		}))
		ev, err := env.svc.CreateEvent(ctx, "Dinner")
		require.NoError(t, err)
		_, err = env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", Data: pngBytes})
		require.NoError(t, err)

		res, err := env.svc.ParseBill(ctx, ev.ID)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.False(t, res.Event.BillParsed)
	})

	t.Run("extraction failures propagate", func(t *testing.T) {
		for _, cause := range []error{extraction.ErrUnavailable, extraction.ErrUnparseable} {
			env := setup(t, extractorFunc(func(context.Context, []byte) ([]extraction.LineItem, error) {
				return nil, cause
			}))
			ev, err := env.svc.CreateEvent(ctx, "Dinner")
			require.NoError(t, err)
			_, err = env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", Data: pngBytes})
			require.NoError(t, err)

			_, err = env.svc.ParseBill(ctx, ev.ID)
			assert.ErrorIs(t, err, ErrExternalService)
			assert.ErrorIs(t, err, cause)

			agg, err := env.svc.Aggregate(ctx, ev.ID)
			require.NoError(t, err)
			assert.Empty(t, agg.Items)
			assert.False(t, agg.Event.BillParsed)
		}
	})

	t.Run("no image attached", func(t *testing.T) {
		env := setup(t, nil)
		ev, err := env.svc.CreateEvent(ctx, "Dinner")
		require.NoError(t, err)
		_, err = env.svc.ParseBill(ctx, ev.ID)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("image replaced during extraction discards the result", func(t *testing.T) {
		var env *testEnv
		var eventID string
		env = setup(t, extractorFunc(func(ctx context.Context, _ []byte) ([]extraction.LineItem, error) {
			_, err := env.svc.AttachBillImage(ctx, eventID, ImageUpload{Filename: "new.png", Data: pngBytes})
			if err != nil {
				return nil, errors.Join(extraction.ErrUnavailable, err)
			}
			return lineItems(t, `[{"name":"Pizza","unitPrice":20}]`), nil
		}))
		ev, err := env.svc.CreateEvent(ctx, "Dinner")
		require.NoError(t, err)
		eventID = ev.ID
		_, err = env.svc.AttachBillImage(ctx, ev.ID, ImageUpload{Filename: "bill.png", Data: pngBytes})
		require.NoError(t, err)

		_, err = env.svc.ParseBill(ctx, ev.ID)
		assert.ErrorIs(t, err, ErrPersistence)

		agg, err := env.svc.Aggregate(ctx, ev.ID)
		require.NoError(t, err)
		assert.Empty(t, agg.Items)
	})
}
