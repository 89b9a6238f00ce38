package watcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hppanpaliya/FairShare-AI/internal/billing"
	"github.com/hppanpaliya/FairShare-AI/internal/calculator"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime"
	"github.com/hppanpaliya/FairShare-AI/internal/service"
	"github.com/hppanpaliya/FairShare-AI/internal/storage/sqlite"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupServer(t *testing.T) (*httptest.Server, *service.EventServiceClient) {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	images, err := imagestore.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	hub := realtime.NewHub(16)
	svc := billing.New(store, images, nil, hub)

	mux := http.NewServeMux()
	path, handler := service.NewEventServiceHandler(service.NewEventService(svc))
	mux.Handle(path, handler)
	mux.Handle("/ws", realtime.NewHandler(hub))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.CloseClientConnections()
		server.Close()
		store.Close()
	})
	return server, service.NewEventServiceClient(http.DefaultClient, server.URL)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://localhost:8080", want: "ws://localhost:8080/ws"},
		{in: "https://split.example.com/", want: "wss://split.example.com/ws"},
		{in: "http://host/api", want: "ws://host/api/ws"},
		{in: "ws://host", want: "ws://host/ws"},
		{in: "ftp://host", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebsocketURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatcher_CatchUpThenFollow(t *testing.T) {
	server, client := setupServer(t)
	ctx := context.Background()

	created, err := client.CreateEvent(ctx, connect.NewRequest(&service.CreateEventRequest{Name: "Dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	snaps := make(chan *service.GetSharesResponse, 16)
	w, err := New(server.URL, client, func(_ *models.Aggregate, shares *service.GetSharesResponse) {
		snaps <- shares
	}, Options{MaxReconnects: 1})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = w.Run(runCtx, eventID)
	}()

	select {
	case shares := <-snaps:
		assert.Empty(t, shares.Shares, "catch-up snapshot has no people yet")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for catch-up snapshot")
	}

	_, err = client.AddPerson(ctx, connect.NewRequest(&service.AddPersonRequest{EventID: eventID, Name: "Alice"}))
	require.NoError(t, err)

	select {
	case shares := <-snaps:
		require.Len(t, shares.Shares, 1)
		assert.Equal(t, "Alice", shares.Shares[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pushed snapshot")
	}

	snap, ok := w.Cache().Get(eventID)
	require.True(t, ok)
	assert.Len(t, snap.People, 1)

	cancel()
	wg.Wait()
	assert.NoError(t, runErr)
}

func TestWatcher_UnknownEventFails(t *testing.T) {
	server, client := setupServer(t)
	w, err := New(server.URL, client, nil, Options{MaxReconnects: 3})
	require.NoError(t, err)
	w.Cache().Put(&models.Aggregate{Event: models.Event{ID: "no-such-event", Name: "Stale"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = w.Run(ctx, "no-such-event")
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	_, cached := w.Cache().Get("no-such-event")
	assert.False(t, cached, "stale snapshot of a missing event is dropped")
}

func TestRender(t *testing.T) {
	agg := &models.Aggregate{
		Event: models.Event{ID: "ev", Name: "Dinner", Tax: d("4"), Tip: decimal.Zero,
			TaxSplitMode: models.SplitEqual, TipSplitMode: models.SplitEqual},
		People: []models.Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}},
		Items: []models.Item{
			{ID: "p", Name: "Pizza", Quantity: d("1"), UnitPrice: d("20"), TotalPrice: d("20"),
				Claims: []models.Claim{{PersonID: "a", Quantity: d("1")}, {PersonID: "b", Quantity: d("0.5")}}},
			{ID: "s", Name: "Soda", Quantity: d("2"), UnitPrice: d("3"), TotalPrice: d("6"),
				Claims: []models.Claim{{PersonID: "b", Quantity: d("2")}}},
		},
	}
	res := calculator.CalculateSplit(agg.Items, agg.People, calculator.PolicyFor(agg.Event))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, agg, service.BuildShares(agg, res)))
	out := buf.String()

	assert.Contains(t, out, "Dinner")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "22.00")
	assert.Contains(t, out, "18.00")
	assert.Contains(t, out, "bill 30.00")
	assert.Contains(t, out, "overclaimed: Pizza by 0.5")
}
