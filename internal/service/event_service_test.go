package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hppanpaliya/FairShare-AI/internal/billing"
	"github.com/hppanpaliya/FairShare-AI/internal/extraction"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/middleware"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime"
	"github.com/hppanpaliya/FairShare-AI/internal/storage/sqlite"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-data")

type stubExtractor struct {
	content string
	err     error
}

func (s stubExtractor) ExtractLineItems(context.Context, []byte) ([]extraction.LineItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return extraction.ParseLineItems(s.content)
}

type testServer struct {
	client *EventServiceClient
	hub    *realtime.Hub
	url    string
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T, ex extraction.Extractor) *testServer {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "failed to create store")
	images, err := imagestore.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	hub := realtime.NewHub(16)
	svc := billing.New(store, images, ex, hub)

	mux := http.NewServeMux()
	path, handler := NewEventServiceHandler(NewEventService(svc), connect.WithInterceptors(middleware.LoggingInterceptor()))
	mux.Handle(path, handler)
	NewImageHandler(svc, 0).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		client: NewEventServiceClient(http.DefaultClient, server.URL),
		hub:    hub,
		url:    server.URL,
	}
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestEventService_EndToEnd(t *testing.T) {
	ts := setupTestServer(t, nil)
	ctx := context.Background()
	c := ts.client

	created, err := c.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Friday dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID
	require.NotEmpty(t, eventID)

	alice, err := c.AddPerson(ctx, connect.NewRequest(&AddPersonRequest{EventID: eventID, Name: "Alice"}))
	require.NoError(t, err)
	bob, err := c.AddPerson(ctx, connect.NewRequest(&AddPersonRequest{EventID: eventID, Name: "Bob"}))
	require.NoError(t, err)

	pizza, err := c.AddItem(ctx, connect.NewRequest(&AddItemRequest{EventID: eventID, Name: "Pizza", Quantity: dp("1"), UnitPrice: dp("20"), TotalPrice: dp("20")}))
	require.NoError(t, err)
	soda, err := c.AddItem(ctx, connect.NewRequest(&AddItemRequest{EventID: eventID, Name: "Soda", Quantity: dp("2"), UnitPrice: dp("3")}))
	require.NoError(t, err)
	assert.True(t, soda.Msg.Item.TotalPrice.Equal(d("6")))

	_, err = c.SetClaim(ctx, connect.NewRequest(&SetClaimRequest{ItemID: pizza.Msg.Item.ID, PersonID: alice.Msg.Person.ID, Quantity: d("1")}))
	require.NoError(t, err)
	_, err = c.SetClaim(ctx, connect.NewRequest(&SetClaimRequest{ItemID: soda.Msg.Item.ID, PersonID: bob.Msg.Person.ID, Quantity: d("2")}))
	require.NoError(t, err)

	_, err = c.UpdateEvent(ctx, connect.NewRequest(&UpdateEventRequest{EventID: eventID, Tax: dp("4")}))
	require.NoError(t, err)

	shares, err := c.GetShares(ctx, connect.NewRequest(&GetSharesRequest{EventID: eventID}))
	require.NoError(t, err)
	require.Len(t, shares.Msg.Shares, 2)
	assert.Equal(t, "Alice", shares.Msg.Shares[0].Name)
	assert.True(t, shares.Msg.Shares[0].Total.Equal(d("22")), "alice %s", shares.Msg.Shares[0].Total)
	assert.True(t, shares.Msg.Shares[1].Total.Equal(d("8")), "bob %s", shares.Msg.Shares[1].Total)
	assert.True(t, shares.Msg.TotalBill.Equal(d("30")))
	require.Len(t, shares.Msg.Items, 2)
	assert.False(t, shares.Msg.Items[0].Overclaimed)

	got, err := c.GetEvent(ctx, connect.NewRequest(&GetEventRequest{EventID: eventID}))
	require.NoError(t, err)
	assert.Equal(t, "Friday dinner", got.Msg.Event.Name)
	assert.Len(t, got.Msg.Items, 2)
	assert.Len(t, got.Msg.People, 2)
}

func TestEventService_ClaimOperations(t *testing.T) {
	ts := setupTestServer(t, nil)
	ctx := context.Background()
	c := ts.client

	created, err := c.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Tapas"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	var ids []string
	for _, name := range []string{"Ann", "Ben", "Cat", "Dan"} {
		p, err := c.AddPerson(ctx, connect.NewRequest(&AddPersonRequest{EventID: eventID, Name: name}))
		require.NoError(t, err)
		ids = append(ids, p.Msg.Person.ID)
	}
	item, err := c.AddItem(ctx, connect.NewRequest(&AddItemRequest{EventID: eventID, Name: "Croquetas", Quantity: dp("6"), UnitPrice: dp("1.5")}))
	require.NoError(t, err)
	itemID := item.Msg.Item.ID

	_, err = c.SetClaim(ctx, connect.NewRequest(&SetClaimRequest{ItemID: itemID, PersonID: ids[3], Quantity: d("1")}))
	require.NoError(t, err)

	split, err := c.SplitEvenly(ctx, connect.NewRequest(&SplitEvenlyRequest{ItemID: itemID, PersonIDs: ids[:3]}))
	require.NoError(t, err)
	require.Len(t, split.Msg.Item.Claims, 3)
	for _, cl := range split.Msg.Item.Claims {
		assert.NotEqual(t, ids[3], cl.PersonID)
		assert.True(t, cl.Quantity.Equal(d("2")))
	}

	_, err = c.SplitEvenly(ctx, connect.NewRequest(&SplitEvenlyRequest{ItemID: itemID}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.RemovePerson(ctx, connect.NewRequest(&RemovePersonRequest{PersonID: ids[0]}))
	require.NoError(t, err)
	got, err := c.GetEvent(ctx, connect.NewRequest(&GetEventRequest{EventID: eventID}))
	require.NoError(t, err)
	require.Len(t, got.Msg.Items[0].Claims, 2)
	for _, cl := range got.Msg.Items[0].Claims {
		assert.NotEqual(t, ids[0], cl.PersonID)
	}

	cleared, err := c.ClearClaims(ctx, connect.NewRequest(&ClearClaimsRequest{ItemID: itemID}))
	require.NoError(t, err)
	assert.Empty(t, cleared.Msg.Item.Claims)

	updated, err := c.UpdateItem(ctx, connect.NewRequest(&UpdateItemRequest{ItemID: itemID, TotalPrice: dp("10")}))
	require.NoError(t, err)
	assert.True(t, updated.Msg.Item.TotalPrice.Equal(d("10")))

	_, err = c.DeleteItem(ctx, connect.NewRequest(&DeleteItemRequest{ItemID: itemID}))
	require.NoError(t, err)
	_, err = c.DeleteItem(ctx, connect.NewRequest(&DeleteItemRequest{ItemID: itemID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestEventService_ErrorCodes(t *testing.T) {
	ts := setupTestServer(t, stubExtractor{err: extraction.ErrUnavailable})
	ctx := context.Background()
	c := ts.client

	_, err := c.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.GetEvent(ctx, connect.NewRequest(&GetEventRequest{EventID: "does-not-exist"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = c.GetEvent(ctx, connect.NewRequest(&GetEventRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	created, err := c.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	_, err = c.UpdateEvent(ctx, connect.NewRequest(&UpdateEventRequest{EventID: eventID, Tax: dp("-3")}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.UploadBillImage(ctx, connect.NewRequest(&UploadBillImageRequest{EventID: eventID, Filename: "bill.png", Data: pngBytes}))
	require.NoError(t, err)
	_, err = c.ParseBill(ctx, connect.NewRequest(&ParseBillRequest{EventID: eventID}))
	assertCode(t, err, connect.CodeUnavailable)
}

func TestEventService_BillImageFlow(t *testing.T) {
	ts := setupTestServer(t, stubExtractor{content: `[{"name":"Pizza","quantity":1,"unitPrice":20},{"name":"Soda","quantity":2,"unitPrice":3}]`})
	ctx := context.Background()
	c := ts.client

	created, err := c.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	_, err = c.ParseBill(ctx, connect.NewRequest(&ParseBillRequest{EventID: eventID}))
	assertCode(t, err, connect.CodeInvalidArgument)

	up, err := c.UploadBillImage(ctx, connect.NewRequest(&UploadBillImageRequest{EventID: eventID, Filename: "bill.png", ContentType: "image/png", Data: pngBytes}))
	require.NoError(t, err)
	assert.NotEmpty(t, up.Msg.Event.BillImage)
	assert.False(t, up.Msg.Event.BillParsed)

	_, err = c.UploadBillImage(ctx, connect.NewRequest(&UploadBillImageRequest{EventID: eventID, Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}))
	assertCode(t, err, connect.CodeInvalidArgument)

	parsed, err := c.ParseBill(ctx, connect.NewRequest(&ParseBillRequest{EventID: eventID}))
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Msg.ItemsExtracted)
	assert.True(t, parsed.Msg.BillParsed)

	resp, err := http.Get(ts.url + "/bills/" + eventID + "/image")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	del, err := c.DeleteBillImage(ctx, connect.NewRequest(&DeleteBillImageRequest{EventID: eventID}))
	require.NoError(t, err)
	assert.Empty(t, del.Msg.Event.BillImage)
	assert.False(t, del.Msg.Event.BillParsed)

	resp2, err := http.Get(ts.url + "/bills/" + eventID + "/image")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestImageHandler_MultipartUpload(t *testing.T) {
	ts := setupTestServer(t, nil)
	ctx := context.Background()
	created, err := ts.client.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	upload := func(field string, data []byte) *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile(field, "bill.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(ts.url+"/bills/"+eventID+"/image", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusCreated, upload(UploadField, pngBytes).StatusCode)
	assert.Equal(t, http.StatusBadRequest, upload("wrongField", pngBytes).StatusCode)

	got, err := ts.client.GetEvent(ctx, connect.NewRequest(&GetEventRequest{EventID: eventID}))
	require.NoError(t, err)
	assert.NotEmpty(t, got.Msg.Event.BillImage)
}

func TestEventService_MutationsBroadcast(t *testing.T) {
	ts := setupTestServer(t, nil)
	ctx := context.Background()

	created, err := ts.client.CreateEvent(ctx, connect.NewRequest(&CreateEventRequest{Name: "Dinner"}))
	require.NoError(t, err)
	eventID := created.Msg.Event.ID

	sub := ts.hub.NewSubscriber()
	defer ts.hub.Close(sub)
	ts.hub.Join(sub, eventID)

	_, err = ts.client.AddPerson(ctx, connect.NewRequest(&AddPersonRequest{EventID: eventID, Name: "Alice"}))
	require.NoError(t, err)

	msg := <-sub.Outbound
	assert.Equal(t, realtime.TypeEventUpdated, msg.Type)
	require.NotNil(t, msg.Snapshot)
	require.Len(t, msg.Snapshot.People, 1)
	assert.Equal(t, "Alice", msg.Snapshot.People[0].Name)
}

func TestEventService_RawJSONContentTypes(t *testing.T) {
	ts := setupTestServer(t, nil)

	for _, contentType := range []string{"application/json", "application/json; charset=utf-8"} {
		t.Run(contentType, func(t *testing.T) {
			resp, err := http.Post(ts.url+"/"+EventServiceName+"/CreateEvent", contentType, strings.NewReader(`{"name":"Dinner"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))

			var created CreateEventResponse
			require.NoError(t, json.Unmarshal(body, &created))
			assert.NotEmpty(t, created.Event.ID)
			assert.Equal(t, "Dinner", created.Event.Name)
		})
	}
}
