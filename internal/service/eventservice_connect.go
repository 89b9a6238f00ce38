package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// EventServiceName is the fully-qualified name of the EventService service.
const EventServiceName = "fairshare.v1.EventService"

// Fully-qualified procedure names, used in routing and in
// connect.Spec.Procedure.
const (
	EventServiceCreateEventProcedure     = "/fairshare.v1.EventService/CreateEvent"
	EventServiceGetEventProcedure        = "/fairshare.v1.EventService/GetEvent"
	EventServiceUpdateEventProcedure     = "/fairshare.v1.EventService/UpdateEvent"
	EventServiceAddPersonProcedure       = "/fairshare.v1.EventService/AddPerson"
	EventServiceRemovePersonProcedure    = "/fairshare.v1.EventService/RemovePerson"
	EventServiceAddItemProcedure         = "/fairshare.v1.EventService/AddItem"
	EventServiceUpdateItemProcedure      = "/fairshare.v1.EventService/UpdateItem"
	EventServiceDeleteItemProcedure      = "/fairshare.v1.EventService/DeleteItem"
	EventServiceSetClaimProcedure        = "/fairshare.v1.EventService/SetClaim"
	EventServiceSplitEvenlyProcedure     = "/fairshare.v1.EventService/SplitEvenly"
	EventServiceClearClaimsProcedure     = "/fairshare.v1.EventService/ClearClaims"
	EventServiceUploadBillImageProcedure = "/fairshare.v1.EventService/UploadBillImage"
	EventServiceDeleteBillImageProcedure = "/fairshare.v1.EventService/DeleteBillImage"
	EventServiceParseBillProcedure       = "/fairshare.v1.EventService/ParseBill"
	EventServiceGetSharesProcedure       = "/fairshare.v1.EventService/GetShares"
)

// EventServiceHandler is implemented by EventService.
type EventServiceHandler interface {
	CreateEvent(context.Context, *connect.Request[CreateEventRequest]) (*connect.Response[CreateEventResponse], error)
	GetEvent(context.Context, *connect.Request[GetEventRequest]) (*connect.Response[GetEventResponse], error)
	UpdateEvent(context.Context, *connect.Request[UpdateEventRequest]) (*connect.Response[UpdateEventResponse], error)
	AddPerson(context.Context, *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error)
	RemovePerson(context.Context, *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error)
	UpdateItem(context.Context, *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error)
	DeleteItem(context.Context, *connect.Request[DeleteItemRequest]) (*connect.Response[DeleteItemResponse], error)
	SetClaim(context.Context, *connect.Request[SetClaimRequest]) (*connect.Response[ItemResponse], error)
	SplitEvenly(context.Context, *connect.Request[SplitEvenlyRequest]) (*connect.Response[ItemResponse], error)
	ClearClaims(context.Context, *connect.Request[ClearClaimsRequest]) (*connect.Response[ItemResponse], error)
	UploadBillImage(context.Context, *connect.Request[UploadBillImageRequest]) (*connect.Response[BillImageResponse], error)
	DeleteBillImage(context.Context, *connect.Request[DeleteBillImageRequest]) (*connect.Response[BillImageResponse], error)
	ParseBill(context.Context, *connect.Request[ParseBillRequest]) (*connect.Response[ParseBillResponse], error)
	GetShares(context.Context, *connect.Request[GetSharesRequest]) (*connect.Response[GetSharesResponse], error)
}

// NewEventServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. Requests and responses use the JSON codec.
func NewEventServiceHandler(svc EventServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithCodec(charsetJSONCodec{}),
	}, opts...)
	readOnly := append(append([]connect.HandlerOption{}, opts...), connect.WithIdempotency(connect.IdempotencyNoSideEffects))

	handlers := map[string]http.Handler{
		EventServiceCreateEventProcedure:     connect.NewUnaryHandler(EventServiceCreateEventProcedure, svc.CreateEvent, opts...),
		EventServiceGetEventProcedure:        connect.NewUnaryHandler(EventServiceGetEventProcedure, svc.GetEvent, readOnly...),
		EventServiceUpdateEventProcedure:     connect.NewUnaryHandler(EventServiceUpdateEventProcedure, svc.UpdateEvent, opts...),
		EventServiceAddPersonProcedure:       connect.NewUnaryHandler(EventServiceAddPersonProcedure, svc.AddPerson, opts...),
		EventServiceRemovePersonProcedure:    connect.NewUnaryHandler(EventServiceRemovePersonProcedure, svc.RemovePerson, opts...),
		EventServiceAddItemProcedure:         connect.NewUnaryHandler(EventServiceAddItemProcedure, svc.AddItem, opts...),
		EventServiceUpdateItemProcedure:      connect.NewUnaryHandler(EventServiceUpdateItemProcedure, svc.UpdateItem, opts...),
		EventServiceDeleteItemProcedure:      connect.NewUnaryHandler(EventServiceDeleteItemProcedure, svc.DeleteItem, opts...),
		EventServiceSetClaimProcedure:        connect.NewUnaryHandler(EventServiceSetClaimProcedure, svc.SetClaim, opts...),
		EventServiceSplitEvenlyProcedure:     connect.NewUnaryHandler(EventServiceSplitEvenlyProcedure, svc.SplitEvenly, opts...),
		EventServiceClearClaimsProcedure:     connect.NewUnaryHandler(EventServiceClearClaimsProcedure, svc.ClearClaims, opts...),
		EventServiceUploadBillImageProcedure: connect.NewUnaryHandler(EventServiceUploadBillImageProcedure, svc.UploadBillImage, opts...),
		EventServiceDeleteBillImageProcedure: connect.NewUnaryHandler(EventServiceDeleteBillImageProcedure, svc.DeleteBillImage, opts...),
		EventServiceParseBillProcedure:       connect.NewUnaryHandler(EventServiceParseBillProcedure, svc.ParseBill, opts...),
		EventServiceGetSharesProcedure:       connect.NewUnaryHandler(EventServiceGetSharesProcedure, svc.GetShares, readOnly...),
	}

	return "/" + EventServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// EventServiceClient is a client for the fairshare.v1.EventService service.
type EventServiceClient struct {
	createEvent     *connect.Client[CreateEventRequest, CreateEventResponse]
	getEvent        *connect.Client[GetEventRequest, GetEventResponse]
	updateEvent     *connect.Client[UpdateEventRequest, UpdateEventResponse]
	addPerson       *connect.Client[AddPersonRequest, AddPersonResponse]
	removePerson    *connect.Client[RemovePersonRequest, RemovePersonResponse]
	addItem         *connect.Client[AddItemRequest, ItemResponse]
	updateItem      *connect.Client[UpdateItemRequest, ItemResponse]
	deleteItem      *connect.Client[DeleteItemRequest, DeleteItemResponse]
	setClaim        *connect.Client[SetClaimRequest, ItemResponse]
	splitEvenly     *connect.Client[SplitEvenlyRequest, ItemResponse]
	clearClaims     *connect.Client[ClearClaimsRequest, ItemResponse]
	uploadBillImage *connect.Client[UploadBillImageRequest, BillImageResponse]
	deleteBillImage *connect.Client[DeleteBillImageRequest, BillImageResponse]
	parseBill       *connect.Client[ParseBillRequest, ParseBillResponse]
	getShares       *connect.Client[GetSharesRequest, GetSharesResponse]
}

// NewEventServiceClient constructs a client for the EventService. The
// baseURL should include the scheme and host, e.g. http://localhost:8080.
func NewEventServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EventServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &EventServiceClient{
		createEvent:     connect.NewClient[CreateEventRequest, CreateEventResponse](httpClient, baseURL+EventServiceCreateEventProcedure, opts...),
		getEvent:        connect.NewClient[GetEventRequest, GetEventResponse](httpClient, baseURL+EventServiceGetEventProcedure, opts...),
		updateEvent:     connect.NewClient[UpdateEventRequest, UpdateEventResponse](httpClient, baseURL+EventServiceUpdateEventProcedure, opts...),
		addPerson:       connect.NewClient[AddPersonRequest, AddPersonResponse](httpClient, baseURL+EventServiceAddPersonProcedure, opts...),
		removePerson:    connect.NewClient[RemovePersonRequest, RemovePersonResponse](httpClient, baseURL+EventServiceRemovePersonProcedure, opts...),
		addItem:         connect.NewClient[AddItemRequest, ItemResponse](httpClient, baseURL+EventServiceAddItemProcedure, opts...),
		updateItem:      connect.NewClient[UpdateItemRequest, ItemResponse](httpClient, baseURL+EventServiceUpdateItemProcedure, opts...),
		deleteItem:      connect.NewClient[DeleteItemRequest, DeleteItemResponse](httpClient, baseURL+EventServiceDeleteItemProcedure, opts...),
		setClaim:        connect.NewClient[SetClaimRequest, ItemResponse](httpClient, baseURL+EventServiceSetClaimProcedure, opts...),
		splitEvenly:     connect.NewClient[SplitEvenlyRequest, ItemResponse](httpClient, baseURL+EventServiceSplitEvenlyProcedure, opts...),
		clearClaims:     connect.NewClient[ClearClaimsRequest, ItemResponse](httpClient, baseURL+EventServiceClearClaimsProcedure, opts...),
		uploadBillImage: connect.NewClient[UploadBillImageRequest, BillImageResponse](httpClient, baseURL+EventServiceUploadBillImageProcedure, opts...),
		deleteBillImage: connect.NewClient[DeleteBillImageRequest, BillImageResponse](httpClient, baseURL+EventServiceDeleteBillImageProcedure, opts...),
		parseBill:       connect.NewClient[ParseBillRequest, ParseBillResponse](httpClient, baseURL+EventServiceParseBillProcedure, opts...),
		getShares:       connect.NewClient[GetSharesRequest, GetSharesResponse](httpClient, baseURL+EventServiceGetSharesProcedure, opts...),
	}
}

func (c *EventServiceClient) CreateEvent(ctx context.Context, req *connect.Request[CreateEventRequest]) (*connect.Response[CreateEventResponse], error) {
	return c.createEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) GetEvent(ctx context.Context, req *connect.Request[GetEventRequest]) (*connect.Response[GetEventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) UpdateEvent(ctx context.Context, req *connect.Request[UpdateEventRequest]) (*connect.Response[UpdateEventResponse], error) {
	return c.updateEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	return c.addPerson.CallUnary(ctx, req)
}

func (c *EventServiceClient) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	return c.removePerson.CallUnary(ctx, req)
}

func (c *EventServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *EventServiceClient) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error) {
	return c.updateItem.CallUnary(ctx, req)
}

func (c *EventServiceClient) DeleteItem(ctx context.Context, req *connect.Request[DeleteItemRequest]) (*connect.Response[DeleteItemResponse], error) {
	return c.deleteItem.CallUnary(ctx, req)
}

func (c *EventServiceClient) SetClaim(ctx context.Context, req *connect.Request[SetClaimRequest]) (*connect.Response[ItemResponse], error) {
	return c.setClaim.CallUnary(ctx, req)
}

func (c *EventServiceClient) SplitEvenly(ctx context.Context, req *connect.Request[SplitEvenlyRequest]) (*connect.Response[ItemResponse], error) {
	return c.splitEvenly.CallUnary(ctx, req)
}

func (c *EventServiceClient) ClearClaims(ctx context.Context, req *connect.Request[ClearClaimsRequest]) (*connect.Response[ItemResponse], error) {
	return c.clearClaims.CallUnary(ctx, req)
}

func (c *EventServiceClient) UploadBillImage(ctx context.Context, req *connect.Request[UploadBillImageRequest]) (*connect.Response[BillImageResponse], error) {
	return c.uploadBillImage.CallUnary(ctx, req)
}

func (c *EventServiceClient) DeleteBillImage(ctx context.Context, req *connect.Request[DeleteBillImageRequest]) (*connect.Response[BillImageResponse], error) {
	return c.deleteBillImage.CallUnary(ctx, req)
}

func (c *EventServiceClient) ParseBill(ctx context.Context, req *connect.Request[ParseBillRequest]) (*connect.Response[ParseBillResponse], error) {
	return c.parseBill.CallUnary(ctx, req)
}

func (c *EventServiceClient) GetShares(ctx context.Context, req *connect.Request[GetSharesRequest]) (*connect.Response[GetSharesResponse], error) {
	return c.getShares.CallUnary(ctx, req)
}
