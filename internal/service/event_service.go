package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hppanpaliya/FairShare-AI/internal/billing"
	"github.com/hppanpaliya/FairShare-AI/internal/calculator"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// EventService implements the Connect EventService on top of billing.Service.
type EventService struct {
	billing *billing.Service
}

// NewEventService creates a new EventService.
func NewEventService(b *billing.Service) *EventService {
	return &EventService{billing: b}
}

// connectError maps the billing error taxonomy to connect codes.
func connectError(err error) error {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, billing.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, billing.ErrExternalService):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func requireID(name, value string) error {
	if value == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New(name+" is required"))
	}
	return nil
}

// CreateEvent creates a new bill-splitting event.
func (s *EventService) CreateEvent(ctx context.Context, req *connect.Request[CreateEventRequest]) (*connect.Response[CreateEventResponse], error) {
	ev, err := s.billing.CreateEvent(ctx, req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&CreateEventResponse{Event: *ev}), nil
}

// GetEvent returns the event with all items and people.
func (s *EventService) GetEvent(ctx context.Context, req *connect.Request[GetEventRequest]) (*connect.Response[GetEventResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	agg, err := s.billing.Aggregate(ctx, req.Msg.EventID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetEventResponse{Aggregate: *agg}), nil
}

// UpdateEvent changes name, tax, tip or split modes.
func (s *EventService) UpdateEvent(ctx context.Context, req *connect.Request[UpdateEventRequest]) (*connect.Response[UpdateEventResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	ev, err := s.billing.UpdateEvent(ctx, req.Msg.EventID, billing.EventUpdate{
		Name:         req.Msg.Name,
		Tax:          req.Msg.Tax,
		Tip:          req.Msg.Tip,
		TaxSplitMode: req.Msg.TaxSplitMode,
		TipSplitMode: req.Msg.TipSplitMode,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&UpdateEventResponse{Event: *ev}), nil
}

func (s *EventService) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	p, err := s.billing.AddPerson(ctx, req.Msg.EventID, req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&AddPersonResponse{Person: *p}), nil
}

// RemovePerson deletes a person and their claims.
func (s *EventService) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	if err := requireID("personId", req.Msg.PersonID); err != nil {
		return nil, err
	}
	if err := s.billing.RemovePerson(ctx, req.Msg.PersonID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&RemovePersonResponse{}), nil
}

func (s *EventService) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	name := req.Msg.Name
	it, err := s.billing.AddItem(ctx, req.Msg.EventID, billing.ItemInput{
		Name:       &name,
		Quantity:   req.Msg.Quantity,
		UnitPrice:  req.Msg.UnitPrice,
		TotalPrice: req.Msg.TotalPrice,
	})
	return itemResponse(it, err)
}

func (s *EventService) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error) {
	if err := requireID("itemId", req.Msg.ItemID); err != nil {
		return nil, err
	}
	it, err := s.billing.UpdateItem(ctx, req.Msg.ItemID, billing.ItemInput{
		Name:       req.Msg.Name,
		Quantity:   req.Msg.Quantity,
		UnitPrice:  req.Msg.UnitPrice,
		TotalPrice: req.Msg.TotalPrice,
	})
	return itemResponse(it, err)
}

func (s *EventService) DeleteItem(ctx context.Context, req *connect.Request[DeleteItemRequest]) (*connect.Response[DeleteItemResponse], error) {
	if err := requireID("itemId", req.Msg.ItemID); err != nil {
		return nil, err
	}
	if err := s.billing.DeleteItem(ctx, req.Msg.ItemID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DeleteItemResponse{}), nil
}

// SetClaim sets a person's claimed quantity; zero or less removes the claim.
func (s *EventService) SetClaim(ctx context.Context, req *connect.Request[SetClaimRequest]) (*connect.Response[ItemResponse], error) {
	if err := requireID("itemId", req.Msg.ItemID); err != nil {
		return nil, err
	}
	it, err := s.billing.SetClaim(ctx, req.Msg.ItemID, req.Msg.PersonID, req.Msg.Quantity)
	return itemResponse(it, err)
}

func (s *EventService) SplitEvenly(ctx context.Context, req *connect.Request[SplitEvenlyRequest]) (*connect.Response[ItemResponse], error) {
	if err := requireID("itemId", req.Msg.ItemID); err != nil {
		return nil, err
	}
	it, err := s.billing.SplitEvenly(ctx, req.Msg.ItemID, req.Msg.PersonIDs)
	return itemResponse(it, err)
}

func (s *EventService) ClearClaims(ctx context.Context, req *connect.Request[ClearClaimsRequest]) (*connect.Response[ItemResponse], error) {
	if err := requireID("itemId", req.Msg.ItemID); err != nil {
		return nil, err
	}
	it, err := s.billing.ClearClaims(ctx, req.Msg.ItemID)
	return itemResponse(it, err)
}

func itemResponse(it *models.Item, err error) (*connect.Response[ItemResponse], error) {
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ItemResponse{Item: *it}), nil
}

// UploadBillImage attaches a bill photo sent inline as base64.
func (s *EventService) UploadBillImage(ctx context.Context, req *connect.Request[UploadBillImageRequest]) (*connect.Response[BillImageResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	ev, err := s.billing.AttachBillImage(ctx, req.Msg.EventID, billing.ImageUpload{
		Filename:    req.Msg.Filename,
		ContentType: req.Msg.ContentType,
		Data:        req.Msg.Data,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&BillImageResponse{Event: *ev}), nil
}

func (s *EventService) DeleteBillImage(ctx context.Context, req *connect.Request[DeleteBillImageRequest]) (*connect.Response[BillImageResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	ev, err := s.billing.ClearBillImage(ctx, req.Msg.EventID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&BillImageResponse{Event: *ev}), nil
}

// ParseBill extracts items from the attached bill image.
func (s *EventService) ParseBill(ctx context.Context, req *connect.Request[ParseBillRequest]) (*connect.Response[ParseBillResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	res, err := s.billing.ParseBill(ctx, req.Msg.EventID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ParseBillResponse{
		ItemsExtracted: len(res.Items),
		Skipped:        res.Skipped,
		Items:          res.Items,
		BillParsed:     res.Event.BillParsed,
	}), nil
}

// GetShares computes what every person owes.
func (s *EventService) GetShares(ctx context.Context, req *connect.Request[GetSharesRequest]) (*connect.Response[GetSharesResponse], error) {
	if err := requireID("eventId", req.Msg.EventID); err != nil {
		return nil, err
	}
	agg, res, err := s.billing.Shares(ctx, req.Msg.EventID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(BuildShares(agg, res)), nil
}

// BuildShares lays out a calculator result in people order, with claim
// progress in item order.
func BuildShares(agg *models.Aggregate, res *calculator.Result) *GetSharesResponse {
	resp := &GetSharesResponse{
		Shares:      make([]PersonShare, 0, len(agg.People)),
		Items:       make([]ItemStatus, 0, len(agg.Items)),
		ItemsTotal:  res.ItemsTotal,
		Tax:         agg.Event.Tax,
		Tip:         agg.Event.Tip,
		TotalBill:   res.TotalBill,
		Allocated:   res.Allocated,
		Unallocated: res.Unallocated,
	}
	for _, p := range agg.People {
		split := res.Splits[p.ID]
		share := PersonShare{
			PersonID: p.ID,
			Name:     p.Name,
			Subtotal: split.Subtotal,
			Tax:      split.Tax,
			Tip:      split.Tip,
			Total:    split.Total,
			Items:    make([]ShareItem, 0, len(split.Items)),
		}
		for _, it := range split.Items {
			share.Items = append(share.Items, ShareItem{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity, Amount: it.Amount})
		}
		slog.Debug("Person share",
			"event_id", agg.Event.ID,
			"person_id", p.ID,
			"subtotal", split.Subtotal,
			"tax", split.Tax,
			"tip", split.Tip,
			"total", split.Total,
		)
		resp.Shares = append(resp.Shares, share)
	}
	for _, st := range calculator.ClaimStatuses(agg.Items) {
		resp.Items = append(resp.Items, ItemStatus{
			ItemID:      st.ItemID,
			Claimed:     st.Claimed,
			Remaining:   st.Remaining,
			Overclaimed: st.Overclaimed,
		})
	}
	return resp
}
