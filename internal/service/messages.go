package service

import (
	"github.com/shopspring/decimal"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

type CreateEventRequest struct {
	Name string `json:"name"`
}

type CreateEventResponse struct {
	Event models.Event `json:"event"`
}

type GetEventRequest struct {
	EventID string `json:"eventId"`
}

func (r *GetEventRequest) GetEventId() string { return r.EventID }

// GetEventResponse is the full aggregate: {event, items, people}.
type GetEventResponse struct {
	models.Aggregate
}

type UpdateEventRequest struct {
	EventID      string            `json:"eventId"`
	Name         *string           `json:"name,omitempty"`
	Tax          *decimal.Decimal  `json:"tax,omitempty"`
	Tip          *decimal.Decimal  `json:"tip,omitempty"`
	TaxSplitMode *models.SplitMode `json:"taxSplitMode,omitempty"`
	TipSplitMode *models.SplitMode `json:"tipSplitMode,omitempty"`
}

func (r *UpdateEventRequest) GetEventId() string { return r.EventID }

type UpdateEventResponse struct {
	Event models.Event `json:"event"`
}

type AddPersonRequest struct {
	EventID string `json:"eventId"`
	Name    string `json:"name"`
}

func (r *AddPersonRequest) GetEventId() string { return r.EventID }

type AddPersonResponse struct {
	Person models.Person `json:"person"`
}

type RemovePersonRequest struct {
	PersonID string `json:"personId"`
}

type RemovePersonResponse struct{}

type AddItemRequest struct {
	EventID    string           `json:"eventId"`
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
}

func (r *AddItemRequest) GetEventId() string { return r.EventID }

type UpdateItemRequest struct {
	ItemID     string           `json:"itemId"`
	Name       *string          `json:"name,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
}

// ItemResponse is returned by every item and claim mutation.
type ItemResponse struct {
	Item models.Item `json:"item"`
}

type DeleteItemRequest struct {
	ItemID string `json:"itemId"`
}

type DeleteItemResponse struct{}

type SetClaimRequest struct {
	ItemID   string          `json:"itemId"`
	PersonID string          `json:"personId"`
	Quantity decimal.Decimal `json:"quantity"`
}

type SplitEvenlyRequest struct {
	ItemID    string   `json:"itemId"`
	PersonIDs []string `json:"personIds"`
}

type ClearClaimsRequest struct {
	ItemID string `json:"itemId"`
}

type UploadBillImageRequest struct {
	EventID     string `json:"eventId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"` // base64 in JSON
}

func (r *UploadBillImageRequest) GetEventId() string { return r.EventID }

type DeleteBillImageRequest struct {
	EventID string `json:"eventId"`
}

func (r *DeleteBillImageRequest) GetEventId() string { return r.EventID }

// BillImageResponse is returned by image upload and delete.
type BillImageResponse struct {
	Event models.Event `json:"event"`
}

type ParseBillRequest struct {
	EventID string `json:"eventId"`
}

func (r *ParseBillRequest) GetEventId() string { return r.EventID }

type ParseBillResponse struct {
	ItemsExtracted int           `json:"itemsExtracted"`
	Skipped        int           `json:"skipped"`
	Items          []models.Item `json:"items"`
	BillParsed     bool          `json:"billParsed"`
}

type GetSharesRequest struct {
	EventID string `json:"eventId"`
}

func (r *GetSharesRequest) GetEventId() string { return r.EventID }

type ShareItem struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

type PersonShare struct {
	PersonID string          `json:"personId"`
	Name     string          `json:"name"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Tip      decimal.Decimal `json:"tip"`
	Total    decimal.Decimal `json:"total"`
	Items    []ShareItem     `json:"items"`
}

type ItemStatus struct {
	ItemID      string          `json:"itemId"`
	Claimed     decimal.Decimal `json:"claimed"`
	Remaining   decimal.Decimal `json:"remaining"`
	Overclaimed bool            `json:"overclaimed"`
}

type GetSharesResponse struct {
	Shares      []PersonShare   `json:"shares"`
	Items       []ItemStatus    `json:"items"`
	ItemsTotal  decimal.Decimal `json:"itemsTotal"`
	Tax         decimal.Decimal `json:"tax"`
	Tip         decimal.Decimal `json:"tip"`
	TotalBill   decimal.Decimal `json:"totalBill"`
	Allocated   decimal.Decimal `json:"allocated"`
	Unallocated decimal.Decimal `json:"unallocated"`
}
