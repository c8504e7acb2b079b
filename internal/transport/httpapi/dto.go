package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// beerResponse: представление пива в ответах. price отдаётся JSON-числом.
type beerResponse struct {
	ID             string      `json:"id"`
	Version        int64       `json:"version"`
	BeerName       string      `json:"beerName"`
	BeerStyle      string      `json:"beerStyle"`
	UPC            string      `json:"upc"`
	QuantityOnHand *int32      `json:"quantityOnHand"`
	Price          json.Number `json:"price"`
	Categories     []string    `json:"categories"`
	CreatedDate    time.Time   `json:"createdDate"`
	UpdateDate     time.Time   `json:"updateDate"`
}

func toBeerResponse(b domain.Beer) beerResponse {
	return beerResponse{
		ID:             b.ID,
		Version:        b.Version,
		BeerName:       b.Name,
		BeerStyle:      string(b.Style),
		UPC:            b.UPC,
		QuantityOnHand: b.QuantityOnHand,
		Price:          json.Number(b.Price.String()),
		Categories:     b.Categories.Sorted(),
		CreatedDate:    b.CreatedAt,
		UpdateDate:     b.UpdatedAt,
	}
}

// beerRequest: тело POST и PUT. id и временные метки игнорируются,
// version используется как ожидаемая версия при PUT.
type beerRequest struct {
	Version        *int64           `json:"version"`
	BeerName       string           `json:"beerName"`
	BeerStyle      string           `json:"beerStyle"`
	UPC            string           `json:"upc"`
	QuantityOnHand *int32           `json:"quantityOnHand"`
	Price          *decimal.Decimal `json:"price"`
	Categories     []string         `json:"categories"`
}

func (r beerRequest) toInput() domain.BeerInput {
	return domain.BeerInput{
		Name:           r.BeerName,
		Style:          normalizeStyle(r.BeerStyle),
		UPC:            r.UPC,
		QuantityOnHand: r.QuantityOnHand,
		Price:          r.Price,
		Categories:     r.Categories,
	}
}

// normalizeStyle приводит стиль к верхнему регистру. Неизвестное значение
// остаётся как есть и отклоняется валидацией input.
func normalizeStyle(raw string) domain.BeerStyle {
	if style, ok := domain.ParseBeerStyle(raw); ok {
		return style
	}
	return domain.BeerStyle(strings.TrimSpace(raw))
}

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
}

func toPageResponse[T, R any](p domain.Page[T], fn func(T) R) pageResponse[R] {
	mapped := domain.MapPage(p, fn)
	return pageResponse[R]{
		Content:       mapped.Content,
		TotalElements: mapped.TotalElements,
		TotalPages:    mapped.TotalPages,
		PageNumber:    mapped.PageNumber,
		PageSize:      mapped.PageSize,
	}
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Version     int64     `json:"version"`
	Description string    `json:"description"`
	Beers       []string  `json:"beers"`
	CreatedDate time.Time `json:"createdDate"`
	UpdateDate  time.Time `json:"updateDate"`
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Version:     c.Version,
		Description: c.Description,
		Beers:       c.Beers.Sorted(),
		CreatedDate: c.CreatedAt,
		UpdateDate:  c.UpdatedAt,
	}
}

type categoryRequest struct {
	Description string `json:"description"`
}

type customerResponse struct {
	ID          string    `json:"id"`
	Version     int64     `json:"version"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	CreatedDate time.Time `json:"createdDate"`
	UpdateDate  time.Time `json:"updateDate"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:          c.ID,
		Version:     c.Version,
		Name:        c.Name,
		Email:       c.Email,
		CreatedDate: c.CreatedAt,
		UpdateDate:  c.UpdatedAt,
	}
}

type customerRequest struct {
	Version *int64 `json:"version"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

func (r customerRequest) toInput() domain.CustomerInput {
	return domain.CustomerInput{Name: r.Name, Email: r.Email}
}

type orderLineBody struct {
	ID            string `json:"id,omitempty"`
	BeerID        string `json:"beerId"`
	OrderQuantity int32  `json:"orderQuantity"`
}

type shipmentBody struct {
	ID             string `json:"id,omitempty"`
	TrackingNumber string `json:"trackingNumber"`
}

type orderRequest struct {
	CustomerID  string          `json:"customerId"`
	CustomerRef string          `json:"customerRef"`
	Lines       []orderLineBody `json:"beerOrderLines"`
	Shipment    *shipmentBody   `json:"beerOrderShipment"`
}

func (r orderRequest) toInput() domain.OrderInput {
	in := domain.OrderInput{
		CustomerID:  r.CustomerID,
		CustomerRef: r.CustomerRef,
		Lines:       make([]domain.OrderLineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		in.Lines = append(in.Lines, domain.OrderLineInput{BeerID: line.BeerID, OrderQuantity: line.OrderQuantity})
	}
	if r.Shipment != nil {
		in.TrackingNumber = r.Shipment.TrackingNumber
	}
	return in
}

type orderResponse struct {
	ID          string          `json:"id"`
	Version     int64           `json:"version"`
	CustomerID  string          `json:"customerId"`
	CustomerRef string          `json:"customerRef,omitempty"`
	Lines       []orderLineBody `json:"beerOrderLines"`
	Shipment    *shipmentBody   `json:"beerOrderShipment,omitempty"`
	CreatedDate time.Time       `json:"createdDate"`
	UpdateDate  time.Time       `json:"updateDate"`
}

func toOrderResponse(o domain.BeerOrder) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		Version:     o.Version,
		CustomerID:  o.CustomerID,
		CustomerRef: o.CustomerRef,
		Lines:       make([]orderLineBody, 0, len(o.Lines)),
		CreatedDate: o.CreatedAt,
		UpdateDate:  o.UpdatedAt,
	}
	for _, line := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineBody{ID: line.ID, BeerID: line.BeerID, OrderQuantity: line.OrderQuantity})
	}
	if o.Shipment != nil {
		resp.Shipment = &shipmentBody{ID: o.Shipment.ID, TrackingNumber: o.Shipment.TrackingNumber}
	}
	return resp
}
