package domain

import (
	"strings"
	"time"
)

const (
	// MaxCustomerRefLength: ограничение колонки customer_ref.
	MaxCustomerRefLength = 255
	// MaxTrackingNumberLength: ограничение колонки tracking_number.
	MaxTrackingNumberLength = 255
)

// BeerOrderLine: позиция заказа, ссылается ровно на одно пиво.
type BeerOrderLine struct {
	ID            string
	BeerID        string
	OrderQuantity int32
	CreatedAt     time.Time
}

// BeerOrderShipment создаётся и удаляется вместе с заказом.
type BeerOrderShipment struct {
	ID             string
	TrackingNumber string
	CreatedAt      time.Time
}

// BeerOrder агрегирует позиции и отгрузку заказа одного покупателя.
type BeerOrder struct {
	ID          string
	Version     int64
	CustomerRef string
	CustomerID  string
	Lines       []BeerOrderLine
	Shipment    *BeerOrderShipment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone копирует позиции и отгрузку.
func (o BeerOrder) Clone() BeerOrder {
	dst := o
	dst.Lines = append([]BeerOrderLine(nil), o.Lines...)
	if o.Shipment != nil {
		shipment := *o.Shipment
		dst.Shipment = &shipment
	}
	return dst
}

// OrderLineInput: позиция во входном запросе.
type OrderLineInput struct {
	BeerID        string
	OrderQuantity int32
}

// OrderInput: запрос на создание заказа.
type OrderInput struct {
	CustomerID  string
	CustomerRef string
	Lines       []OrderLineInput
	// TrackingNumber пустой: заказ без отгрузки.
	TrackingNumber string
}

// Validate проверяет инварианты заказа и возвращает список ошибок полей.
func (in OrderInput) Validate() error {
	errs := &ValidationError{}
	if strings.TrimSpace(in.CustomerID) == "" {
		errs.Add("customerId", "must not be blank")
	}
	if runeLen(in.CustomerRef) > MaxCustomerRefLength {
		errs.Add("customerRef", sizeMessage(MaxCustomerRefLength))
	}
	if len(in.Lines) == 0 {
		errs.Add("lines", "must contain at least one line")
	}
	for _, line := range in.Lines {
		if strings.TrimSpace(line.BeerID) == "" {
			errs.Add("lines.beerId", "must not be blank")
		}
		if line.OrderQuantity <= 0 {
			errs.Add("lines.orderQuantity", "must be greater than 0")
		}
	}
	if runeLen(in.TrackingNumber) > MaxTrackingNumberLength {
		errs.Add("trackingNumber", sizeMessage(MaxTrackingNumberLength))
	}
	return errs.OrNil()
}
