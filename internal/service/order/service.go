// Package order реализует создание, чтение и удаление заказов пива.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/events"
)

// Service управляет заказами. Позиции и отгрузка живут и умирают вместе с заказом.
type Service struct {
	repo    domain.OrderRepository
	events  *events.Recorder
	metrics *metrics.CatalogMetrics
	logger  *log.Entry
	newID   func() string
}

// Option настраивает Service.
type Option func(*Service)

func WithEvents(recorder *events.Recorder) Option {
	return func(s *Service) { s.events = recorder }
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService создаёт сервис заказов.
func NewService(repo domain.OrderRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: log.WithField("component", "order-service"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder сохраняет заказ с позициями. Непустой TrackingNumber создаёт отгрузку
// в той же транзакции.
func (s *Service) CreateOrder(ctx context.Context, in domain.OrderInput) (domain.BeerOrder, error) {
	if err := in.Validate(); err != nil {
		return domain.BeerOrder{}, err
	}

	order := domain.BeerOrder{
		ID:          s.newID(),
		CustomerID:  in.CustomerID,
		CustomerRef: in.CustomerRef,
		Lines:       make([]domain.BeerOrderLine, 0, len(in.Lines)),
	}
	for _, line := range in.Lines {
		order.Lines = append(order.Lines, domain.BeerOrderLine{
			ID:            s.newID(),
			BeerID:        line.BeerID,
			OrderQuantity: line.OrderQuantity,
		})
	}
	if in.TrackingNumber != "" {
		order.Shipment = &domain.BeerOrderShipment{
			ID:             s.newID(),
			TrackingNumber: in.TrackingNumber,
		}
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.BeerOrder{}, fmt.Errorf("create order: %w", referenceError(err))
	}

	s.metrics.RecordMutation(domain.AggregateOrder, "create")
	s.events.Record(ctx, domain.AggregateOrder, created.ID, domain.EventOrderCreated, newOrderEvent(created))
	s.logger.WithFields(log.Fields{
		"order_id":    created.ID,
		"customer_id": created.CustomerID,
		"lines":       len(created.Lines),
	}).Info("order created")
	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.BeerOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.BeerOrder{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// ListCustomerOrders возвращает заказы покупателя, новые первыми.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID string) ([]domain.BeerOrder, error) {
	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders of customer %s: %w", customerID, err)
	}
	return orders, nil
}

// DeleteOrder удаляет заказ вместе с позициями и отгрузкой.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	s.metrics.RecordMutation(domain.AggregateOrder, "delete")
	s.events.Record(ctx, domain.AggregateOrder, id, domain.EventOrderDeleted, map[string]string{"id": id})
	s.logger.WithField("order_id", id).Info("order deleted")
	return nil
}

// referenceError переводит ссылки на несуществующие записи в ошибки полей запроса.
func referenceError(err error) error {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		return domain.NewValidationError("customerId", "references unknown customer")
	case errors.Is(err, domain.ErrBeerNotFound):
		return domain.NewValidationError("lines.beerId", "references unknown beer")
	default:
		return err
	}
}

type orderLineEvent struct {
	BeerID        string `json:"beerId"`
	OrderQuantity int32  `json:"orderQuantity"`
}

type orderEvent struct {
	ID             string           `json:"id"`
	CustomerID     string           `json:"customerId"`
	CustomerRef    string           `json:"customerRef,omitempty"`
	Lines          []orderLineEvent `json:"lines"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
}

func newOrderEvent(o domain.BeerOrder) orderEvent {
	event := orderEvent{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		CustomerRef: o.CustomerRef,
		Lines:       make([]orderLineEvent, 0, len(o.Lines)),
	}
	for _, line := range o.Lines {
		event.Lines = append(event.Lines, orderLineEvent{BeerID: line.BeerID, OrderQuantity: line.OrderQuantity})
	}
	if o.Shipment != nil {
		event.TrackingNumber = o.Shipment.TrackingNumber
	}
	return event
}
