// Package customer реализует операции над покупателями.
package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/events"
)

// Service управляет покупателями с optimistic locking по версии.
type Service struct {
	repo    domain.CustomerRepository
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

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService создаёт сервис покупателей.
func NewService(repo domain.CustomerRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: log.WithField("component", "customer-service"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer %s: %w", id, err)
	}
	return customer, nil
}

// CreateCustomer сохраняет нового покупателя с версией 0.
func (s *Service) CreateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	if err := in.Validate(); err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.Create(ctx, domain.Customer{
		ID:    s.newID(),
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	s.recordMutation(ctx, created, "create", domain.EventCustomerCreated)
	return created, nil
}

// UpdateCustomer заменяет имя и email. expectedVersion nil: версия, прочитанная в начале.
func (s *Service) UpdateCustomer(ctx context.Context, id string, in domain.CustomerInput, expectedVersion *int64) (domain.Customer, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("update customer %s: %w", id, err)
	}
	if err := in.Validate(); err != nil {
		return domain.Customer{}, err
	}
	return s.save(ctx, current, in, expectedVersion)
}

// PatchCustomer применяет только переданные поля, пустой патч ничего не пишет.
func (s *Service) PatchCustomer(ctx context.Context, id string, patch domain.CustomerPatch, expectedVersion *int64) (domain.Customer, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("patch customer %s: %w", id, err)
	}
	if patch.IsEmpty() {
		return current, nil
	}

	in := patch.Merge(current)
	if err := in.Validate(); err != nil {
		return domain.Customer{}, err
	}
	return s.save(ctx, current, in, expectedVersion)
}

// DeleteCustomer удаляет покупателя. Покупателя с заказами удалить нельзя.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	s.metrics.RecordMutation(domain.AggregateCustomer, "delete")
	s.events.Record(ctx, domain.AggregateCustomer, id, domain.EventCustomerDeleted, map[string]string{"id": id})
	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}

func (s *Service) save(ctx context.Context, current domain.Customer, in domain.CustomerInput, expectedVersion *int64) (domain.Customer, error) {
	next := current
	next.Name = in.Name
	next.Email = in.Email
	if expectedVersion != nil {
		next.Version = *expectedVersion
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		if domain.IsVersionConflict(err) {
			s.metrics.RecordVersionConflict(domain.AggregateCustomer)
		}
		return domain.Customer{}, fmt.Errorf("update customer %s: %w", current.ID, err)
	}

	s.recordMutation(ctx, updated, "update", domain.EventCustomerUpdated)
	return updated, nil
}

type customerEvent struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updateDate"`
}

func (s *Service) recordMutation(ctx context.Context, c domain.Customer, operation, eventType string) {
	s.metrics.RecordMutation(domain.AggregateCustomer, operation)
	s.events.Record(ctx, domain.AggregateCustomer, c.ID, eventType, customerEvent{
		ID:        c.ID,
		Version:   c.Version,
		Name:      c.Name,
		Email:     c.Email,
		UpdatedAt: c.UpdatedAt,
	})
	s.logger.WithFields(log.Fields{
		"customer_id": c.ID,
		"version":     c.Version,
		"operation":   operation,
	}).Info("customer saved")
}
