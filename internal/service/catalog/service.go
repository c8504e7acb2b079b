// Package catalog реализует операции каталога пива: список с фильтром и пагинацией,
// чтение, создание, полное и частичное обновление, удаление и связи с категориями.
package catalog

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

// Service оркестрирует фильтр, пагинацию, проекцию, merge патча и проверку версии.
// Собственного изменяемого состояния нет, все операции можно вызывать конкурентно.
type Service struct {
	beers       domain.BeerRepository
	categories  domain.CategoryRepository
	events      *events.Recorder
	metrics     *metrics.CatalogMetrics
	logger      *log.Entry
	defaultSize int
	maxSize     int
	newID       func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithEvents включает запись событий в outbox.
func WithEvents(recorder *events.Recorder) Option {
	return func(s *Service) { s.events = recorder }
}

// WithMetrics задаёт доменные метрики.
func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPageSizes задаёт размер страницы по умолчанию и верхнюю границу.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		s.defaultSize = defaultSize
		s.maxSize = maxSize
	}
}

// WithIDGenerator подменяет генератор идентификаторов (для тестов).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService создаёт сервис каталога.
func NewService(beers domain.BeerRepository, categories domain.CategoryRepository, opts ...Option) *Service {
	s := &Service{
		beers:       beers,
		categories:  categories,
		logger:      log.WithField("component", "catalog-service"),
		defaultSize: domain.DefaultPageSize,
		maxSize:     domain.DefaultMaxPageSize,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuery: параметры списка. Пустые значения означают "не задано".
type ListQuery struct {
	Name          string
	Style         domain.BeerStyle
	ShowInventory bool
	PageNumber    int
	PageSize      int
}

// ListBeers возвращает страницу пива, удовлетворяющего фильтру.
// Без ShowInventory количество на складе скрывается в каждой записи.
func (s *Service) ListBeers(ctx context.Context, q ListQuery) (domain.Page[domain.Beer], error) {
	filter := domain.BuildBeerFilter(domain.BeerCriteria{Name: q.Name, Style: q.Style})
	page := domain.NewPageRequest(q.PageNumber, q.PageSize, s.defaultSize, s.maxSize)

	content, total, err := s.beers.List(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.Beer]{}, fmt.Errorf("list beers: %w", err)
	}

	return domain.MapPage(domain.NewPage(content, total, page), func(b domain.Beer) domain.Beer {
		return project(b, q.ShowInventory)
	}), nil
}

// GetBeer возвращает запись без проекции.
func (s *Service) GetBeer(ctx context.Context, id string) (domain.Beer, error) {
	beer, err := s.beers.Get(ctx, id)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("get beer %s: %w", id, err)
	}
	return beer, nil
}

// CreateBeer проверяет input, назначает идентификатор и сохраняет запись с версией 0.
func (s *Service) CreateBeer(ctx context.Context, in domain.BeerInput) (domain.Beer, error) {
	if err := in.Validate(); err != nil {
		return domain.Beer{}, err
	}

	beer := domain.Beer{
		ID:         s.newID(),
		Categories: domain.NewIDSet(in.Categories...),
	}
	in.ApplyTo(&beer)

	created, err := s.beers.Create(ctx, beer)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("create beer: %w", categoryReferenceError(err))
	}

	s.metrics.RecordMutation(domain.AggregateBeer, "create")
	s.events.Record(ctx, domain.AggregateBeer, created.ID, domain.EventBeerCreated, newBeerEvent(created))
	s.logger.WithField("beer_id", created.ID).Info("beer created")
	return created, nil
}

// UpdateBeer полностью заменяет изменяемые поля записи.
// expectedVersion nil означает версию, прочитанную в начале операции.
func (s *Service) UpdateBeer(ctx context.Context, id string, in domain.BeerInput, expectedVersion *int64) (domain.Beer, error) {
	current, err := s.beers.Get(ctx, id)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("update beer %s: %w", id, err)
	}
	if err := in.Validate(); err != nil {
		return domain.Beer{}, err
	}
	return s.save(ctx, current, in, expectedVersion)
}

// PatchBeer применяет только переданные поля. Пустой патч ничего не пишет
// и возвращает текущее состояние записи.
func (s *Service) PatchBeer(ctx context.Context, id string, patch domain.BeerPatch, expectedVersion *int64) (domain.Beer, error) {
	current, err := s.beers.Get(ctx, id)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("patch beer %s: %w", id, err)
	}
	if patch.IsEmpty() {
		return current, nil
	}

	in := patch.Merge(current)
	if err := in.Validate(); err != nil {
		return domain.Beer{}, err
	}
	return s.save(ctx, current, in, expectedVersion)
}

// DeleteBeer удаляет запись без проверки версии.
func (s *Service) DeleteBeer(ctx context.Context, id string) error {
	if err := s.beers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete beer %s: %w", id, err)
	}

	s.metrics.RecordMutation(domain.AggregateBeer, "delete")
	s.events.Record(ctx, domain.AggregateBeer, id, domain.EventBeerDeleted, deletedEvent{ID: id})
	s.logger.WithField("beer_id", id).Info("beer deleted")
	return nil
}

// save записывает проверенный input поверх current с проверкой версии в хранилище.
func (s *Service) save(ctx context.Context, current domain.Beer, in domain.BeerInput, expectedVersion *int64) (domain.Beer, error) {
	next := current.Clone()
	in.ApplyTo(&next)
	next.Version = resolveVersion(current.Version, expectedVersion)

	updated, err := s.beers.Update(ctx, next, in.Categories)
	if err != nil {
		s.observeConflict(domain.AggregateBeer, err)
		return domain.Beer{}, fmt.Errorf("update beer %s: %w", current.ID, categoryReferenceError(err))
	}

	s.metrics.RecordMutation(domain.AggregateBeer, "update")
	s.events.Record(ctx, domain.AggregateBeer, updated.ID, domain.EventBeerUpdated, newBeerEvent(updated))
	s.logger.WithFields(log.Fields{
		"beer_id": updated.ID,
		"version": updated.Version,
	}).Info("beer updated")
	return updated, nil
}

// categoryReferenceError переводит ссылку на неизвестную категорию в ошибку поля.
func categoryReferenceError(err error) error {
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return domain.NewValidationError("categories", "references unknown category")
	}
	return err
}
