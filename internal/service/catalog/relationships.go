package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// ListCategories возвращает все категории вместе со связанным пивом.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory возвращает категорию или ErrCategoryNotFound.
func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return category, nil
}

// CreateCategory создаёт пустую категорию.
func (s *Service) CreateCategory(ctx context.Context, description string) (domain.Category, error) {
	if err := domain.ValidateCategoryDescription(description); err != nil {
		return domain.Category{}, err
	}

	created, err := s.categories.Create(ctx, domain.Category{
		ID:          s.newID(),
		Description: description,
		Beers:       domain.NewIDSet(),
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.metrics.RecordMutation("category", "create")
	s.logger.WithField("category_id", created.ID).Info("category created")
	return created, nil
}

// AssociateBeer связывает пиво с категорией с обеих сторон.
// Повторная связь не ошибка: возвращается false и событие не пишется.
func (s *Service) AssociateBeer(ctx context.Context, beerID, categoryID string) (bool, error) {
	added, err := s.categories.Associate(ctx, beerID, categoryID)
	if err != nil {
		return false, fmt.Errorf("associate beer %s with category %s: %w", beerID, categoryID, err)
	}
	if added {
		s.metrics.RecordMutation(domain.AggregateBeer, "associate")
		s.events.Record(ctx, domain.AggregateBeer, beerID, domain.EventBeerCategoryLinked,
			linkEvent{BeerID: beerID, CategoryID: categoryID})
	}
	s.logger.WithFields(log.Fields{
		"beer_id":     beerID,
		"category_id": categoryID,
		"changed":     added,
	}).Info("beer associated with category")
	return added, nil
}

// DisassociateBeer снимает связь с обеих сторон: категорию у пива и пиво у категории.
func (s *Service) DisassociateBeer(ctx context.Context, beerID, categoryID string) (bool, error) {
	removed, err := s.categories.Disassociate(ctx, beerID, categoryID)
	if err != nil {
		return false, fmt.Errorf("disassociate beer %s from category %s: %w", beerID, categoryID, err)
	}
	if removed {
		s.metrics.RecordMutation(domain.AggregateBeer, "disassociate")
		s.events.Record(ctx, domain.AggregateBeer, beerID, domain.EventBeerCategoryUnlink,
			linkEvent{BeerID: beerID, CategoryID: categoryID})
	}
	s.logger.WithFields(log.Fields{
		"beer_id":     beerID,
		"category_id": categoryID,
		"changed":     removed,
	}).Info("beer disassociated from category")
	return removed, nil
}
