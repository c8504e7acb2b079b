package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) Create(_ context.Context, category domain.Category) (domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.categories[category.ID]; exists {
		return domain.Category{}, domain.ErrAlreadyExists
	}
	now := r.s.now()
	stored := category.Clone()
	stored.Version = 0
	stored.Beers = domain.NewIDSet()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.s.categories[stored.ID] = &stored
	return stored.Clone(), nil
}

func (r *categoryRepository) Get(_ context.Context, id string) (domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	category, ok := r.s.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category.Clone(), nil
}

// List возвращает категории, отсортированные по описанию.
func (r *categoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.s.categories))
	for _, category := range r.s.categories {
		result = append(result, category.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Description != result[j].Description {
			return result[i].Description < result[j].Description
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Associate меняет обе стороны связи под одной блокировкой.
func (r *categoryRepository) Associate(_ context.Context, beerID, categoryID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	beer, category, err := r.pair(beerID, categoryID)
	if err != nil {
		return false, err
	}
	return domain.Link(beer, category), nil
}

// Disassociate снимает связь с обеих сторон под одной блокировкой.
func (r *categoryRepository) Disassociate(_ context.Context, beerID, categoryID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	beer, category, err := r.pair(beerID, categoryID)
	if err != nil {
		return false, err
	}
	return domain.Unlink(beer, category), nil
}

func (r *categoryRepository) pair(beerID, categoryID string) (*domain.Beer, *domain.Category, error) {
	beer, ok := r.s.beers[beerID]
	if !ok {
		return nil, nil, domain.ErrBeerNotFound
	}
	category, ok := r.s.categories[categoryID]
	if !ok {
		return nil, nil, domain.ErrCategoryNotFound
	}
	return beer, category, nil
}

var _ domain.CategoryRepository = (*categoryRepository)(nil)
