package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type beerRepository struct {
	s *Store
}

// Create сохраняет копию записи и связывает её с переданными категориями.
func (r *beerRepository) Create(_ context.Context, beer domain.Beer) (domain.Beer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.beers[beer.ID]; exists {
		return domain.Beer{}, domain.ErrAlreadyExists
	}
	categories, err := r.resolveCategories(beer.Categories.Sorted())
	if err != nil {
		return domain.Beer{}, err
	}

	now := r.s.now()
	stored := beer.Clone()
	stored.Version = 0
	stored.Categories = domain.NewIDSet()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	for _, category := range categories {
		domain.Link(&stored, category)
	}

	r.s.beers[stored.ID] = &stored
	return stored.Clone(), nil
}

// Get возвращает копию записи или ErrBeerNotFound.
func (r *beerRepository) Get(_ context.Context, id string) (domain.Beer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	beer, ok := r.s.beers[id]
	if !ok {
		return domain.Beer{}, domain.ErrBeerNotFound
	}
	return beer.Clone(), nil
}

// List применяет фильтр внутри скана и возвращает окно, отсортированное по имени и ID.
func (r *beerRepository) List(_ context.Context, filter domain.BeerFilter, page domain.PageRequest) ([]domain.Beer, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*domain.Beer, 0, len(r.s.beers))
	for _, beer := range r.s.beers {
		if filter.Matches(*beer) {
			matched = append(matched, beer)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := page.Offset()
	if start >= len(matched) {
		return []domain.Beer{}, total, nil
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]domain.Beer, 0, end-start)
	for _, beer := range matched[start:end] {
		result = append(result, beer.Clone())
	}
	return result, total, nil
}

func (r *beerRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.beers)), nil
}

// Update перезаписывает поля записи, проверяя версию (optimistic locking).
func (r *beerRepository) Update(_ context.Context, beer domain.Beer, categories []string) (domain.Beer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.beers[beer.ID]
	if !ok {
		return domain.Beer{}, domain.ErrBeerNotFound
	}
	if stored.Version != beer.Version {
		return domain.Beer{}, domain.ErrVersionConflict
	}

	var wanted []*domain.Category
	if categories != nil {
		resolved, err := r.resolveCategories(categories)
		if err != nil {
			return domain.Beer{}, err
		}
		wanted = resolved
	}

	stored.Name = beer.Name
	stored.Style = beer.Style
	stored.UPC = beer.UPC
	stored.QuantityOnHand = nil
	if beer.QuantityOnHand != nil {
		stored.QuantityOnHand = domain.Int32Ptr(*beer.QuantityOnHand)
	}
	stored.Price = beer.Price

	if categories != nil {
		r.replaceCategories(stored, wanted)
	}

	// Инкрементируем версию вместе с изменением.
	stored.Version++
	stored.UpdatedAt = r.s.now()
	return stored.Clone(), nil
}

// Delete удаляет запись и снимает её связи с категориями.
func (r *beerRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.beers[id]
	if !ok {
		return domain.ErrBeerNotFound
	}
	if r.s.beerReferenced(id) {
		return domain.ErrBeerInUse
	}
	for _, categoryID := range stored.Categories.Sorted() {
		if category, ok := r.s.categories[categoryID]; ok {
			domain.Unlink(stored, category)
		}
	}
	delete(r.s.beers, id)
	return nil
}

// resolveCategories находит категории по ID без изменений. Вызывать под s.mu.
func (r *beerRepository) resolveCategories(ids []string) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0, len(ids))
	for _, id := range ids {
		category, ok := r.s.categories[id]
		if !ok {
			return nil, domain.ErrCategoryNotFound
		}
		result = append(result, category)
	}
	return result, nil
}

// replaceCategories приводит связи записи к набору wanted через Link/Unlink.
func (r *beerRepository) replaceCategories(beer *domain.Beer, wanted []*domain.Category) {
	keep := domain.NewIDSet()
	for _, category := range wanted {
		keep.Add(category.ID)
	}
	for _, categoryID := range beer.Categories.Sorted() {
		if keep.Has(categoryID) {
			continue
		}
		if category, ok := r.s.categories[categoryID]; ok {
			domain.Unlink(beer, category)
		} else {
			beer.Categories.Remove(categoryID)
		}
	}
	for _, category := range wanted {
		domain.Link(beer, category)
	}
}

var _ domain.BeerRepository = (*beerRepository)(nil)
