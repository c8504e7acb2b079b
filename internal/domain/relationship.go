package domain

import "fmt"

// Link связывает пиво и категорию. Единственный способ менять обе стороны связи:
// после вызова beer.Categories содержит category.ID и category.Beers содержит beer.ID.
// Возвращает false, если связь уже существовала.
func Link(beer *Beer, category *Category) bool {
	if beer.Categories == nil {
		beer.Categories = NewIDSet()
	}
	if category.Beers == nil {
		category.Beers = NewIDSet()
	}
	addedToBeer := beer.Categories.Add(category.ID)
	addedToCategory := category.Beers.Add(beer.ID)
	return addedToBeer || addedToCategory
}

// Unlink снимает связь с обеих сторон: категорию у пива и пиво у категории.
// Возвращает false, если связи не было.
func Unlink(beer *Beer, category *Category) bool {
	removedFromBeer := beer.Categories.Remove(category.ID)
	removedFromCategory := category.Beers.Remove(beer.ID)
	return removedFromBeer || removedFromCategory
}

// CheckLink проверяет симметрию связи между конкретной парой.
func CheckLink(beer Beer, category Category) error {
	inBeer := beer.Categories.Has(category.ID)
	inCategory := category.Beers.Has(beer.ID)
	if inBeer != inCategory {
		return fmt.Errorf("%w: beer %s has category=%t, category %s has beer=%t",
			ErrInvariantViolation, beer.ID, inBeer, category.ID, inCategory)
	}
	return nil
}
