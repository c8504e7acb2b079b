package catalog

import "github.com/vladislavdragonenkov/catalog/internal/domain"

// project готовит запись к выдаче в списке. Хранимая запись не меняется:
// работаем с копией и только в ней скрываем остаток на складе.
func project(b domain.Beer, showInventory bool) domain.Beer {
	out := b.Clone()
	if !showInventory {
		out.QuantityOnHand = nil
	}
	return out
}
