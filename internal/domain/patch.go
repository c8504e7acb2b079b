package domain

import "github.com/shopspring/decimal"

// PatchField различает три состояния поля частичного обновления:
// поле отсутствует, передано явное null, передано значение.
type PatchField[T any] struct {
	present bool
	value   *T
}

// Set: поле передано со значением.
func Set[T any](v T) PatchField[T] {
	return PatchField[T]{present: true, value: &v}
}

// Null: поле передано явным null.
func Null[T any]() PatchField[T] {
	return PatchField[T]{present: true}
}

// Present сообщает, было ли поле в документе.
func (f PatchField[T]) Present() bool { return f.present }

// IsNull: поле передано, но без значения.
func (f PatchField[T]) IsNull() bool { return f.present && f.value == nil }

// Value возвращает значение и признак его наличия.
func (f PatchField[T]) Value() (T, bool) {
	if f.value == nil {
		var zero T
		return zero, false
	}
	return *f.value, true
}

// BeerPatch: разреженный документ частичного обновления пива.
type BeerPatch struct {
	Name           PatchField[string]
	Style          PatchField[BeerStyle]
	UPC            PatchField[string]
	QuantityOnHand PatchField[int32]
	Price          PatchField[decimal.Decimal]
	Categories     PatchField[[]string]
}

// IsEmpty: в документе нет ни одного поля.
func (p BeerPatch) IsEmpty() bool {
	return !p.Name.Present() &&
		!p.Style.Present() &&
		!p.UPC.Present() &&
		!p.QuantityOnHand.Present() &&
		!p.Price.Present() &&
		!p.Categories.Present()
}

// Merge накладывает только присутствующие поля на текущее состояние записи.
// Явный null обнуляет поле; итог проверяется тем же BeerInput.Validate, что и при создании.
func (p BeerPatch) Merge(current Beer) BeerInput {
	in := InputFromBeer(current)

	if p.Name.Present() {
		in.Name, _ = p.Name.Value()
	}
	if p.Style.Present() {
		in.Style, _ = p.Style.Value()
	}
	if p.UPC.Present() {
		in.UPC, _ = p.UPC.Value()
	}
	if p.QuantityOnHand.Present() {
		in.QuantityOnHand = nil
		if qty, ok := p.QuantityOnHand.Value(); ok {
			in.QuantityOnHand = Int32Ptr(qty)
		}
	}
	if p.Price.Present() {
		in.Price = nil
		if price, ok := p.Price.Value(); ok {
			in.Price = &price
		}
	}
	if p.Categories.Present() {
		ids, _ := p.Categories.Value()
		in.Categories = append([]string{}, ids...)
	}

	return in
}
