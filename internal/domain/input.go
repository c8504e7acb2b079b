package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// BeerInput: полный набор изменяемых клиентом полей пива.
// ID, версия и временные метки сюда не входят: их назначает хранилище.
type BeerInput struct {
	Name           string
	Style          BeerStyle
	UPC            string
	QuantityOnHand *int32
	Price          *decimal.Decimal
	// Categories nil означает "поле не передано", пустой срез снимает все связи.
	Categories []string
}

// InputFromBeer собирает input из текущего состояния записи.
func InputFromBeer(b Beer) BeerInput {
	in := BeerInput{
		Name:  b.Name,
		Style: b.Style,
		UPC:   b.UPC,
	}
	if b.QuantityOnHand != nil {
		in.QuantityOnHand = Int32Ptr(*b.QuantityOnHand)
	}
	price := b.Price
	in.Price = &price
	return in
}

// Validate проверяет ограничения полей. Порядок ошибок стабилен:
// beerName, beerStyle, upc, quantityOnHand, price, categories.
func (in BeerInput) Validate() error {
	errs := &ValidationError{}

	switch {
	case strings.TrimSpace(in.Name) == "":
		errs.Add("beerName", "must not be blank")
	case runeLen(in.Name) > MaxBeerNameLength:
		errs.Add("beerName", sizeMessage(MaxBeerNameLength))
	}

	switch {
	case in.Style == "":
		errs.Add("beerStyle", "must not be null")
	case !in.Style.Valid():
		errs.Add("beerStyle", fmt.Sprintf("must be one of %v", BeerStyles()))
	}

	switch {
	case strings.TrimSpace(in.UPC) == "":
		errs.Add("upc", "must not be blank")
	case runeLen(in.UPC) > MaxUPCLength:
		errs.Add("upc", sizeMessage(MaxUPCLength))
	}

	if in.QuantityOnHand != nil && *in.QuantityOnHand < 0 {
		errs.Add("quantityOnHand", "must be greater than or equal to 0")
	}

	switch {
	case in.Price == nil:
		errs.Add("price", "must not be null")
	case in.Price.IsNegative():
		errs.Add("price", "must be greater than or equal to 0")
	}

	for _, id := range in.Categories {
		if strings.TrimSpace(id) == "" {
			errs.Add("categories", "must not contain blank identifiers")
			break
		}
	}

	return errs.OrNil()
}

// ApplyTo переносит значения input в запись, не трогая ID, версию, метки и связи.
func (in BeerInput) ApplyTo(b *Beer) {
	b.Name = in.Name
	b.Style = in.Style
	b.UPC = in.UPC
	b.QuantityOnHand = nil
	if in.QuantityOnHand != nil {
		b.QuantityOnHand = Int32Ptr(*in.QuantityOnHand)
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func sizeMessage(limit int) string {
	return fmt.Sprintf("size must be between 0 and %d", limit)
}
