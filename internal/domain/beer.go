package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxBeerNameLength: ограничение колонки beer_name.
	MaxBeerNameLength = 50
	// MaxUPCLength: ограничение колонки upc.
	MaxUPCLength = 255
)

// BeerStyle описывает закрытый набор стилей пива.
type BeerStyle string

const (
	BeerStyleLager   BeerStyle = "LAGER"
	BeerStylePilsner BeerStyle = "PILSNER"
	BeerStyleStout   BeerStyle = "STOUT"
	BeerStyleGose    BeerStyle = "GOSE"
	BeerStylePorter  BeerStyle = "PORTER"
	BeerStyleAle     BeerStyle = "ALE"
	BeerStyleWheat   BeerStyle = "WHEAT"
	BeerStyleIPA     BeerStyle = "IPA"
	BeerStylePaleAle BeerStyle = "PALE_ALE"
	BeerStyleSaison  BeerStyle = "SAISON"
)

// BeerStyles возвращает все стили в порядке объявления.
func BeerStyles() []BeerStyle {
	return []BeerStyle{
		BeerStyleLager, BeerStylePilsner, BeerStyleStout, BeerStyleGose, BeerStylePorter,
		BeerStyleAle, BeerStyleWheat, BeerStyleIPA, BeerStylePaleAle, BeerStyleSaison,
	}
}

// Valid проверяет, что стиль относится к поддерживаемым значениям.
func (s BeerStyle) Valid() bool {
	for _, style := range BeerStyles() {
		if s == style {
			return true
		}
	}
	return false
}

// ParseBeerStyle разбирает стиль без учёта регистра.
func ParseBeerStyle(raw string) (BeerStyle, bool) {
	style := BeerStyle(strings.ToUpper(strings.TrimSpace(raw)))
	if !style.Valid() {
		return "", false
	}
	return style, true
}

// Beer: запись каталога.
type Beer struct {
	ID      string
	Version int64
	Name    string
	Style   BeerStyle
	UPC     string
	// QuantityOnHand nil означает "не задано" или скрыто проекцией.
	QuantityOnHand *int32
	Price          decimal.Decimal
	Categories     IDSet
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone возвращает глубокую копию, которую можно менять без влияния на хранилище.
func (b Beer) Clone() Beer {
	dst := b
	if b.QuantityOnHand != nil {
		qty := *b.QuantityOnHand
		dst.QuantityOnHand = &qty
	}
	dst.Categories = b.Categories.Clone()
	return dst
}

// Int32Ptr: помощник для опциональных количеств.
func Int32Ptr(v int32) *int32 {
	return &v
}
