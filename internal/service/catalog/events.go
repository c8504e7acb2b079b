package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// beerEvent: тело событий beer.created и beer.updated.
type beerEvent struct {
	ID             string          `json:"id"`
	Version        int64           `json:"version"`
	BeerName       string          `json:"beerName"`
	BeerStyle      string          `json:"beerStyle"`
	UPC            string          `json:"upc"`
	QuantityOnHand *int32          `json:"quantityOnHand"`
	Price          decimal.Decimal `json:"price"`
	Categories     []string        `json:"categories"`
	UpdatedAt      time.Time       `json:"updatedDate"`
}

func newBeerEvent(b domain.Beer) beerEvent {
	return beerEvent{
		ID:             b.ID,
		Version:        b.Version,
		BeerName:       b.Name,
		BeerStyle:      string(b.Style),
		UPC:            b.UPC,
		QuantityOnHand: b.QuantityOnHand,
		Price:          b.Price,
		Categories:     b.Categories.Sorted(),
		UpdatedAt:      b.UpdatedAt,
	}
}

type deletedEvent struct {
	ID string `json:"id"`
}

// linkEvent: тело событий связи пива с категорией.
type linkEvent struct {
	BeerID     string `json:"beerId"`
	CategoryID string `json:"categoryId"`
}
