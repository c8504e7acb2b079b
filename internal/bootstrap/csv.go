package bootstrap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Колонки выгрузки, которые используются при загрузке. Остальные игнорируются.
const (
	columnRow   = "row"
	columnCount = "count.x"
	columnBeer  = "beer"
	columnStyle = "style"
)

// csvPrice: цена всех загруженных из CSV позиций.
var csvPrice = decimal.NewFromInt(10)

// BeerRecord: строка CSV-выгрузки пива.
type BeerRecord struct {
	Row   int
	Count int32
	Beer  string
	Style string
}

// ReadBeerCSV читает выгрузку, находя нужные колонки по заголовку.
func ReadBeerCSV(r io.Reader) ([]BeerRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv: header is missing")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.Trim(strings.TrimSpace(name), `"`))] = i
	}
	for _, required := range []string{columnRow, columnCount, columnBeer, columnStyle} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("column %q is missing", required)
		}
	}

	var records []BeerRecord
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		value := func(column string) string {
			i := index[column]
			if i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		row, err := strconv.Atoi(value(columnRow))
		if err != nil {
			return nil, fmt.Errorf("line %d: row: %w", line, err)
		}
		count, err := strconv.ParseInt(value(columnCount), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: count.x: %w", line, err)
		}
		records = append(records, BeerRecord{
			Row:   row,
			Count: int32(count),
			Beer:  value(columnBeer),
			Style: value(columnStyle),
		})
	}
	return records, nil
}

// MapStyle сводит текстовый стиль выгрузки к закрытому набору стилей.
func MapStyle(style string) domain.BeerStyle {
	switch style {
	case "American Pale Lager":
		return domain.BeerStyleLager
	case "American Pale Ale (APA)", "American Black Ale", "Belgian Dark Ale", "American Blonde Ale":
		return domain.BeerStyleAle
	case "American IPA", "American Double / Imperial IPA", "Belgian IPA":
		return domain.BeerStyleIPA
	case "American Porter":
		return domain.BeerStylePorter
	case "Oatmeal Stout", "American Stout":
		return domain.BeerStyleStout
	case "Saison / Farmhouse Ale":
		return domain.BeerStyleSaison
	case "Fruit / Vegetable Beer", "Winter Warmer", "Berliner Weissbier":
		return domain.BeerStyleWheat
	case "English Pale Ale":
		return domain.BeerStylePaleAle
	default:
		return domain.BeerStylePilsner
	}
}

// Abbreviate укорачивает строку до limit символов, заменяя хвост на "...".
func Abbreviate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Input превращает строку выгрузки в input создания пива.
// UPC: номер строки, остаток: count.x, цена фиксированная.
func (r BeerRecord) Input() domain.BeerInput {
	price := csvPrice
	qty := r.Count
	if qty < 0 {
		qty = 0
	}
	return domain.BeerInput{
		Name:           Abbreviate(r.Beer, domain.MaxBeerNameLength),
		Style:          MapStyle(r.Style),
		UPC:            strconv.Itoa(r.Row),
		QuantityOnHand: domain.Int32Ptr(qty),
		Price:          &price,
	}
}
