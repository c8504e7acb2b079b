// Package bootstrap заполняет пустой каталог стартовыми данными:
// встроенным YAML-набором и, при необходимости, CSV-выгрузкой пива.
package bootstrap

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
	"github.com/vladislavdragonenkov/catalog/internal/service/customer"
)

//go:embed seed.yaml
var seedYAML []byte

// csvThreshold: CSV грузится, только пока в каталоге меньше записей.
const csvThreshold = 10

// Seed: стартовый набор данных.
type Seed struct {
	Categories []CategorySeed `yaml:"categories"`
	Beers      []BeerSeed     `yaml:"beers"`
	Customers  []CustomerSeed `yaml:"customers"`
}

type CategorySeed struct {
	Description string `yaml:"description"`
}

// BeerSeed ссылается на категории по описанию, ID назначаются при создании.
type BeerSeed struct {
	Name           string   `yaml:"beerName"`
	Style          string   `yaml:"beerStyle"`
	UPC            string   `yaml:"upc"`
	Price          string   `yaml:"price"`
	QuantityOnHand *int32   `yaml:"quantityOnHand"`
	Categories     []string `yaml:"categories"`
}

type CustomerSeed struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// ParseSeed разбирает YAML-набор.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("unmarshaling seed: %w", err)
	}
	return seed, nil
}

// DefaultSeed возвращает встроенный набор.
func DefaultSeed() (Seed, error) {
	return ParseSeed(seedYAML)
}

// Result: сколько записей создано.
type Result struct {
	Categories int
	Beers      int
	Customers  int
	CSVBeers   int
}

// Loader создаёт записи через обычные операции сервисов.
type Loader struct {
	catalog   *catalog.Service
	customers *customer.Service
	logger    *log.Entry
}

// NewLoader создаёт загрузчик стартовых данных.
func NewLoader(catalogSvc *catalog.Service, customerSvc *customer.Service, logger *log.Entry) *Loader {
	if logger == nil {
		logger = log.WithField("component", "bootstrap")
	}
	return &Loader{catalog: catalogSvc, customers: customerSvc, logger: logger}
}

// Run загружает seed в пустой каталог и CSV-файл, если csvPath задан,
// а в каталоге всё ещё меньше csvThreshold записей. Повторный запуск ничего не дублирует.
func (l *Loader) Run(ctx context.Context, seed Seed, csvPath string) (Result, error) {
	var result Result

	count, err := l.beerCount(ctx)
	if err != nil {
		return result, err
	}
	if count == 0 {
		if err := l.loadCatalog(ctx, seed, &result); err != nil {
			return result, err
		}
	}

	customers, err := l.customers.ListCustomers(ctx)
	if err != nil {
		return result, fmt.Errorf("count customers: %w", err)
	}
	if len(customers) == 0 {
		for _, c := range seed.Customers {
			if _, err := l.customers.CreateCustomer(ctx, domain.CustomerInput{Name: c.Name, Email: c.Email}); err != nil {
				return result, fmt.Errorf("seed customer %q: %w", c.Name, err)
			}
			result.Customers++
		}
	}

	if csvPath != "" {
		count, err = l.beerCount(ctx)
		if err != nil {
			return result, err
		}
		if count < csvThreshold {
			loaded, err := l.loadCSV(ctx, csvPath)
			result.CSVBeers = loaded
			if err != nil {
				return result, err
			}
		}
	}

	l.logger.WithFields(log.Fields{
		"categories": result.Categories,
		"beers":      result.Beers,
		"customers":  result.Customers,
		"csv_beers":  result.CSVBeers,
	}).Info("bootstrap data loaded")
	return result, nil
}

func (l *Loader) beerCount(ctx context.Context) (int64, error) {
	page, err := l.catalog.ListBeers(ctx, catalog.ListQuery{PageSize: 1})
	if err != nil {
		return 0, fmt.Errorf("count beers: %w", err)
	}
	return page.TotalElements, nil
}

func (l *Loader) loadCatalog(ctx context.Context, seed Seed, result *Result) error {
	categoryIDs := make(map[string]string, len(seed.Categories))
	for _, c := range seed.Categories {
		created, err := l.catalog.CreateCategory(ctx, c.Description)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Description, err)
		}
		categoryIDs[c.Description] = created.ID
		result.Categories++
	}

	for _, b := range seed.Beers {
		price, err := decimal.NewFromString(b.Price)
		if err != nil {
			return fmt.Errorf("seed beer %q: parse price: %w", b.Name, err)
		}
		in := domain.BeerInput{
			Name:           b.Name,
			Style:          domain.BeerStyle(b.Style),
			UPC:            b.UPC,
			QuantityOnHand: b.QuantityOnHand,
			Price:          &price,
		}
		for _, description := range b.Categories {
			id, ok := categoryIDs[description]
			if !ok {
				return fmt.Errorf("seed beer %q: unknown category %q", b.Name, description)
			}
			in.Categories = append(in.Categories, id)
		}
		if _, err := l.catalog.CreateBeer(ctx, in); err != nil {
			return fmt.Errorf("seed beer %q: %w", b.Name, err)
		}
		result.Beers++
	}
	return nil
}

func (l *Loader) loadCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open beer csv: %w", err)
	}
	defer f.Close()

	records, err := ReadBeerCSV(f)
	if err != nil {
		return 0, fmt.Errorf("read beer csv %s: %w", path, err)
	}

	loaded := 0
	for _, rec := range records {
		if _, err := l.catalog.CreateBeer(ctx, rec.Input()); err != nil {
			return loaded, fmt.Errorf("load csv row %d: %w", rec.Row, err)
		}
		loaded++
	}
	return loaded, nil
}
