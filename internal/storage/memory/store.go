package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Store: in-memory хранилище каталога для локальной разработки и тестов.
// Все агрегаты живут под одним мьютексом: это граница транзакции,
// в которой проверяется версия и меняются обе стороны связи beer <-> category.
type Store struct {
	mu         sync.RWMutex
	beers      map[string]*domain.Beer
	categories map[string]*domain.Category
	customers  map[string]*domain.Customer
	orders     map[string]*domain.BeerOrder
	now        func() time.Time
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		beers:      make(map[string]*domain.Beer),
		categories: make(map[string]*domain.Category),
		customers:  make(map[string]*domain.Customer),
		orders:     make(map[string]*domain.BeerOrder),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Beers возвращает репозиторий пива поверх хранилища.
func (s *Store) Beers() domain.BeerRepository { return &beerRepository{s: s} }

// Categories возвращает репозиторий категорий.
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepository{s: s} }

// Customers возвращает репозиторий покупателей.
func (s *Store) Customers() domain.CustomerRepository { return &customerRepository{s: s} }

// Orders возвращает репозиторий заказов.
func (s *Store) Orders() domain.OrderRepository { return &orderRepository{s: s} }

// beerReferenced проверяет, есть ли позиции заказов на это пиво. Вызывать под s.mu.
func (s *Store) beerReferenced(beerID string) bool {
	for _, order := range s.orders {
		for _, line := range order.Lines {
			if line.BeerID == beerID {
				return true
			}
		}
	}
	return false
}
