package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type orderRepository struct {
	s *Store
}

// Create сохраняет заказ вместе с позициями и отгрузкой.
func (r *orderRepository) Create(_ context.Context, order domain.BeerOrder) (domain.BeerOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.orders[order.ID]; exists {
		return domain.BeerOrder{}, domain.ErrAlreadyExists
	}
	if _, ok := r.s.customers[order.CustomerID]; !ok {
		return domain.BeerOrder{}, domain.ErrCustomerNotFound
	}
	for _, line := range order.Lines {
		if _, ok := r.s.beers[line.BeerID]; !ok {
			return domain.BeerOrder{}, domain.ErrBeerNotFound
		}
	}

	now := r.s.now()
	stored := order.Clone()
	stored.Version = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	for i := range stored.Lines {
		if stored.Lines[i].ID == "" {
			stored.Lines[i].ID = uuid.NewString()
		}
		stored.Lines[i].CreatedAt = now
	}
	if stored.Shipment != nil {
		if stored.Shipment.ID == "" {
			stored.Shipment.ID = uuid.NewString()
		}
		stored.Shipment.CreatedAt = now
	}

	r.s.orders[stored.ID] = &stored
	return stored.Clone(), nil
}

func (r *orderRepository) Get(_ context.Context, id string) (domain.BeerOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return domain.BeerOrder{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// ListByCustomer возвращает заказы покупателя, новые первыми.
func (r *orderRepository) ListByCustomer(_ context.Context, customerID string) ([]domain.BeerOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.customers[customerID]; !ok {
		return nil, domain.ErrCustomerNotFound
	}

	result := make([]domain.BeerOrder, 0)
	for _, order := range r.s.orders {
		if order.CustomerID != customerID {
			continue
		}
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// Delete удаляет заказ; позиции и отгрузка уходят вместе с ним.
func (r *orderRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.s.orders, id)
	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
