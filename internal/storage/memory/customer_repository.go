package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type customerRepository struct {
	s *Store
}

func (r *customerRepository) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.customers[customer.ID]; exists {
		return domain.Customer{}, domain.ErrAlreadyExists
	}
	now := r.s.now()
	stored := customer
	stored.Version = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.s.customers[stored.ID] = &stored
	return stored, nil
}

func (r *customerRepository) Get(_ context.Context, id string) (domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	customer, ok := r.s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return *customer, nil
}

// List возвращает покупателей, отсортированных по имени.
func (r *customerRepository) List(_ context.Context) ([]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.s.customers))
	for _, customer := range r.s.customers {
		result = append(result, *customer)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update перезаписывает покупателя, проверяя версию.
func (r *customerRepository) Update(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.customers[customer.ID]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	if stored.Version != customer.Version {
		return domain.Customer{}, domain.ErrVersionConflict
	}
	stored.Name = customer.Name
	stored.Email = customer.Email
	stored.Version++
	stored.UpdatedAt = r.s.now()
	return *stored, nil
}

func (r *customerRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	for _, order := range r.s.orders {
		if order.CustomerID == id {
			return domain.ErrCustomerHasOrders
		}
	}
	delete(r.s.customers, id)
	return nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
