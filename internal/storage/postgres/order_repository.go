package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// Create пишет заказ, позиции и отгрузку одной транзакцией.
func (r *orderRepository) Create(ctx context.Context, order domain.BeerOrder) (domain.BeerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	created := order.Clone()
	created.Version = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO beer_orders (id, version, customer_ref, customer_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, created.ID, created.Version, created.CustomerRef, created.CustomerID, created.CreatedAt, created.UpdatedAt); err != nil {
			return fmt.Errorf("insert beer order: %w", translateConstraintError(err))
		}

		for i := range created.Lines {
			line := &created.Lines[i]
			if line.ID == "" {
				line.ID = uuid.NewString()
			}
			line.CreatedAt = now
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO beer_order_lines (id, beer_order_id, beer_id, order_quantity, created_at)
				VALUES ($1,$2,$3,$4,$5)
			`, line.ID, created.ID, line.BeerID, line.OrderQuantity, line.CreatedAt); err != nil {
				return fmt.Errorf("insert beer order line: %w", translateConstraintError(err))
			}
		}

		if created.Shipment != nil {
			if created.Shipment.ID == "" {
				created.Shipment.ID = uuid.NewString()
			}
			created.Shipment.CreatedAt = now
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO beer_order_shipments (id, beer_order_id, tracking_number, created_at)
				VALUES ($1,$2,$3,$4)
			`, created.Shipment.ID, created.ID, created.Shipment.TrackingNumber, created.Shipment.CreatedAt); err != nil {
				return fmt.Errorf("insert beer order shipment: %w", translateConstraintError(err))
			}
		}
		return nil
	})
	if err != nil {
		return domain.BeerOrder{}, err
	}
	return created, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.BeerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, version, customer_ref, customer_id, created_at, updated_at
		FROM beer_orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BeerOrder{}, domain.ErrOrderNotFound
		}
		return domain.BeerOrder{}, fmt.Errorf("select beer order: %w", err)
	}

	orders := []domain.BeerOrder{order}
	if err := r.loadDetails(ctx, orders); err != nil {
		return domain.BeerOrder{}, err
	}
	return orders[0], nil
}

// ListByCustomer возвращает заказы покупателя, новые первыми.
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.BeerOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check customer exists: %w", err)
	}
	if !exists {
		return nil, domain.ErrCustomerNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, customer_ref, customer_id, created_at, updated_at
		FROM beer_orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list beer orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.BeerOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan beer order row: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate beer order rows: %w", err)
	}

	if err := r.loadDetails(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete удаляет заказ; позиции и отгрузку снимает ON DELETE CASCADE.
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM beer_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete beer order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// loadDetails подгружает позиции и отгрузки для набора заказов.
func (r *orderRepository) loadDetails(ctx context.Context, orders []domain.BeerOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, order := range orders {
		ids = append(ids, order.ID)
		index[order.ID] = i
	}

	lines, err := r.db.QueryContext(ctx, `
		SELECT id, beer_order_id, beer_id, order_quantity, created_at
		FROM beer_order_lines
		WHERE beer_order_id = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return fmt.Errorf("load beer order lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		var (
			line    domain.BeerOrderLine
			orderID string
		)
		if err := lines.Scan(&line.ID, &orderID, &line.BeerID, &line.OrderQuantity, &line.CreatedAt); err != nil {
			return fmt.Errorf("scan beer order line: %w", err)
		}
		line.CreatedAt = line.CreatedAt.UTC()
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("iterate beer order lines: %w", err)
	}

	shipments, err := r.db.QueryContext(ctx, `
		SELECT id, beer_order_id, tracking_number, created_at
		FROM beer_order_shipments
		WHERE beer_order_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("load beer order shipments: %w", err)
	}
	defer shipments.Close()
	for shipments.Next() {
		var (
			shipment domain.BeerOrderShipment
			orderID  string
		)
		if err := shipments.Scan(&shipment.ID, &orderID, &shipment.TrackingNumber, &shipment.CreatedAt); err != nil {
			return fmt.Errorf("scan beer order shipment: %w", err)
		}
		shipment.CreatedAt = shipment.CreatedAt.UTC()
		orders[index[orderID]].Shipment = &shipment
	}
	if err := shipments.Err(); err != nil {
		return fmt.Errorf("iterate beer order shipments: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (domain.BeerOrder, error) {
	var order domain.BeerOrder
	if err := row.Scan(
		&order.ID, &order.Version, &order.CustomerRef, &order.CustomerID, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.BeerOrder{}, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
