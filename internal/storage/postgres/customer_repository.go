package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const customerColumns = `id, version, customer_name, email, created_at, updated_at`

type customerRepository struct {
	db *sql.DB
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	created := customer
	created.Version = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, created.ID, created.Version, created.Name, created.Email, created.CreatedAt, created.UpdatedAt); err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer: %w", translateConstraintError(err))
	}
	return created, nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return customer, nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY customer_name COLLATE "C", id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		result = append(result, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return result, nil
}

func (r *customerRepository) Update(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var updated domain.Customer
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		updated, err = scanCustomer(tx.QueryRowContext(ctx, `
			UPDATE customers
			SET customer_name = $1,
			    email = $2,
			    version = version + 1,
			    updated_at = $3
			WHERE id = $4
			  AND version = $5
			RETURNING `+customerColumns,
			customer.Name, customer.Email, time.Now().UTC(), customer.ID, customer.Version,
		))
		if errors.Is(err, sql.ErrNoRows) {
			exists, existsErr := rowExistsTx(ctx, tx, "customers", customer.ID)
			if existsErr != nil {
				return existsErr
			}
			if !exists {
				return domain.ErrCustomerNotFound
			}
			return domain.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("update customer: %w", translateConstraintError(err))
		}
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCustomerHasOrders
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID, &customer.Version, &customer.Name, &customer.Email, &customer.CreatedAt, &customer.UpdatedAt,
	); err != nil {
		return domain.Customer{}, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	customer.UpdatedAt = customer.UpdatedAt.UTC()
	return customer, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
