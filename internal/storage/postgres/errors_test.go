package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestTranslateConstraintError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantIs    error
		wantField string
	}{
		{
			name:      "check constraint maps to field",
			err:       &pgconn.PgError{Code: sqlStateCheck, ConstraintName: "beers_beer_name_length"},
			wantIs:    domain.ErrValidationFailed,
			wantField: "beerName",
		},
		{
			name:      "not null column maps to field",
			err:       fmt.Errorf("insert beer: %w", &pgconn.PgError{Code: sqlStateNotNull, ColumnName: "price"}),
			wantIs:    domain.ErrValidationFailed,
			wantField: "price",
		},
		{
			name:   "unique violation",
			err:    &pgconn.PgError{Code: sqlStateUnique},
			wantIs: domain.ErrAlreadyExists,
		},
		{
			name: "order line with unknown beer",
			err: &pgconn.PgError{
				Code:           sqlStateForeignKey,
				ConstraintName: "beer_order_lines_beer_id_fkey",
				TableName:      "beer_order_lines",
			},
			wantIs: domain.ErrBeerNotFound,
		},
		{
			name:   "order with unknown customer",
			err:    &pgconn.PgError{Code: sqlStateForeignKey, ConstraintName: "beer_orders_customer_id_fkey"},
			wantIs: domain.ErrCustomerNotFound,
		},
		{
			name:   "unknown category on link",
			err:    &pgconn.PgError{Code: sqlStateForeignKey, ConstraintName: "beer_category_category_id_fkey"},
			wantIs: domain.ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateConstraintError(tt.err)
			if !errors.Is(got, tt.wantIs) {
				t.Fatalf("translateConstraintError() = %v, want %v", got, tt.wantIs)
			}
			if tt.wantField == "" {
				return
			}
			fields := domain.FieldErrors(got)
			if len(fields) != 1 || fields[0].Field != tt.wantField {
				t.Fatalf("unexpected fields: %+v", fields)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !isForeignKeyViolation(fmt.Errorf("delete beer: %w", &pgconn.PgError{Code: sqlStateForeignKey})) {
		t.Fatal("expected wrapped 23503 to be detected")
	}
	if isForeignKeyViolation(&pgconn.PgError{Code: sqlStateUnique}) {
		t.Fatal("unique violation must not be reported as foreign key violation")
	}
}

func TestTranslateConstraintError_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	if got := translateConstraintError(plain); got != plain {
		t.Fatalf("expected original error, got %v", got)
	}
}
