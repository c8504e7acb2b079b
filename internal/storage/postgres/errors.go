package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const (
	sqlStateStringTruncation = "22001"
	sqlStateNotNull          = "23502"
	sqlStateForeignKey       = "23503"
	sqlStateUnique           = "23505"
	sqlStateCheck            = "23514"
)

// checkConstraintFields сопоставляет CHECK-ограничения схемы с полями API.
var checkConstraintFields = map[string]domain.FieldError{
	"beers_beer_name_not_blank":           {Field: "beerName", Message: "must not be blank"},
	"beers_beer_name_length":              {Field: "beerName", Message: "size must be between 0 and 50"},
	"beers_beer_style_valid":              {Field: "beerStyle", Message: "must be a known beer style"},
	"beers_upc_not_blank":                 {Field: "upc", Message: "must not be blank"},
	"beers_upc_length":                    {Field: "upc", Message: "size must be between 0 and 255"},
	"beers_quantity_on_hand_non_negative": {Field: "quantityOnHand", Message: "must be greater than or equal to 0"},
	"beers_price_non_negative":            {Field: "price", Message: "must be greater than or equal to 0"},
	"categories_description_not_blank":    {Field: "description", Message: "must not be blank"},
	"categories_description_length":       {Field: "description", Message: "size must be between 0 and 50"},
	"customers_name_not_blank":            {Field: "name", Message: "must not be blank"},
	"customers_name_length":               {Field: "name", Message: "size must be between 0 and 255"},
	"customers_email_length":              {Field: "email", Message: "size must be between 0 and 255"},
	"beer_order_lines_quantity_positive":  {Field: "lines.orderQuantity", Message: "must be greater than 0"},
}

// notNullColumnFields сопоставляет NOT NULL колонки с полями API.
var notNullColumnFields = map[string]string{
	"beer_name":     "beerName",
	"beer_style":    "beerStyle",
	"upc":           "upc",
	"price":         "price",
	"description":   "description",
	"customer_name": "name",
}

// translateConstraintError переводит нарушения ограничений схемы в доменные ошибки,
// чтобы клиент получал тот же список ошибок полей, что и при валидации в сервисе.
// Прочие ошибки возвращаются без изменений.
func translateConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateCheck:
		if field, ok := checkConstraintFields[pgErr.ConstraintName]; ok {
			return &domain.ValidationError{Fields: []domain.FieldError{field}}
		}
		return domain.NewValidationError(pgErr.ColumnName, pgErr.Message)
	case sqlStateNotNull:
		if field, ok := notNullColumnFields[pgErr.ColumnName]; ok {
			return domain.NewValidationError(field, "must not be null")
		}
		return domain.NewValidationError(pgErr.ColumnName, "must not be null")
	case sqlStateStringTruncation:
		return domain.NewValidationError(pgErr.ColumnName, pgErr.Message)
	case sqlStateUnique:
		return domain.ErrAlreadyExists
	case sqlStateForeignKey:
		return translateForeignKeyError(pgErr)
	default:
		return err
	}
}

// translateForeignKeyError обрабатывает вставку строки со ссылкой на несуществующую запись.
// Удаление записи, на которую ссылаются, репозитории разбирают сами через isForeignKeyViolation.
func translateForeignKeyError(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case "beer_order_lines_beer_id_fkey", "beer_category_beer_id_fkey":
		return domain.ErrBeerNotFound
	case "beer_orders_customer_id_fkey":
		return domain.ErrCustomerNotFound
	case "beer_category_category_id_fkey":
		return domain.ErrCategoryNotFound
	default:
		return pgErr
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateForeignKey
	}
	return false
}
