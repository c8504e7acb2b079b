package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const beerColumns = `id, version, beer_name, beer_style, upc, quantity_on_hand, price, created_at, updated_at`

type beerRepository struct {
	db *sql.DB
}

func (r *beerRepository) Create(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	created := beer.Clone()
	created.Version = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO beers (`+beerColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			created.ID, created.Version, created.Name, string(created.Style), created.UPC,
			created.QuantityOnHand, created.Price, created.CreatedAt, created.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert beer: %w", translateConstraintError(err))
		}
		return linkCategoriesTx(ctx, tx, created.ID, created.Categories.Sorted())
	})
	if err != nil {
		return domain.Beer{}, err
	}
	if created.Categories == nil {
		created.Categories = domain.NewIDSet()
	}
	return created, nil
}

func (r *beerRepository) Get(ctx context.Context, id string) (domain.Beer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	beer, err := scanBeer(r.db.QueryRowContext(ctx, `SELECT `+beerColumns+` FROM beers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Beer{}, domain.ErrBeerNotFound
		}
		return domain.Beer{}, fmt.Errorf("select beer: %w", err)
	}

	links, err := loadBeerCategories(ctx, r.db, []string{beer.ID})
	if err != nil {
		return domain.Beer{}, err
	}
	beer.Categories = links[beer.ID]
	return beer, nil
}

// List переводит предикаты фильтра в WHERE и возвращает окно страницы вместе с общим числом совпадений.
func (r *beerRepository) List(ctx context.Context, filter domain.BeerFilter, page domain.PageRequest) ([]domain.Beer, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	where, args := buildBeerWhere(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count beers: %w", err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return []domain.Beer{}, total, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM beers%s ORDER BY beer_name COLLATE "C", id LIMIT $%d OFFSET $%d`,
		beerColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list beers: %w", err)
	}
	defer rows.Close()

	beers := make([]domain.Beer, 0, page.Size)
	ids := make([]string, 0, page.Size)
	for rows.Next() {
		beer, err := scanBeer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan beer row: %w", err)
		}
		beers = append(beers, beer)
		ids = append(ids, beer.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate beer rows: %w", err)
	}

	links, err := loadBeerCategories(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range beers {
		beers[i].Categories = links[beers[i].ID]
	}

	return beers, total, nil
}

func (r *beerRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count beers: %w", err)
	}
	return total, nil
}

// Update проверяет и увеличивает версию одним UPDATE ... WHERE id AND version.
func (r *beerRepository) Update(ctx context.Context, beer domain.Beer, categories []string) (domain.Beer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var updated domain.Beer
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE beers
			SET beer_name = $1,
			    beer_style = $2,
			    upc = $3,
			    quantity_on_hand = $4,
			    price = $5,
			    version = version + 1,
			    updated_at = $6
			WHERE id = $7
			  AND version = $8
			RETURNING `+beerColumns,
			beer.Name, string(beer.Style), beer.UPC, beer.QuantityOnHand, beer.Price,
			time.Now().UTC(), beer.ID, beer.Version,
		)
		var err error
		updated, err = scanBeer(row)
		if errors.Is(err, sql.ErrNoRows) {
			exists, existsErr := rowExistsTx(ctx, tx, "beers", beer.ID)
			if existsErr != nil {
				return existsErr
			}
			if !exists {
				return domain.ErrBeerNotFound
			}
			return domain.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("update beer: %w", translateConstraintError(err))
		}

		if categories != nil {
			if err := replaceCategoriesTx(ctx, tx, beer.ID, categories); err != nil {
				return err
			}
		}

		links, err := loadBeerCategories(ctx, tx, []string{beer.ID})
		if err != nil {
			return err
		}
		updated.Categories = links[beer.ID]
		return nil
	})
	if err != nil {
		return domain.Beer{}, err
	}
	return updated, nil
}

// Delete удаляет запись; связи с категориями снимает каскад beer_category.
func (r *beerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM beers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBeerInUse
		}
		return fmt.Errorf("delete beer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrBeerNotFound
	}
	return nil
}

// buildBeerWhere собирает условие скана из предикатов фильтра (AND).
func buildBeerWhere(filter domain.BeerFilter) (string, []any) {
	predicates := filter.Predicates()
	if len(predicates) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(predicates))
	args := make([]any, 0, len(predicates))
	for _, p := range predicates {
		switch p.Kind {
		case domain.PredicateNameContains:
			args = append(args, escapeLike(p.Value))
			clauses = append(clauses, fmt.Sprintf(`beer_name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
		case domain.PredicateStyleEquals:
			args = append(args, p.Value)
			clauses = append(clauses, fmt.Sprintf(`beer_style = $%d`, len(args)))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует служебные символы LIKE, чтобы фрагмент искался буквально.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeer(row rowScanner) (domain.Beer, error) {
	var (
		beer  domain.Beer
		style string
		qty   sql.NullInt32
	)
	if err := row.Scan(
		&beer.ID, &beer.Version, &beer.Name, &style, &beer.UPC,
		&qty, &beer.Price, &beer.CreatedAt, &beer.UpdatedAt,
	); err != nil {
		return domain.Beer{}, err
	}
	beer.Style = domain.BeerStyle(style)
	if qty.Valid {
		beer.QuantityOnHand = domain.Int32Ptr(qty.Int32)
	}
	beer.CreatedAt = beer.CreatedAt.UTC()
	beer.UpdatedAt = beer.UpdatedAt.UTC()
	beer.Categories = domain.NewIDSet()
	return beer, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadBeerCategories возвращает связи для набора пива одним запросом.
func loadBeerCategories(ctx context.Context, q queryer, beerIDs []string) (map[string]domain.IDSet, error) {
	result := make(map[string]domain.IDSet, len(beerIDs))
	for _, id := range beerIDs {
		result[id] = domain.NewIDSet()
	}
	if len(beerIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT beer_id, category_id
		FROM beer_category
		WHERE beer_id = ANY($1)
	`, beerIDs)
	if err != nil {
		return nil, fmt.Errorf("load beer categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var beerID, categoryID string
		if err := rows.Scan(&beerID, &categoryID); err != nil {
			return nil, fmt.Errorf("scan beer category: %w", err)
		}
		result[beerID].Add(categoryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate beer categories: %w", err)
	}
	return result, nil
}

func linkCategoriesTx(ctx context.Context, tx *sql.Tx, beerID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO beer_category (beer_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, beerID, categoryID); err != nil {
			return fmt.Errorf("link beer category: %w", translateConstraintError(err))
		}
	}
	return nil
}

// replaceCategoriesTx приводит набор связей пива к categoryIDs.
func replaceCategoriesTx(ctx context.Context, tx *sql.Tx, beerID string, categoryIDs []string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM beer_category
		WHERE beer_id = $1
		  AND NOT (category_id = ANY($2))
	`, beerID, categoryIDs); err != nil {
		return fmt.Errorf("unlink beer categories: %w", err)
	}
	return linkCategoriesTx(ctx, tx, beerID, categoryIDs)
}

var _ domain.BeerRepository = (*beerRepository)(nil)
