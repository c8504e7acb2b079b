package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type categoryRepository struct {
	db *sql.DB
}

func (r *categoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	created := domain.Category{
		ID:          category.ID,
		Description: category.Description,
		Beers:       domain.NewIDSet(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, version, description, created_at, updated_at)
		VALUES ($1, 0, $2, $3, $4)
	`, created.ID, created.Description, created.CreatedAt, created.UpdatedAt); err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", translateConstraintError(err))
	}
	return created, nil
}

func (r *categoryRepository) Get(ctx context.Context, id string) (domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	category, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT id, version, description, created_at, updated_at
		FROM categories
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		return domain.Category{}, fmt.Errorf("select category: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT beer_id FROM beer_category WHERE category_id = $1`, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("load category beers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var beerID string
		if err := rows.Scan(&beerID); err != nil {
			return domain.Category{}, fmt.Errorf("scan category beer: %w", err)
		}
		category.Beers.Add(beerID)
	}
	if err := rows.Err(); err != nil {
		return domain.Category{}, fmt.Errorf("iterate category beers: %w", err)
	}
	return category, nil
}

// List возвращает категории, отсортированные по описанию, вместе с их пивом.
func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, description, created_at, updated_at
		FROM categories
		ORDER BY description COLLATE "C", id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	index := make(map[string]int)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		index[category.ID] = len(result)
		result = append(result, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	links, err := r.db.QueryContext(ctx, `SELECT beer_id, category_id FROM beer_category`)
	if err != nil {
		return nil, fmt.Errorf("load category links: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var beerID, categoryID string
		if err := links.Scan(&beerID, &categoryID); err != nil {
			return nil, fmt.Errorf("scan category link: %w", err)
		}
		if i, ok := index[categoryID]; ok {
			result[i].Beers.Add(beerID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("iterate category links: %w", err)
	}
	return result, nil
}

// Associate вставляет строку связи; ON CONFLICT делает повтор no-op.
func (r *categoryRepository) Associate(ctx context.Context, beerID, categoryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var changed bool
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensurePairTx(ctx, tx, beerID, categoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO beer_category (beer_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, beerID, categoryID)
		if err != nil {
			return fmt.Errorf("associate beer category: %w", translateConstraintError(err))
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		changed = affected > 0
		return nil
	})
	return changed, err
}

// Disassociate удаляет строку связи; обе стороны видят изменение одновременно.
func (r *categoryRepository) Disassociate(ctx context.Context, beerID, categoryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var changed bool
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensurePairTx(ctx, tx, beerID, categoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM beer_category
			WHERE beer_id = $1
			  AND category_id = $2
		`, beerID, categoryID)
		if err != nil {
			return fmt.Errorf("disassociate beer category: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		changed = affected > 0
		return nil
	})
	return changed, err
}

func ensurePairTx(ctx context.Context, tx *sql.Tx, beerID, categoryID string) error {
	exists, err := rowExistsTx(ctx, tx, "beers", beerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrBeerNotFound
	}
	exists, err = rowExistsTx(ctx, tx, "categories", categoryID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (domain.Category, error) {
	var category domain.Category
	if err := row.Scan(
		&category.ID, &category.Version, &category.Description, &category.CreatedAt, &category.UpdatedAt,
	); err != nil {
		return domain.Category{}, err
	}
	category.CreatedAt = category.CreatedAt.UTC()
	category.UpdatedAt = category.UpdatedAt.UTC()
	category.Beers = domain.NewIDSet()
	return category, nil
}

var _ domain.CategoryRepository = (*categoryRepository)(nil)
