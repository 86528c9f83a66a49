package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type CategoryRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewCategoryRepo(db *dbpg.DB) *CategoryRepository {
	return &CategoryRepository{
		db: db,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (id, name, description, created_by, created_on, updated_by, updated_on)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecWithRetry(
		ctx, r.strategy, query,
		c.ID, c.Name, c.Description, c.CreatedBy, c.CreatedOn, c.UpdatedBy, c.UpdatedOn,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT c.id, c.name, c.description, c.created_by, c.created_on, c.updated_by, c.updated_on,
					 EXISTS (SELECT 1 FROM events e WHERE e.category_id = c.id AND NOT e.is_removed)
			  FROM categories c
			  WHERE c.id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	var c domain.Category
	if err = row.Scan(
		&c.ID, &c.Name, &c.Description,
		&c.CreatedBy, &c.CreatedOn, &c.UpdatedBy, &c.UpdatedOn, &c.IsInUse,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT c.id, c.name, c.description, c.created_by, c.created_on, c.updated_by, c.updated_on,
					 EXISTS (SELECT 1 FROM events e WHERE e.category_id = c.id AND NOT e.is_removed)
			  FROM categories c
			  ORDER BY c.name`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var res []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err = rows.Scan(
			&c.ID, &c.Name, &c.Description,
			&c.CreatedBy, &c.CreatedOn, &c.UpdatedBy, &c.UpdatedOn, &c.IsInUse,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, &c)
	}

	return res, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	query := `UPDATE categories
			  SET name = $2, description = $3, updated_by = $4, updated_on = $5
			  WHERE id = $1`
	res, err := r.db.ExecWithRetry(ctx, r.strategy, query, c.ID, c.Name, c.Description, c.UpdatedBy, c.UpdatedOn)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category only while no live event references it.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM categories c
			  WHERE c.id = $1
				AND NOT EXISTS (SELECT 1 FROM events e WHERE e.category_id = c.id AND NOT e.is_removed)`
	res, err := r.db.ExecWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrCategoryInUse
	}
	return nil
}
