package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunamis/faithhub/internal/model"
)

const categoryColumns = `id, name, slug, color, description, created_at, updated_at`

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db DBTX
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db DBTX) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// List は全カテゴリを名前順に返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`,
		id,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return c, nil
}

// Create はカテゴリを作成する。名前・スラッグ重複時はErrDuplicateを返す。
func (r *PostgresCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, color, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Slug, c.Color, emptyToNull(c.Description), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if translateError(err) == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// Update はカテゴリを保存する。見つからない場合はfalseを返す。
func (r *PostgresCategoryRepo) Update(ctx context.Context, c *model.Category) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories
		 SET name = $1, slug = $2, color = $3, description = $4, updated_at = $5
		 WHERE id = $6`,
		c.Name, c.Slug, c.Color, emptyToNull(c.Description), c.UpdatedAt, c.ID,
	)
	if err != nil {
		if translateError(err) == ErrDuplicate {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("failed to update category: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// DeleteByID は指定IDのカテゴリを削除する。見つからない場合はfalseを返す。
func (r *PostgresCategoryRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

func scanCategory(s rowScanner) (*model.Category, error) {
	c := &model.Category{}
	var description sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	return c, nil
}

func emptyToNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
