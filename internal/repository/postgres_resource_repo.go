package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunamis/faithhub/internal/model"
)

// resourceSelect はリソースと作者名をLEFT JOINで取得するSELECT句。
// 作者が削除済みの場合、author_idとnameはNULLになる。
const resourceSelect = `SELECT r.id, r.title, r.description, r.image_url, r.external_link, r.kind,
	r.featured, r.author_id, r.view_count, r.created_at, r.updated_at, u.name
	FROM %s r LEFT JOIN users u ON u.id = r.author_id`

// resourceSortColumns はソートキーから列名への対応。
// ORDER BY句に埋め込むため、ここに列挙された値以外を使ってはならない。
var resourceSortColumns = map[model.ResourceSort]string{
	model.ResourceSortCreatedAt: "r.created_at",
	model.ResourceSortUpdatedAt: "r.updated_at",
	model.ResourceSortTitle:     "r.title",
	model.ResourceSortViewCount: "r.view_count",
}

// PostgresResourceRepo はPostgreSQLを使用したリソースリポジトリ。
type PostgresResourceRepo struct {
	db DBTX
}

// NewPostgresResourceRepo はPostgresResourceRepoを生成する。
func NewPostgresResourceRepo(db DBTX) *PostgresResourceRepo {
	return &PostgresResourceRepo{db: db}
}

// List は条件に一致するリソースのページと総件数を返す。
func (r *PostgresResourceRepo) List(ctx context.Context, q model.ResourceQuery) ([]*model.ResourceWithAuthor, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM resources WHERE ($1 = '' OR kind = $1)`,
		string(q.Kind),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	column, ok := resourceSortColumns[q.Sort]
	if !ok {
		column = resourceSortColumns[model.ResourceSortCreatedAt]
	}
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(resourceSelect, "resources") +
		` WHERE ($1 = '' OR r.kind = $1)` +
		fmt.Sprintf(` ORDER BY %s %s, r.id ASC LIMIT $2 OFFSET $3`, column, direction)

	rows, err := r.db.QueryContext(ctx, query, string(q.Kind), q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources, err := scanResources(rows)
	if err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// FindByID は指定IDのリソースを取得する。見つからない場合はnilを返す。
func (r *PostgresResourceRepo) FindByID(ctx context.Context, id string) (*model.ResourceWithAuthor, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(resourceSelect, "resources")+` WHERE r.id = $1`,
		id,
	)
	res, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resource by ID: %w", err)
	}
	return res, nil
}

// IncrementViewCount は閲覧数を1増やし、更新後のリソースを返す。
// 加算はDB側で行うため、同時アクセスでもカウントは失われない。
func (r *PostgresResourceRepo) IncrementViewCount(ctx context.Context, id string) (*model.ResourceWithAuthor, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		`WITH updated AS (
			UPDATE resources SET view_count = view_count + 1 WHERE id = $1 RETURNING *
		) `+fmt.Sprintf(resourceSelect, "updated"),
		id,
	)
	res, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment view count: %w", err)
	}
	return res, nil
}

// Create はリソースを作成する。
func (r *PostgresResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (id, title, description, image_url, external_link, kind, featured,
		                        author_id, view_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.ID, res.Title, res.Description, res.ImageURL, res.ExternalLink, string(res.Kind),
		res.Featured, nullString(res.AuthorID), res.ViewCount, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

// Update はリソースを部分更新し、更新後のリソースを返す。見つからない場合はnilを返す。
func (r *PostgresResourceRepo) Update(ctx context.Context, id string, u model.ResourceUpdate) (*model.ResourceWithAuthor, error) {
	if !validID(id) {
		return nil, nil
	}
	var kind sql.NullString
	if u.Kind != nil {
		kind = sql.NullString{String: string(*u.Kind), Valid: true}
	}
	var featured sql.NullBool
	if u.Featured != nil {
		featured = sql.NullBool{Bool: *u.Featured, Valid: true}
	}

	row := r.db.QueryRowContext(ctx,
		`WITH updated AS (
			UPDATE resources SET
				title = COALESCE($1, title),
				description = COALESCE($2, description),
				image_url = COALESCE($3, image_url),
				external_link = COALESCE($4, external_link),
				kind = COALESCE($5, kind),
				featured = COALESCE($6, featured),
				updated_at = now()
			WHERE id = $7
			RETURNING *
		) `+fmt.Sprintf(resourceSelect, "updated"),
		nullString(u.Title), nullString(u.Description), nullString(u.ImageURL),
		nullString(u.ExternalLink), kind, featured, id,
	)
	res, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return res, nil
}

// DeleteByID は指定IDのリソースを削除する。見つからない場合はfalseを返す。
func (r *PostgresResourceRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resources WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete resource: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// ListFeatured はおすすめリソースを新しい順にlimit件返す。
func (r *PostgresResourceRepo) ListFeatured(ctx context.Context, limit int) ([]*model.ResourceWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(resourceSelect, "resources")+
			` WHERE r.featured = true ORDER BY r.created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// Search は全文検索で一致したリソースを関連度順にlimit件返す。
// 検索語はwebsearch_to_tsqueryで解釈するため、利用者の入力をそのまま渡してよい。
func (r *PostgresResourceRepo) Search(ctx context.Context, query string, limit int) ([]*model.ResourceWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(resourceSelect, "resources")+
			` WHERE r.search @@ websearch_to_tsquery('english', $1)
			  ORDER BY ts_rank(r.search, websearch_to_tsquery('english', $1)) DESC, r.created_at DESC
			  LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// ExistsByExternalLink は同じ外部リンクを持つリソースが存在するかを返す。
func (r *PostgresResourceRepo) ExistsByExternalLink(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM resources WHERE external_link = $1)`,
		link,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check external link: %w", err)
	}
	return exists, nil
}

func scanResource(s rowScanner) (*model.ResourceWithAuthor, error) {
	res := &model.ResourceWithAuthor{}
	var kind string
	var authorID, authorName sql.NullString
	if err := s.Scan(
		&res.ID, &res.Title, &res.Description, &res.ImageURL, &res.ExternalLink, &kind,
		&res.Featured, &authorID, &res.ViewCount, &res.CreatedAt, &res.UpdatedAt, &authorName,
	); err != nil {
		return nil, err
	}
	res.Kind = model.ResourceKind(kind)
	if authorID.Valid {
		id := authorID.String
		res.AuthorID = &id
	}
	if authorName.Valid {
		name := authorName.String
		res.AuthorName = &name
	}
	return res, nil
}

func scanResources(rows *sql.Rows) ([]*model.ResourceWithAuthor, error) {
	var resources []*model.ResourceWithAuthor
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return resources, nil
}

// compile-time interface check
var _ ResourceRepository = (*PostgresResourceRepo)(nil)
