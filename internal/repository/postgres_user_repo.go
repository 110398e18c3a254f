package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunamis/faithhub/internal/model"
)

const userColumns = `id, email, password_hash, name, role, refresh_token, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db DBTX
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db DBTX) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスの完全一致でユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role),
		nullString(user.RefreshToken), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if translateError(err) == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーのemail、name、password_hash、roleを保存する。
// refresh_tokenはUpdateRefreshTokenでのみ更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $1, name = $2, password_hash = $3, role = $4, updated_at = $5
		 WHERE id = $6`,
		user.Email, user.Name, user.PasswordHash, string(user.Role), user.UpdatedAt, user.ID,
	)
	if err != nil {
		if translateError(err) == ErrDuplicate {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// UpdateRefreshToken はリフレッシュトークンを丸ごと置き換える。nilはクリアを意味する。
// 単一のUPDATE文で書き込むため、並行ログインでは最後の書き込みだけが残る。
func (r *PostgresUserRepo) UpdateRefreshToken(ctx context.Context, id string, token *string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $1 WHERE id = $2`,
		nullString(token), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update refresh token: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 作成したリソースのauthor_idはNULLに更新される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	ok, err := rowsAffected(result.RowsAffected())
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// List は全ユーザーを作成日時の新しい順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	user := &model.User{}
	var role string
	var refreshToken sql.NullString
	if err := s.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &role,
		&refreshToken, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	if refreshToken.Valid {
		token := refreshToken.String
		user.RefreshToken = &token
	}
	return user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
