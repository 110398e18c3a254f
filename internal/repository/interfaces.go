// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dunamis/faithhub/internal/model"
)

// ErrDuplicate は一意制約違反を表す。サービス層でConflictに変換される。
var ErrDuplicate = errors.New("duplicate key")

// DBTX は*sql.DBと*sql.Txの共通インターフェース。
// リポジトリをトランザクション内でも使えるようにする。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスの完全一致でユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのemail、name、password_hash、roleを保存する。
	// メールアドレス重複時はErrDuplicateを返す。見つからない場合はfalseを返す。
	Update(ctx context.Context, user *model.User) (bool, error)

	// UpdateRefreshToken はリフレッシュトークンを丸ごと置き換える。nilはクリアを意味する。
	// 見つからない場合はfalseを返す。
	UpdateRefreshToken(ctx context.Context, id string, token *string) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。見つからない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// List は全ユーザーを作成日時の新しい順に返す。
	List(ctx context.Context) ([]*model.User, error)
}

// CategoryRepository はカテゴリの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを名前順に返す。
	List(ctx context.Context) ([]*model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// Create はカテゴリを作成する。名前・スラッグ重複時はErrDuplicateを返す。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリを保存する。見つからない場合はfalseを返す。
	Update(ctx context.Context, category *model.Category) (bool, error)

	// DeleteByID は指定IDのカテゴリを削除する。見つからない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ResourceRepository はリソースの永続化インターフェース。
type ResourceRepository interface {
	// List は条件に一致するリソースのページと総件数を返す。
	List(ctx context.Context, q model.ResourceQuery) ([]*model.ResourceWithAuthor, int, error)

	// FindByID は指定IDのリソースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ResourceWithAuthor, error)

	// IncrementViewCount は閲覧数を1増やし、更新後のリソースを返す。
	// 見つからない場合はnilを返す。
	IncrementViewCount(ctx context.Context, id string) (*model.ResourceWithAuthor, error)

	// Create はリソースを作成する。
	Create(ctx context.Context, resource *model.Resource) error

	// Update はリソースを部分更新し、更新後のリソースを返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update model.ResourceUpdate) (*model.ResourceWithAuthor, error)

	// DeleteByID は指定IDのリソースを削除する。見つからない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// ListFeatured はおすすめリソースを新しい順にlimit件返す。
	ListFeatured(ctx context.Context, limit int) ([]*model.ResourceWithAuthor, error)

	// Search は全文検索で一致したリソースを関連度順にlimit件返す。
	Search(ctx context.Context, query string, limit int) ([]*model.ResourceWithAuthor, error)

	// ExistsByExternalLink は同じ外部リンクを持つリソースが存在するかを返す。
	ExistsByExternalLink(ctx context.Context, link string) (bool, error)
}
