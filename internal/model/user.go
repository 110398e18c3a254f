// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントの権限を表す。
type Role string

const (
	// RoleUser は一般ユーザー。登録時のデフォルト。
	RoleUser Role = "user"
	// RoleAdmin はコンテンツとユーザーを管理できる管理者。
	RoleAdmin Role = "admin"
)

// IsValid は定義済みのロールかどうかを返す。
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole は文字列をRoleに変換する。未定義の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}

// User はサービス利用ユーザーを表す。
// PasswordHashとRefreshTokenはAPIレスポンスに含めてはならない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	RefreshToken *string // ログアウト中はnil
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は認証済みアクセストークンのクレームから得られる呼び出し元の情報。
// ディレクトリを参照せずに構築されるため、ロール変更はトークン失効まで反映されない。
type Identity struct {
	UserID string
	Role   Role
}

// TokenPair はログイン・登録時に発行されるトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
