package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost は設定がない場合のbcryptコスト。
const DefaultBcryptCost = 10

// パスワードの最小文字数と、bcryptが扱える最大バイト数。
const (
	minPasswordRunes = 6
	maxPasswordBytes = 72
)

// ErrPasswordMismatch はパスワードがハッシュと一致しないことを表す。
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher はbcryptでパスワードをハッシュ化・照合する。
// bcryptはハッシュごとにソルトを生成するため、同じパスワードでも毎回異なる値になる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。範囲外のコストはデフォルト値に丸める。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はパスワードのハッシュを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワードがハッシュと一致するかを検証する。
// 不一致の場合はErrPasswordMismatchを返す。
func (h *PasswordHasher) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}
