// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
)

// 文字数は最小6文字、バイト数はbcryptの上限72まで。
const (
	minPasswordRunes = 6
	maxPasswordBytes = 72
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// UpdateInput は管理者によるユーザー更新の入力。
type UpdateInput struct {
	Role *string `json:"role"`
}

// Validate は更新入力を検証する。
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Role, validation.In(string(model.RoleUser), string(model.RoleAdmin))),
	)
}

// ProfileInput は本人によるプロフィール更新の入力。nilのフィールドは変更しない。
type ProfileInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Validate はプロフィール更新入力を検証する。
func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty),
		validation.Field(&in.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&in.Password, validation.NilOrNotEmpty, validation.RuneLength(minPasswordRunes, 0), validation.Length(0, maxPasswordBytes)),
	)
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Update は管理者がユーザーのロールを変更する。
// 発行済みのアクセストークンのロールは失効まで変わらない。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		user.Role = model.Role(*in.Role)
	}
	user.UpdatedAt = time.Now()

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("ユーザーを更新しました",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Delete は管理者がユーザーを削除する。作成済みのリソースは作者なしとして残る。
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザーを削除しました", slog.String("user_id", id))
	return nil
}

// UpdateProfile は本人が名前・メールアドレス・パスワードを変更する。
// パスワードは変更時に再ハッシュ化される。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil && *in.Email != user.Email {
		existing, err := s.userRepo.FindByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
		}
		if existing != nil {
			return nil, model.NewEmailAlreadyInUseError()
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now()

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("プロフィールを更新しました", slog.String("user_id", user.ID))
	return user, nil
}

func (s *Service) save(ctx context.Context, user *model.User) error {
	found, err := s.userRepo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewEmailAlreadyInUseError()
		}
		return fmt.Errorf("ユーザーの保存に失敗しました: %w", err)
	}
	if !found {
		return model.NewUserNotFoundError()
	}
	return nil
}
