// Package category はカテゴリ管理のドメインロジックを提供する。
package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
)

// Sanitizer はテキストからHTMLを除去するインターフェース。
type Sanitizer interface {
	SanitizeText(s string) string
}

// CreateInput はカテゴリ作成の入力。
type CreateInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Validate は作成入力を検証する。
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&in.Color, validation.Required, validation.Length(1, 32)),
	)
}

// UpdateInput はカテゴリ更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// Validate は更新入力を検証する。
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.RuneLength(1, 255)),
		validation.Field(&in.Color, validation.NilOrNotEmpty, validation.Length(1, 32)),
	)
}

// Slugify はカテゴリ名からスラッグを生成する。
// 小文字化した上で英数字以外の文字を1文字ずつ"-"に置き換える。
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Service はカテゴリ管理のサービス層。
type Service struct {
	repo      repository.CategoryRepository
	sanitizer Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.CategoryRepository, sanitizer Sanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は全カテゴリを名前順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// Get は指定IDのカテゴリを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCategoryNotFoundError()
	}
	return c, nil
}

// Create はカテゴリを作成する。名前・スラッグが既存と重複する場合はConflictを返す。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Category, error) {
	in.Name = s.sanitizer.SanitizeText(in.Name)
	in.Description = s.sanitizer.SanitizeText(in.Description)
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	now := time.Now()
	c := &model.Category{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Color:       in.Color,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewCategoryAlreadyExistsError(c.Name)
		}
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}

	slog.Info("カテゴリを作成しました",
		slog.String("category_id", c.ID),
		slog.String("slug", c.Slug),
	)
	return c, nil
}

// Update はカテゴリを部分更新する。名前を変更した場合はスラッグも再生成する。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Category, error) {
	if in.Name != nil {
		name := s.sanitizer.SanitizeText(*in.Name)
		in.Name = &name
	}
	if in.Description != nil {
		desc := s.sanitizer.SanitizeText(*in.Description)
		in.Description = &desc
	}
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
		c.Slug = Slugify(c.Name)
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	c.UpdatedAt = time.Now()

	found, err := s.repo.Update(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewCategoryAlreadyExistsError(c.Name)
		}
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewCategoryNotFoundError()
	}

	slog.Info("カテゴリを更新しました", slog.String("category_id", c.ID))
	return c, nil
}

// Delete はカテゴリを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewCategoryNotFoundError()
	}

	slog.Info("カテゴリを削除しました", slog.String("category_id", id))
	return nil
}
