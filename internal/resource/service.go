// Package resource はリソース（説教・賛美・書籍・映画）のドメインロジックを提供する。
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
)

const (
	DefaultLimit  = 10
	MaxLimit      = 100
	MaxPage       = 100000
	FeaturedLimit = 10
	SearchLimit   = 100
)

// Sanitizer は保存前にテキストとHTMLを無害化するインターフェース。
type Sanitizer interface {
	SanitizeText(s string) string
	SanitizeHTML(s string) string
}

// kindRule は定義済み種別のみを許可する検証ルール。
var kindRule = func() validation.Rule {
	values := make([]interface{}, len(model.ResourceKinds))
	for i, k := range model.ResourceKinds {
		values[i] = string(k)
	}
	return validation.In(values...)
}()

// CreateInput はリソース作成の入力。Categoryは種別を表す。
type CreateInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
	ExternalLink string `json:"externalLink"`
	Category     string `json:"category"`
	Featured     bool   `json:"featured"`
}

// Validate は作成入力を検証する。
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 300)),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.ImageURL, validation.Required, is.URL),
		validation.Field(&in.ExternalLink, validation.Required, is.URL),
		validation.Field(&in.Category, validation.Required, kindRule),
	)
}

// UpdateInput はリソースの部分更新入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"imageUrl"`
	ExternalLink *string `json:"externalLink"`
	Category     *string `json:"category"`
	Featured     *bool   `json:"featured"`
}

// Validate は更新入力を検証する。
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 300)),
		validation.Field(&in.Description, validation.NilOrNotEmpty),
		validation.Field(&in.ImageURL, validation.NilOrNotEmpty, is.URL),
		validation.Field(&in.ExternalLink, validation.NilOrNotEmpty, is.URL),
		validation.Field(&in.Category, validation.NilOrNotEmpty, kindRule),
	)
}

// ListParams は一覧取得のクエリパラメータ。範囲外の値はNormalizeで補正される。
type ListParams struct {
	Page     int
	Limit    int
	Category string
	Sort     string
	Order    string
}

// Normalize はページ・件数・ソート指定を既定値と上限に収める。
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	// OFFSETがオーバーフローしないよう上限を設ける
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if !model.ResourceSort(p.Sort).IsValid() {
		p.Sort = string(model.ResourceSortCreatedAt)
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

// Service はリソース管理のサービス層。
type Service struct {
	repo      repository.ResourceRepository
	sanitizer Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.ResourceRepository, sanitizer Sanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は条件に一致するリソースをページ単位で返す。
func (s *Service) List(ctx context.Context, params ListParams) (model.Page[*model.ResourceWithAuthor], error) {
	p := params.Normalize()

	docs, total, err := s.repo.List(ctx, model.ResourceQuery{
		Kind:      model.ResourceKind(p.Category),
		Sort:      model.ResourceSort(p.Sort),
		Ascending: p.Order == "asc",
		Limit:     p.Limit,
		Offset:    (p.Page - 1) * p.Limit,
	})
	if err != nil {
		return model.Page[*model.ResourceWithAuthor]{}, fmt.Errorf("リソース一覧の取得に失敗しました: %w", err)
	}
	return model.NewPage(docs, total, p.Page, p.Limit), nil
}

// ListByCategory は指定種別のリソースを新しい順にページ単位で返す。
func (s *Service) ListByCategory(ctx context.Context, category string, page, limit int) (model.Page[*model.ResourceWithAuthor], error) {
	return s.List(ctx, ListParams{Page: page, Limit: limit, Category: category})
}

// Featured はおすすめリソースを最大FeaturedLimit件返す。
func (s *Service) Featured(ctx context.Context) ([]*model.ResourceWithAuthor, error) {
	resources, err := s.repo.ListFeatured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("おすすめリソースの取得に失敗しました: %w", err)
	}
	return resources, nil
}

// Search は全文検索で一致したリソースを関連度順に返す。空の検索語はエラー。
func (s *Service) Search(ctx context.Context, q string) ([]*model.ResourceWithAuthor, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, model.NewSearchQueryRequiredError()
	}
	resources, err := s.repo.Search(ctx, q, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("リソースの検索に失敗しました: %w", err)
	}
	return resources, nil
}

// View は閲覧数を1増やしたうえでリソースを返す。
func (s *Service) View(ctx context.Context, id string) (*model.ResourceWithAuthor, error) {
	res, err := s.repo.IncrementViewCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("リソースの取得に失敗しました: %w", err)
	}
	if res == nil {
		return nil, model.NewResourceNotFoundError()
	}
	return res, nil
}

// Create はリソースを作成する。authorIDは作成した管理者のID。
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*model.ResourceWithAuthor, error) {
	in.Title = s.sanitizer.SanitizeText(in.Title)
	in.Description = s.sanitizer.SanitizeHTML(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.ExternalLink = strings.TrimSpace(in.ExternalLink)
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	now := time.Now()
	res := &model.Resource{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		ExternalLink: in.ExternalLink,
		Kind:         model.ResourceKind(in.Category),
		Featured:     in.Featured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if authorID != "" {
		res.AuthorID = &authorID
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("リソースの作成に失敗しました: %w", err)
	}

	slog.Info("リソースを作成しました",
		slog.String("resource_id", res.ID),
		slog.String("kind", string(res.Kind)),
	)

	created, err := s.repo.FindByID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("作成したリソースの取得に失敗しました: %w", err)
	}
	if created == nil {
		return &model.ResourceWithAuthor{Resource: *res}, nil
	}
	return created, nil
}

// Update はリソースを部分更新する。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.ResourceWithAuthor, error) {
	if in.Title != nil {
		v := s.sanitizer.SanitizeText(*in.Title)
		in.Title = &v
	}
	if in.Description != nil {
		v := s.sanitizer.SanitizeHTML(*in.Description)
		in.Description = &v
	}
	if err := in.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	update := model.ResourceUpdate{
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		ExternalLink: in.ExternalLink,
		Featured:     in.Featured,
	}
	if in.Category != nil {
		kind := model.ResourceKind(*in.Category)
		update.Kind = &kind
	}

	res, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("リソースの更新に失敗しました: %w", err)
	}
	if res == nil {
		return nil, model.NewResourceNotFoundError()
	}

	slog.Info("リソースを更新しました", slog.String("resource_id", id))
	return res, nil
}

// Delete はリソースを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("リソースの削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewResourceNotFoundError()
	}

	slog.Info("リソースを削除しました", slog.String("resource_id", id))
	return nil
}
