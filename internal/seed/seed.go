// Package seed は開発・デモ用の初期データを投入する。
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dunamis/faithhub/internal/category"
	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Admin は投入する管理者アカウント。
type Admin struct {
	Email    string
	Password string
	Name     string
}

type categorySeed struct {
	name  string
	color string
}

var categories = []categorySeed{
	{"Sermons", "#ff0000"},
	{"Worship", "#00ff00"},
	{"Books", "#0000ff"},
	{"Movies", "#ffff00"},
}

type resourceSeed struct {
	title        string
	description  string
	imageURL     string
	externalLink string
	kind         model.ResourceKind
}

var resources = []resourceSeed{
	{
		title:        "Sample Sermon",
		description:  "A powerful message about faith",
		imageURL:     "https://example.com/sermon.jpg",
		externalLink: "https://example.com/sermon",
		kind:         model.ResourceKindSermon,
	},
	{
		title:        "Worship Experience",
		description:  "A collection of worship songs",
		imageURL:     "https://example.com/worship.jpg",
		externalLink: "https://example.com/worship",
		kind:         model.ResourceKindWorship,
	},
}

// Seeder は既存データを全削除したうえで初期データを投入する。
type Seeder struct {
	db     *sql.DB
	hasher PasswordHasher
}

// NewSeeder はSeederを生成する。
func NewSeeder(db *sql.DB, hasher PasswordHasher) *Seeder {
	return &Seeder{db: db, hasher: hasher}
}

// Run は1トランザクション内で全テーブルを空にし、管理者・カテゴリ・サンプルリソースを作成する。
// 途中で失敗した場合は何も変更しない。
func (s *Seeder) Run(ctx context.Context, admin Admin) (err error) {
	if admin.Name == "" {
		admin.Name = "Admin"
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("シードのロールバックに失敗しました", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `TRUNCATE TABLE resources, categories, users CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        admin.Email,
		PasswordHash: hash,
		Name:         admin.Name,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = repository.NewPostgresUserRepo(tx).Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	categoryRepo := repository.NewPostgresCategoryRepo(tx)
	for _, c := range categories {
		err = categoryRepo.Create(ctx, &model.Category{
			ID:        uuid.New().String(),
			Name:      c.name,
			Slug:      category.Slugify(c.name),
			Color:     c.color,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to create category %s: %w", c.name, err)
		}
	}

	resourceRepo := repository.NewPostgresResourceRepo(tx)
	for _, r := range resources {
		err = resourceRepo.Create(ctx, &model.Resource{
			ID:           uuid.New().String(),
			Title:        r.title,
			Description:  r.description,
			ImageURL:     r.imageURL,
			ExternalLink: r.externalLink,
			Kind:         r.kind,
			Featured:     true,
			AuthorID:     &user.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to create resource %s: %w", r.title, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	slog.Info("シードデータを投入しました",
		slog.String("admin_email", admin.Email),
		slog.Int("categories", len(categories)),
		slog.Int("resources", len(resources)),
	)
	return nil
}
