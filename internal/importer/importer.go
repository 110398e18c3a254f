// Package importer はRSS/Atomフィードからリソースを一括取り込みする。
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/repository"
	"github.com/dunamis/faithhub/internal/security"
)

// 取り込み結果の分類。メトリクスのラベルとして使う。
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeBlocked     = "blocked"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeParseFailed = "parse_failed"
	OutcomeError       = "error"
)

// URLValidator はSSRF検証のインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Sanitizer は保存前にテキストとHTMLを無害化するインターフェース。
type Sanitizer interface {
	SanitizeText(s string) string
	SanitizeHTML(s string) string
}

// Recorder は取り込み結果を記録するインターフェース。
type Recorder interface {
	RecordImport(outcome string, imported, skipped int)
}

type noopRecorder struct{}

func (noopRecorder) RecordImport(string, int, int) {}

// Config は取り込み処理の設定。
type Config struct {
	MaxBodySize    int64
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Input は取り込み要求。Categoryは作成するリソースの種別。
type Input struct {
	FeedURL  string `json:"feedUrl"`
	Category string `json:"category"`
	Featured bool   `json:"featured"`
}

// Validate は取り込み要求を検証する。
func (in Input) Validate() error {
	kinds := make([]interface{}, len(model.ResourceKinds))
	for i, k := range model.ResourceKinds {
		kinds[i] = string(k)
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.FeedURL, validation.Required, is.URL),
		validation.Field(&in.Category, validation.Required, validation.In(kinds...)),
	)
}

// Result は取り込み件数。
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer はフィードを取得・パースし、未登録のリンクをリソースとして保存する。
type Importer struct {
	repo      repository.ResourceRepository
	validator URLValidator
	client    *http.Client
	sanitizer Sanitizer
	recorder  Recorder
	cfg       Config
}

// NewImporter はImporterを生成する。clientにはSSRF防止付きクライアントを渡す。
func NewImporter(
	repo repository.ResourceRepository,
	validator URLValidator,
	client *http.Client,
	sanitizer Sanitizer,
	recorder Recorder,
	cfg Config,
) *Importer {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 5 << 20
	}
	return &Importer{
		repo:      repo,
		validator: validator,
		client:    client,
		sanitizer: sanitizer,
		recorder:  recorder,
		cfg:       cfg,
	}
}

// Import はフィードの記事をリソースとして取り込む。authorIDは実行した管理者のID。
// 画像を持たない記事と既に登録済みのリンクはスキップする。
func (im *Importer) Import(ctx context.Context, authorID string, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		im.recorder.RecordImport(OutcomeInvalid, 0, 0)
		return nil, model.FromValidation(err)
	}

	if err := im.validator.ValidateURL(in.FeedURL); err != nil {
		slog.Warn("取り込み元URLの検証に失敗しました",
			slog.String("feed_url", in.FeedURL),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, security.ErrBlockedURL) {
			im.recorder.RecordImport(OutcomeBlocked, 0, 0)
			return nil, model.NewSSRFBlockedError()
		}
		im.recorder.RecordImport(OutcomeInvalid, 0, 0)
		return nil, model.NewInvalidURLError(err.Error())
	}

	start := time.Now()
	body, err := im.fetch(ctx, in.FeedURL)
	if err != nil {
		slog.Error("フィードの取得に失敗しました",
			slog.String("feed_url", in.FeedURL),
			slog.String("error", err.Error()),
		)
		im.recorder.RecordImport(OutcomeFetchFailed, 0, 0)
		return nil, model.NewFetchFailedError(err.Error())
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		slog.Error("フィードのパースに失敗しました",
			slog.String("feed_url", in.FeedURL),
			slog.String("error", err.Error()),
		)
		im.recorder.RecordImport(OutcomeParseFailed, 0, 0)
		return nil, model.NewParseFailedError()
	}

	result, err := im.store(ctx, authorID, in, convertItems(feed))
	if err != nil {
		im.recorder.RecordImport(OutcomeError, result.Imported, result.Skipped)
		return nil, err
	}

	im.recorder.RecordImport(OutcomeSuccess, result.Imported, result.Skipped)
	slog.Info("フィードの取り込みが完了しました",
		slog.String("feed_url", in.FeedURL),
		slog.String("kind", in.Category),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return result, nil
}

// store は変換済みの記事を保存する。途中でDBエラーが起きた場合もそれまでの件数を返す。
func (im *Importer) store(ctx context.Context, authorID string, in Input, entries []entry) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		title := truncateRunes(im.sanitizer.SanitizeText(e.Title), maxTitleLength)
		if e.Link == "" || e.ImageURL == "" || title == "" || seen[e.Link] {
			result.Skipped++
			continue
		}
		seen[e.Link] = true

		exists, err := im.repo.ExistsByExternalLink(ctx, e.Link)
		if err != nil {
			return result, fmt.Errorf("既存リソースの確認に失敗しました: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		description := im.sanitizer.SanitizeHTML(e.Description)
		if description == "" {
			description = title
		}

		now := time.Now()
		res := &model.Resource{
			ID:           uuid.New().String(),
			Title:        title,
			Description:  description,
			ImageURL:     e.ImageURL,
			ExternalLink: e.Link,
			Kind:         model.ResourceKind(in.Category),
			Featured:     in.Featured,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if authorID != "" {
			res.AuthorID = &authorID
		}

		if err := im.repo.Create(ctx, res); err != nil {
			return result, fmt.Errorf("リソースの保存に失敗しました: %w", err)
		}
		result.Imported++
	}
	return result, nil
}
