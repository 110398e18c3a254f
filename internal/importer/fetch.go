package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// statusClass はHTTPステータスコードの分類。
type statusClass int

const (
	statusOK statusClass = iota
	// statusRetry は再試行で回復しうるステータス（429/5xx）。
	statusRetry
	statusFail
)

const maxBackoff = 5 * time.Second

// errRetryable は再試行対象の失敗を表す。
var errRetryable = errors.New("retryable")

func classifyStatus(code int) statusClass {
	switch {
	case code == http.StatusOK:
		return statusOK
	case code == http.StatusTooManyRequests, code >= 500:
		return statusRetry
	default:
		return statusFail
	}
}

// backoff は試行回数に応じた指数バックオフ遅延を返す。初回はinitial、2倍ずつ増加、最大maxBackoff。
func backoff(initial time.Duration, attempt int) time.Duration {
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// fetch はフィード本文を取得する。429/5xxと通信エラーはMaxAttempts回まで再試行する。
func (im *Importer) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < im.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(im.cfg.InitialBackoff, attempt-1)
			slog.Warn("フィード取得を再試行します",
				slog.String("feed_url", feedURL),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := im.fetchOnce(ctx, feedURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) {
			break
		}
	}
	return nil, lastErr
}

func (im *Importer) fetchOnce(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("User-Agent", "FaithHub/1.0 Feed Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := im.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	switch classifyStatus(resp.StatusCode) {
	case statusOK:
	case statusRetry:
		return nil, fmt.Errorf("%w: HTTP status %d", errRetryable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	// 上限を1バイト超えて読めた場合はサイズ超過とみなす
	body, err := io.ReadAll(io.LimitReader(resp.Body, im.cfg.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > im.cfg.MaxBodySize {
		return nil, fmt.Errorf("response exceeds %d bytes", im.cfg.MaxBodySize)
	}
	return body, nil
}
