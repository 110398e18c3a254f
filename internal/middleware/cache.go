package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// bufferedResponse はレスポンスをメモリに溜めてETag計算に使う。
type bufferedResponse struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.statusCode == 0 {
		b.statusCode = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.statusCode == 0 {
		b.statusCode = http.StatusOK
	}
	return b.body.Write(p)
}

// NewCacheMiddleware はGETレスポンスにCache-ControlとETagを付与するミドルウェアを返す。
// If-None-MatchがETagと一致する場合は本文なしの304を返す。
// 200以外のレスポンスとGET以外のメソッドはそのまま通す。
func NewCacheMiddleware(maxAge time.Duration) func(next http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedResponse{header: w.Header()}
			next.ServeHTTP(buf, r)

			if buf.statusCode == 0 {
				buf.statusCode = http.StatusOK
			}
			if buf.statusCode != http.StatusOK {
				w.WriteHeader(buf.statusCode)
				w.Write(buf.body.Bytes())
				return
			}

			sum := sha1.Sum(buf.body.Bytes())
			etag := `"` + hex.EncodeToString(sum[:]) + `"`
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", cacheControl)

			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				w.Header().Del("Content-Type")
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)
				return
			}

			w.WriteHeader(http.StatusOK)
			w.Write(buf.body.Bytes())
		})
	}
}

// etagMatches はIf-None-Matchヘッダーの値のいずれかがetagと一致するかを返す。
// 弱いETag表記(W/)も一致とみなす。
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		c := strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if c == "*" || c == etag {
			return true
		}
	}
	return false
}
