package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dunamis/faithhub/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 互換のためmessageにはエラーメッセージをそのまま入れる。
type ErrorResponseBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Action   string            `json:"action"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// statusByCode はエラーコードとHTTPステータスの対応。
var statusByCode = map[string]int{
	model.ErrCodeUserAlreadyExists:     http.StatusConflict,
	model.ErrCodeEmailAlreadyInUse:     http.StatusConflict,
	model.ErrCodeCategoryAlreadyExists: http.StatusConflict,
	model.ErrCodeInvalidCredentials:    http.StatusUnauthorized,
	model.ErrCodeNoToken:               http.StatusUnauthorized,
	model.ErrCodeInvalidToken:          http.StatusUnauthorized,
	model.ErrCodeRefreshTokenRequired:  http.StatusUnauthorized,
	model.ErrCodeInvalidRefreshToken:   http.StatusUnauthorized,
	model.ErrCodeAccessDenied:          http.StatusForbidden,
	model.ErrCodeUserNotFound:          http.StatusNotFound,
	model.ErrCodeCategoryNotFound:      http.StatusNotFound,
	model.ErrCodeResourceNotFound:      http.StatusNotFound,
	model.ErrCodeValidationFailed:      http.StatusBadRequest,
	model.ErrCodeInvalidRequest:        http.StatusBadRequest,
	model.ErrCodeSearchQueryRequired:   http.StatusBadRequest,
	model.ErrCodeInvalidURL:            http.StatusBadRequest,
	model.ErrCodeSSRFBlocked:           http.StatusBadRequest,
	model.ErrCodeParseFailed:           http.StatusUnprocessableEntity,
	model.ErrCodeFetchFailed:           http.StatusBadGateway,
}

// StatusForCode はエラーコードに対応するHTTPステータスを返す。未知のコードは500。
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Fields:   apiErr.Fields,
	})
}

// WriteError はエラーをHTTPレスポンスに変換する。
// *model.APIErrorはコードに応じたステータスで返し、それ以外はログに記録して500を返す。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, StatusForCode(apiErr.Code), apiErr)
		return
	}

	slog.Error("unhandled error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	WriteInternalServerError(w)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Server error",
		Category: "system",
		Action:   "Please try again later.",
	})
}
