// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, content, import, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // 入力検証エラーのフィールド別メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserAlreadyExists     = "USER_ALREADY_EXISTS"
	ErrCodeEmailAlreadyInUse     = "EMAIL_ALREADY_IN_USE"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeNoToken               = "NO_TOKEN"
	ErrCodeInvalidToken          = "INVALID_TOKEN"
	ErrCodeRefreshTokenRequired  = "REFRESH_TOKEN_REQUIRED"
	ErrCodeInvalidRefreshToken   = "INVALID_REFRESH_TOKEN"
	ErrCodeAccessDenied          = "ACCESS_DENIED"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeCategoryNotFound      = "CATEGORY_NOT_FOUND"
	ErrCodeCategoryAlreadyExists = "CATEGORY_ALREADY_EXISTS"
	ErrCodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeSearchQueryRequired   = "SEARCH_QUERY_REQUIRED"
	ErrCodeInvalidURL            = "INVALID_URL"
	ErrCodeSSRFBlocked           = "SSRF_BLOCKED"
	ErrCodeFetchFailed           = "FETCH_FAILED"
	ErrCodeParseFailed           = "PARSE_FAILED"
)

// NewUserAlreadyExistsError は登録済みメールアドレスでの登録エラーを生成する。
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User already exists",
		Category: "auth",
		Action:   "Log in with this email address or register with a different one.",
	}
}

// NewEmailAlreadyInUseError はプロフィール更新時のメールアドレス重複エラーを生成する。
func NewEmailAlreadyInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyInUse,
		Message:  "Email already in use",
		Category: "validation",
		Action:   "Choose a different email address.",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別してはならない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check your email address and password.",
	}
}

// NewNoTokenError はAuthorizationヘッダ欠落エラーを生成する。
func NewNoTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeNoToken,
		Message:  "No token, authorization denied",
		Category: "auth",
		Action:   "Log in to continue.",
	}
}

// NewInvalidTokenError は不正・期限切れアクセストークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Token is not valid",
		Category: "auth",
		Action:   "Refresh your session or log in again.",
	}
}

// NewRefreshTokenRequiredError はリフレッシュトークン欠落エラーを生成する。
func NewRefreshTokenRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeRefreshTokenRequired,
		Message:  "Refresh token required",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewInvalidRefreshTokenError は不正・失効済みリフレッシュトークンのエラーを生成する。
func NewInvalidRefreshTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRefreshToken,
		Message:  "Invalid refresh token",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewAccessDeniedError はロール不足エラーを生成する。
func NewAccessDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodeAccessDenied,
		Message:  "Access denied",
		Category: "auth",
		Action:   "This operation requires additional privileges.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Check the user ID or log in again.",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  "Category not found",
		Category: "content",
		Action:   "Check the category ID.",
	}
}

// NewCategoryAlreadyExistsError はカテゴリ名・スラッグ重複エラーを生成する。
func NewCategoryAlreadyExistsError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryAlreadyExists,
		Message:  fmt.Sprintf("Category already exists: %s", name),
		Category: "content",
		Action:   "Choose a different category name.",
	}
}

// NewResourceNotFoundError はリソース未検出エラーを生成する。
func NewResourceNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeResourceNotFound,
		Message:  "Resource not found",
		Category: "content",
		Action:   "Check the resource ID.",
	}
}

// NewValidationError は入力検証エラーを生成する。fieldsはフィールド名からメッセージへの対応。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "Validation failed",
		Category: "validation",
		Action:   "Correct the highlighted fields and try again.",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Invalid request body",
		Category: "validation",
		Action:   "Send a valid JSON body.",
	}
}

// NewSearchQueryRequiredError は検索語未指定エラーを生成する。
func NewSearchQueryRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSearchQueryRequired,
		Message:  "Search query required",
		Category: "validation",
		Action:   "Enter a search term.",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("Invalid URL: %s", reason),
		Category: "validation",
		Action:   "Enter a URL starting with http:// or https://.",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "Access to the given URL is blocked by security policy",
		Category: "validation",
		Action:   "Use a publicly reachable URL. Local and private network addresses are not allowed.",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("Failed to fetch the URL: %s", reason),
		Category: "import",
		Action:   "Check the URL and try again later.",
	}
}

// NewParseFailedError はパース失敗エラーを生成する。
func NewParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  "Failed to parse the feed",
		Category: "import",
		Action:   "Make sure the URL points to a valid RSS or Atom feed.",
	}
}
