package handler

import (
	"context"
	"net/http"

	"github.com/dunamis/faithhub/internal/auth"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// tokenPairResponse はログイン・登録時のレスポンス。
type tokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register はアカウントを登録し、トークンの組を返す。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	pair, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenPairResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Login はメールアドレスとパスワードで認証し、トークンの組を返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout は呼び出し元のリフレッシュトークンを失効させる。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me は認証済みユーザーの情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, model.NewNoTokenError())
		return
	}

	u, err := h.service.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}
