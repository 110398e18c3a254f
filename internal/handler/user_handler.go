package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, in user.UpdateInput) (*model.User, error)
	Delete(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

// userMessageResponse は更新系操作のレスポンス。
type userMessageResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List は全ユーザーを返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Update はユーザーのロールを変更する。
// PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req user.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	u, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userMessageResponse{Message: "User updated", User: toUserResponse(u)})
}

// Delete はユーザーを削除する。
// DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}

// UpdateProfile は呼び出し元自身のプロフィールを更新する。
// PUT /api/users/profile/update
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, model.NewNoTokenError())
		return
	}

	var req user.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), identity.UserID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userMessageResponse{Message: "Profile updated", User: toUserResponse(u)})
}
