package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dunamis/faithhub/internal/category"
	"github.com/dunamis/faithhub/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, in category.CreateInput) (*model.Category, error)
	Update(ctx context.Context, id string, in category.UpdateInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

// CategoryHandler はカテゴリのHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List は名前順のカテゴリ一覧を返す。
// GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req category.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

// PUT /api/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req category.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// DELETE /api/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Category deleted"})
}
