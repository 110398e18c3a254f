package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dunamis/faithhub/internal/importer"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/resource"
)

// ResourceServiceInterface はリソースハンドラーが必要とするサービスインターフェース。
type ResourceServiceInterface interface {
	List(ctx context.Context, params resource.ListParams) (model.Page[*model.ResourceWithAuthor], error)
	ListByCategory(ctx context.Context, category string, page, limit int) (model.Page[*model.ResourceWithAuthor], error)
	Featured(ctx context.Context) ([]*model.ResourceWithAuthor, error)
	Search(ctx context.Context, q string) ([]*model.ResourceWithAuthor, error)
	View(ctx context.Context, id string) (*model.ResourceWithAuthor, error)
	Create(ctx context.Context, authorID string, in resource.CreateInput) (*model.ResourceWithAuthor, error)
	Update(ctx context.Context, id string, in resource.UpdateInput) (*model.ResourceWithAuthor, error)
	Delete(ctx context.Context, id string) error
}

// FeedImporter はフィードからリソースを一括登録する。
type FeedImporter interface {
	Import(ctx context.Context, authorID string, in importer.Input) (*importer.Result, error)
}

// ResourceHandler はリソースのHTTPハンドラー。
type ResourceHandler struct {
	service  ResourceServiceInterface
	importer FeedImporter
}

// NewResourceHandler はResourceHandlerを生成する。
func NewResourceHandler(service ResourceServiceInterface, importer FeedImporter) *ResourceHandler {
	return &ResourceHandler{service: service, importer: importer}
}

// List はページネーション付きのリソース一覧を返す。
// GET /api/resources?page=1&limit=10&category=&sort=createdAt&order=desc
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := resource.ListParams{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	}

	page, err := h.service.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

// GET /api/resources/featured
func (h *ResourceHandler) Featured(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.Featured(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponses(resources))
}

// GET /api/resources/category/{category}
func (h *ResourceHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "category"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

// Search はキーワードに一致するリソースを関連度順で返す。
// GET /api/resources/search?q=
func (h *ResourceHandler) Search(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponses(resources))
}

// Get は閲覧数を加算したうえでリソースを返す。
// GET /api/resources/{id}
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(res))
}

// POST /api/resources
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, model.NewNoTokenError())
		return
	}

	var req resource.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.Create(r.Context(), identity.UserID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceResponse(res))
}

// PUT /api/resources/{id}
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req resource.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(res))
}

// DELETE /api/resources/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Resource deleted"})
}

// Import はRSS/Atomフィードを取得し、未登録の記事をリソースとして登録する。
// POST /api/resources/import
func (h *ResourceHandler) Import(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, model.NewNoTokenError())
		return
	}

	var req importer.Input
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.importer.Import(r.Context(), identity.UserID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
