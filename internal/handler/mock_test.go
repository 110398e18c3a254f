package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dunamis/faithhub/internal/auth"
	"github.com/dunamis/faithhub/internal/category"
	"github.com/dunamis/faithhub/internal/importer"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/resource"
	"github.com/dunamis/faithhub/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn    func(ctx context.Context, in auth.RegisterInput) (*model.TokenPair, error)
	loginFn       func(ctx context.Context, email, password string) (*model.TokenPair, error)
	refreshFn     func(ctx context.Context, refreshToken string) (string, error)
	logoutFn      func(ctx context.Context, accessToken string) error
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.TokenPair, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return "new-access", nil
}

func (m *mockAuthService) Logout(ctx context.Context, accessToken string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, accessToken)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return &model.User{ID: userID, Email: "user@example.com", Name: "User", Role: model.RoleUser}, nil
}

type mockUserService struct {
	listFn          func(ctx context.Context) ([]*model.User, error)
	getFn           func(ctx context.Context, id string) (*model.User, error)
	updateFn        func(ctx context.Context, id string, in user.UpdateInput) (*model.User, error)
	deleteFn        func(ctx context.Context, id string) error
	updateProfileFn func(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.User{ID: id, Role: model.RoleUser}, nil
}

func (m *mockUserService) Update(ctx context.Context, id string, in user.UpdateInput) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.User{ID: id, Role: model.RoleUser}, nil
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, in)
	}
	return &model.User{ID: userID, Role: model.RoleUser}, nil
}

type mockCategoryService struct {
	listFn   func(ctx context.Context) ([]*model.Category, error)
	getFn    func(ctx context.Context, id string) (*model.Category, error)
	createFn func(ctx context.Context, in category.CreateInput) (*model.Category, error)
	updateFn func(ctx context.Context, id string, in category.UpdateInput) (*model.Category, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCategoryService) List(ctx context.Context) ([]*model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Category{}, nil
}

func (m *mockCategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Category{ID: id, Name: "Sermons", Slug: "sermons", Color: "#ff0000"}, nil
}

func (m *mockCategoryService) Create(ctx context.Context, in category.CreateInput) (*model.Category, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Category{ID: "cat-1", Name: in.Name, Color: in.Color}, nil
}

func (m *mockCategoryService) Update(ctx context.Context, id string, in category.UpdateInput) (*model.Category, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Category{ID: id}, nil
}

func (m *mockCategoryService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockResourceService struct {
	listFn           func(ctx context.Context, params resource.ListParams) (model.Page[*model.ResourceWithAuthor], error)
	listByCategoryFn func(ctx context.Context, category string, page, limit int) (model.Page[*model.ResourceWithAuthor], error)
	featuredFn       func(ctx context.Context) ([]*model.ResourceWithAuthor, error)
	searchFn         func(ctx context.Context, q string) ([]*model.ResourceWithAuthor, error)
	viewFn           func(ctx context.Context, id string) (*model.ResourceWithAuthor, error)
	createFn         func(ctx context.Context, authorID string, in resource.CreateInput) (*model.ResourceWithAuthor, error)
	updateFn         func(ctx context.Context, id string, in resource.UpdateInput) (*model.ResourceWithAuthor, error)
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockResourceService) List(ctx context.Context, params resource.ListParams) (model.Page[*model.ResourceWithAuthor], error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return model.NewPage[*model.ResourceWithAuthor](nil, 0, 1, 10), nil
}

func (m *mockResourceService) ListByCategory(ctx context.Context, category string, page, limit int) (model.Page[*model.ResourceWithAuthor], error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, category, page, limit)
	}
	return model.NewPage[*model.ResourceWithAuthor](nil, 0, 1, 10), nil
}

func (m *mockResourceService) Featured(ctx context.Context) ([]*model.ResourceWithAuthor, error) {
	if m.featuredFn != nil {
		return m.featuredFn(ctx)
	}
	return nil, nil
}

func (m *mockResourceService) Search(ctx context.Context, q string) ([]*model.ResourceWithAuthor, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

func (m *mockResourceService) View(ctx context.Context, id string) (*model.ResourceWithAuthor, error) {
	if m.viewFn != nil {
		return m.viewFn(ctx, id)
	}
	return sampleResource(id), nil
}

func (m *mockResourceService) Create(ctx context.Context, authorID string, in resource.CreateInput) (*model.ResourceWithAuthor, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, in)
	}
	return sampleResource("res-1"), nil
}

func (m *mockResourceService) Update(ctx context.Context, id string, in resource.UpdateInput) (*model.ResourceWithAuthor, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return sampleResource(id), nil
}

func (m *mockResourceService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockImporter struct {
	importFn func(ctx context.Context, authorID string, in importer.Input) (*importer.Result, error)
}

func (m *mockImporter) Import(ctx context.Context, authorID string, in importer.Input) (*importer.Result, error) {
	if m.importFn != nil {
		return m.importFn(ctx, authorID, in)
	}
	return &importer.Result{}, nil
}

// --- ヘルパー ---

func sampleResource(id string) *model.ResourceWithAuthor {
	authorID := "admin-1"
	authorName := "Admin"
	return &model.ResourceWithAuthor{
		Resource: model.Resource{
			ID:           id,
			Title:        "Sample Sermon",
			Description:  "A powerful message about faith",
			ImageURL:     "https://example.com/sermon.jpg",
			ExternalLink: "https://example.com/sermon",
			Kind:         model.ResourceKindSermon,
			Featured:     true,
			AuthorID:     &authorID,
			ViewCount:    3,
		},
		AuthorName: &authorName,
	}
}

// withIdentity はリクエストコンテキストに認証済みIdentityを注入する。
func withIdentity(r *http.Request, userID string, role model.Role) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), &model.Identity{UserID: userID, Role: role}))
}

// withURLParam はchiのURLパラメータをリクエストに設定する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	return body.Code
}
