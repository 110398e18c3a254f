package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// writeJSON はvをJSONとしてステータスコード付きで書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをvにデコードする。解析できない場合はINVALID_REQUESTを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return model.NewInvalidRequestError()
	}
	return nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// messageResponse は処理結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// queryInt はクエリパラメータを整数として読む。未指定・不正な場合は0を返す。
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// --- レスポンス型 ---

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュとリフレッシュトークンは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Color:       c.Color,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type authorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resourceResponse はリソースのAPIレスポンス。categoryには種別を入れる。
type resourceResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl"`
	ExternalLink string          `json:"externalLink"`
	Category     string          `json:"category"`
	Featured     bool            `json:"featured"`
	Author       *authorResponse `json:"author"`
	ViewCount    int             `json:"viewCount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func toResourceResponse(r *model.ResourceWithAuthor) resourceResponse {
	resp := resourceResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		ImageURL:     r.ImageURL,
		ExternalLink: r.ExternalLink,
		Category:     string(r.Kind),
		Featured:     r.Featured,
		ViewCount:    r.ViewCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.AuthorID != nil {
		author := &authorResponse{ID: *r.AuthorID}
		if r.AuthorName != nil {
			author.Name = *r.AuthorName
		}
		resp.Author = author
	}
	return resp
}

func toResourceResponses(resources []*model.ResourceWithAuthor) []resourceResponse {
	out := make([]resourceResponse, len(resources))
	for i, r := range resources {
		out[i] = toResourceResponse(r)
	}
	return out
}

// pageResponse はページネーション結果のAPIレスポンス。
type pageResponse struct {
	Docs          []resourceResponse `json:"docs"`
	TotalDocs     int                `json:"totalDocs"`
	Limit         int                `json:"limit"`
	Page          int                `json:"page"`
	TotalPages    int                `json:"totalPages"`
	PagingCounter int                `json:"pagingCounter"`
	HasPrevPage   bool               `json:"hasPrevPage"`
	HasNextPage   bool               `json:"hasNextPage"`
	PrevPage      *int               `json:"prevPage"`
	NextPage      *int               `json:"nextPage"`
}

func toPageResponse(p model.Page[*model.ResourceWithAuthor]) pageResponse {
	return pageResponse{
		Docs:          toResourceResponses(p.Docs),
		TotalDocs:     p.TotalDocs,
		Limit:         p.Limit,
		Page:          p.Page,
		TotalPages:    p.TotalPages,
		PagingCounter: p.PagingCounter(),
		HasPrevPage:   p.HasPrevPage(),
		HasNextPage:   p.HasNextPage(),
		PrevPage:      p.PrevPage(),
		NextPage:      p.NextPage(),
	}
}
