package model

import "time"

// ResourceKind はリソースの種別を表す。
type ResourceKind string

const (
	ResourceKindSermon  ResourceKind = "sermon"
	ResourceKindWorship ResourceKind = "worship"
	ResourceKindBook    ResourceKind = "book"
	ResourceKindMovie   ResourceKind = "movie"
)

// ResourceKinds は定義済みの全種別。
var ResourceKinds = []ResourceKind{
	ResourceKindSermon,
	ResourceKindWorship,
	ResourceKindBook,
	ResourceKindMovie,
}

// IsValid は定義済みの種別かどうかを返す。
func (k ResourceKind) IsValid() bool {
	for _, kind := range ResourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Resource は説教・賛美・書籍・映画などの紹介コンテンツを表す。
type Resource struct {
	ID           string
	Title        string
	Description  string
	ImageURL     string
	ExternalLink string
	Kind         ResourceKind
	Featured     bool
	AuthorID     *string // 作者削除後はnil
	ViewCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResourceWithAuthor はリソースと作者名を結合したモデル。
// usersテーブルとLEFT JOINして取得される。
type ResourceWithAuthor struct {
	Resource
	AuthorName *string
}

// ResourceSort は一覧のソートキーを表す。
type ResourceSort string

const (
	ResourceSortCreatedAt ResourceSort = "createdAt"
	ResourceSortUpdatedAt ResourceSort = "updatedAt"
	ResourceSortTitle     ResourceSort = "title"
	ResourceSortViewCount ResourceSort = "viewCount"
)

// IsValid は許可されたソートキーかどうかを返す。
func (s ResourceSort) IsValid() bool {
	switch s {
	case ResourceSortCreatedAt, ResourceSortUpdatedAt, ResourceSortTitle, ResourceSortViewCount:
		return true
	default:
		return false
	}
}

// ResourceQuery はリソース一覧の検索条件。
type ResourceQuery struct {
	Kind      ResourceKind // 空の場合は全種別
	Sort      ResourceSort
	Ascending bool
	Limit     int
	Offset    int
}

// ResourceUpdate はリソースの部分更新内容。nilのフィールドは変更しない。
type ResourceUpdate struct {
	Title        *string
	Description  *string
	ImageURL     *string
	ExternalLink *string
	Kind         *ResourceKind
	Featured     *bool
}
