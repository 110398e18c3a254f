package model

// Page はページネーション結果を表す。
type Page[T any] struct {
	Docs       []T
	TotalDocs  int
	Limit      int
	Page       int
	TotalPages int
}

// NewPage は総件数とページ指定からPageを構築する。
func NewPage[T any](docs []T, totalDocs, page, limit int) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalDocs + limit - 1) / limit
	}
	if docs == nil {
		docs = []T{}
	}
	return Page[T]{
		Docs:       docs,
		TotalDocs:  totalDocs,
		Limit:      limit,
		Page:       page,
		TotalPages: totalPages,
	}
}

// HasPrevPage は前ページが存在するかを返す。
func (p Page[T]) HasPrevPage() bool { return p.Page > 1 }

// HasNextPage は次ページが存在するかを返す。
func (p Page[T]) HasNextPage() bool { return p.Page < p.TotalPages }

// PagingCounter はこのページ先頭要素の通し番号（1始まり）を返す。
func (p Page[T]) PagingCounter() int { return (p.Page-1)*p.Limit + 1 }

// PrevPage は前ページ番号を返す。存在しない場合はnil。
func (p Page[T]) PrevPage() *int {
	if !p.HasPrevPage() {
		return nil
	}
	n := p.Page - 1
	return &n
}

// NextPage は次ページ番号を返す。存在しない場合はnil。
func (p Page[T]) NextPage() *int {
	if !p.HasNextPage() {
		return nil
	}
	n := p.Page + 1
	return &n
}
