package model

import "time"

// Category は管理者が管理するコンテンツカテゴリを表す。
type Category struct {
	ID          string
	Name        string
	Slug        string // Nameから自動生成される
	Color       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
