// Package security はアプリケーションのセキュリティ機能を提供する。
//
// Sanitizer は管理者入力やインポートしたフィード由来のテキストを
// 保存前に無害化する。bluemondayの許可リストポリシーを2種類保持する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はテキストとHTMLのサニタイズを行う。スレッドセーフ。
type Sanitizer struct {
	text *bluemonday.Policy
	rich *bluemonday.Policy
}

// NewSanitizer はSanitizerを生成する。
// ポリシーの内容:
//   - text: 全タグを除去しプレーンテキストにする（タイトル・名前用）
//   - rich: p, br, a, ul, ol, li, blockquote, strong, em, img のみ許可（説明文用）
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	rich.AllowAttrs("href").OnElements("a")
	rich.AllowRelativeURLs(false)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	rich.AllowAttrs("src", "alt").OnElements("img")
	rich.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &Sanitizer{
		text: bluemonday.StrictPolicy(),
		rich: rich,
	}
}

// SanitizeText は全てのタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
// bluemondayがエスケープした文字実体参照は元の文字に戻す。
func (s *Sanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(raw)))
}

// SanitizeHTML は許可タグ以外を除去した安全なHTMLを返す。
// script, iframe, styleタグおよびon*イベント属性は除去される。
func (s *Sanitizer) SanitizeHTML(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}
