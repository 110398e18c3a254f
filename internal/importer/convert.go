package importer

import (
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

const maxTitleLength = 300

// entry はリソース化する前の記事。
type entry struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
}

// convertItems はgofeedの記事をentryに変換する。
// 画像は記事の画像、最初の画像エンクロージャ、本文中の最初の<img>、フィードの画像の順に探す。
func convertItems(feed *gofeed.Feed) []entry {
	var feedImage string
	if feed.Image != nil && isHTTPURL(feed.Image.URL) {
		feedImage = feed.Image.URL
	}

	entries := make([]entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		e := entry{
			Title:       item.Title,
			Link:        strings.TrimSpace(item.Link),
			Description: item.Description,
		}
		if e.Description == "" {
			e.Description = item.Content
		}
		// LinkがなくGUIDがURL形式の場合はGUIDをLinkとして使用
		if e.Link == "" && isHTTPURL(item.GUID) {
			e.Link = item.GUID
		}

		e.ImageURL = itemImage(item)
		if e.ImageURL == "" {
			e.ImageURL = feedImage
		}
		entries = append(entries, e)
	}
	return entries
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && isHTTPURL(item.Image.URL) {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc.URL
		}
	}
	if src := firstImageSrc(item.Content); src != "" {
		return src
	}
	return firstImageSrc(item.Description)
}

// firstImageSrc はHTML断片から最初の<img src>を取り出す。http(s)以外は無視する。
func firstImageSrc(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "src" && isHTTPURL(string(val)) {
					return string(val)
				}
				if !more {
					break
				}
			}
		}
	}
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
