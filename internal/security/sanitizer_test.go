package security

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "Sunday Sermon", want: "Sunday Sermon"},
		{name: "タグを除去する", input: "<b>Grace</b> Alone", want: "Grace Alone"},
		{name: "scriptは中身ごと除去する", input: "Hi<script>alert(1)</script>", want: "Hi"},
		{name: "アンパサンドはエスケープしない", input: "Books & Films", want: "Books & Films"},
		{name: "前後の空白を除去する", input: "  Worship  ", want: "Worship"},
		{name: "空文字列", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeHTML_AllowedTags(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>段落</p>",
			wantContains: []string{"<p>段落</p>"},
		},
		{
			name:         "strongとemが許可される",
			input:        "<strong>太字</strong><em>強調</em>",
			wantContains: []string{"<strong>太字</strong>", "<em>強調</em>"},
		},
		{
			name:         "aタグにtarget=_blankとnoreferrerが付与される",
			input:        `<a href="https://example.com">link</a>`,
			wantContains: []string{`href="https://example.com"`, `target="_blank"`, "noreferrer"},
		},
		{
			name:         "https画像が許可される",
			input:        `<img src="https://example.com/a.png" alt="a">`,
			wantContains: []string{`src="https://example.com/a.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeHTML(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeHTML(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestSanitizeHTML_RemovesDangerousContent(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name            string
		input           string
		wantNotContains []string
	}{
		{name: "script", input: "<p>a</p><script>alert(1)</script>", wantNotContains: []string{"<script", "alert"}},
		{name: "iframe", input: `<iframe src="https://evil.example"></iframe>`, wantNotContains: []string{"<iframe"}},
		{name: "style", input: "<style>body{}</style><p>x</p>", wantNotContains: []string{"<style"}},
		{name: "onイベント属性", input: `<p onclick="alert(1)">x</p>`, wantNotContains: []string{"onclick"}},
		{name: "javascriptスキーム", input: `<a href="javascript:alert(1)">x</a>`, wantNotContains: []string{"javascript:"}},
		{name: "http画像", input: `<img src="http://example.com/a.png">`, wantNotContains: []string{"http://example.com/a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeHTML(tt.input)
			for _, bad := range tt.wantNotContains {
				if strings.Contains(got, bad) {
					t.Errorf("SanitizeHTML(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestSanitizeHTML_Idempotent(t *testing.T) {
	s := NewSanitizer()
	input := `<p>Hello <a href="https://example.com">world</a></p><script>x</script>`

	first := s.SanitizeHTML(input)
	second := s.SanitizeHTML(first)
	if first != second {
		t.Errorf("SanitizeHTML is not idempotent: %q != %q", first, second)
	}
}
