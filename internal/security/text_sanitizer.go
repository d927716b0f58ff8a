// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力したテキスト（レビューコメント、講師紹介文、表示名）を
// 保存前にサニタイズし、保存済みデータ経由のXSSを防ぐ。
// bluemondayライブラリを使用した許可リストベースのポリシーで処理する。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// PlainText は全てのHTMLタグを除去したプレーンテキストを返す。
	// 前後の空白を除去し、maxRunes を超える部分は切り詰める（0以下なら無制限）。
	PlainText(s string, maxRunes int) string

	// RichText は簡単な書式タグ（p, br, strong, em, ul, ol, li）のみを残したHTMLを返す。
	// script, style, on*イベント属性、リンクは除去される。
	RichText(s string, maxRunes int) string
}

// textSanitizer はTextSanitizerの実装。ポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "strong", "em", "ul", "ol", "li")

	return &textSanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// PlainText はHTMLを除去したプレーンテキストを返す。
// bluemondayがエスケープした文字実体はJSONで返すため元に戻す。
func (s *textSanitizer) PlainText(in string, maxRunes int) string {
	out := html.UnescapeString(s.strict.Sanitize(in))
	return truncate(strings.TrimSpace(out), maxRunes)
}

// RichText は許可した書式タグのみを残す。
func (s *textSanitizer) RichText(in string, maxRunes int) string {
	out := s.rich.Sanitize(truncate(in, maxRunes))
	return strings.TrimSpace(out)
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
