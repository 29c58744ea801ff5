// Package security は入力コンテンツの無害化を提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はユーザー入力の自由記述フィールドからHTMLを除去する。
// ユーザー名・タイトル・説明文はプレーンテキストとして扱い、
// タグはすべて除去する。
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() *ContentSanitizer {
	return &ContentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はテキストからHTMLタグを除去し、前後の空白を取り除く。
func (s *ContentSanitizer) SanitizeText(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}
