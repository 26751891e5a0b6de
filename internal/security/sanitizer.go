// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザーが入力する自由記述テキスト
// （仕入先メモ・商品説明・住所など）をサニタイズし、
// 保存データ経由のXSSからフロントエンドを保護する。
// bluemondayのStrictPolicyを使用し、HTMLタグを一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由記述テキストのサニタイズ機能のインターフェースを定義する。
// 仕入先・商品・価格記録の保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグとイベント属性を除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(input string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// 価格管理アプリの自由記述欄はプレーンテキストのみを想定するため、
// タグを一切許可しないStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
func (s *textSanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(input))
}

// インターフェース実装の検証
var _ TextSanitizerService = (*textSanitizer)(nil)
