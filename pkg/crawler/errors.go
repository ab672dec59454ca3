package crawler

import (
	"errors"
	"fmt"
)

var (
	ErrNilAdapter        = errors.New("サイトアダプターが指定されていません")
	ErrEmptyBaseURL      = errors.New("ベースURLが空です")
	ErrEmptyLabel        = errors.New("ラベルが空です")
	ErrNegativePageCount = errors.New("ページ数は0以上である必要があります")
)

// ConfigError はクロール開始前に検出された設定の誤りです。
// このエラーが返された場合、ネットワークへのアクセスは一切行われていません。
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("クロール設定が不正です (%s): %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError は err が ConfigError を含むかどうかを判定します。
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
