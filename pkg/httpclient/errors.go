package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTooManyRedirects は、リダイレクトが上限回数を超えて解決しなかったことを示します。
var ErrTooManyRedirects = errors.New("リダイレクトが多すぎます")

// Class はフェッチ失敗の分類です。
type Class int

const (
	// ClassRetryable はタイムアウト、接続エラー、5xx、429 など一時的な失敗です。
	ClassRetryable Class = iota + 1
	// ClassFatal は 429 以外の 4xx、解決しないリダイレクト、不正なURLなど、再試行しても解決しない失敗です。
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FetchError は1ページの取得失敗を表すエラー型です。
type FetchError struct {
	URL        string
	Class      Class
	StatusCode int // HTTPレスポンスを受け取れなかった場合は 0
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("フェッチ失敗 (%s, ステータスコード %d, URL: %s): %v", e.Class, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("フェッチ失敗 (%s, URL: %s): %v", e.Class, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ClassOf は err に含まれる FetchError の分類を返します。FetchError でない場合は 0 です。
func ClassOf(err error) Class {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return 0
}

// IsRetryable は err が再試行可能な失敗かどうかを判定します。
// この関数は retry.ShouldRetryFunc 型のシグネチャを満たします。
func IsRetryable(err error) bool {
	return ClassOf(err) == ClassRetryable
}

// IsFatal は err が再試行しても解決しない失敗かどうかを判定します。
func IsFatal(err error) bool {
	return ClassOf(err) == ClassFatal
}

// classifyStatus は 2xx 以外のステータスコードを分類します。
func classifyStatus(code int) Class {
	switch {
	case code >= 500 && code <= 599:
		return ClassRetryable
	case code == http.StatusTooManyRequests:
		return ClassRetryable
	default:
		return ClassFatal
	}
}
