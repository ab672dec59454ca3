package crawler

import (
	"time"

	"github.com/shouni/go-news-harvest/pkg/types"
)

// ページごとの処理結果。メトリクスのラベルとしても使われます。
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
	OutcomeParse     = "parse_error"
)

// PageFailure はスキップされた1ページの記録です。
type PageFailure struct {
	PageIndex  int    `json:"page"`
	URL        string `json:"url"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status,omitempty"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

// Session は1回の Run の経過と結果です。
// Records は取得に成功したページの順、ページ内では出現順に並びます。
type Session struct {
	ID             string                `json:"id"`
	Site           string                `json:"site"`
	BaseURL        string                `json:"base_url"`
	Label          string                `json:"label"`
	PagesRequested int                   `json:"pages_requested"`
	PagesFetched   int                   `json:"pages_fetched"`
	PagesFailed    int                   `json:"pages_failed"`
	Failures       []PageFailure         `json:"failures"`
	Records        []types.ArticleRecord `json:"records"`
	Cancelled      bool                  `json:"cancelled"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
}

func (s *Session) addFailure(f PageFailure) {
	s.PagesFailed++
	s.Failures = append(s.Failures, f)
}

// Elapsed はクロールにかかった時間を返します。
func (s *Session) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
