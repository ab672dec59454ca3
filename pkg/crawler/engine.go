package crawler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/extract"
	"github.com/shouni/go-news-harvest/pkg/httpclient"
	"github.com/shouni/go-news-harvest/pkg/parser"
	"github.com/shouni/go-news-harvest/pkg/site"
	"github.com/shouni/go-news-harvest/pkg/types"
)

// Fetcher は1ページを取得します。*httpclient.Client が実装します。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*httpclient.Page, error)
}

// DocumentParser はHTMLバイト列をドキュメントに変換します。*parser.Parser が実装します。
type DocumentParser interface {
	Parse(htmlBytes []byte) (*parser.Document, error)
}

// Recorder はクロールの計測値を受け取ります。
type Recorder interface {
	ObservePage(site, outcome string, elapsed time.Duration)
	AddRecords(site string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObservePage(string, string, time.Duration) {}
func (nopRecorder) AddRecords(string, int) {}

// statsExtractor は読み飛ばした記事数も返せるアダプターです。
type statsExtractor interface {
	ExtractWithStats(doc *parser.Document) ([]extract.Entry, int)
}

// Engine は1つのサイトアダプターをページ番号順に巡回し、記事レコードを集めます。
// Engine 自体は状態を持たないため、Run を複数のゴルーチンから同時に呼び出せます。
type Engine struct {
	fetcher  Fetcher
	parser   DocumentParser
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Option は Engine の設定を行う関数型です。
type Option func(*Engine)

// WithParser は DocumentParser を差し替えます。
func WithParser(p DocumentParser) Option {
	return func(e *Engine) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder はメトリクスの記録先を設定します。
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithNow は時刻の取得関数を差し替えます。
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New は新しい Engine を生成します。
func New(fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		parser:   parser.New(),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run は baseURL から pageCount ページ分を順に取得し、抽出した記事に label を付けて返します。
//
// 設定に誤りがある場合はネットワークにアクセスせず ConfigError を返します。
// ページ単位の失敗 (取得失敗、パース失敗) はクロールを中断せず、Session.Failures に記録されます。
// ctx がキャンセルされた場合は、実行中のページの処理を終えてから、
// それまでに集めたレコードを Cancelled=true の Session として返します。
func (e *Engine) Run(ctx context.Context, adapter site.Adapter, baseURL, label string, pageCount int) (*Session, error) {
	baseURL = strings.TrimSpace(baseURL)
	label = strings.TrimSpace(label)
	if err := validate(adapter, baseURL, label, pageCount); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:             uuid.NewString(),
		Site:           adapter.Name(),
		BaseURL:        baseURL,
		Label:          label,
		PagesRequested: pageCount,
		Failures:       []PageFailure{},
		Records:        []types.ArticleRecord{},
		StartedAt:      e.now(),
	}

	logger := e.logger.With(zap.String("session_id", sess.ID), zap.String("site", sess.Site))
	logger.Info("クロールを開始します",
		zap.String("base_url", baseURL),
		zap.String("label", label),
		zap.Int("pages_requested", pageCount),
	)

	for _, req := range site.Pages(adapter, baseURL, pageCount) {
		if ctx.Err() != nil {
			sess.Cancelled = true
			logger.Info("キャンセルされたため、残りのページをスキップします", zap.Int("next_page", req.PageIndex))
			break
		}
		e.crawlPage(ctx, logger, adapter, sess, req)
	}

	sess.FinishedAt = e.now()
	logger.Info("クロールが完了しました",
		zap.Int("pages_requested", sess.PagesRequested),
		zap.Int("pages_fetched", sess.PagesFetched),
		zap.Int("pages_failed", sess.PagesFailed),
		zap.Int("records", len(sess.Records)),
		zap.Bool("cancelled", sess.Cancelled),
		zap.Duration("elapsed", sess.Elapsed()),
	)
	return sess, nil
}

// crawlPage は1ページを取得・解析し、結果を sess に反映します。
func (e *Engine) crawlPage(ctx context.Context, logger *zap.Logger, adapter site.Adapter, sess *Session, req types.PageRequest) {
	started := e.now()

	// 開始済みのフェッチはキャンセルせずに完了させる (上限はフェッチのタイムアウト)
	page, err := e.fetcher.Fetch(context.WithoutCancel(ctx), req.URL)
	if err != nil {
		failure := fetchFailure(req, err)
		e.recorder.ObservePage(sess.Site, failure.Outcome, e.now().Sub(started))
		e.reportFailure(logger, sess, failure)
		return
	}

	doc, err := e.parser.Parse(page.Body)
	if err != nil {
		failure := PageFailure{
			PageIndex:  req.PageIndex,
			URL:        req.URL,
			Outcome:    OutcomeParse,
			StatusCode: page.StatusCode,
			Reason:     err.Error(),
			Err:        err,
		}
		e.recorder.ObservePage(sess.Site, failure.Outcome, e.now().Sub(started))
		e.reportFailure(logger, sess, failure)
		return
	}

	var (
		entries []extract.Entry
		skipped int
	)
	if se, ok := adapter.(statsExtractor); ok {
		entries, skipped = se.ExtractWithStats(doc)
	} else {
		entries = adapter.Extract(doc)
	}

	sess.PagesFetched++
	for _, entry := range entries {
		sess.Records = append(sess.Records, types.ArticleRecord{
			Title:   entry.Title,
			Summary: entry.Summary,
			Label:   sess.Label,
		})
	}
	e.recorder.ObservePage(sess.Site, OutcomeSuccess, e.now().Sub(started))
	e.recorder.AddRecords(sess.Site, len(entries))

	logger.Debug("ページを処理しました",
		zap.String("url", req.URL),
		zap.Int("page", req.PageIndex),
		zap.Int("entries", len(entries)),
		zap.Int("skipped", skipped),
	)
}

func (e *Engine) reportFailure(logger *zap.Logger, sess *Session, f PageFailure) {
	sess.addFailure(f)
	logger.Warn("ページをスキップしました",
		zap.String("url", f.URL),
		zap.Int("page", f.PageIndex),
		zap.String("class", f.Outcome),
		zap.Int("status", f.StatusCode),
		zap.Error(f.Err),
	)
}

// fetchFailure はフェッチエラーを PageFailure に変換します。
func fetchFailure(req types.PageRequest, err error) PageFailure {
	f := PageFailure{
		PageIndex: req.PageIndex,
		URL:       req.URL,
		Outcome:   OutcomeRetryable,
		Reason:    err.Error(),
		Err:       err,
	}
	var fe *httpclient.FetchError
	if errors.As(err, &fe) {
		f.StatusCode = fe.StatusCode
		if fe.Class == httpclient.ClassFatal {
			f.Outcome = OutcomeFatal
		}
	}
	return f
}

func validate(adapter site.Adapter, baseURL, label string, pageCount int) error {
	if adapter == nil {
		return &ConfigError{Field: "site", Err: ErrNilAdapter}
	}
	if baseURL == "" {
		return &ConfigError{Field: "base_url", Err: ErrEmptyBaseURL}
	}
	if label == "" {
		return &ConfigError{Field: "label", Err: ErrEmptyLabel}
	}
	if pageCount < 0 {
		return &ConfigError{Field: "pages", Err: ErrNegativePageCount}
	}
	if err := adapter.Validate(baseURL); err != nil {
		return &ConfigError{Field: "base_url", Err: err}
	}
	return nil
}
