package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/shouni/go-news-harvest/pkg/ratelimit"
	"github.com/shouni/go-news-harvest/pkg/retry"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 30 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ
	MaxRedirects       = 10

	// 一般的なブラウザとして扱われるための固定 User-Agent
	DefaultUserAgent = "Mozilla/5.0"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Page は、1回のフェッチに成功した結果です。
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte // UTF-8 に変換済みのHTML
	FetchedAt   time.Time
	Attempts    int
}

// Client はページ取得、結果の分類、ホスト単位のレート制限を管理します。
type Client struct {
	httpClient  Doer
	timeout     time.Duration
	userAgent   string
	retryConfig retry.Config
	limiter     *ratelimit.Limiter
	now         func() time.Time
}

// Option は Client の設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient はカスタムの Doer を設定します。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithMaxRetries は Retryable に分類された失敗に対する最大リトライ回数を設定します。
// デフォルトは 0 (リトライなしのベストエフォート) です。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithRetryConfig はバックオフ設定全体を置き換えます。
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryConfig = cfg
	}
}

// WithUserAgent は送信する User-Agent を変更します。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLimiter はレートリミッターを差し替えます。
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// New は、新しい Client を生成します。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = 0

	c := &Client{
		httpClient: &http.Client{
			Timeout:       timeout,
			CheckRedirect: checkRedirect,
		},
		timeout:     timeout,
		userAgent:   DefaultUserAgent,
		retryConfig: retryCfg,
		limiter:     ratelimit.New(ratelimit.DefaultMinInterval),
		now:         time.Now,
	}

	for _, opt := range options {
		opt(c)
	}
	return c
}

// UserAgent は送信に使用する User-Agent を返します。
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Fetch は rawURL に GET リクエストを送り、成功時は Page を返します。
// 失敗時のエラーは常に *FetchError を含み、Retryable / Fatal の分類を持ちます。
// 各試行の後には、結果にかかわらずホスト単位の最小待機が入ります。
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	var (
		page     *Page
		attempts int
	)

	op := func() error {
		attempts++
		p, fetchErr := c.fetchOnce(ctx, target)

		// ポライトネスのための待機は失敗時も省略しない
		_ = c.limiter.Pause(ctx, target.Host)

		if fetchErr != nil {
			return fetchErr
		}
		page = p
		return nil
	}

	err = retry.Do(
		ctx,
		c.retryConfig,
		fmt.Sprintf("URL(%s)のフェッチ", rawURL),
		op,
		IsRetryable,
	)
	if err != nil {
		return nil, err
	}

	page.Attempts = attempts
	return page, nil
}

// fetchOnce は実際の一度のHTTP GETリクエストを実行します。
func (c *Client) fetchOnce(ctx context.Context, target *url.URL) (*Page, error) {
	rawURL := target.String()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Class: ClassFatal, Err: fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return nil, &FetchError{URL: rawURL, Class: ClassFatal, Err: fmt.Errorf("リダイレクトを解決できませんでした: %w", err)}
		}
		return nil, &FetchError{URL: rawURL, Class: ClassRetryable, Err: fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// ボディは接続再利用のために読み捨てる
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return nil, &FetchError{
			URL:        rawURL,
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTPステータスコードエラー: %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := readBody(resp.Body, contentType)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Class: ClassRetryable, StatusCode: resp.StatusCode, Err: err}
	}

	return &Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		FetchedAt:   c.now(),
	}, nil
}

// checkRedirect は MaxRedirects 回を超えるリダイレクトを ErrTooManyRedirects で打ち切ります。
func checkRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) >= MaxRedirects {
		return fmt.Errorf("%w (%d回)", ErrTooManyRedirects, len(via))
	}
	return nil
}

// readBody はボディを最大サイズまで読み込み、UTF-8 に変換します。
func readBody(body io.Reader, contentType string) ([]byte, error) {
	limited := io.LimitReader(body, MaxBodySize)

	reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		// 文字コードを判定できない場合はそのまま読む
		reader = limited
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	return data, nil
}

// validateURL は http/https の絶対URLであることを確認します。
func validateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Class: ClassFatal, Err: fmt.Errorf("URLのパースエラー: %w", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{URL: rawURL, Class: ClassFatal, Err: errors.New("無効なURLスキームです。httpまたはhttpsを指定してください")}
	}
	if u.Host == "" {
		return nil, &FetchError{URL: rawURL, Class: ClassFatal, Err: errors.New("URLにホストが含まれていません")}
	}
	return u, nil
}
