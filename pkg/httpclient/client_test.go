package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-news-harvest/pkg/ratelimit"
	"github.com/shouni/go-news-harvest/pkg/retry"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	err := args.Error(1)
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), err
	}
	return nil, err
}

// recordingClock は待機要求を記録するだけの Clock です。
type recordingClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *recordingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *recordingClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *recordingClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newTestClient(doer Doer, clock *recordingClock, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(doer),
		WithLimiter(ratelimit.New(time.Second, ratelimit.WithClock(clock))),
	}
	return New(5*time.Second, append(base, opts...)...)
}

func TestNew(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		client := New(0)
		assert.Equal(t, DefaultHTTPTimeout, client.httpClient.(*http.Client).Timeout)
		assert.Equal(t, DefaultUserAgent, client.UserAgent())
		assert.Equal(t, uint64(0), client.retryConfig.MaxRetries)
		assert.Equal(t, ratelimit.DefaultMinInterval, client.limiter.Interval())
	})
	t.Run("custom timeout", func(t *testing.T) {
		client := New(10 * time.Second)
		assert.Equal(t, 10*time.Second, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("with options", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		client := New(time.Second, WithHTTPClient(mockClient), WithMaxRetries(2), WithUserAgent("test-agent"))
		assert.Equal(t, mockClient, client.httpClient)
		assert.Equal(t, uint64(2), client.retryConfig.MaxRetries)
		assert.Equal(t, "test-agent", client.UserAgent())
	})
}

func TestFetch_Success(t *testing.T) {
	mockClient := new(MockHTTPClient)
	clock := &recordingClock{}

	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet &&
			req.URL.String() == "https://vnexpress.net/the-thao-p1" &&
			req.Header.Get("User-Agent") == DefaultUserAgent
	})).Return(newResponse(http.StatusOK, "<html><body>ok</body></html>"), nil).Once()

	client := newTestClient(mockClient, clock)
	page, err := client.Fetch(context.Background(), "https://vnexpress.net/the-thao-p1")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "<html><body>ok</body></html>", string(page.Body))
	assert.Equal(t, 1, page.Attempts)
	assert.Equal(t, []time.Duration{time.Second}, clock.sleeps, "成功時も待機が入る")
	mockClient.AssertExpectations(t)
}

func TestFetch_Classification(t *testing.T) {
	tests := []struct {
		name       string
		resp       *http.Response
		doErr      error
		wantClass  Class
		wantStatus int
	}{
		{"server error is retryable", newResponse(http.StatusInternalServerError, "boom"), nil, ClassRetryable, 500},
		{"bad gateway is retryable", newResponse(http.StatusBadGateway, ""), nil, ClassRetryable, 502},
		{"too many requests is retryable", newResponse(http.StatusTooManyRequests, ""), nil, ClassRetryable, 429},
		{"not found is fatal", newResponse(http.StatusNotFound, "missing"), nil, ClassFatal, 404},
		{"forbidden is fatal", newResponse(http.StatusForbidden, ""), nil, ClassFatal, 403},
		{"request timeout status is fatal", newResponse(http.StatusRequestTimeout, ""), nil, ClassFatal, 408},
		{"redirect loop is fatal", nil, fmt.Errorf("Get \"https://example.com/cat\": %w", ErrTooManyRedirects), ClassFatal, 0},
		{"network error is retryable", nil, errors.New("connection reset by peer"), ClassRetryable, 0},
		{"timeout is retryable", nil, context.DeadlineExceeded, ClassRetryable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockHTTPClient)
			clock := &recordingClock{}
			if tt.resp != nil {
				mockClient.On("Do", mock.Anything).Return(tt.resp, nil).Once()
			} else {
				mockClient.On("Do", mock.Anything).Return(nil, tt.doErr).Once()
			}

			client := newTestClient(mockClient, clock)
			page, err := client.Fetch(context.Background(), "https://example.com/cat")

			require.Error(t, err)
			assert.Nil(t, page)
			assert.Equal(t, tt.wantClass, ClassOf(err))

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.Equal(t, 1, clock.count(), "失敗時も待機が入る")
			mockClient.AssertExpectations(t)
		})
	}
}

func TestFetch_RedirectLoopIsFatal(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer server.Close()

	client := New(5*time.Second, WithLimiter(ratelimit.New(0)), WithRetryConfig(retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}))
	_, err := client.Fetch(context.Background(), server.URL+"/loop")

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrTooManyRedirects)
	assert.Equal(t, int32(MaxRedirects), hits.Load(), "解決しないリダイレクトは再試行されない")
}

func TestFetch_MalformedURLIsFatalWithoutNetwork(t *testing.T) {
	for _, raw := range []string{"://bad", "ftp://example.com/x", "/relative/path"} {
		t.Run(raw, func(t *testing.T) {
			mockClient := new(MockHTTPClient)
			clock := &recordingClock{}

			client := newTestClient(mockClient, clock)
			_, err := client.Fetch(context.Background(), raw)

			require.Error(t, err)
			assert.True(t, IsFatal(err))
			assert.Equal(t, 0, clock.count())
			mockClient.AssertNotCalled(t, "Do", mock.Anything)
		})
	}
}

func TestFetch_RetriesRetryableWhenConfigured(t *testing.T) {
	mockClient := new(MockHTTPClient)
	clock := &recordingClock{}

	mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusServiceUnavailable, ""), nil).Once()
	mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusOK, "<p>ok</p>"), nil).Once()

	client := newTestClient(mockClient, clock, WithRetryConfig(retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}))

	page, err := client.Fetch(context.Background(), "https://example.com/cat")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Attempts)
	assert.Equal(t, 2, clock.count())
	mockClient.AssertExpectations(t)
}

func TestFetch_DoesNotRetryFatal(t *testing.T) {
	mockClient := new(MockHTTPClient)
	clock := &recordingClock{}

	mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusNotFound, ""), nil).Once()

	client := newTestClient(mockClient, clock, WithRetryConfig(retry.Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}))

	_, err := client.Fetch(context.Background(), "https://example.com/cat")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	mockClient.AssertNumberOfCalls(t, "Do", 1)
}

func TestFetch_DecodesDeclaredCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	client := New(5*time.Second, WithLimiter(ratelimit.New(0)))
	page, err := client.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", string(page.Body))
}

func TestFetchError_Error(t *testing.T) {
	withStatus := &FetchError{URL: "https://a.example", Class: ClassRetryable, StatusCode: 500, Err: errors.New("x")}
	assert.Equal(t, "フェッチ失敗 (retryable, ステータスコード 500, URL: https://a.example): x", withStatus.Error())

	withoutStatus := &FetchError{URL: "https://a.example", Class: ClassFatal, Err: errors.New("y")}
	assert.Equal(t, "フェッチ失敗 (fatal, URL: https://a.example): y", withoutStatus.Error())
}

func TestClassOf_NonFetchError(t *testing.T) {
	assert.Equal(t, Class(0), ClassOf(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
	assert.Equal(t, "unknown", Class(0).String())
}
