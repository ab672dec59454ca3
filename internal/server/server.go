package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/crawler"
)

// Crawler はHTTP経由のクロール要求を処理します。*pipeline.Pipeline が実装します。
type Crawler interface {
	Crawl(ctx context.Context, siteName, baseURL, label string, pages int) (*crawler.Session, error)
}

// Server はHTTPサーバーの依存関係を保持します。
type Server struct {
	router     http.Handler
	httpServer *http.Server
	crawler    Crawler
	gatherer   prometheus.Gatherer
	maxPages   int
	logger     *zap.Logger
}

// DefaultMaxPages は1リクエストで指定できるページ数の上限です。
const DefaultMaxPages = 50

func NewServer(cr Crawler, gatherer prometheus.Gatherer, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}
	s := &Server{
		crawler:  cr,
		gatherer: gatherer,
		maxPages: DefaultMaxPages,
		logger:   l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start は addr で待ち受けを開始します。Shutdown されるまで戻りません。
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("HTTPサーバーを起動します", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
