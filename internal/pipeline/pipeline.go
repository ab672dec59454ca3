package pipeline

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/internal/config"
	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/feed"
	"github.com/shouni/go-news-harvest/pkg/httpclient"
	"github.com/shouni/go-news-harvest/pkg/metrics"
	"github.com/shouni/go-news-harvest/pkg/ratelimit"
	"github.com/shouni/go-news-harvest/pkg/scraper"
	"github.com/shouni/go-news-harvest/pkg/site"
	"github.com/shouni/go-news-harvest/pkg/store"
)

// Pipeline は設定から組み立てた依存関係一式です。
type Pipeline struct {
	Settings  *config.Settings
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Client    *httpclient.Client
	Engine    *crawler.Engine
	Harvester *scraper.Harvester
	Feed      *feed.Source
}

// New は Settings をもとにフェッチャー、エンジン、メトリクスを初期化します (DI)。
func New(settings *config.Settings, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client := httpclient.New(
		settings.Timeout,
		httpclient.WithUserAgent(settings.UserAgent),
		httpclient.WithMaxRetries(uint64(settings.MaxRetries)),
		httpclient.WithLimiter(ratelimit.New(settings.MinDelay)),
	)

	engine := crawler.New(client,
		crawler.WithLogger(logger.Named("crawler")),
		crawler.WithRecorder(m),
	)

	return &Pipeline{
		Settings:  settings,
		Logger:    logger,
		Registry:  registry,
		Metrics:   m,
		Client:    client,
		Engine:    engine,
		Harvester: scraper.NewHarvester(engine, settings.MaxConcurrency, logger.Named("harvester")),
		Feed:      feed.NewSource(client, logger.Named("feed")),
	}
}

// Crawl は1サイト分のクロールを実行し、保存先が設定されていればレコードを保存します。
func (p *Pipeline) Crawl(ctx context.Context, siteName, baseURL, label string, pages int) (*crawler.Session, error) {
	adapter, err := site.Resolve(siteName, baseURL)
	if err != nil {
		return nil, &crawler.ConfigError{Field: "site", Err: err}
	}

	sess, err := p.Engine.Run(ctx, adapter, baseURL, label, pages)
	if err != nil {
		return nil, err
	}
	if err := p.Persist(ctx, sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// Harvest は複数ジョブを並列に実行し、保存先が設定されていれば各セッションを保存します。
func (p *Pipeline) Harvest(ctx context.Context, jobs []scraper.Job) ([]scraper.Result, error) {
	results := p.Harvester.Run(ctx, jobs)

	sessions := make([]*crawler.Session, 0, len(results))
	for _, r := range results {
		if r.Session != nil {
			sessions = append(sessions, r.Session)
		}
	}
	if err := p.Persist(ctx, sessions...); err != nil {
		return results, err
	}
	return results, nil
}

// Persist は StoreDSN が設定されている場合にセッションを保存します。
func (p *Pipeline) Persist(ctx context.Context, sessions ...*crawler.Session) error {
	if p.Settings.StoreDSN == "" || len(sessions) == 0 {
		return nil
	}

	s, err := store.Open(ctx, p.Settings.StoreDSN)
	if err != nil {
		return fmt.Errorf("保存先を開けません: %w", err)
	}
	defer s.Close()

	for _, sess := range sessions {
		if err := store.SaveSession(ctx, s, sess); err != nil {
			return err
		}
		p.Logger.Info("レコードを保存しました", zap.String("session_id", sess.ID), zap.Int("records", len(sess.Records)))
	}
	return nil
}
