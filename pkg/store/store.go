package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/types"
)

// ErrEmptyDSN は保存先が指定されていないことを示します。
var ErrEmptyDSN = errors.New("保存先のDSNが空です")

// Run は1回のクロール実行に紐づく保存単位です。
type Run struct {
	ID        string
	Site      string
	CrawledAt time.Time
}

// Store はクロール結果の記事レコードを永続化します。
type Store interface {
	SaveRecords(ctx context.Context, run Run, records []types.ArticleRecord) error
	Records(ctx context.Context, runID string) ([]types.ArticleRecord, error)
	Close() error
}

// SaveSession はセッションのレコードを、セッションIDを実行IDとして保存します。
func SaveSession(ctx context.Context, s Store, sess *crawler.Session) error {
	if sess == nil {
		return nil
	}
	crawledAt := sess.FinishedAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}
	run := Run{ID: sess.ID, Site: sess.Site, CrawledAt: crawledAt}
	if err := s.SaveRecords(ctx, run, sess.Records); err != nil {
		return fmt.Errorf("セッション(%s)の保存に失敗しました: %w", sess.ID, err)
	}
	return nil
}

// Open は DSN の形式から保存先を選んで開きます。
// "postgres://" または "postgresql://" で始まる場合は PostgreSQL、
// "sqlite://" で始まる場合やファイルパスの場合は SQLite を使います。
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, ErrEmptyDSN
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		return NewSQLiteStore(strings.TrimPrefix(dsn, "sqlite://"))
	}
}
