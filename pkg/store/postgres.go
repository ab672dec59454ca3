package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shouni/go-news-harvest/pkg/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	site TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	label TEXT NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_run_id ON articles(run_id);
`

// PostgresStore は PostgreSQL に記事レコードを保存します。
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore は接続プールを作成し、必要ならテーブルを作成します。
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("データベースに接続できません: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗しました: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close は接続プールを閉じます。
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// SaveRecords はレコードを1トランザクション内のバッチで保存します。
func (s *PostgresStore) SaveRecords(ctx context.Context, run Run, records []types.ArticleRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, r := range records {
		batch.Queue(`INSERT INTO articles (run_id, site, position, title, summary, label, crawled_at)
		             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.Site, i, r.Title, r.Summary, r.Label, run.CrawledAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("レコードの保存に失敗しました: %w", err)
	}

	return tx.Commit(ctx)
}

// Records は実行IDに紐づくレコードを保存順に返します。
func (s *PostgresStore) Records(ctx context.Context, runID string) ([]types.ArticleRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT title, summary, label FROM articles WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("レコードの取得に失敗しました: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.ArticleRecord, error) {
		var r types.ArticleRecord
		err := row.Scan(&r.Title, &r.Summary, &r.Label)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
