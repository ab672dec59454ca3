package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shouni/go-news-harvest/pkg/types"
)

// SQLiteStore は SQLite に記事レコードを保存します。
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore は dbPath のデータベースを開き、必要ならテーブルを作成します。
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベースを開けません: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗しました: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		site TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		label TEXT NOT NULL,
		crawled_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_run_id ON articles(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords はレコードを1トランザクションで保存します。
func (s *SQLiteStore) SaveRecords(ctx context.Context, run Run, records []types.ArticleRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションを開始できません: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (run_id, site, position, title, summary, label, crawled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("INSERT文の準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	crawledAt := run.CrawledAt.UTC().Format(time.RFC3339)
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, run.Site, i, r.Title, r.Summary, r.Label, crawledAt); err != nil {
			return fmt.Errorf("レコード(%d件目)の保存に失敗しました: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// Records は実行IDに紐づくレコードを保存順に返します。
func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]types.ArticleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, summary, label FROM articles WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("レコードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	records := []types.ArticleRecord{}
	for rows.Next() {
		var r types.ArticleRecord
		if err := rows.Scan(&r.Title, &r.Summary, &r.Label); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
