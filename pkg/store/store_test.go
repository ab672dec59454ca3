package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/types"
)

var records = []types.ArticleRecord{
	{Title: "Tin một", Summary: "Tóm tắt một", Label: "the-thao"},
	{Title: "Tin hai", Summary: "Tóm tắt hai", Label: "the-thao"},
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	sess := &crawler.Session{
		ID:         uuid.NewString(),
		Site:       "vnexpress",
		Records:    records,
		FinishedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, SaveSession(ctx, s, sess))

	got, err := s.Records(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	other, err := s.Records(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.SaveRecords(ctx, Run{ID: "empty", Site: "cafef"}, nil))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("NEWSHARVEST_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("NEWSHARVEST_TEST_PG_DSN が設定されていないためスキップします")
	}

	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyDSN)

	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}

func TestSaveSession_Nil(t *testing.T) {
	assert.NoError(t, SaveSession(context.Background(), nil, nil))
}
