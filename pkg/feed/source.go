package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	textUtils "github.com/shouni/go-utils/text"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/httpclient"
	"github.com/shouni/go-news-harvest/pkg/types"
)

// Fetcher はフィードの取得に使うインターフェースです。*httpclient.Client が実装します。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*httpclient.Page, error)
}

// Source は RSS/Atom フィードを記事レコードの取得元として扱います。
// 一覧ページを巡回する代わりに、カテゴリごとのフィードからタイトルと要約を集めます。
type Source struct {
	client Fetcher
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewSource は新しい Source を初期化します。
func NewSource(client Fetcher, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client: client,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// FetchAndParse は指定されたURLからフィードを取得し、パースします。
func (s *Source) FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	page, err := s.client.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	feed, parseErr := s.parser.Parse(bytes.NewReader(page.Body))
	if parseErr != nil {
		return nil, fmt.Errorf("RSSフィードのパース失敗 (URL: %s): %w", feedURL, parseErr)
	}
	return feed, nil
}

// Collect はフィードの各アイテムを label 付きの記事レコードに変換します。
// タイトルか要約が空のアイテムは除外されます。
func (s *Source) Collect(ctx context.Context, feedURL, label string) ([]types.ArticleRecord, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("ラベルが空です")
	}

	feed, err := s.FetchAndParse(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	records := Records(feed, label)
	s.logger.Info("フィードを取り込みました",
		zap.String("url", feedURL),
		zap.String("feed_title", feed.Title),
		zap.Int("items", len(feed.Items)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Records は gofeed.Feed から記事レコードを取り出します。
func Records(feed *gofeed.Feed, label string) []types.ArticleRecord {
	records := []types.ArticleRecord{}
	if feed == nil {
		return records
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := plainText(item.Title)
		summary := plainText(item.Description)
		if title == "" || summary == "" {
			continue
		}
		records = append(records, types.ArticleRecord{Title: title, Summary: summary, Label: label})
	}
	return records
}

// plainText はフィード内のHTML断片 (画像リンク付きの説明文など) からテキストだけを取り出します。
func plainText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(textUtils.NormalizeText(fragment))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(textUtils.NormalizeText(fragment))
	}
	return strings.TrimSpace(textUtils.NormalizeText(doc.Text()))
}
