package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-news-harvest/pkg/httpclient"
	"github.com/shouni/go-news-harvest/pkg/types"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*httpclient.Page, error) {
	args := m.Called(ctx, url)
	if p := args.Get(0); p != nil {
		return p.(*httpclient.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

const testURL = "https://vnexpress.net/rss/the-thao.rss"

const validRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Thể thao - VnExpress RSS</title>
    <link>https://vnexpress.net/the-thao</link>
    <item>
      <title>Việt Nam thắng Thái Lan</title>
      <description><![CDATA[<a href="https://vnexpress.net/a.html"><img src="https://i.vnecdn.net/a.jpg"></a></br>Đội tuyển giành chiến thắng</description>
      <link>https://vnexpress.net/a.html</link>
    </item>
    <item>
      <title>Không có mô tả</title>
      <link>https://vnexpress.net/b.html</link>
    </item>
    <item>
      <title>  HLV mới  </title>
      <description>Liên đoàn công bố HLV mới</description>
      <link>https://vnexpress.net/c.html</link>
    </item>
  </channel>
</rss>`

func TestCollect(t *testing.T) {
	tests := []struct {
		name          string
		page          *httpclient.Page
		fetchErr      error
		expected      []types.ArticleRecord
		errorContains string
	}{
		{
			name: "成功ケース_有効なRSS",
			page: &httpclient.Page{Body: []byte(validRSS)},
			expected: []types.ArticleRecord{
				{Title: "Việt Nam thắng Thái Lan", Summary: "Đội tuyển giành chiến thắng", Label: "the-thao"},
				{Title: "HLV mới", Summary: "Liên đoàn công bố HLV mới", Label: "the-thao"},
			},
		},
		{
			name:          "エラーケース_フィード取得失敗",
			fetchErr:      errors.New("network error"),
			errorContains: "フィードの取得失敗",
		},
		{
			name:          "エラーケース_RSSパース失敗",
			page:          &httpclient.Page{Body: []byte(`<invalid><tag>`)},
			errorContains: "RSSフィードのパース失敗",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			if tt.fetchErr != nil {
				fetcher.On("Fetch", mock.Anything, testURL).Return(nil, tt.fetchErr)
			} else {
				fetcher.On("Fetch", mock.Anything, testURL).Return(tt.page, nil)
			}

			records, err := NewSource(fetcher, nil).Collect(context.Background(), testURL, "the-thao")
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, records)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestCollect_EmptyLabel(t *testing.T) {
	fetcher := new(MockFetcher)
	_, err := NewSource(fetcher, nil).Collect(context.Background(), testURL, " ")
	require.Error(t, err)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRecords_NilFeed(t *testing.T) {
	assert.Empty(t, Records(nil, "x"))
}
