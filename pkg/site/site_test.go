package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-news-harvest/pkg/extract"
	"github.com/shouni/go-news-harvest/pkg/parser"
	"github.com/shouni/go-news-harvest/pkg/types"
)

func TestPageURL_FirstPageConvention(t *testing.T) {
	tests := []struct {
		site  *Site
		base  string
		page1 string
		page3 string
	}{
		{VnExpress, "https://vnexpress.net/the-thao", "https://vnexpress.net/the-thao-p1", "https://vnexpress.net/the-thao-p3"},
		{ZingNews, "https://zingnews.vn/the-thao/trang1.html", "https://zingnews.vn/the-thao/trang1.html", "https://zingnews.vn/the-thao/trang3.html"},
		{VietnamNet, "https://vietnamnet.vn/the-thao", "https://vietnamnet.vn/the-thao?p=1", "https://vietnamnet.vn/the-thao?p=3"},
		{DanTri, "https://dantri.com.vn/the-thao.htm", "https://dantri.com.vn/the-thao/trang-1.htm", "https://dantri.com.vn/the-thao/trang-3.htm"},
		{LaoDong, "https://laodong.vn/the-thao", "https://laodong.vn/the-thao?p=1", "https://laodong.vn/the-thao?p=3"},
		{CafeF, "https://cafef.vn/thi-truong-chung-khoan/trang-1.html", "https://cafef.vn/thi-truong-chung-khoan/trang-1.html", "https://cafef.vn/thi-truong-chung-khoan/trang-3.html"},
	}

	for _, tt := range tests {
		t.Run(tt.site.Name(), func(t *testing.T) {
			require.NoError(t, tt.site.Validate(tt.base))
			assert.Equal(t, tt.page1, tt.site.PageURL(tt.base, 1))
			assert.Equal(t, tt.page3, tt.site.PageURL(tt.base, 3))
		})
	}
}

func TestPageURL_IsPure(t *testing.T) {
	for _, s := range All() {
		t.Run(s.Name(), func(t *testing.T) {
			base := s.ExampleURL()
			for page := 1; page <= 5; page++ {
				assert.Equal(t, s.PageURL(base, page), s.PageURL(base, page))
			}
			assert.Equal(t, base, s.ExampleURL(), "ベースURLは変更されない")
		})
	}
}

func TestPages_PlaceholderScenario(t *testing.T) {
	pages := Pages(ZingNews, "https://example.com/cat/trang1.html", 2)
	assert.Equal(t, []types.PageRequest{
		{URL: "https://example.com/cat/trang1.html", PageIndex: 1},
		{URL: "https://example.com/cat/trang2.html", PageIndex: 2},
	}, pages)

	assert.Empty(t, Pages(ZingNews, "https://example.com/cat/trang1.html", 0))
}

func TestPageURL_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		site *Site
		base string
		page int
		want string
	}{
		{"suffix trims trailing slash", VnExpress, "https://vnexpress.net/the-thao/", 2, "https://vnexpress.net/the-thao-p2"},
		{"suffix keeps query", VnExpress, "https://vnexpress.net/the-thao?utm=x", 2, "https://vnexpress.net/the-thao-p2?utm=x"},
		{"query keeps other params", VietnamNet, "https://vietnamnet.vn/the-thao?sort=new", 2, "https://vietnamnet.vn/the-thao?p=2&sort=new"},
		{"query overrides page param", LaoDong, "https://laodong.vn/the-thao?p=9", 2, "https://laodong.vn/the-thao?p=2"},
		{"placeholder replaces last occurrence", ZingNews, "https://example.com/trang1.html/cat/trang1.html", 4, "https://example.com/trang1.html/cat/trang4.html"},
		{"placeholder ignores query", CafeF, "https://cafef.vn/ck/trang-1.html?ref=trang-1.html", 2, "https://cafef.vn/ck/trang-2.html?ref=trang-1.html"},
		{"missing placeholder leaves url", ZingNews, "https://zingnews.vn/the-thao.html", 2, "https://zingnews.vn/the-thao.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.site.PageURL(tt.base, tt.page))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		site    *Site
		base    string
		wantErr error
	}{
		{"empty", VnExpress, "", ErrInvalidBaseURL},
		{"relative", VietnamNet, "/the-thao", ErrInvalidBaseURL},
		{"ftp scheme", LaoDong, "ftp://laodong.vn/the-thao", ErrInvalidBaseURL},
		{"suffix needs category path", VnExpress, "https://vnexpress.net/", ErrInvalidBaseURL},
		{"zing without trang1", ZingNews, "https://zingnews.vn/the-thao.html", ErrMissingPlaceholder},
		{"dantri not ending with htm", DanTri, "https://dantri.com.vn/the-thao", ErrMissingPlaceholder},
		{"dantri html is not htm", DanTri, "https://dantri.com.vn/the-thao.html", ErrMissingPlaceholder},
		{"cafef without trang-1", CafeF, "https://cafef.vn/thi-truong/trang-2.html", ErrMissingPlaceholder},
		{"dantri with query", DanTri, "https://dantri.com.vn/the-thao.htm?x=1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate(tt.base)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSite_Extract(t *testing.T) {
	const html = `<div class="list-news-subfolder">
<article><h3 class="title-news"><a>Tin một</a></h3><p class="description"><a>Mô tả một</a></p></article>
<article><h3 class="title-news"><a>Tin hai</a></h3></article>
<article><h3 class="title-news"><a>Tin ba</a></h3><p class="description"><a>Mô tả ba</a></p></article>
</div>
<article><h3 class="title-news"><a>Ngoài danh sách</a></h3><p class="description"><a>Không tính</a></p></article>`

	doc, err := parser.New().Parse([]byte(html))
	require.NoError(t, err)

	entries, skipped := VnExpress.ExtractWithStats(doc)
	assert.Equal(t, []extract.Entry{
		{Title: "Tin một", Summary: "Mô tả một"},
		{Title: "Tin ba", Summary: "Mô tả ba"},
	}, entries)
	assert.Equal(t, 1, skipped)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"vnexpress", "zingnews", "vietnamnet", "dantri", "laodong", "cafef"}, Names())

	s, err := Lookup(" CafeF ")
	require.NoError(t, err)
	assert.Same(t, CafeF, s)

	_, err = Lookup("tuoitre")
	assert.ErrorIs(t, err, ErrUnknownSite)

	s, err = ForURL("https://www.vnexpress.net/the-thao")
	require.NoError(t, err)
	assert.Same(t, VnExpress, s)

	s, err = ForURL("https://znews.vn/the-thao/trang1.html")
	require.NoError(t, err)
	assert.Same(t, ZingNews, s)

	_, err = ForURL("https://notvnexpress.net/x")
	assert.ErrorIs(t, err, ErrUnknownSite)

	s, err = Resolve("", "https://dantri.com.vn/the-thao.htm")
	require.NoError(t, err)
	assert.Same(t, DanTri, s)

	for _, s := range All() {
		assert.NoError(t, s.Validate(s.ExampleURL()), s.Name())
	}
}
