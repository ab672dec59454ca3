package site

import (
	"github.com/shouni/go-news-harvest/pkg/extract"
	"github.com/shouni/go-news-harvest/pkg/parser"
	"github.com/shouni/go-news-harvest/pkg/types"
)

// Adapter は1つのニュースサイトに固有のページ送りと抽出の方法をまとめたものです。
// 実装は状態を持たず、複数のゴルーチンから同時に利用できます。
type Adapter interface {
	// Name はレジストリでの識別子を返します。
	Name() string
	// Validate はベースURLがこのサイトのページ送り方式で扱えるかを確認します。
	Validate(baseURL string) error
	// PageURL はページ番号 (1始まり) に対応するURLを返します。
	PageURL(baseURL string, page int) string
	// Extract はパース済みドキュメントから (タイトル, 要約) の組を取り出します。
	Extract(doc *parser.Document) []extract.Entry
}

// Site は Paginator と extract.Rule の組み合わせによる Adapter の実装です。
type Site struct {
	name        string
	displayName string
	hosts       []string
	exampleURL  string
	paginator   Paginator
	rule        extract.Rule
}

func (s *Site) Name() string { return s.name }

// DisplayName は表示用のサイト名を返します。
func (s *Site) DisplayName() string { return s.displayName }

// Hosts はこのサイトが扱うホスト名を返します。
func (s *Site) Hosts() []string {
	return append([]string(nil), s.hosts...)
}

// ExampleURL はベースURLの例を返します。
func (s *Site) ExampleURL() string { return s.exampleURL }

// Rule は抽出ルールを返します。
func (s *Site) Rule() extract.Rule { return s.rule }

func (s *Site) Validate(baseURL string) error {
	return s.paginator.Validate(baseURL)
}

func (s *Site) PageURL(baseURL string, page int) string {
	return s.paginator.PageURL(baseURL, page)
}

func (s *Site) Extract(doc *parser.Document) []extract.Entry {
	return s.rule.Extract(doc)
}

// ExtractWithStats は Extract に加えて読み飛ばした記事数を返します。
func (s *Site) ExtractWithStats(doc *parser.Document) ([]extract.Entry, int) {
	return s.rule.ExtractWithStats(doc)
}

// Pages はクロール対象の全ページを事前に計算します。count が0以下なら空です。
func Pages(a Adapter, baseURL string, count int) []types.PageRequest {
	if count <= 0 {
		return nil
	}
	pages := make([]types.PageRequest, 0, count)
	for i := 1; i <= count; i++ {
		pages = append(pages, types.PageRequest{URL: a.PageURL(baseURL, i), PageIndex: i})
	}
	return pages
}

var (
	VnExpress = &Site{
		name:        "vnexpress",
		displayName: "VnExpress",
		hosts:       []string{"vnexpress.net"},
		exampleURL:  "https://vnexpress.net/the-thao",
		paginator:   pathSuffix{format: "-p%d"},
		rule:        extract.MustRule("div.list-news-subfolder article", "h3.title-news a", "p.description a"),
	}

	ZingNews = &Site{
		name:        "zingnews",
		displayName: "ZingNews",
		hosts:       []string{"zingnews.vn", "znews.vn"},
		exampleURL:  "https://zingnews.vn/the-thao/trang1.html",
		paginator:   placeholder{token: "trang1.html", format: "trang%d.html"},
		rule:        extract.MustRule("article", "h3.article-title a", "p.article-summary"),
	}

	VietnamNet = &Site{
		name:        "vietnamnet",
		displayName: "VietnamNet",
		hosts:       []string{"vietnamnet.vn"},
		exampleURL:  "https://vietnamnet.vn/the-thao",
		paginator:   queryParam{key: "p"},
		rule:        extract.MustRule("div.horizontalPost", "h3.horizontalPost__main-title a", "div.horizontalPost__main-desc p"),
	}

	DanTri = &Site{
		name:        "dantri",
		displayName: "Dân trí",
		hosts:       []string{"dantri.com.vn"},
		exampleURL:  "https://dantri.com.vn/the-thao.htm",
		paginator:   placeholder{token: ".htm", format: "/trang-%d.htm", suffix: true},
		rule:        extract.MustRule("article.article-item", "h3.article-title a", "div.article-excerpt"),
	}

	LaoDong = &Site{
		name:        "laodong",
		displayName: "Lao Động",
		hosts:       []string{"laodong.vn"},
		exampleURL:  "https://laodong.vn/the-thao",
		paginator:   queryParam{key: "p"},
		rule:        extract.MustRule("article.v4", "a.link-title h2", "div.chapeau"),
	}

	CafeF = &Site{
		name:        "cafef",
		displayName: "CafeF",
		hosts:       []string{"cafef.vn"},
		exampleURL:  "https://cafef.vn/thi-truong-chung-khoan/trang-1.html",
		paginator:   placeholder{token: "trang-1.html", format: "trang-%d.html"},
		rule:        extract.MustRule("div.tlitem", "h3 a", "p.sapo"),
	}
)
