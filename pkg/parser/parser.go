package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	textUtils "github.com/shouni/go-utils/text"
)

// ParseError は、寛容なHTMLパーサーでも回復できなかったページを表します。
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("HTML解析に失敗しました: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Selector はコンパイル済みのCSSセレクターです。
type Selector struct {
	expr    string
	matcher cascadia.Selector
}

// Compile は CSS セレクター文字列をコンパイルします。
func Compile(expr string) (Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Selector{}, fmt.Errorf("セレクターが空です")
	}
	m, err := cascadia.Compile(expr)
	if err != nil {
		return Selector{}, fmt.Errorf("セレクター(%s)のコンパイルに失敗しました: %w", expr, err)
	}
	return Selector{expr: expr, matcher: m}, nil
}

// MustCompile は Compile と同じですが、失敗時に panic します。パッケージ変数の初期化用です。
func MustCompile(expr string) Selector {
	s, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// String はセレクターの元の文字列を返します。
func (s Selector) String() string {
	return s.expr
}

// IsZero はセレクターが未設定かどうかを返します。
func (s Selector) IsZero() bool {
	return s.matcher == nil
}

// Parser は取得したHTMLを検索可能なドキュメントに変換します。
type Parser struct{}

// New は新しい Parser を返します。
func New() *Parser {
	return &Parser{}
}

// Parse は HTML バイト列を Document に変換します。
// 閉じタグの欠落など壊れたHTMLも、ブラウザと同じ規則で補完して受け付けます。
func (p *Parser) Parse(htmlBytes []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{doc: doc}, nil
}

// Document はパース済みのHTMLドキュメントです。
type Document struct {
	doc *goquery.Document
}

// SelectAll はセレクターに一致するノードを、ドキュメント中の出現順で返します。
func (d *Document) SelectAll(sel Selector) []*Node {
	if d == nil || d.doc == nil || sel.IsZero() {
		return nil
	}

	matched := d.doc.FindMatcher(sel.matcher)
	nodes := make([]*Node, 0, matched.Length())
	matched.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s})
	})
	return nodes
}

// Title は <title> 要素のテキストを返します。
func (d *Document) Title() string {
	if d == nil || d.doc == nil {
		return ""
	}
	return normalize(d.doc.Find("title").First().Text())
}

// Node はドキュメント内の1要素です。
type Node struct {
	sel *goquery.Selection
}

// SelectOne はこのノードの子孫から、セレクターに最初に一致するノードを返します。
// 一致しない場合は nil を返します。
func (n *Node) SelectOne(sel Selector) *Node {
	if n == nil || n.sel == nil || sel.IsZero() {
		return nil
	}
	found := n.sel.FindMatcher(sel.matcher).First()
	if found.Length() == 0 {
		return nil
	}
	return &Node{sel: found}
}

// Text はタグを除いたテキストを、空白を正規化して返します。
func (n *Node) Text() string {
	if n == nil || n.sel == nil {
		return ""
	}
	return normalize(n.sel.Text())
}

// Attr は属性値を返します。
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.sel == nil {
		return "", false
	}
	return n.sel.Attr(name)
}

func normalize(s string) string {
	return strings.TrimSpace(textUtils.NormalizeText(s))
}
