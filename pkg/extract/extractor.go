package extract

import (
	"fmt"

	"github.com/shouni/go-news-harvest/pkg/parser"
)

// Entry は、一覧ページの1記事から取り出したタイトルと要約の組です。
type Entry struct {
	Title   string
	Summary string
}

// Rule は、1サイトのマークアップ上で記事・タイトル・要約がどこにあるかを表す抽出ルールです。
// 生成後に変更されることはありません。
type Rule struct {
	entry   parser.Selector
	title   parser.Selector
	summary parser.Selector
}

// NewRule は3つのセレクターをまとめてコンパイルし、Rule を生成します。
// title と summary は entry で選択された各ノードの子孫に対して評価されます。
func NewRule(entry, title, summary string) (Rule, error) {
	e, err := parser.Compile(entry)
	if err != nil {
		return Rule{}, fmt.Errorf("記事セレクターが不正です: %w", err)
	}
	t, err := parser.Compile(title)
	if err != nil {
		return Rule{}, fmt.Errorf("タイトルセレクターが不正です: %w", err)
	}
	s, err := parser.Compile(summary)
	if err != nil {
		return Rule{}, fmt.Errorf("要約セレクターが不正です: %w", err)
	}
	return Rule{entry: e, title: t, summary: s}, nil
}

// MustRule は NewRule と同じですが、失敗時に panic します。サイト定義の初期化用です。
func MustRule(entry, title, summary string) Rule {
	r, err := NewRule(entry, title, summary)
	if err != nil {
		panic(err)
	}
	return r
}

// EntrySelector は記事セレクターの文字列を返します。
func (r Rule) EntrySelector() string { return r.entry.String() }

// TitleSelector はタイトルセレクターの文字列を返します。
func (r Rule) TitleSelector() string { return r.title.String() }

// SummarySelector は要約セレクターの文字列を返します。
func (r Rule) SummarySelector() string { return r.summary.String() }

// Extract はドキュメントから (タイトル, 要約) の組を出現順に取り出します。
func (r Rule) Extract(doc *parser.Document) []Entry {
	entries, _ := r.ExtractWithStats(doc)
	return entries
}

// ExtractWithStats は Extract と同じ結果に加えて、読み飛ばした記事ノードの数を返します。
// タイトルか要約のどちらかが見つからない、または空の記事は黙って除外されます。
func (r Rule) ExtractWithStats(doc *parser.Document) (entries []Entry, skipped int) {
	for _, node := range doc.SelectAll(r.entry) {
		entry, ok := r.extractEntry(node)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}

// extractEntry は1つの記事ノードからタイトルと要約を取り出します。
func (r Rule) extractEntry(node *parser.Node) (Entry, bool) {
	title := node.SelectOne(r.title).Text()
	if title == "" {
		return Entry{}, false
	}
	summary := node.SelectOne(r.summary).Text()
	if summary == "" {
		return Entry{}, false
	}
	return Entry{Title: title, Summary: summary}, true
}
