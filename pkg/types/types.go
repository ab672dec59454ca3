package types

// ArticleRecord は、ニュースサイトから収集した記事1件分の統一された出力形式です。
// Title と Summary は常に空でなく、前後の空白が除去された状態で生成されます。
// 分類モデル側 (CSV) では title, summary, label の列として扱われます。
type ArticleRecord struct {
	Title   string `json:"title" csv:"title"`
	Summary string `json:"summary" csv:"summary"`
	Label   string `json:"label" csv:"label"` // 1回のクロール呼び出し全体で一定のカテゴリ名
}

// PageRequest は、クロール対象の1ページを表します。
// ベースURLとページ番号から決定的に導出され、永続化されません。
type PageRequest struct {
	URL       string
	PageIndex int // 1始まり
}
