package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/dataset"
	"github.com/shouni/go-news-harvest/pkg/types"
)

// maxCellWidth は表の1セルに表示する最大の表示幅です。
const maxCellWidth = 60

// writeTable は表示幅 (全角・結合文字を考慮) で列を揃えた表を書き出します。
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(headers))
		for i := range headers {
			if i >= len(row) {
				continue
			}
			c := runewidth.Truncate(strings.ReplaceAll(row[i], "\n", " "), maxCellWidth, "…")
			cells[r][i] = c
			if cw := runewidth.StringWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow(w, headers, widths)
	sep := make([]string, len(headers))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	writeRow(w, sep, widths)
	for _, row := range cells {
		writeRow(w, row, widths)
	}
}

func writeRow(w io.Writer, row []string, widths []int) {
	padded := make([]string, len(row))
	for i, c := range row {
		if i == len(row)-1 {
			padded[i] = c
			continue
		}
		padded[i] = runewidth.FillRight(c, widths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
}

// writeRecords はレコードを表として表示します。
func writeRecords(w io.Writer, records []types.ArticleRecord) {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{fmt.Sprint(i + 1), r.Label, r.Title, r.Summary})
	}
	writeTable(w, []string{"#", "label", "title", "summary"}, rows)
}

// writeSessionSummary はクロール結果の概要と失敗したページを表示します。
func writeSessionSummary(w io.Writer, sess *crawler.Session) {
	status := "完了"
	if sess.Cancelled {
		status = "キャンセル"
	}
	fmt.Fprintf(w, "[%s] %s: 要求 %d ページ, 取得 %d, 失敗 %d, レコード %d 件 (%s)\n",
		sess.Site, status, sess.PagesRequested, sess.PagesFetched, sess.PagesFailed, len(sess.Records), sess.Elapsed().Round(time.Millisecond))
	for _, f := range sess.Failures {
		fmt.Fprintf(w, "    ❌ p%d %s (%s): %s\n", f.PageIndex, f.URL, f.Outcome, f.Reason)
	}
}

// emitRecords は output が指定されていれば CSV に保存し、そうでなければ表として表示します。
func emitRecords(w io.Writer, output string, records []types.ArticleRecord) error {
	if output == "" {
		writeRecords(w, records)
		return nil
	}
	if output == "-" {
		return dataset.WriteCSV(w, records)
	}
	if err := dataset.WriteFile(output, records); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d 件のレコードを %s に保存しました\n", len(records), output)
	return nil
}
