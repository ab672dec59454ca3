package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-news-harvest/pkg/types"
)

// Header は CSV の列名です。分類モデル側はこの列順を前提にしています。
var Header = []string{"title", "summary", "label"}

// ErrInvalidHeader は、CSV の先頭行に title, summary, label の列が揃っていないことを示します。
var ErrInvalidHeader = errors.New("CSVのヘッダーが不正です")

// WriteCSV はヘッダー行に続けてレコードを書き出します。
func WriteCSV(w io.Writer, records []types.ArticleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}
	for i, r := range records {
		if err := cw.Write([]string{r.Title, r.Summary, r.Label}); err != nil {
			return fmt.Errorf("CSVの%d行目の書き込みに失敗しました: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV はヘッダー付きの CSV を読み込みます。列の順序は問いませんが、3列すべてが必要です。
// 追加の列は無視されます。
func ReadCSV(r io.Reader) ([]types.ArticleRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: 空のファイルです", ErrInvalidHeader)
		}
		return nil, fmt.Errorf("CSVヘッダーの読み込みに失敗しました: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	records := []types.ArticleRecord{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSVの%d行目の読み込みに失敗しました: %w", line, err)
		}
		records = append(records, types.ArticleRecord{
			Title:   field(row, index["title"]),
			Summary: field(row, index["summary"]),
			Label:   field(row, index["label"]),
		})
	}
	return records, nil
}

// WriteFile はレコードを path に CSV として保存します。親ディレクトリは必要に応じて作成されます。
func WriteFile(path string, records []types.ArticleRecord) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ファイル(%s)の作成に失敗しました: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ファイル(%s)のクローズに失敗しました: %w", path, cerr)
		}
	}()

	return WriteCSV(f, records)
}

// LoadFile は path の CSV を読み込みます。ファイルが存在しない場合は os.ErrNotExist を含むエラーを返します。
func LoadFile(path string) ([]types.ArticleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ファイル(%s)を開けません: %w", path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ファイル(%s)の読み込みに失敗しました: %w", path, err)
	}
	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(Header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range Header {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q 列がありません", ErrInvalidHeader, col)
		}
	}
	return index, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
