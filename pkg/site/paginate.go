package site

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrInvalidBaseURL は、ベースURLが http/https の絶対URLでない、あるいはページ番号を付けられない形であることを示します。
	ErrInvalidBaseURL = errors.New("ベースURLが不正です")
	// ErrMissingPlaceholder は、置換方式のサイトでベースURLにページ1のトークンが含まれていないことを示します。
	ErrMissingPlaceholder = errors.New("ベースURLにページ1のトークンが含まれていません")
)

// Paginator は、ベースURLとページ番号から各ページのURLを計算します。
// PageURL は副作用のない純粋関数で、同じ入力には常に同じURLを返します。
type Paginator interface {
	PageURL(baseURL string, page int) string
	Validate(baseURL string) error
}

// splitURL はURLを、クエリ/フラグメントより前の部分とそれ以降に分けます。
func splitURL(raw string) (head, tail string) {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i], raw[i:]
	}
	return raw, ""
}

// validateAbsolute は http/https の絶対URLかどうかを確認します。
func validateAbsolute(baseURL string) (*url.URL, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: 空のURLです", ErrInvalidBaseURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: スキームは http または https である必要があります (%s)", ErrInvalidBaseURL, baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: ホストが含まれていません (%s)", ErrInvalidBaseURL, baseURL)
	}
	return u, nil
}

// pathSuffix はベースURLのパス末尾に "-p{n}" のような接尾辞を付けるページ送りです。
// ページ1も接尾辞付き ("-p1") になります。
type pathSuffix struct {
	format string
}

func (p pathSuffix) PageURL(baseURL string, page int) string {
	head, tail := splitURL(baseURL)
	head = strings.TrimRight(head, "/")
	return head + fmt.Sprintf(p.format, page) + tail
}

func (p pathSuffix) Validate(baseURL string) error {
	u, err := validateAbsolute(baseURL)
	if err != nil {
		return err
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("%w: カテゴリのパスが必要です (%s)", ErrInvalidBaseURL, baseURL)
	}
	return nil
}

// queryParam はクエリパラメーター "?p={n}" でページを指定するページ送りです。
// 既存のクエリは保持され、同名のパラメーターは上書きされます。
type queryParam struct {
	key string
}

func (q queryParam) PageURL(baseURL string, page int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		sep := "?"
		if strings.Contains(baseURL, "?") {
			sep = "&"
		}
		return baseURL + sep + q.key + "=" + strconv.Itoa(page)
	}
	values := u.Query()
	values.Set(q.key, strconv.Itoa(page))
	u.RawQuery = values.Encode()
	return u.String()
}

func (q queryParam) Validate(baseURL string) error {
	_, err := validateAbsolute(baseURL)
	return err
}

// placeholder は、ベースURL中のページ1トークン (例: "trang1.html") を
// ページ番号入りの文字列に置き換えるページ送りです。置換対象は最後の出現箇所のみです。
type placeholder struct {
	token  string
	format string
	// suffix が真の場合、トークンはパスの末尾になければなりません。
	suffix bool
}

func (p placeholder) PageURL(baseURL string, page int) string {
	head, tail := splitURL(baseURL)
	i := p.index(head)
	if i < 0 {
		return baseURL
	}
	return head[:i] + fmt.Sprintf(p.format, page) + head[i+len(p.token):] + tail
}

func (p placeholder) Validate(baseURL string) error {
	if _, err := validateAbsolute(baseURL); err != nil {
		return err
	}
	head, _ := splitURL(baseURL)
	if p.index(head) < 0 {
		return fmt.Errorf("%w: %q が見つかりません (%s)", ErrMissingPlaceholder, p.token, baseURL)
	}
	return nil
}

func (p placeholder) index(head string) int {
	if p.suffix {
		if !strings.HasSuffix(head, p.token) {
			return -1
		}
		return len(head) - len(p.token)
	}
	return strings.LastIndex(head, p.token)
}
