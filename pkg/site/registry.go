package site

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownSite は、名前またはURLに対応するサイトが登録されていないことを示します。
var ErrUnknownSite = errors.New("未対応のサイトです")

var registry = []*Site{VnExpress, ZingNews, VietnamNet, DanTri, LaoDong, CafeF}

// All は登録済みの全サイトを登録順で返します。
func All() []*Site {
	return append([]*Site(nil), registry...)
}

// Names は登録済みサイトの識別子を返します。
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.name)
	}
	return names
}

// Lookup は識別子 (大文字小文字を区別しない) からサイトを探します。
func Lookup(name string) (*Site, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range registry {
		if s.name == key {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (対応サイト: %s)", ErrUnknownSite, name, strings.Join(Names(), ", "))
}

// ForURL はURLのホスト名から対応するサイトを推定します。サブドメイン (www. など) も一致します。
func ForURL(rawURL string) (*Site, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: ホストを判定できません (%s)", ErrUnknownSite, rawURL)
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range registry {
		for _, h := range s.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSite, host)
}

// Resolve は name が空でなければ Lookup を、空なら ForURL を使ってサイトを決定します。
func Resolve(name, baseURL string) (*Site, error) {
	if strings.TrimSpace(name) != "" {
		return Lookup(name)
	}
	return ForURL(baseURL)
}
