package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"host only", "vnexpress.net/the-thao", "https://vnexpress.net/the-thao", false},
		{"protocol relative", "//laodong.vn/the-thao", "https://laodong.vn/the-thao", false},
		{"keeps http", "http://cafef.vn/a/trang-1.html", "http://cafef.vn/a/trang-1.html", false},
		{"trims spaces", "  https://dantri.com.vn/a.htm ", "https://dantri.com.vn/a.htm", false},
		{"empty", "  ", "", true},
		{"ftp", "ftp://example.com/x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ensureScheme(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
