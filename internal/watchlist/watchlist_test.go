package watchlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KabuScout/internal/config"
	"KabuScout/internal/model"
)

func testSectors() []config.Sector {
	return []config.Sector{
		{Name: "自動車", Tickers: []model.Ticker{{Symbol: "7203.T", Name: "トヨタ"}, {Symbol: "7267", Name: "ホンダ"}}},
		{Name: "銀行", Tickers: []model.Ticker{{Symbol: "8306.T", Name: "三菱UFJ"}, {Symbol: "7203.T", Name: "トヨタ"}}},
	}
}

func TestWatchlist_SelectAndLookup(t *testing.T) {
	w := New(testSectors())

	assert.Equal(t, []string{"自動車", "銀行"}, w.Sectors())

	all := w.All()
	require.Len(t, all, 3, "duplicate symbols across sectors appear once")
	assert.Equal(t, "7267.T", all[1].Symbol)
	assert.Equal(t, "自動車", all[1].Sector)

	banks := w.Select([]string{"銀行", "存在しない"})
	require.Len(t, banks, 2)
	assert.Equal(t, "8306.T", banks[0].Symbol)
	assert.Equal(t, "銀行", banks[0].Sector)

	got, ok := w.Lookup("８３０６")
	require.True(t, ok)
	assert.Equal(t, "三菱UFJ", got.Name)

	_, ok = w.Lookup("9999.T")
	assert.False(t, ok)

	resolved := w.Resolve([]string{"7203.T", "6758.T"})
	assert.Equal(t, "トヨタ", resolved[0].Name)
	assert.Equal(t, model.Ticker{Symbol: "6758.T"}, resolved[1])
}

func TestWatchlist_Defaults(t *testing.T) {
	w := New(nil)
	assert.Equal(t, []string{"主要銘柄"}, w.Sectors())
	all := w.All()
	require.Len(t, all, len(Backup()))
	assert.Equal(t, "主要銘柄", all[0].Sector)
	assert.Empty(t, Backup()[0].Sector, "default sector must not leak into the backup list")
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"7203, 6758\n8306.T", []string{"7203.T", "6758.T", "8306.T"}},
		{"７２０３　６７５８、7203", []string{"7203.T", "6758.T"}},
		{"130a aapl", []string{"130A.T", "AAPL"}},
		{"  \n ,, ", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSymbols(tt.in), tt.in)
	}
}

func TestBackup_IsCopy(t *testing.T) {
	b := Backup()
	require.NotEmpty(t, b)
	b[0].Symbol = "X"
	assert.NotEqual(t, "X", Backup()[0].Symbol)
}

func TestUniverseScraper(t *testing.T) {
	page := `<html><body><table class="rank">
<tr><td><a href="/stock/?code=7203">7203 トヨタ自動車</a></td></tr>
<tr><td><a href="/stock/?code=6758">ソニーグループ</a></td></tr>
<tr><td><a href="/stock/?code=7203">7203 トヨタ自動車</a></td></tr>
<tr><td><a href="/news/">ニュース</a></td></tr>
<tr><td><a href="/stock/9984">9984 ソフトバンクG</a></td></tr>
</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(page))
	}))
	defer srv.Close()

	u := NewUniverseScraper(srv.URL+"/ranking", ".rank a", 0, "")
	got, err := u.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.Ticker{Symbol: "7203.T", Name: "トヨタ自動車"}, got[0])
	assert.Equal(t, "ソニーグループ", got[1].Name)
	assert.Equal(t, "9984.T", got[2].Symbol)

	u.Limit = 2
	got, err = u.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	broken := NewUniverseScraper(srv.URL+"/broken", "", 0, "")
	assert.Equal(t, Backup(), broken.Universe(context.Background()))

	assert.Nil(t, NewUniverseScraper("", "", 0, ""))
}
