package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trade-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `Date,Trade Code,Open,High,Low,Close,Volume
2020-08-10,1JANATAMF,4.3,4.4,4.1,4.2,"2,285,416"
2020-08-10,ACI, 120,nan,,"1,234.5",null
`
	trades, err := ReadCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, models.Trade{Date: "2020-08-10", TradeCode: "1JANATAMF", Open: 4.3, High: 4.4, Low: 4.1, Close: 4.2, Volume: 2285416}, trades[0])
	assert.Equal(t, models.Trade{Date: "2020-08-10", TradeCode: "ACI", Open: 120, Close: 1234.5}, trades[1])
}

func TestReadCSV_InvalidNumber(t *testing.T) {
	input := "date,trade_code,close\n2020-01-01,ACI,abc\n"

	_, err := ReadCSV(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "csv line 2")
}

func TestReadCSV_NonFinite(t *testing.T) {
	input := "date,trade_code,open,close,volume\n2020-01-01,ACI,Inf,-infinity,NaN\n"

	trades, err := ReadCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, models.Trade{Date: "2020-01-01", TradeCode: "ACI"}, trades[0])
}

func TestReadCSV_VolumeOutOfRange(t *testing.T) {
	input := "date,trade_code,volume\n2020-01-01,ACI,1e19\n"

	_, err := ReadCSV(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"date": "2020-01-01", "trade_code": "ACI", "open": 1, "close": "1,000.5", "volume": 12},
		{"Date": "2020-01-02", "tradeCode": " GP ", "Close": 3.5, "Volume": "7,000"}
	]`
	trades, err := ReadJSON(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 1000.5, trades[0].Close)
	assert.Equal(t, int64(12), trades[0].Volume)
	assert.Equal(t, "GP", trades[1].TradeCode)
	assert.Equal(t, int64(7000), trades[1].Volume)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "stocks.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("date,trade_code,close\n2020-01-01,ACI,5\n"), 0o644))
	trades, err := LoadSeedFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	txtPath := filepath.Join(dir, "stocks.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadSeedFile(txtPath)
	assert.Error(t, err)

	_, err = LoadSeedFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
