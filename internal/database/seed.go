package database

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"trade-dashboard-go/internal/models"
)

// Column aliases accepted by the seed loader, first match wins.
var (
	dateKeys      = []string{"date", "Date"}
	tradeCodeKeys = []string{"trade_code", "Trade Code", "tradeCode"}
	openKeys      = []string{"open", "Open"}
	highKeys      = []string{"high", "High"}
	lowKeys       = []string{"low", "Low"}
	closeKeys     = []string{"close", "Close"}
	volumeKeys    = []string{"volume", "Volume"}
)

// LoadSeedFile reads trades from a .csv file with a header row or a .json
// array of objects.
func LoadSeedFile(path string) ([]models.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported seed file type %q", filepath.Ext(path))
	}
}

// ReadCSV parses trades from CSV with a header row.
func ReadCSV(r io.Reader) ([]models.Trade, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var trades []models.Trade
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[strings.TrimSpace(name)] = rec[i]
			}
		}
		t, err := rowToTrade(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// ReadJSON parses trades from a JSON array of objects.
func ReadJSON(r io.Reader) ([]models.Trade, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	trades := make([]models.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := rowToTrade(row)
		if err != nil {
			return nil, fmt.Errorf("json item %d: %w", i, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func rowToTrade(row map[string]any) (models.Trade, error) {
	var t models.Trade
	var err error

	t.Date = strings.TrimSpace(lookupString(row, dateKeys))
	t.TradeCode = strings.TrimSpace(lookupString(row, tradeCodeKeys))

	if t.Open, err = toFloat(lookup(row, openKeys)); err != nil {
		return t, fmt.Errorf("open: %w", err)
	}
	if t.High, err = toFloat(lookup(row, highKeys)); err != nil {
		return t, fmt.Errorf("high: %w", err)
	}
	if t.Low, err = toFloat(lookup(row, lowKeys)); err != nil {
		return t, fmt.Errorf("low: %w", err)
	}
	if t.Close, err = toFloat(lookup(row, closeKeys)); err != nil {
		return t, fmt.Errorf("close: %w", err)
	}
	v, err := toFloat(lookup(row, volumeKeys))
	if err != nil {
		return t, fmt.Errorf("volume: %w", err)
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return t, fmt.Errorf("volume: %v out of range", v)
	}
	t.Volume = int64(v)
	return t, nil
}

// lookup returns the first non-empty value under any of keys.
func lookup(row map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func lookupString(row map[string]any, keys []string) string {
	switch v := lookup(row, keys).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// toFloat accepts JSON numbers and text with thousands separators.
// Missing, blank, "nan", "null" and infinite values are zero.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		switch strings.ToLower(s) {
		case "", "nan", "null":
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, nil
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected value %v", v)
	}
}
