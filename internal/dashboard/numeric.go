package dashboard

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts user-entered text into a number. Thousands separators
// are stripped; blank, unparseable or non-finite input ("NaN", "Inf") yields zero.
func ParseNumber(text string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseVolume is ParseNumber truncated to a whole share count. Values outside
// the int64 range yield zero.
func ParseVolume(text string) int64 {
	v := ParseNumber(text)
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0
	}
	return int64(v)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVolume(v int64) string {
	return strconv.FormatInt(v, 10)
}
