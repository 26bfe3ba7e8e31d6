package listing

import (
	"math"
	"strconv"
	"strings"
)

// Unit multipliers for the suffixes Apache's fancy indexing prints in the
// size column.
const (
	kibi = 1 << 10
	mebi = 1 << 20
	gibi = 1 << 30
)

// ParseSize converts a raw size field from a listing table into a byte
// count. Apache renders sizes either as a plain byte integer or with a
// one-letter K/M/G suffix; "-" and empty cells mean no size is published.
// The second return value reports whether a size was recovered; malformed
// input never fails hard, it just reports no size.
func ParseSize(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false
	}

	var unit float64
	switch s[len(s)-1] {
	case 'k', 'K':
		unit = kibi
	case 'm', 'M':
		unit = mebi
	case 'g', 'G':
		unit = gibi
	}
	if unit > 0 {
		v, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, false
		}
		bytes := math.Round(v * unit)
		// ParseFloat accepts "inf" and "nan"; both would corrupt the
		// int64 conversion.
		if math.IsNaN(bytes) || bytes >= math.MaxInt64 || bytes <= math.MinInt64 {
			return 0, false
		}
		return int64(bytes), true
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
