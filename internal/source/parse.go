package source

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// parseKlines decodes the raw klines payload: an array of arrays
// [openTime, open, high, low, close, volume, closeTime, ...] where the
// numeric fields arrive as strings. A row that fails to parse is skipped
// rather than failing the whole series.
func parseKlines(body []byte) []model.Candle {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				// Some mirrors emit bare numbers instead of strings.
				if err := json.Unmarshal(row[i+1], &vals[i]); err != nil {
					ok = false
					break
				}
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
				ok = false
				break
			}
			vals[i] = f
		}
		if !ok {
			continue
		}
		candles = append(candles, model.Candle{
			OpenTime: openTime,
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}
	return candles
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// IntervalMillis converts an interval string like "1m", "1h", "4h", "1d"
// to its duration in milliseconds. Unknown units fall back to 1h.
func IntervalMillis(interval string) int64 {
	if len(interval) < 2 {
		return 3600_000
	}
	n, err := strconv.ParseInt(interval[:len(interval)-1], 10, 64)
	if err != nil || n <= 0 {
		return 3600_000
	}
	switch interval[len(interval)-1] {
	case 'm':
		return n * 60_000
	case 'h':
		return n * 3600_000
	case 'd':
		return n * 86_400_000
	case 'w':
		return n * 7 * 86_400_000
	default:
		return 3600_000
	}
}
