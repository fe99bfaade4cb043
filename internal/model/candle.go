package model

import (
	"sort"
	"time"
)

// Candle represents one interval's OHLCV aggregate for a trading pair.
// OpenTime is the bucket start in Unix milliseconds (UTC).
type Candle struct {
	OpenTime int64   `json:"timestamp"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Time returns the candle open time as a time.Time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// Series is an ordered candle sequence for one (symbol, interval) pair.
// Invariant after Normalize: OpenTime strictly increasing, no duplicates.
type Series struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// Len returns the number of candles in the series.
func (s Series) Len() int { return len(s.Candles) }

// Last returns the candle n positions from the end (0 = newest).
// The boolean is false when the series is too short.
func (s Series) Last(n int) (Candle, bool) {
	idx := len(s.Candles) - 1 - n
	if idx < 0 {
		return Candle{}, false
	}
	return s.Candles[idx], true
}

// Tail returns the most recent n candles (all of them when n >= Len).
func (s Series) Tail(n int) []Candle {
	if n >= len(s.Candles) {
		return s.Candles
	}
	return s.Candles[len(s.Candles)-n:]
}

// Closes returns the close prices of the given candles in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volumes of the given candles in order.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Normalize sorts candles ascending by OpenTime and removes duplicates,
// keeping the first occurrence. Raw upstream pages may overlap or arrive
// out of order; every series entering the cache passes through here.
func (s *Series) Normalize() {
	sort.SliceStable(s.Candles, func(i, j int) bool {
		return s.Candles[i].OpenTime < s.Candles[j].OpenTime
	})
	dedup := s.Candles[:0]
	var prev int64 = -1
	for _, c := range s.Candles {
		if c.OpenTime == prev {
			continue
		}
		dedup = append(dedup, c)
		prev = c.OpenTime
	}
	s.Candles = dedup
}
