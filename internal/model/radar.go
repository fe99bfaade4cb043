package model

// RSIShift describes the estimated RSI movement over the last hour.
type RSIShift struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// ChangeSnapshot compares the current market state with one hour ago.
type ChangeSnapshot struct {
	PriceChange  float64  `json:"priceChange"`
	VolumeChange float64  `json:"volumeChange"`
	RSIShift     RSIShift `json:"rsiShift"`
	Momentum     string   `json:"momentum"` // rising, falling, neutral
	NewsCount    int      `json:"newsCount"`
	NewsTopic    string   `json:"newsTopic"`
	Timestamp    string   `json:"timestamp"`
}

// Alert is a single anomaly detection result. Alerts are ephemeral:
// produced fresh on every analytics pass, never persisted.
type Alert struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // severity: "high" or "watch"
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Context     string `json:"context"`
	Timestamp   string `json:"timestamp"`
}

// AnomalyReport bundles the alerts of one analytics pass.
type AnomalyReport struct {
	Alerts    []Alert `json:"alerts"`
	Timestamp string  `json:"timestamp"`
}

// TempoGauge is one 0-100 dimension of the market tempo.
type TempoGauge struct {
	Level     float64 `json:"level"`
	Trend     string  `json:"trend,omitempty"`
	Bias      string  `json:"bias,omitempty"`
	VsAverage float64 `json:"vsAverage,omitempty"`
	Label     string  `json:"label"`
}

// TempoReport characterizes recent volatility, activity and direction.
type TempoReport struct {
	Volatility TempoGauge `json:"volatility"`
	Activity   TempoGauge `json:"activity"`
	Direction  TempoGauge `json:"direction"`
	Summary    string     `json:"summary"`
	Timestamp  string     `json:"timestamp"`
}

// TimelineEvent is one notable event found by scanning recent candles.
type TimelineEvent struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Type        string `json:"type"` // price, volume, news, technical
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TimelineReport is the capped, most-recent-first event list.
type TimelineReport struct {
	Events    []TimelineEvent `json:"events"`
	Timestamp string          `json:"timestamp"`
}

// RadarData groups the four analytics payloads of one broadcast pass.
// A nil slot means that analytic failed; its error lives in RadarErrors.
type RadarData struct {
	Snapshot  *ChangeSnapshot `json:"snapshot"`
	Anomalies *AnomalyReport  `json:"anomalies"`
	Tempo     *TempoReport    `json:"tempo"`
	Timeline  *TimelineReport `json:"timeline"`
}

// RadarErrors carries per-analytic error text for failed slots.
type RadarErrors struct {
	Snapshot  *string `json:"snapshot"`
	Anomalies *string `json:"anomalies"`
	Tempo     *string `json:"tempo"`
	Timeline  *string `json:"timeline"`
}

// RadarUpdate is the combined message pushed over a radar connection.
type RadarUpdate struct {
	Type      string      `json:"type"` // always "market_radar_update"
	Symbol    string      `json:"symbol"`
	Timestamp string      `json:"timestamp"`
	Data      RadarData   `json:"data"`
	Errors    RadarErrors `json:"errors"`
}
