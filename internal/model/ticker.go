package model

// Ticker is the live 24h snapshot for a symbol.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	Volume24h float64 `json:"volume_24h"`
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	Timestamp string  `json:"timestamp"`
	Demo      bool    `json:"_demo,omitempty"`
}

// TickerStats is the full 24h statistics payload.
type TickerStats struct {
	Symbol             string  `json:"symbol"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	WeightedAvgPrice   float64 `json:"weighted_avg_price"`
	LastPrice          float64 `json:"last_price"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quote_volume"`
	High24h            float64 `json:"high_24h"`
	Low24h             float64 `json:"low_24h"`
	OpenPrice          float64 `json:"open_price"`
	CloseTime          int64   `json:"close_time"`
	Timestamp          string  `json:"timestamp"`
}

// OrderBook holds the derived order book pressure metrics.
type OrderBook struct {
	Symbol         string  `json:"symbol"`
	BidAskRatio    float64 `json:"bid_ask_ratio"`
	Spread         float64 `json:"spread"`
	SpreadPct      float64 `json:"spread_pct"`
	TotalBidVolume float64 `json:"total_bid_volume"`
	TotalAskVolume float64 `json:"total_ask_volume"`
	LargeBids      int     `json:"large_bids"`
	LargeAsks      int     `json:"large_asks"`
	DepthStrength  float64 `json:"depth_strength"`
	Timestamp      string  `json:"timestamp"`
}
