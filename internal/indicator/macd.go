package indicator

// MACD calculates Moving Average Convergence Divergence from two EMAs plus
// a signal EMA over the MACD line. Standard periods are 12/26/9.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	line   float64
}

// NewMACD creates a MACD indicator with the given fast/slow/signal periods.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(close float64) {
	m.fast.Update(close)
	m.slow.Update(close)
	if !m.slow.Ready() {
		return
	}
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.Update(m.line)
}

// Value returns the MACD line.
func (m *MACD) Value() float64 { return m.line }

// Signal returns the signal line (EMA of the MACD line).
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Histogram returns MACD line minus signal line.
func (m *MACD) Histogram() float64 { return m.line - m.signal.Value() }

func (m *MACD) Ready() bool { return m.slow.Ready() && m.signal.Ready() }
