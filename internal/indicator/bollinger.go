package indicator

import "github.com/montanaflynn/stats"

// Bollinger calculates Bollinger Bands: an SMA middle band with upper and
// lower bands at k population standard deviations. Standard setup is 20/2.
type Bollinger struct {
	period int
	k      float64
	buf    []float64 // circular window of closes
	idx    int
	count  int
	sma    *SMA

	upper  float64
	middle float64
	lower  float64
}

// NewBollinger creates a Bollinger Bands indicator with the given window
// and band width in standard deviations.
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		buf:    make([]float64, period),
		sma:    NewSMA(period),
	}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(close float64) {
	b.buf[b.idx] = close
	b.idx = (b.idx + 1) % b.period
	b.count++
	b.sma.Update(close)

	if b.count < b.period {
		return
	}

	b.middle = b.sma.Value()
	sd, err := stats.StdDevP(stats.Float64Data(b.buf))
	if err != nil {
		sd = 0
	}
	b.upper = b.middle + b.k*sd
	b.lower = b.middle - b.k*sd
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.middle }

func (b *Bollinger) Upper() float64 { return b.upper }
func (b *Bollinger) Lower() float64 { return b.lower }

func (b *Bollinger) Ready() bool { return b.count >= b.period }
