package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// Forwarder pushes high-severity radar alerts to a Notifier. Repeats of
// the same alert ID within the cooldown window are dropped so a sustained
// anomaly does not spam the channel.
type Forwarder struct {
	notifier Notifier
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time

	now func() time.Time
}

func NewForwarder(notifier Notifier, cooldown time.Duration) *Forwarder {
	return &Forwarder{
		notifier: notifier,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// ForwardHigh sends every "high" alert not still in cooldown. Delivery
// errors are returned combined but do not stop the remaining alerts.
func (f *Forwarder) ForwardHigh(ctx context.Context, symbol string, alerts []model.Alert) error {
	var firstErr error
	for _, alert := range alerts {
		if alert.Type != "high" {
			continue
		}
		if !f.claim(symbol + ":" + alert.ID) {
			continue
		}
		err := f.notifier.Send(ctx, Alert{
			Level:   AlertCritical,
			Title:   fmt.Sprintf("%s %s", symbol, alert.Title),
			Message: fmt.Sprintf("%s (%s)", alert.Description, alert.Context),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// claim records a send attempt for key, returning false while the
// previous send is inside the cooldown window.
func (f *Forwarder) claim(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if last, ok := f.lastSent[key]; ok && now.Sub(last) < f.cooldown {
		return false
	}
	f.lastSent[key] = now
	return true
}
