package notification

import (
	"context"
	"testing"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

type captureNotifier struct {
	sent []Alert
}

func (c *captureNotifier) Send(ctx context.Context, alert Alert) error {
	c.sent = append(c.sent, alert)
	return nil
}

func TestForwarderSendsOnlyHighAlerts(t *testing.T) {
	sink := &captureNotifier{}
	f := NewForwarder(sink, 5*time.Minute)

	alerts := []model.Alert{
		{ID: "volume_spike", Type: "high", Title: "Volume Spike", Description: "+300% vs 7-day average"},
		{ID: "rsi_overbought", Type: "watch", Title: "RSI Overbought"},
	}
	if err := f.ForwardHigh(context.Background(), "BTCUSDT", alerts); err != nil {
		t.Fatal(err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sink.sent))
	}
	if sink.sent[0].Level != AlertCritical {
		t.Errorf("level = %q, want CRITICAL", sink.sent[0].Level)
	}
	if sink.sent[0].Title != "BTCUSDT Volume Spike" {
		t.Errorf("title = %q", sink.sent[0].Title)
	}
}

func TestForwarderCooldownSuppressesRepeats(t *testing.T) {
	sink := &captureNotifier{}
	f := NewForwarder(sink, 5*time.Minute)
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	alerts := []model.Alert{{ID: "rapid_movement", Type: "high", Title: "Rapid Price Surge"}}

	f.ForwardHigh(context.Background(), "BTCUSDT", alerts)
	f.ForwardHigh(context.Background(), "BTCUSDT", alerts)
	if len(sink.sent) != 1 {
		t.Fatalf("sent = %d, want repeat suppressed", len(sink.sent))
	}

	// Same alert for another symbol is not a repeat.
	f.ForwardHigh(context.Background(), "ETHUSDT", alerts)
	if len(sink.sent) != 2 {
		t.Fatalf("sent = %d, want per-symbol keys", len(sink.sent))
	}

	// Past the cooldown the alert fires again.
	now = now.Add(6 * time.Minute)
	f.ForwardHigh(context.Background(), "BTCUSDT", alerts)
	if len(sink.sent) != 3 {
		t.Fatalf("sent = %d, want resend after cooldown", len(sink.sent))
	}
}
