package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

type fakeAnalytics struct {
	snapshotErr error
	anomalyErr  error
	tempoErr    error
	timelineErr error
}

func (f fakeAnalytics) Snapshot(ctx context.Context, symbol string) (model.ChangeSnapshot, error) {
	if f.snapshotErr != nil {
		return model.ChangeSnapshot{}, f.snapshotErr
	}
	return model.ChangeSnapshot{Momentum: "neutral", NewsTopic: "Market"}, nil
}

func (f fakeAnalytics) Anomalies(ctx context.Context, symbol string) (model.AnomalyReport, error) {
	if f.anomalyErr != nil {
		return model.AnomalyReport{}, f.anomalyErr
	}
	return model.AnomalyReport{Alerts: []model.Alert{}}, nil
}

func (f fakeAnalytics) Tempo(ctx context.Context, symbol string) (model.TempoReport, error) {
	if f.tempoErr != nil {
		return model.TempoReport{}, f.tempoErr
	}
	return model.TempoReport{Summary: "Normal market conditions with balanced activity levels."}, nil
}

func (f fakeAnalytics) Timeline(ctx context.Context, symbol string) (model.TimelineReport, error) {
	if f.timelineErr != nil {
		return model.TimelineReport{}, f.timelineErr
	}
	return model.TimelineReport{Events: []model.TimelineEvent{}}, nil
}

func testHub(engine Analytics) *Hub {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(engine, nil, nil, log, 0)
}

// gatedAnalytics holds the snapshot slot until released so a test can
// interleave a disconnect with a pass still in flight.
type gatedAnalytics struct {
	fakeAnalytics
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAnalytics) Snapshot(ctx context.Context, symbol string) (model.ChangeSnapshot, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeAnalytics.Snapshot(ctx, symbol)
}

func TestDisconnectDuringPassTerminatesLoop(t *testing.T) {
	engine := &gatedAnalytics{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	hub := testHub(engine)

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		id:     "t1",
		symbol: "BTCUSDT",
		send:   make(chan []byte, 16),
		hub:    hub,
		cancel: cancel,
	}
	hub.clients[client] = true

	done := make(chan struct{})
	go func() {
		hub.runLoop(ctx, client)
		close(done)
	}()

	<-engine.entered      // pass in flight
	hub.RemoveClient(client)
	close(engine.release) // let the pass finish

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not terminate after disconnect")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients = %d, want 0", hub.ClientCount())
	}

	// The loop owns the channel and closes it on exit; any payload sent
	// before shutdown drains first.
	for {
		if _, ok := <-client.send; !ok {
			break
		}
	}
}

func TestRadarPassAllSuccess(t *testing.T) {
	hub := testHub(fakeAnalytics{})

	update := hub.radarPass(context.Background(), "BTCUSDT")

	if update.Type != "market_radar_update" {
		t.Errorf("type = %q, want market_radar_update", update.Type)
	}
	if update.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", update.Symbol)
	}
	if update.Data.Snapshot == nil || update.Data.Anomalies == nil ||
		update.Data.Tempo == nil || update.Data.Timeline == nil {
		t.Fatalf("all data slots should be set: %+v", update.Data)
	}
	if update.Errors.Snapshot != nil || update.Errors.Anomalies != nil ||
		update.Errors.Tempo != nil || update.Errors.Timeline != nil {
		t.Fatalf("no error slots should be set: %+v", update.Errors)
	}
}

func TestRadarPassPartialFailure(t *testing.T) {
	hub := testHub(fakeAnalytics{tempoErr: errors.New("tempo blew up")})

	update := hub.radarPass(context.Background(), "BTCUSDT")

	if update.Data.Tempo != nil {
		t.Error("failed analytic must leave its data slot nil")
	}
	if update.Errors.Tempo == nil || *update.Errors.Tempo != "tempo blew up" {
		t.Errorf("errors.tempo = %v, want the analytic error string", update.Errors.Tempo)
	}
	// The other three slots are unaffected.
	if update.Data.Snapshot == nil || update.Data.Anomalies == nil || update.Data.Timeline == nil {
		t.Fatalf("healthy slots must survive a sibling failure: %+v", update.Data)
	}
	if update.Errors.Snapshot != nil || update.Errors.Anomalies != nil || update.Errors.Timeline != nil {
		t.Fatalf("healthy slots must not report errors: %+v", update.Errors)
	}
}

func TestRadarPassMessageShape(t *testing.T) {
	hub := testHub(fakeAnalytics{timelineErr: errors.New("no data")})

	payload, err := json.Marshal(hub.radarPass(context.Background(), "ETHUSDT"))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Type   string `json:"type"`
		Symbol string `json:"symbol"`
		Data   map[string]json.RawMessage `json:"data"`
		Errors map[string]*string         `json:"errors"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}

	if string(decoded.Data["timeline"]) != "null" {
		t.Errorf("data.timeline = %s, want null", decoded.Data["timeline"])
	}
	if decoded.Errors["timeline"] == nil {
		t.Error("errors.timeline missing")
	}
	if decoded.Errors["snapshot"] != nil {
		t.Errorf("errors.snapshot = %v, want null", *decoded.Errors["snapshot"])
	}
	for _, slot := range []string{"snapshot", "anomalies", "tempo", "timeline"} {
		if _, ok := decoded.Data[slot]; !ok {
			t.Errorf("data slot %q missing from wire message", slot)
		}
	}
}
