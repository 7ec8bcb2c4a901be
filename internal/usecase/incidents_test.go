package usecase

import (
	"context"
	"testing"
	"time"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/alert"
	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/config"
)

func handlerFixture(intel *staticIntel) (*IncidentHandler, *aggregator.Processor, *alert.Sink) {
	cfg := &config.Config{}
	cfg.Aggregator.Interval = 5 * time.Second
	cfg.Aggregator.QueueSize = 100
	cfg.Aggregator.Window = time.Hour
	cfg.Aggregator.HotspotMinCount = 2
	cfg.Aggregator.TrendMinPercent = 20
	cfg.Aggregator.RiskAreaMinScore = 1.0

	processor := aggregator.NewProcessor(cfg, nil, nil)
	sink := alert.NewSink(nil, nil)
	prescorer := NewPrescorer(intel, nil)
	handler := NewIncidentHandler("fraud-incidents", prescorer, processor, sink, nil, nil)
	return handler, processor, sink
}

func TestHandleValidIncident(t *testing.T) {
	handler, processor, sink := handlerFixture(&staticIntel{density: 0.2})

	payload := []byte(`{
		"id": "inc-1",
		"timestamp": "2026-08-25T14:00:00Z",
		"type": "upi_fraud",
		"amount": 5000,
		"city": "Delhi",
		"area": "CP",
		"latitude": 28.6315,
		"longitude": 77.2167
	}`)
	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatal(err)
	}

	processor.Cycle(time.Date(2026, 8, 25, 14, 0, 30, 0, time.UTC))
	if processor.WindowSize() != 1 {
		t.Errorf("expected incident in window")
	}
	if len(sink.Recent(10)) != 0 {
		t.Errorf("small daytime incident should not alert")
	}
}

func TestHandleLargeAmountAlerts(t *testing.T) {
	handler, _, sink := handlerFixture(&staticIntel{density: 0.2})

	payload := []byte(`{"type":"card_fraud","amount":2000000,"city":"Delhi","area":"CP","timestamp":"2026-08-25T14:00:00Z"}`)
	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatal(err)
	}

	recent := sink.Recent(10)
	if len(recent) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(recent))
	}
	if recent[0].Severity != models.RiskCritical || recent[0].Priority != 1 {
		t.Errorf("large amount should be critical priority 1, got %+v", recent[0])
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	handler, processor, _ := handlerFixture(&staticIntel{})

	if err := handler.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Errorf("expected decode error")
	}
	if err := handler.Handle(context.Background(), []byte(`{"amount": 100}`)); err == nil {
		t.Errorf("expected validation error for missing city and type")
	}
	processor.Cycle(time.Now().UTC())
	if processor.WindowSize() != 0 {
		t.Errorf("rejected incidents must not enter the window")
	}
}

func TestHandleAssignsIDAndScore(t *testing.T) {
	handler, processor, _ := handlerFixture(&staticIntel{density: 0.9})

	payload := []byte(`{"type":"identity_theft","amount":100000,"city":"Delhi","area":"CP","timestamp":"2026-08-25T23:00:00Z"}`)
	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatal(err)
	}

	processor.Cycle(time.Date(2026, 8, 25, 23, 0, 30, 0, time.UTC))
	if processor.WindowSize() != 1 {
		t.Fatalf("expected incident in window")
	}
}

func TestPrescoreWeights(t *testing.T) {
	p := NewPrescorer(&staticIntel{density: 0.9}, func(lat, lng float64) int { return 10 })

	// Max amount, worst type, night, dense area, high velocity.
	e := &models.IncidentEvent{
		Type:      "identity_theft",
		Amount:    1_000_000,
		Timestamp: time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC),
	}
	got := p.Score(context.Background(), e)
	want := 0.30*1.0 + 0.25*0.9 + 0.20*0.9 + 0.15*0.8 + 0.10*0.9
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score %v, want %v", got, want)
	}
	if got <= 0.8 {
		t.Errorf("worst-case incident should clear the alert gate, got %v", got)
	}
}

func TestPrescoreAmountNormalizedToMillions(t *testing.T) {
	p := NewPrescorer(nil, nil)

	// A daytime 500k phishing incident scores well under the alert gate.
	e := &models.IncidentEvent{
		Type:      "phishing",
		Amount:    500_000,
		Timestamp: time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC),
	}
	got := p.Score(context.Background(), e)
	want := 0.30*0.5 + 0.25*0.5 + 0.20*0.6 + 0.15*0.3 + 0.10*0.3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score %v, want %v", got, want)
	}
	if got > 0.8 {
		t.Errorf("mid-size daytime incident must not clear the alert gate, got %v", got)
	}
}

func TestPrescoreUnknownTypeDefault(t *testing.T) {
	p := NewPrescorer(nil, nil)

	e := &models.IncidentEvent{
		Type:      "unknown_scheme",
		Amount:    0,
		Timestamp: time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC),
	}
	got := p.Score(context.Background(), e)
	want := 0.25*0.5 + 0.20*0.5 + 0.15*0.3 + 0.10*0.3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score %v, want %v", got, want)
	}
}
