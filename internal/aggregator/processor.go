// Package aggregator maintains the rolling incident window and the shared
// prediction snapshot rebuilt on a fixed cycle.
package aggregator

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/geo"
	"GeoSentry/pkg/logger"
)

// Subscriber receives each freshly published snapshot.
type Subscriber func(*models.PredictionSnapshot)

// Processor is the single writer of the prediction snapshot. Incidents arrive
// through Enqueue from any goroutine; one background cycle drains them into
// the retained window and rebuilds the snapshot.
type Processor struct {
	cfg     *config.Config
	queue   *incidentQueue
	metrics repository.Metrics
	log     *logger.Logger

	snapshot atomic.Pointer[models.PredictionSnapshot]

	windowMu sync.RWMutex
	window   []models.IncidentEvent

	subMu sync.RWMutex
	subs  []Subscriber

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewProcessor(cfg *config.Config, metrics repository.Metrics, log *logger.Logger) *Processor {
	p := &Processor{
		cfg:     cfg,
		queue:   newIncidentQueue(cfg.Aggregator.QueueSize),
		metrics: metrics,
		log:     log,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	p.snapshot.Store(&models.PredictionSnapshot{
		Trends:     map[string]models.TrendPrediction{},
		LastUpdate: time.Now().UTC(),
	})
	return p
}

// Enqueue hands an incident to the aggregation cycle. Never blocks; the
// oldest queued incident is dropped when the queue is full.
func (p *Processor) Enqueue(e models.IncidentEvent) {
	if p.queue.Push(e) && p.log != nil {
		p.log.Warn("incident queue full, dropped oldest", logger.Int("capacity", p.cfg.Aggregator.QueueSize))
	}
	if p.metrics != nil {
		p.metrics.RecordQueueDepth(p.queue.Len())
	}
}

// Subscribe registers a callback invoked after each snapshot publish. A
// panicking subscriber is isolated and does not affect the cycle or other
// subscribers.
func (p *Processor) Subscribe(s Subscriber) {
	p.subMu.Lock()
	p.subs = append(p.subs, s)
	p.subMu.Unlock()
}

// Snapshot returns the latest published snapshot. Never nil.
func (p *Processor) Snapshot() *models.PredictionSnapshot {
	return p.snapshot.Load()
}

// IncidentsNear counts retained incidents within radiusMeters of the
// coordinate.
func (p *Processor) IncidentsNear(lat, lng, radiusMeters float64) int {
	p.windowMu.RLock()
	defer p.windowMu.RUnlock()

	n := 0
	for _, e := range p.window {
		if geo.DistanceMeters(lat, lng, e.Lat, e.Lng) <= radiusMeters {
			n++
		}
	}
	return n
}

// WindowSize returns the number of retained incidents.
func (p *Processor) WindowSize() int {
	p.windowMu.RLock()
	defer p.windowMu.RUnlock()
	return len(p.window)
}

// Start launches the aggregation cycle.
func (p *Processor) Start() {
	go p.run()
}

// Stop ends the cycle and waits for the in-flight iteration to finish.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	<-p.done
}

func (p *Processor) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Aggregator.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Cycle(time.Now().UTC())
		}
	}
}

// Cycle drains the queue, prunes the retained window, and publishes a fresh
// snapshot. Exposed for deterministic testing; the background loop calls it
// on each tick.
func (p *Processor) Cycle(now time.Time) {
	start := time.Now()

	incoming := p.queue.Drain()
	cutoff := now.Add(-p.cfg.Aggregator.Window)

	p.windowMu.Lock()
	p.window = append(p.window, incoming...)
	kept := p.window[:0]
	for _, e := range p.window {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	p.window = kept
	retained := make([]models.IncidentEvent, len(p.window))
	copy(retained, p.window)
	p.windowMu.Unlock()

	snap := p.build(retained, now)
	p.snapshot.Store(snap)
	p.notify(snap)

	if p.metrics != nil {
		p.metrics.RecordLatency("aggregation_cycle", time.Since(start).Seconds())
		p.metrics.RecordQueueDepth(p.queue.Len())
	}
}

func (p *Processor) notify(snap *models.PredictionSnapshot) {
	p.subMu.RLock()
	subs := make([]Subscriber, len(p.subs))
	copy(subs, p.subs)
	p.subMu.RUnlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil && p.log != nil {
					p.log.Error("snapshot subscriber panicked", logger.Any("panic", r))
				}
			}()
			s(snap)
		}()
	}
}

func (p *Processor) build(window []models.IncidentEvent, now time.Time) *models.PredictionSnapshot {
	return &models.PredictionSnapshot{
		Hotspots:   p.buildHotspots(window),
		Trends:     p.buildTrends(window),
		RiskAreas:  p.buildRiskAreas(window),
		LastUpdate: now,
	}
}

// buildHotspots forecasts near-term incident load per city from the retained
// window.
func (p *Processor) buildHotspots(window []models.IncidentEvent) []models.HotspotPrediction {
	counts := map[string]int{}
	for _, e := range window {
		counts[e.City]++
	}

	cities := make([]string, 0, len(counts))
	for city := range counts {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	var out []models.HotspotPrediction
	for _, city := range cities {
		count := counts[city]
		if count < p.cfg.Aggregator.HotspotMinCount {
			continue
		}
		predicted := int(math.Round(float64(count) * 1.5))
		level := models.RiskMedium
		if predicted > 3 {
			level = models.RiskHigh
		}
		out = append(out, models.HotspotPrediction{
			City:               city,
			PredictedIncidents: predicted,
			Confidence:         math.Min(0.9, float64(count)*0.2),
			RiskLevel:          level,
		})
	}
	return out
}

// buildTrends flags fraud types holding more than the trending share of the
// window.
func (p *Processor) buildTrends(window []models.IncidentEvent) map[string]models.TrendPrediction {
	trends := map[string]models.TrendPrediction{}
	if len(window) == 0 {
		return trends
	}

	counts := map[string]int{}
	for _, e := range window {
		counts[e.Type]++
	}

	total := float64(len(window))
	for typ, count := range counts {
		pct := float64(count) / total * 100
		if pct <= p.cfg.Aggregator.TrendMinPercent {
			continue
		}
		status := "stable"
		if pct > 25 {
			status = "increasing"
		}
		trends[typ] = models.TrendPrediction{
			Percentage: pct,
			GrowthRate: pct * 1.2,
			Status:     status,
		}
	}
	return trends
}

// buildRiskAreas ranks city areas by a composite of incident count and total
// amount at stake.
func (p *Processor) buildRiskAreas(window []models.IncidentEvent) []models.RiskArea {
	type areaAgg struct {
		city   string
		area   string
		count  int
		amount float64
	}
	byArea := map[string]*areaAgg{}
	for i := range window {
		e := &window[i]
		agg, ok := byArea[e.AreaKey()]
		if !ok {
			agg = &areaAgg{city: e.City, area: e.Area}
			byArea[e.AreaKey()] = agg
		}
		agg.count++
		agg.amount += e.Amount
	}

	var out []models.RiskArea
	for _, agg := range byArea {
		score := float64(agg.count)*0.6 + agg.amount/1_000_000*0.4
		if score <= p.cfg.Aggregator.RiskAreaMinScore {
			continue
		}
		out = append(out, models.RiskArea{
			Area:        agg.area,
			City:        agg.city,
			RiskScore:   math.Min(score, 1.0),
			Incidents:   agg.count,
			TotalAmount: agg.amount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Incidents != out[j].Incidents {
			return out[i].Incidents > out[j].Incidents
		}
		return out[i].TotalAmount > out[j].TotalAmount
	})
	return out
}
