package usecase

import (
	"context"
	"math"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/pkg/util"
)

// Prescore component weights. They sum to 1 so the composite stays in 0-1.
const (
	weightAmount   = 0.30
	weightArea     = 0.25
	weightType     = 0.20
	weightHour     = 0.15
	weightVelocity = 0.10
)

var typeScores = map[string]float64{
	"identity_theft":   0.9,
	"card_fraud":       0.8,
	"account_takeover": 0.8,
	"upi_fraud":        0.7,
	"phishing":         0.6,
}

// Prescorer assigns each incoming incident a 0-1 risk score before it enters
// the aggregation window.
type Prescorer struct {
	intel    repository.CrimeIntel
	velocity func(lat, lng float64) int
}

// NewPrescorer builds a Prescorer. velocity reports recent incident volume
// near a coordinate and may be nil.
func NewPrescorer(intel repository.CrimeIntel, velocity func(lat, lng float64) int) *Prescorer {
	return &Prescorer{intel: intel, velocity: velocity}
}

// Score computes the weighted composite for one incident.
func (p *Prescorer) Score(ctx context.Context, e *models.IncidentEvent) float64 {
	amountScore := math.Min(e.Amount/1_000_000, 1.0)

	typeScore, ok := typeScores[e.Type]
	if !ok {
		typeScore = 0.5
	}

	hourScore := 0.3
	if util.IsNightHour(e.Timestamp.Hour()) {
		hourScore = 0.8
	}

	areaScore := 0.5
	if p.intel != nil {
		if density, err := p.intel.CrimeDensity(ctx, e.Lat, e.Lng); err == nil {
			areaScore = density
		}
	}

	velocityScore := 0.3
	if p.velocity != nil && p.velocity(e.Lat, e.Lng) > 5 {
		velocityScore = 0.9
	}

	return weightAmount*amountScore +
		weightType*typeScore +
		weightHour*hourScore +
		weightArea*areaScore +
		weightVelocity*velocityScore
}
