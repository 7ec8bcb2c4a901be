package geo

import (
	"math"
	"testing"
)

func TestDistanceMetersZero(t *testing.T) {
	d := DistanceMeters(28.6315, 77.2167, 28.6315, 77.2167)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Connaught Place to Nehru Place, roughly 9.4 km.
	d := DistanceMeters(28.6315, 77.2167, 28.5506, 77.2506)
	if d < 9000 || d > 10000 {
		t.Fatalf("expected ~9.4km, got %f m", d)
	}
}

func TestDistanceKMMatchesMeters(t *testing.T) {
	m := DistanceMeters(28.6315, 77.2167, 28.6519, 77.1909)
	km := DistanceKM(28.6315, 77.2167, 28.6519, 77.1909)
	if math.Abs(km*1000-m) > 1e-6 {
		t.Fatalf("km/m mismatch: %f vs %f", km*1000, m)
	}
}

func TestCentroid(t *testing.T) {
	lat, lng := Centroid([]float64{28.0, 30.0}, []float64{77.0, 79.0})
	if lat != 29.0 || lng != 78.0 {
		t.Fatalf("unexpected centroid %f,%f", lat, lng)
	}
}

func TestCentroidEmpty(t *testing.T) {
	lat, lng := Centroid(nil, nil)
	if lat != 0 || lng != 0 {
		t.Fatalf("expected zero centroid, got %f,%f", lat, lng)
	}
}
