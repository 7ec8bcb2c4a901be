// Package geo provides great-circle distance helpers used by the
// geofence, movement, and risk packages.
package geo

import "math"

const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle (haversine) distance between two
// WGS84 coordinates in meters.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// DistanceKM returns the great-circle distance in kilometers.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceMeters(lat1, lng1, lat2, lng2) / 1000
}

// Centroid returns the arithmetic mean of a set of coordinates. Adequate for
// the sub-kilometer clusters this engine inspects; not meridian-safe.
func Centroid(lats, lngs []float64) (float64, float64) {
	if len(lats) == 0 || len(lats) != len(lngs) {
		return 0, 0
	}
	var sumLat, sumLng float64
	for i := range lats {
		sumLat += lats[i]
		sumLng += lngs[i]
	}
	n := float64(len(lats))
	return sumLat / n, sumLng / n
}
