package services

import (
	"fmt"
	"math"

	"clinic_backoffice/types"
)

const earthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle (haversine) distance between two
// coordinates in meters. Symmetric, and zero for identical points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// GeofenceValidator gates location-sensitive captures against the clinic
// reference coordinate.
type GeofenceValidator struct {
	CenterLat         float64
	CenterLng         float64
	RadiusMeters      float64
	MaxAccuracyMeters float64
}

type GeofenceResult struct {
	DistanceMeters float64
}

// Validate checks a reported position against the geofence. Accuracy is
// checked before distance so a coarse GPS fix gets its own failure code
// ("your GPS is too imprecise") instead of a misleading "too far away".
// A missing accuracy value is accepted as-is.
func (g *GeofenceValidator) Validate(lat, lng, accuracyMeters *float64) (*GeofenceResult, error) {
	if lat == nil || lng == nil {
		return nil, types.NewError(types.ErrCodeMissingLocation, "Location is required")
	}
	if err := CheckCoordinate(*lat, *lng); err != nil {
		return nil, err
	}

	if accuracyMeters != nil && !g.IsAccuracyAcceptable(*accuracyMeters) {
		return nil, types.NewError(types.ErrCodeAccuracyTooLow, "GPS accuracy is too imprecise").
			With("accuracy_meters", *accuracyMeters).
			With("max_accuracy_meters", g.MaxAccuracyMeters).
			With("accuracy", FormatMeters(*accuracyMeters)).
			With("max_accuracy", FormatMeters(g.MaxAccuracyMeters))
	}

	distance := DistanceMeters(*lat, *lng, g.CenterLat, g.CenterLng)
	if distance > g.RadiusMeters {
		return nil, types.NewError(types.ErrCodeOutOfRange, "You are outside the clinic area").
			With("distance_meters", distance).
			With("max_distance_meters", g.RadiusMeters).
			With("distance", FormatMeters(distance)).
			With("max_distance", FormatMeters(g.RadiusMeters))
	}

	return &GeofenceResult{DistanceMeters: distance}, nil
}

// IsWithinRadius reports whether the point is at or inside the geofence
// boundary. Monotonic non-decreasing in the radius.
func (g *GeofenceValidator) IsWithinRadius(lat, lng float64) bool {
	return DistanceMeters(lat, lng, g.CenterLat, g.CenterLng) <= g.RadiusMeters
}

// IsAccuracyAcceptable reports whether a GPS accuracy reading is at or below
// the configured ceiling.
func (g *GeofenceValidator) IsAccuracyAcceptable(accuracyMeters float64) bool {
	return accuracyMeters <= g.MaxAccuracyMeters
}

// CheckCoordinate rejects latitudes outside [-90, 90] and longitudes outside
// [-180, 180].
func CheckCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return types.NewError(types.ErrCodeInvalidCoordinate, "Latitude out of range").
			With("latitude", lat)
	}
	if lng < -180 || lng > 180 {
		return types.NewError(types.ErrCodeInvalidCoordinate, "Longitude out of range").
			With("longitude", lng)
	}
	return nil
}

// FormatMeters renders a distance for user-facing messages.
func FormatMeters(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}
