// Package geo holds the small amount of spherical geometry the itinerary
// needs: great-circle distances and render-ready routes that follow the
// great circle on long hops.
package geo

import (
	"math"

	"github.com/pkordes/tripboard/internal/domain"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// CurveThresholdKm is the hop length above which a segment is drawn as
	// a great-circle arc instead of a straight line.
	CurveThresholdKm = 500.0

	// DefaultCurvePoints is the number of interpolation steps per arc.
	DefaultCurvePoints = 100
)

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is HaversineKm for two Coordinates.
func Distance(a, b domain.Coordinates) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// GeodesicCurve returns the render path from start to end.
//
// Hops of at most CurveThresholdKm are returned as exactly [start, end].
// Longer hops are sampled at numPoints+1 points along the great circle
// using spherical linear interpolation. Longitudes are kept continuous: a
// step that would jump by more than 180° is shifted by 360°, so an arc
// across the antimeridian may end at end.Lng±360.
func GeodesicCurve(start, end domain.Coordinates, numPoints int) []domain.Coordinates {
	if numPoints <= 0 {
		numPoints = DefaultCurvePoints
	}
	if Distance(start, end) <= CurveThresholdKm {
		return []domain.Coordinates{start, end}
	}

	f1, l1 := toRad(start.Lat), toRad(start.Lng)
	f2, l2 := toRad(end.Lat), toRad(end.Lng)

	delta := 2 * math.Asin(math.Sqrt(
		math.Pow(math.Sin((f1-f2)/2), 2)+
			math.Cos(f1)*math.Cos(f2)*math.Pow(math.Sin((l1-l2)/2), 2),
	))
	sinDelta := math.Sin(delta)
	if sinDelta < 1e-12 {
		// Antipodal endpoints: every great circle qualifies, none is preferred.
		return []domain.Coordinates{start, end}
	}

	points := make([]domain.Coordinates, 0, numPoints+1)
	points = append(points, start)
	prevLng := start.Lng

	for i := 1; i <= numPoints; i++ {
		f := float64(i) / float64(numPoints)
		a := math.Sin((1-f)*delta) / sinDelta
		b := math.Sin(f*delta) / sinDelta

		x := a*math.Cos(f1)*math.Cos(l1) + b*math.Cos(f2)*math.Cos(l2)
		y := a*math.Cos(f1)*math.Sin(l1) + b*math.Cos(f2)*math.Sin(l2)
		z := a*math.Sin(f1) + b*math.Sin(f2)

		lat := toDeg(math.Atan2(z, math.Sqrt(x*x+y*y)))
		lng := toDeg(math.Atan2(y, x))
		if i == numPoints {
			lat, lng = end.Lat, end.Lng
		}
		lng = continuous(prevLng, lng)

		points = append(points, domain.Coordinates{Lat: lat, Lng: lng})
		prevLng = lng
	}
	return points
}

// DayRoute chains GeodesicCurve over consecutive points. Shared endpoints
// appear once, and longitudes stay continuous across the whole route.
func DayRoute(stops []domain.Coordinates, numPoints int) []domain.Coordinates {
	if len(stops) == 0 {
		return []domain.Coordinates{}
	}
	route := []domain.Coordinates{stops[0]}
	for i := 1; i < len(stops); i++ {
		seg := GeodesicCurve(stops[i-1], stops[i], numPoints)
		offset := route[len(route)-1].Lng - seg[0].Lng
		for _, p := range seg[1:] {
			p.Lng += offset
			p.Lng = continuous(route[len(route)-1].Lng, p.Lng)
			route = append(route, p)
		}
	}
	return route
}

// continuous shifts lng by ±360 so it is within 180° of prev.
func continuous(prev, lng float64) float64 {
	for lng-prev > 180 {
		lng -= 360
	}
	for lng-prev < -180 {
		lng += 360
	}
	return lng
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
