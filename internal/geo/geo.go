package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates carry usable numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the Haversine great-circle distance between a and b in km.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Bearing returns the initial compass bearing from a to b in degrees [0,360).
func Bearing(a, b Point) float64 {
	dLon := toRad(b.Lon - a.Lon)
	y := math.Sin(dLon) * math.Cos(toRad(b.Lat))
	x := math.Cos(toRad(a.Lat))*math.Sin(toRad(b.Lat)) -
		math.Sin(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Cos(dLon)
	brng := math.Atan2(y, x) * 180 / math.Pi
	if brng < 0 {
		brng += 360
	}
	return brng
}

var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection maps a bearing to the nearest of 16 compass labels.
func CardinalDirection(bearing float64) string {
	bearing = math.Mod(bearing, 360)
	if bearing < 0 {
		bearing += 360
	}
	idx := int(math.Round(bearing/22.5)) % 16
	return compassLabels[idx]
}

// ManhattanDistance approximates city-block travel distance in km by summing
// the independent latitude and longitude legs. Descriptive use only.
func ManhattanDistance(a, b Point) float64 {
	latLeg := Distance(a, Point{Lat: b.Lat, Lon: a.Lon})
	lonLeg := Distance(Point{Lat: b.Lat, Lon: a.Lon}, b)
	return latLeg + lonLeg
}

// Interpolate returns the point at fraction frac along the straight lat/lon
// line from a to b. frac is clamped to [0,1].
func Interpolate(a, b Point, frac float64) Point {
	if frac <= 0 {
		return a
	}
	if frac >= 1 {
		return b
	}
	return Point{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lon: a.Lon + (b.Lon-a.Lon)*frac,
	}
}
