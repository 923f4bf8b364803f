// Package geo computes great-circle distances between WGS 84 coordinates.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used by Distance.
const EarthRadiusMiles = 3958.8

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bothell is the default reference point distances are measured from.
var Bothell = Point{Lat: 47.762, Lon: -122.205}

// Distance returns the haversine distance between a and b in miles.
func Distance(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMiles * c
}

// FormatMiles renders a distance label such as "3.2 miles".
func FormatMiles(miles float64) string {
	return fmt.Sprintf("%.1f miles", miles)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
