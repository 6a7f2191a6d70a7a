// Package geo provides straight-line and driving distance calculations for
// matching staff to event venues.
package geo

import (
	"fmt"
	"math"
)

// Unit selects the distance unit for calculations.
type Unit string

const (
	UnitMiles      Unit = "miles"
	UnitKilometers Unit = "km"
)

const (
	earthRadiusMiles = 3959.0
	earthRadiusKm    = 6371.0
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between two points, rounded to
// two decimal places. Coordinates outside the valid ranges are an error.
func Haversine(lat1, lng1, lat2, lng2 float64, unit Unit) (float64, error) {
	if err := validateCoordinate(lat1, lng1); err != nil {
		return 0, err
	}
	if err := validateCoordinate(lat2, lng2); err != nil {
		return 0, err
	}

	radius := earthRadiusMiles
	if unit == UnitKilometers {
		radius = earthRadiusKm
	}

	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round2(radius * c), nil
}

func validateCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude %v: must be between -90 and 90", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("invalid longitude %v: must be between -180 and 180", lng)
	}
	return nil
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
