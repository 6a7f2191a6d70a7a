package geo

import (
	"fmt"
	"sort"
)

// Staff is a staff member with an optional home location. Members without
// home coordinates cannot be matched by distance.
type Staff struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Home *Coordinates `json:"home,omitempty"`
}

// Location is an event venue with optional coordinates.
type Location struct {
	Name   string       `json:"name"`
	Coords *Coordinates `json:"coords,omitempty"`
}

// StaffDistance pairs a staff member with their straight-line distance to a
// location.
type StaffDistance struct {
	Staff    Staff   `json:"staff"`
	Distance float64 `json:"distance"`
}

// StaffToLocationDistance returns the straight-line distance from a staff
// member's home to a location. Missing coordinates on either side are an
// error: there is no meaningful fallback distance.
func StaffToLocationDistance(staff Staff, loc Location, unit Unit) (float64, error) {
	if loc.Coords == nil {
		return 0, fmt.Errorf("location %q has no coordinates", loc.Name)
	}
	if staff.Home == nil {
		return 0, fmt.Errorf("staff %q has no home coordinates", staff.Name)
	}
	return Haversine(staff.Home.Lat, staff.Home.Lng, loc.Coords.Lat, loc.Coords.Lng, unit)
}

// StaffWithinRadius returns the staff whose homes are within radius of the
// location, ascending by distance. Staff without home coordinates are
// skipped; a location without coordinates is an error.
func StaffWithinRadius(staff []Staff, loc Location, radius float64, unit Unit) ([]StaffDistance, error) {
	if loc.Coords == nil {
		return nil, fmt.Errorf("location %q has no coordinates", loc.Name)
	}

	within := make([]StaffDistance, 0, len(staff))
	for _, member := range staff {
		if member.Home == nil {
			continue
		}
		distance, err := Haversine(member.Home.Lat, member.Home.Lng, loc.Coords.Lat, loc.Coords.Lng, unit)
		if err != nil {
			return nil, err
		}
		if distance <= radius {
			within = append(within, StaffDistance{Staff: member, Distance: distance})
		}
	}

	sort.SliceStable(within, func(i, j int) bool {
		return within[i].Distance < within[j].Distance
	})
	return within, nil
}
