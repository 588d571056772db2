// Package checkpoint synthesizes emergency checkpoints at fixed intervals
// along the straight line between a patient and a hospital, and maintains the
// resulting route document.
package checkpoint

import (
	"time"

	"dispatch-sim/internal/geo"
)

// OpStatus is a checkpoint's operational state.
type OpStatus string

const (
	StatusOperational  OpStatus = "operational"
	StatusMaintenance  OpStatus = "maintenance"
	StatusOutOfService OpStatus = "out-of-service"
)

// Facilities flags the emergency equipment available at a checkpoint.
type Facilities struct {
	FirstAid       bool `json:"firstAid"`
	Defibrillator  bool `json:"defibrillator"`
	Oxygen         bool `json:"oxygen"`
	EmergencyPhone bool `json:"emergencyPhone"`
	Restroom       bool `json:"restroom"`
	Shelter        bool `json:"shelter"`
}

// StopArea describes where an ambulance can safely pull over.
type StopArea struct {
	Type     string `json:"type"`
	Capacity int    `json:"capacity"` // vehicles
}

// Checkpoint is a synthetic waypoint enriched with emergency-readiness
// metadata. Generated deterministically from index and position; only a
// periodic refresh may flip Status and LastInspected.
type Checkpoint struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Location      geo.Point  `json:"location"`
	DistanceKm    float64    `json:"distanceKm"` // from route start
	Landmark      string     `json:"landmark"`
	Intersection  string     `json:"intersection"`
	StopArea      StopArea   `json:"stopArea"`
	Facilities    Facilities `json:"facilities"`
	Visibility    string     `json:"visibility"` // excellent | good | fair
	AllHours      bool       `json:"allHours"`   // 24/7 accessible
	HospitalKm    float64    `json:"hospitalKm"` // nearest-service distances
	FuelKm        float64    `json:"fuelKm"`
	PoliceKm      float64    `json:"policeKm"`
	Status        OpStatus   `json:"status"`
	LastInspected time.Time  `json:"lastInspected"`
}

// Route aggregates the checkpoint sequence for one hospital selection.
// One exists per active selection; a new selection replaces it wholesale.
type Route struct {
	ID               string       `json:"id"`
	Patient          geo.Point    `json:"patient"`
	Hospital         geo.Point    `json:"hospital"`
	HospitalName     string       `json:"hospitalName"`
	TotalKm          float64      `json:"totalKm"`
	Checkpoints      []Checkpoint `json:"checkpoints"`
	CreatedAt        time.Time    `json:"createdAt"`
	EstimatedMinutes float64      `json:"estimatedMinutes"`
	EmergencyMinutes float64      `json:"emergencyMinutes"`
}

// Waypoints returns the ordered path the ambulance follows: patient, each
// checkpoint, hospital.
func (r *Route) Waypoints() []geo.Point {
	pts := make([]geo.Point, 0, len(r.Checkpoints)+2)
	pts = append(pts, r.Patient)
	for _, cp := range r.Checkpoints {
		pts = append(pts, cp.Location)
	}
	if n := len(pts); n == 0 || pts[n-1] != r.Hospital {
		pts = append(pts, r.Hospital)
	}
	return pts
}

// Nearest returns the checkpoint closest to p and its distance in km, or nil
// when the route has no checkpoints.
func (r *Route) Nearest(p geo.Point) (*Checkpoint, float64) {
	var best *Checkpoint
	bestKm := 0.0
	for i := range r.Checkpoints {
		d := geo.Distance(r.Checkpoints[i].Location, p)
		if best == nil || d < bestKm {
			best = &r.Checkpoints[i]
			bestKm = d
		}
	}
	return best, bestKm
}
