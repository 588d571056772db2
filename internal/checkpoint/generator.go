package checkpoint

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"dispatch-sim/internal/eta"
	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
)

// DefaultIntervalKm is the spacing between interior checkpoints.
const DefaultIntervalKm = 5.0

// hospitalTailKm: a trailing hospital checkpoint is only appended when the
// leftover distance past the last interior checkpoint exceeds this.
const hospitalTailKm = 2.0

// emergencyShare is the discount applied to the normal estimate for the
// route's emergency travel time.
const emergencyShare = 0.7

const operationalLikelihood = 0.9

// Generator produces checkpoint routes. The random source and clock are
// injected so output is reproducible under a fixed seed.
type Generator struct {
	intervalKm float64
	est        *eta.Estimator
	rng        *rand.Rand
	now        func() time.Time
}

func NewGenerator(intervalKm float64, est *eta.Estimator, rng *rand.Rand, now func() time.Time) *Generator {
	if intervalKm <= 0 {
		intervalKm = DefaultIntervalKm
	}
	if est == nil {
		est = eta.New(eta.ModelTimeOfDay)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{intervalKm: intervalKm, est: est, rng: rng, now: now}
}

// Generate builds the checkpoint route from the patient to the hospital.
// Zero checkpoints is a valid result for short routes.
func (g *Generator) Generate(patient geo.Point, hosp model.Hospital) (*Route, error) {
	if !patient.Valid() {
		return nil, fmt.Errorf("patient location is missing or not a number")
	}
	if hosp.ID == "" {
		return nil, fmt.Errorf("hospital data is missing")
	}
	if !hosp.Location.Valid() {
		return nil, fmt.Errorf("hospital %s has no usable coordinates", hosp.ID)
	}

	now := g.now()
	total := geo.Distance(patient, hosp.Location)
	lms := landmarksFor(patient)

	var cps []Checkpoint
	if total > 0 {
		n := int(total / g.intervalKm)
		for i := 1; i <= n; i++ {
			dist := float64(i) * g.intervalKm
			loc := geo.Interpolate(patient, hosp.Location, dist/total)
			cps = append(cps, g.synthesize(i, loc, dist, total, lms, now))
		}
		if total-float64(n)*g.intervalKm > hospitalTailKm {
			cps = append(cps, g.hospitalCheckpoint(n+1, hosp, total, now))
		}
	}

	estimated := g.est.EstimateDistance(total, false, now)
	return &Route{
		ID:               uuid.NewString(),
		Patient:          patient,
		Hospital:         hosp.Location,
		HospitalName:     hosp.Name,
		TotalKm:          total,
		Checkpoints:      cps,
		CreatedAt:        now,
		EstimatedMinutes: estimated,
		EmergencyMinutes: estimated * emergencyShare,
	}, nil
}

// synthesize enriches an interior checkpoint with deterministic-but-varied
// metadata. Only the operational status and inspection date are stochastic.
func (g *Generator) synthesize(i int, loc geo.Point, dist, total float64, lms []string, now time.Time) Checkpoint {
	cp := Checkpoint{
		ID:         uuid.NewString(),
		Code:       fmt.Sprintf("CP-%02d", i),
		Location:   loc,
		DistanceKm: dist,
		Landmark:   lms[i%len(lms)],
		Intersection: fmt.Sprintf("%s %s & %s %s",
			streetNames[i%len(streetNames)], streetTypes[i%len(streetTypes)],
			streetNames[(i*3+1)%len(streetNames)], streetTypes[(i+1)%len(streetTypes)]),
		StopArea: StopArea{
			Type:     stopAreaTypes[i%len(stopAreaTypes)],
			Capacity: 2 + i%4,
		},
		Facilities: Facilities{
			FirstAid:       true,
			Defibrillator:  i%2 == 0,
			Oxygen:         i%3 == 0,
			EmergencyPhone: true,
			Restroom:       i%2 == 1,
			Shelter:        i%4 == 0,
		},
		Visibility: visibilityRatings[i%len(visibilityRatings)],
		AllHours:   i%5 != 0,
		HospitalKm: total - dist,
		FuelKm:     0.5 + float64((i*7)%30)/10,
		PoliceKm:   1.0 + float64((i*11)%40)/10,
	}
	cp.Status, cp.LastInspected = g.rollCondition(now)
	return cp
}

// hospitalCheckpoint sits exactly at the hospital entrance with the full
// facility set.
func (g *Generator) hospitalCheckpoint(i int, hosp model.Hospital, total float64, now time.Time) Checkpoint {
	cp := Checkpoint{
		ID:           uuid.NewString(),
		Code:         fmt.Sprintf("CP-%02d", i),
		Location:     hosp.Location,
		DistanceKm:   total,
		Landmark:     hosp.Name + " Main Entrance",
		Intersection: "Hospital Access Road",
		StopArea:     StopArea{Type: "ambulance bay", Capacity: 6},
		Facilities: Facilities{
			FirstAid:       true,
			Defibrillator:  true,
			Oxygen:         true,
			EmergencyPhone: true,
			Restroom:       true,
			Shelter:        true,
		},
		Visibility: "excellent",
		AllHours:   true,
		HospitalKm: 0,
		FuelKm:     0.5,
		PoliceKm:   1.0,
		Status:     StatusOperational,
	}
	cp.LastInspected = now.Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour)
	return cp
}

func (g *Generator) rollCondition(now time.Time) (OpStatus, time.Time) {
	status := StatusOperational
	if g.rng.Float64() >= operationalLikelihood {
		status = StatusMaintenance
	}
	inspected := now.Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour)
	return status, inspected
}

// Refresh returns a new snapshot of the route in which only checkpoint
// statuses and inspection dates may have changed. The input is not mutated;
// callers swap the snapshot atomically.
func (g *Generator) Refresh(r *Route) *Route {
	if r == nil {
		return nil
	}
	next := *r
	next.Checkpoints = make([]Checkpoint, len(r.Checkpoints))
	copy(next.Checkpoints, r.Checkpoints)
	now := g.now()
	for i := range next.Checkpoints {
		cp := &next.Checkpoints[i]
		if g.rng.Float64() >= operationalLikelihood {
			cp.Status = StatusMaintenance
		} else {
			cp.Status = StatusOperational
		}
		// a minority of checkpoints get re-inspected each cycle
		if g.rng.Float64() < 0.3 {
			cp.LastInspected = now
		}
	}
	return &next
}
