// Package eta estimates travel time between two points using fixed-speed
// heuristics. Two models coexist because callers historically relied on both:
// a time-of-day model with rush-hour and late-night factors, and a flat model
// that discounts emergency runs to 70% of the normal estimate.
package eta

import (
	"fmt"
	"time"

	"dispatch-sim/internal/geo"
)

// Model names an estimation strategy.
type Model string

const (
	// ModelTimeOfDay uses per-mode base speeds (35 km/h normal, 45 km/h
	// emergency), per-mode traffic penalties (x1.3 / x1.1) and a
	// time-of-day factor (x1.4 in rush hours, x0.8 late night).
	ModelTimeOfDay Model = "timeofday"
	// ModelFlat uses a single 55 km/h base speed; emergency runs are 70%
	// of the normal estimate.
	ModelFlat Model = "flat"
)

// ParseModel validates a model name from configuration.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelTimeOfDay, ModelFlat:
		return Model(s), nil
	case "":
		return ModelTimeOfDay, nil
	}
	return "", fmt.Errorf("unknown eta model %q", s)
}

const (
	normalSpeedKmh    = 35.0
	emergencySpeedKmh = 45.0
	flatSpeedKmh      = 55.0

	normalTrafficPenalty    = 1.3
	emergencyTrafficPenalty = 1.1

	rushHourFactor  = 1.4
	lateNightFactor = 0.8

	emergencyDiscount = 0.7
)

// Estimator converts distance, mode and time of day into minutes.
type Estimator struct {
	model Model
}

func New(model Model) *Estimator {
	return &Estimator{model: model}
}

func (e *Estimator) Model() Model { return e.model }

// Estimate returns the travel time in minutes between a and b. The result is
// never below 1 minute. The clock is an explicit argument so the function
// stays pure.
func (e *Estimator) Estimate(a, b geo.Point, emergency bool, at time.Time) float64 {
	return e.EstimateDistance(geo.Distance(a, b), emergency, at)
}

// EstimateDistance is Estimate for a precomputed distance in km.
func (e *Estimator) EstimateDistance(km float64, emergency bool, at time.Time) float64 {
	var minutes float64
	switch e.model {
	case ModelFlat:
		minutes = km / flatSpeedKmh * 60
		if emergency {
			minutes *= emergencyDiscount
		}
	default: // ModelTimeOfDay
		speed := normalSpeedKmh
		penalty := normalTrafficPenalty
		if emergency {
			speed = emergencySpeedKmh
			penalty = emergencyTrafficPenalty
		}
		minutes = km / speed * 60 * penalty * timeOfDayFactor(at)
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// timeOfDayFactor applies a surcharge during the 07-09 and 17-19 rush windows
// and a discount between 23:00 and 05:00.
func timeOfDayFactor(at time.Time) float64 {
	h := at.Hour()
	switch {
	case (h >= 7 && h < 9) || (h >= 17 && h < 19):
		return rushHourFactor
	case h >= 23 || h < 5:
		return lateNightFactor
	}
	return 1.0
}
