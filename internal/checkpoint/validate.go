package checkpoint

import (
	"fmt"
	"time"
)

// staleAfter is how long a checkpoint may go without inspection.
const staleAfter = 30 * 24 * time.Hour

// Report lists what is wrong with a checkpoint and what to do about it.
type Report struct {
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// OK reports whether the checkpoint passed every check.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Validate inspects a single checkpoint. It is pure: the same checkpoint and
// reference time always produce the same report, and it never fails.
func Validate(cp Checkpoint, now time.Time) Report {
	var rep Report

	if cp.Status != StatusOperational {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s is %s", cp.Code, cp.Status))
		rep.Recommendations = append(rep.Recommendations, "route around this checkpoint until it returns to service")
	}
	if now.Sub(cp.LastInspected) > staleAfter {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s inspection is older than 30 days", cp.Code))
		rep.Recommendations = append(rep.Recommendations, "schedule a safety inspection")
	}
	if !cp.Facilities.FirstAid {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s has no first-aid kit", cp.Code))
		rep.Recommendations = append(rep.Recommendations, "stock a first-aid kit")
	}
	if !cp.Facilities.EmergencyPhone {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s has no emergency phone", cp.Code))
		rep.Recommendations = append(rep.Recommendations, "install an emergency phone line")
	}
	if cp.Visibility != "excellent" && cp.Visibility != "good" {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s has %s visibility", cp.Code, cp.Visibility))
		rep.Recommendations = append(rep.Recommendations, "add signage or lighting to improve visibility")
	}
	if !cp.AllHours {
		rep.Issues = append(rep.Issues, fmt.Sprintf("checkpoint %s is not accessible 24/7", cp.Code))
		rep.Recommendations = append(rep.Recommendations, "confirm after-hours access with the site owner")
	}
	return rep
}

// ValidateRoute runs Validate over every checkpoint and aggregates the
// results keyed by code.
func ValidateRoute(r *Route, now time.Time) map[string]Report {
	out := make(map[string]Report, len(r.Checkpoints))
	for _, cp := range r.Checkpoints {
		if rep := Validate(cp, now); !rep.OK() {
			out[cp.Code] = rep
		}
	}
	return out
}
