package model

import (
	"time"

	"dispatch-sim/internal/geo"
)

// Status tracks a point of interest's relationship to the moving ambulance.
type Status string

const (
	StatusInactive    Status = "inactive"
	StatusApproaching Status = "approaching"
	StatusActive      Status = "active"
	StatusPassed      Status = "passed"
)

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusApproaching, StatusActive, StatusPassed:
		return true
	}
	return false
}

// TargetType identifies what a notification is addressed to.
type TargetType string

const (
	TargetHospital TargetType = "hospital"
	TargetSignal   TargetType = "signal"
)

// Hospital is a candidate destination. Immutable once fetched; selection is
// external state.
type Hospital struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Location       geo.Point `json:"location"`
	Phone          string    `json:"phone"`
	Specialties    []string  `json:"specialties"`
	EmergencyReady bool      `json:"emergencyReady"`
}

// TrafficSignal is a fixed point of interest whose status is driven by
// proximity to the ambulance.
type TrafficSignal struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Location geo.Point `json:"location"`
	Status   Status    `json:"status"`
}

// Notification is one entry of the append-only notification log. Only the
// read flag ever changes after creation.
type Notification struct {
	ID         string     `json:"id"`
	TargetType TargetType `json:"targetType"`
	TargetID   string     `json:"targetId"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"createdAt"`
	Read       bool       `json:"read"`
}
