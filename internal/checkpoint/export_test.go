package checkpoint

import (
	"encoding/json"
	"testing"
	"time"

	"dispatch-sim/internal/geo"
)

func exportFixture() *Route {
	return &Route{
		ID:               "route-1",
		TotalKm:          8.5064,
		EstimatedMinutes: 18.96,
		EmergencyMinutes: 13.27,
		Checkpoints: []Checkpoint{
			{
				Code:         "CP-01",
				Location:     geo.Point{Lat: 40.72, Lon: -74.0},
				DistanceKm:   5,
				Landmark:     "Bryant Park",
				Intersection: "Oak St & Washington Ave",
				Status:       StatusOperational,
				Facilities: Facilities{
					FirstAid:       true,
					EmergencyPhone: true,
					Restroom:       true,
				},
				HospitalKm: 3.5064,
				FuelKm:     1.2,
				PoliceKm:   1.8,
			},
		},
	}
}

func TestExportDocumentShape(t *testing.T) {
	doc := Export(exportFixture())

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"routeInfo", "checkpoints"} {
		if _, ok := top[key]; !ok {
			t.Fatalf("document missing %q key: %s", key, raw)
		}
	}

	var info map[string]any
	if err := json.Unmarshal(top["routeInfo"], &info); err != nil {
		t.Fatalf("routeInfo unmarshal failed: %v", err)
	}
	for _, key := range []string{"routeId", "totalDistance", "estimatedTime", "emergencyTime", "checkpointCount"} {
		if _, ok := info[key]; !ok {
			t.Errorf("routeInfo missing %q: %s", key, top["routeInfo"])
		}
	}

	var cps []map[string]any
	if err := json.Unmarshal(top["checkpoints"], &cps); err != nil {
		t.Fatalf("checkpoints unmarshal failed: %v", err)
	}
	if len(cps) != 1 {
		t.Fatalf("got %d exported checkpoints, want 1", len(cps))
	}
	for _, key := range []string{"code", "coordinates", "distanceFromStart", "landmark", "intersection", "status", "facilities", "emergencyServices"} {
		if _, ok := cps[0][key]; !ok {
			t.Errorf("checkpoint missing %q: %s", key, top["checkpoints"])
		}
	}
}

func TestExportFormatting(t *testing.T) {
	doc := Export(exportFixture())

	if doc.RouteInfo.TotalDistance != "8.5 km" {
		t.Errorf("totalDistance = %q", doc.RouteInfo.TotalDistance)
	}
	if doc.RouteInfo.EstimatedTime != "19 minutes" {
		t.Errorf("estimatedTime = %q", doc.RouteInfo.EstimatedTime)
	}
	if doc.RouteInfo.EmergencyTime != "13 minutes" {
		t.Errorf("emergencyTime = %q", doc.RouteInfo.EmergencyTime)
	}
	if doc.RouteInfo.CheckpointCount != 1 {
		t.Errorf("checkpointCount = %d", doc.RouteInfo.CheckpointCount)
	}

	cp := doc.Checkpoints[0]
	if cp.Coordinates != [2]float64{40.72, -74.0} {
		t.Errorf("coordinates = %v, want [lat lng]", cp.Coordinates)
	}
	if cp.DistanceFromStart != "5.0 km" {
		t.Errorf("distanceFromStart = %q", cp.DistanceFromStart)
	}

	wantFacilities := []string{"first aid", "emergency phone", "restroom"}
	if len(cp.Facilities) != len(wantFacilities) {
		t.Fatalf("facilities = %v", cp.Facilities)
	}
	for i, f := range wantFacilities {
		if cp.Facilities[i] != f {
			t.Fatalf("facilities = %v, want %v", cp.Facilities, wantFacilities)
		}
	}

	wantServices := []string{"hospital 3.5 km", "fuel 1.2 km", "police 1.8 km"}
	for i, s := range wantServices {
		if cp.EmergencyServices[i] != s {
			t.Fatalf("emergencyServices = %v, want %v", cp.EmergencyServices, wantServices)
		}
	}
}

func TestExportEmptyRoute(t *testing.T) {
	doc := Export(&Route{ID: "route-2", EstimatedMinutes: 1, EmergencyMinutes: 0.7})
	if doc.RouteInfo.CheckpointCount != 0 {
		t.Errorf("checkpointCount = %d", doc.RouteInfo.CheckpointCount)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	// an empty route still serializes an array, not null
	if string(top["checkpoints"]) != "[]" {
		t.Errorf("checkpoints = %s, want []", top["checkpoints"])
	}
}

func TestValidateFlagsEachIssue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	good := Checkpoint{
		Code:          "CP-01",
		Status:        StatusOperational,
		LastInspected: now.Add(-24 * time.Hour),
		Facilities:    Facilities{FirstAid: true, EmergencyPhone: true},
		Visibility:    "good",
		AllHours:      true,
	}
	if rep := Validate(good, now); !rep.OK() {
		t.Fatalf("clean checkpoint reported issues: %v", rep.Issues)
	}

	bad := good
	bad.Status = StatusMaintenance
	bad.LastInspected = now.Add(-45 * 24 * time.Hour)
	bad.Facilities = Facilities{}
	bad.Visibility = "fair"
	bad.AllHours = false

	rep := Validate(bad, now)
	if rep.OK() {
		t.Fatal("degraded checkpoint reported no issues")
	}
	if len(rep.Issues) != 6 {
		t.Fatalf("got %d issues, want 6: %v", len(rep.Issues), rep.Issues)
	}
	if len(rep.Recommendations) != len(rep.Issues) {
		t.Fatalf("issues and recommendations out of step: %d vs %d", len(rep.Issues), len(rep.Recommendations))
	}

	// pure: same inputs, same report
	again := Validate(bad, now)
	if len(again.Issues) != len(rep.Issues) {
		t.Fatal("Validate is not deterministic")
	}
}

func TestValidateRouteKeysByCode(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r := &Route{Checkpoints: []Checkpoint{
		{
			Code: "CP-01", Status: StatusOperational, LastInspected: now,
			Facilities: Facilities{FirstAid: true, EmergencyPhone: true},
			Visibility: "excellent", AllHours: true,
		},
		{
			Code: "CP-02", Status: StatusOutOfService, LastInspected: now,
			Facilities: Facilities{FirstAid: true, EmergencyPhone: true},
			Visibility: "excellent", AllHours: true,
		},
	}}

	out := ValidateRoute(r, now)
	if len(out) != 1 {
		t.Fatalf("got %d flagged checkpoints, want 1: %v", len(out), out)
	}
	if rep, ok := out["CP-02"]; !ok || rep.OK() {
		t.Fatalf("CP-02 not flagged: %v", out)
	}
}
