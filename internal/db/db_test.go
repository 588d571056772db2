package db

import (
	"testing"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
)

func TestNearestHospitalPrefersEmergencyReady(t *testing.T) {
	patient := geo.Point{Lat: 40.71, Lon: -74.0}
	hospitals := []model.Hospital{
		{ID: "close", Location: geo.Point{Lat: 40.715, Lon: -74.0}, EmergencyReady: false},
		{ID: "far-ready", Location: geo.Point{Lat: 40.80, Lon: -74.0}, EmergencyReady: true},
	}

	got, err := NearestHospital(hospitals, patient)
	if err != nil {
		t.Fatalf("NearestHospital failed: %v", err)
	}
	if got.ID != "far-ready" {
		t.Errorf("picked %s, want the emergency-ready hospital", got.ID)
	}
}

func TestNearestHospitalPicksClosestReady(t *testing.T) {
	patient := geo.Point{Lat: 0, Lon: 0}
	hospitals := []model.Hospital{
		{ID: "a", Location: geo.Point{Lat: 0, Lon: 0.2}, EmergencyReady: true},
		{ID: "b", Location: geo.Point{Lat: 0, Lon: 0.1}, EmergencyReady: true},
		{ID: "c", Location: geo.Point{Lat: 0, Lon: 0.3}, EmergencyReady: true},
	}

	got, err := NearestHospital(hospitals, patient)
	if err != nil {
		t.Fatalf("NearestHospital failed: %v", err)
	}
	if got.ID != "b" {
		t.Errorf("picked %s, want b", got.ID)
	}
}

func TestNearestHospitalFallsBack(t *testing.T) {
	patient := geo.Point{Lat: 0, Lon: 0}
	hospitals := []model.Hospital{
		{ID: "a", Location: geo.Point{Lat: 0, Lon: 0.2}},
		{ID: "b", Location: geo.Point{Lat: 0, Lon: 0.1}},
	}

	got, err := NearestHospital(hospitals, patient)
	if err != nil {
		t.Fatalf("NearestHospital failed: %v", err)
	}
	if got.ID != "b" {
		t.Errorf("picked %s, want closest overall when none is ready", got.ID)
	}

	if _, err := NearestHospital(nil, patient); err == nil {
		t.Error("expected error with no hospitals")
	}
}

func TestSplitSpecialties(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"trauma", []string{"trauma"}},
		{"trauma, cardiology,burn unit", []string{"trauma", "cardiology", "burn unit"}},
		{"trauma,,cardiology, ", []string{"trauma", "cardiology"}},
	}
	for _, c := range cases {
		got := splitSpecialties(c.in)
		if len(got) != len(c.want) {
			t.Errorf("splitSpecialties(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitSpecialties(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}
