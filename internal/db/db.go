package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchHospitals returns every hospital on record. Specialties are stored as
// a comma-separated list.
func FetchHospitals(ctx context.Context, db *sql.DB) ([]model.Hospital, error) {
	q := `SELECT id, name, COALESCE(address, ''), latitude, longitude,
	             COALESCE(phone, ''), COALESCE(specialties, ''), emergency_ready
	      FROM hospitals ORDER BY name`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	var out []model.Hospital
	for rows.Next() {
		var h model.Hospital
		var specialties string
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.Location.Lat, &h.Location.Lon,
			&h.Phone, &specialties, &h.EmergencyReady); err != nil {
			return nil, err
		}
		h.Specialties = splitSpecialties(specialties)
		out = append(out, h)
	}
	return out, rows.Err()
}

// FetchTrafficSignals returns the fixed points of interest the proximity
// engine tracks. Statuses always start inactive; the engine owns them from
// there.
func FetchTrafficSignals(ctx context.Context, db *sql.DB) ([]model.TrafficSignal, error) {
	q := `SELECT id, COALESCE(label, ''), latitude, longitude FROM traffic_signals ORDER BY id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query traffic signals: %w", err)
	}
	defer rows.Close()

	var out []model.TrafficSignal
	for rows.Next() {
		var s model.TrafficSignal
		if err := rows.Scan(&s.ID, &s.Label, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, err
		}
		s.Status = model.StatusInactive
		out = append(out, s)
	}
	return out, rows.Err()
}

// NearestHospital returns the hospital closest to p that is flagged
// emergency-ready, falling back to the closest overall.
func NearestHospital(hospitals []model.Hospital, p geo.Point) (model.Hospital, error) {
	var best model.Hospital
	bestKm := -1.0
	for _, h := range hospitals {
		if !h.EmergencyReady {
			continue
		}
		if d := geo.Distance(h.Location, p); bestKm < 0 || d < bestKm {
			best, bestKm = h, d
		}
	}
	if bestKm >= 0 {
		return best, nil
	}
	for _, h := range hospitals {
		if d := geo.Distance(h.Location, p); bestKm < 0 || d < bestKm {
			best, bestKm = h, d
		}
	}
	if bestKm < 0 {
		return model.Hospital{}, fmt.Errorf("no hospitals available")
	}
	return best, nil
}

func splitSpecialties(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
