package checkpoint

import "fmt"

// The export document is the one externally shared artifact; its field names
// are a compatibility contract and must not change.

type ExportDocument struct {
	RouteInfo   ExportRouteInfo    `json:"routeInfo"`
	Checkpoints []ExportCheckpoint `json:"checkpoints"`
}

type ExportRouteInfo struct {
	RouteID         string `json:"routeId"`
	TotalDistance   string `json:"totalDistance"`
	EstimatedTime   string `json:"estimatedTime"`
	EmergencyTime   string `json:"emergencyTime"`
	CheckpointCount int    `json:"checkpointCount"`
}

type ExportCheckpoint struct {
	Code              string     `json:"code"`
	Coordinates       [2]float64 `json:"coordinates"` // [lat, lng]
	DistanceFromStart string     `json:"distanceFromStart"`
	Landmark          string     `json:"landmark"`
	Intersection      string     `json:"intersection"`
	Status            string     `json:"status"`
	Facilities        []string   `json:"facilities"`
	EmergencyServices []string   `json:"emergencyServices"`
}

// Export renders the route as the shared human-readable document.
func Export(r *Route) ExportDocument {
	doc := ExportDocument{
		RouteInfo: ExportRouteInfo{
			RouteID:         r.ID,
			TotalDistance:   fmtKm(r.TotalKm),
			EstimatedTime:   fmtMinutes(r.EstimatedMinutes),
			EmergencyTime:   fmtMinutes(r.EmergencyMinutes),
			CheckpointCount: len(r.Checkpoints),
		},
		Checkpoints: make([]ExportCheckpoint, 0, len(r.Checkpoints)),
	}
	for _, cp := range r.Checkpoints {
		doc.Checkpoints = append(doc.Checkpoints, ExportCheckpoint{
			Code:              cp.Code,
			Coordinates:       [2]float64{cp.Location.Lat, cp.Location.Lon},
			DistanceFromStart: fmtKm(cp.DistanceKm),
			Landmark:          cp.Landmark,
			Intersection:      cp.Intersection,
			Status:            string(cp.Status),
			Facilities:        facilityList(cp.Facilities),
			EmergencyServices: serviceList(cp),
		})
	}
	return doc
}

func fmtKm(km float64) string     { return fmt.Sprintf("%.1f km", km) }
func fmtMinutes(m float64) string { return fmt.Sprintf("%.0f minutes", m) }

func facilityList(f Facilities) []string {
	var out []string
	if f.FirstAid {
		out = append(out, "first aid")
	}
	if f.Defibrillator {
		out = append(out, "defibrillator")
	}
	if f.Oxygen {
		out = append(out, "oxygen")
	}
	if f.EmergencyPhone {
		out = append(out, "emergency phone")
	}
	if f.Restroom {
		out = append(out, "restroom")
	}
	if f.Shelter {
		out = append(out, "shelter")
	}
	return out
}

func serviceList(cp Checkpoint) []string {
	return []string{
		fmt.Sprintf("hospital %s", fmtKm(cp.HospitalKm)),
		fmt.Sprintf("fuel %s", fmtKm(cp.FuelKm)),
		fmt.Sprintf("police %s", fmtKm(cp.PoliceKm)),
	}
}
