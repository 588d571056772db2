package checkpoint

import "dispatch-sim/internal/geo"

// region groups the landmark vocabulary for one metro area. Detection is a
// plain bounding-box lookup; a reverse-geocoding provider can replace it
// without touching the generator.
type region struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
	landmarks      []string
}

var regions = []region{
	{
		name:   "new-york",
		minLat: 40.4, maxLat: 41.0, minLon: -74.3, maxLon: -73.6,
		landmarks: []string{
			"Madison Square Garden", "Bryant Park", "Columbus Circle",
			"Union Square", "Grand Army Plaza", "Washington Square Arch",
		},
	},
	{
		name:   "san-francisco",
		minLat: 37.6, maxLat: 37.9, minLon: -122.6, maxLon: -122.2,
		landmarks: []string{
			"Mission Dolores Park", "Ferry Building", "Alamo Square",
			"Golden Gate Park East", "Civic Center Plaza",
		},
	},
	{
		name:   "delhi",
		minLat: 28.4, maxLat: 28.9, minLon: 76.8, maxLon: 77.4,
		landmarks: []string{
			"India Gate Circle", "Connaught Place", "Lotus Temple Road",
			"Hauz Khas Village", "Kashmere Gate",
		},
	},
}

// urbanLandmarks is the fallback table when no bounding box matches.
var urbanLandmarks = []string{
	"Central Market", "City Library", "Riverside Park", "Town Hall",
	"Memorial Fountain", "Transit Terminal", "Old Clock Tower",
}

func landmarksFor(p geo.Point) []string {
	for _, r := range regions {
		if p.Lat >= r.minLat && p.Lat <= r.maxLat && p.Lon >= r.minLon && p.Lon <= r.maxLon {
			return r.landmarks
		}
	}
	return urbanLandmarks
}

var streetNames = []string{
	"Oak", "Maple", "Cedar", "Elm", "Park", "Main", "Hill", "Lake",
	"River", "Washington", "Lincoln", "Church",
}

var streetTypes = []string{"St", "Ave", "Blvd", "Rd"}

var stopAreaTypes = []string{
	"parking lot", "wide shoulder", "service road", "open ground",
}

var visibilityRatings = []string{"excellent", "good", "fair"}
