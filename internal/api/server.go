// Package api exposes the dispatch core over HTTP for the dashboard.
package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatch-sim/internal/checkpoint"
	"dispatch-sim/internal/db"
	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
	"dispatch-sim/internal/sim"
	"dispatch-sim/internal/store"
)

type Server struct {
	mgr       *sim.Manager
	repo      store.Repository
	hospitals []model.Hospital
}

func NewServer(mgr *sim.Manager, repo store.Repository, hospitals []model.Hospital) *Server {
	return &Server{mgr: mgr, repo: repo, hospitals: hospitals}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/hospitals", s.listHospitals)
		api.POST("/dispatch", s.dispatch)
		api.GET("/route", s.currentRoute)
		api.GET("/notifications", s.listNotifications)
		api.POST("/notifications/:id/read", s.markRead)
	}
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type hospitalEntry struct {
	model.Hospital
	DistanceKm float64 `json:"distanceKm"`
	BlockKm    float64 `json:"blockKm"`
	Direction  string  `json:"direction"`
}

// listHospitals returns every hospital. With lat/lng query parameters each
// entry is enriched with straight-line and city-block distances and the
// compass direction from the caller's position.
func (s *Server) listHospitals(c *gin.Context) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusOK, gin.H{"hospitals": s.hospitals})
		return
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be numbers"})
		return
	}
	from := geo.Point{Lat: lat, Lon: lng}

	entries := make([]hospitalEntry, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		entries = append(entries, hospitalEntry{
			Hospital:   h,
			DistanceKm: geo.Distance(from, h.Location),
			BlockKm:    geo.ManhattanDistance(from, h.Location),
			Direction:  geo.CardinalDirection(geo.Bearing(from, h.Location)),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].DistanceKm < entries[j].DistanceKm })
	c.JSON(http.StatusOK, gin.H{"hospitals": entries})
}

// Coordinates are pointers so that 0 (equator, prime meridian) binds as a
// present value instead of tripping the required check.
type dispatchRequest struct {
	PatientLat *float64 `json:"patientLat" binding:"required"`
	PatientLng *float64 `json:"patientLng" binding:"required"`
	HospitalID string   `json:"hospitalId"`
}

// dispatch starts a new simulation. When no hospital is named, the nearest
// emergency-ready one is selected.
func (s *Server) dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patient := geo.Point{Lat: *req.PatientLat, Lon: *req.PatientLng}

	var hosp model.Hospital
	if req.HospitalID != "" {
		found := false
		for _, h := range s.hospitals {
			if h.ID == req.HospitalID {
				hosp, found = h, true
				break
			}
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "hospital not found"})
			return
		}
	} else {
		var err error
		hosp, err = db.NearestHospital(s.hospitals, patient)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}

	route, err := s.mgr.Dispatch(patient, hosp)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checkpoint.Export(route))
}

// currentRoute returns the export document for the active route. 404 means
// nothing is dispatched; callers render an empty/pending state.
func (s *Server) currentRoute(c *gin.Context) {
	route := s.mgr.CurrentRoute()
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active route"})
		return
	}
	c.JSON(http.StatusOK, checkpoint.Export(route))
}

func (s *Server) listNotifications(c *gin.Context) {
	limit := 50
	notifications, err := s.repo.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	unread, err := s.repo.UnreadCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread": unread})
}

func (s *Server) markRead(c *gin.Context) {
	if err := s.repo.MarkRead(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
