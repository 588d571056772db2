package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
)

// NATSPublisher fans simulation output onto NATS subjects:
// dispatch.position.<routeID> for ambulance positions and
// dispatch.notify.<targetType>.<targetID> for notification events.
type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics

	lastPos map[string]geo.Point // per route, for heading
}

type PublisherMetrics interface {
	NotificationPublishedInc()
	NotificationErrInc()
	PublishObserve(d time.Duration)
	SetConnected(connected bool)
}

func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("dispatch-sim"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetConnected(true)
	}
	return &NATSPublisher{
		nc:          nc,
		logSubjects: logSubjects,
		metrics:     m,
		lastPos:     make(map[string]geo.Point),
	}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

type PositionMessage struct {
	RouteID   string    `json:"routeId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Progress  float64   `json:"progress"`
	Heading   float64   `json:"heading"`
	Direction string    `json:"direction"`
}

// buildPositionMessage assembles the step payload. Heading is derived from
// the previous published position for the route; the first step of a route
// carries heading 0 / "N".
func (p *NATSPublisher) buildPositionMessage(routeID string, idx, total int, pt geo.Point) PositionMessage {
	progress := 0.0
	if total > 1 {
		progress = float64(idx) / float64(total-1)
	}
	prev, ok := p.lastPos[routeID]
	if !ok && len(p.lastPos) > 0 {
		// one dispatch at a time; drop stale routes
		p.lastPos = make(map[string]geo.Point, 1)
	}
	heading := 0.0
	if ok && prev != pt {
		heading = geo.Bearing(prev, pt)
	}
	p.lastPos[routeID] = pt
	return PositionMessage{
		RouteID:   routeID,
		Timestamp: time.Now(),
		Lat:       pt.Lat,
		Lon:       pt.Lon,
		Index:     idx,
		Total:     total,
		Progress:  progress,
		Heading:   heading,
		Direction: geo.CardinalDirection(heading),
	}
}

// PublishPosition sends the ambulance position for one simulation step.
func (p *NATSPublisher) PublishPosition(routeID string, idx, total int, pt geo.Point) error {
	msg := p.buildPositionMessage(routeID, idx, total, pt)
	subject := fmt.Sprintf("dispatch.position.%s", subjectToken(routeID))
	return p.publish(subject, msg)
}

// Emit publishes a notification event; it satisfies the proximity engine's
// sink contract.
func (p *NATSPublisher) Emit(n model.Notification) error {
	subject := fmt.Sprintf("dispatch.notify.%s.%s",
		subjectToken(string(n.TargetType)), subjectToken(n.TargetID))
	return p.publish(subject, n)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NotificationErrInc()
		} else {
			p.metrics.NotificationPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
