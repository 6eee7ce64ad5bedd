// Package realtime pushes shipment updates to websocket subscribers.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/middleware/cors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 512
	sendBuffer = 16
)

// Message types written to subscribers.
const (
	TypeStatusUpdate = "status_update"
	TypeGPSUpdate    = "gps_update"
	TypeHeartbeat    = "heartbeat"
	TypeHeartbeatAck = "heartbeat_ack"
)

// StatusUpdate reports a new history entry.
type StatusUpdate struct {
	Type        string    `json:"type"`
	ShipmentID  int64     `json:"shipment_id"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// GPSUpdate reports the coordinates of a history entry.
type GPSUpdate struct {
	Type      string    `json:"type"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Progress  int       `json:"progress"`
	Timestamp time.Time `json:"timestamp"`
}

type inbound struct {
	Type string `json:"type"`
}

type ack struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks subscribers per shipment. Publishing never blocks: a subscriber whose buffer is full is dropped.
type Hub struct {
	mu       sync.RWMutex
	clients  map[int64]map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates an empty hub. Browser handshakes must come from allowedOrigins;
// with an empty list only same-origin pages may connect.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	upgrader := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(allowedOrigins) > 0 {
		allowed := cors.OriginMatcher(allowedOrigins)
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed(origin)
		}
	}
	return &Hub{
		clients:  make(map[int64]map[*Client]struct{}),
		upgrader: upgrader,
		logger:   logger,
	}
}

// Serve upgrades the request and subscribes the connection to shipmentID until it closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, shipmentID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{hub: h, conn: conn, shipmentID: shipmentID, send: make(chan []byte, sendBuffer)}
	h.register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

// Subscribers returns the number of live subscribers for a shipment.
func (h *Hub) Subscribers(shipmentID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[shipmentID])
}

// PublishEvent sends a status update, plus a gps update when the event has coordinates.
func (h *Hub) PublishEvent(shipment *models.Shipment, event *models.TrackingEvent) {
	if shipment == nil || event == nil || h.Subscribers(shipment.ID) == 0 {
		return
	}
	ts := event.DateTime
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	h.broadcast(shipment.ID, StatusUpdate{
		Type:        TypeStatusUpdate,
		ShipmentID:  shipment.ID,
		Status:      event.Status,
		Location:    event.Location,
		Description: event.Description,
		Timestamp:   ts,
	})

	if !event.HasCoordinates() {
		return
	}
	progress := shipment.Status.Progress()
	if status, ok := event.ShipmentStatus(); ok {
		progress = status.Progress()
	}
	h.broadcast(shipment.ID, GPSUpdate{
		Type:      TypeGPSUpdate,
		Lat:       *event.Latitude,
		Lng:       *event.Longitude,
		Progress:  progress,
		Timestamp: ts,
	})
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for client := range set {
			close(client.send)
		}
		delete(h.clients, id)
	}
}

func (h *Hub) broadcast(shipmentID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal realtime message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[shipmentID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("dropping slow realtime subscriber", zap.Int64("shipment_id", shipmentID))
			h.removeLocked(client)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.shipmentID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.shipmentID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.shipmentID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.shipmentID)
	}
}

// reply queues a direct message for c unless its buffer is full.
func (h *Hub) reply(c *Client, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.shipmentID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
