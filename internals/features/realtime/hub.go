// file: internals/features/realtime/hub.go
package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

/* ===================== Events ===================== */

const (
	EventAppointmentBooked      = "appointment.booked"
	EventAppointmentConfirmed   = "appointment.confirmed"
	EventAppointmentReassigned  = "appointment.reassigned"
	EventAppointmentReady       = "appointment.ready_for_payment"
	EventAppointmentFinalized   = "appointment.finalized"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventPaymentAdjusted        = "payment.adjusted"
)

type Event struct {
	Type     string    `json:"type"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Payload  any       `json:"payload,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher pushes events to connected clients. Publishing is best effort;
// it must never block or fail the operation that produced the event.
type Publisher interface {
	Publish(e Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(e Event) {}

/* ===================== Hub ===================== */

// Hub fans events out to websocket subscribers. Each subscriber is pinned to
// the clinic of its session; superadmin sessions (uuid.Nil) receive all
// clinics.
type Hub struct {
	mu   sync.RWMutex
	subs map[*websocket.Conn]uuid.UUID

	// wmu serializes writes; websocket conns allow one concurrent writer.
	wmu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*websocket.Conn]uuid.UUID)}
}

func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload, err := sonic.Marshal(e)
	if err != nil {
		log.Printf("[REALTIME] marshal event %s: %v", e.Type, err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs))
	for conn, clinicID := range h.subs {
		if clinicID == uuid.Nil || clinicID == e.ClinicID {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	var dead []*websocket.Conn
	h.wmu.Lock()
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, conn)
		}
	}
	h.wmu.Unlock()

	for _, conn := range dead {
		h.detach(conn)
	}
}

func (h *Hub) attach(conn *websocket.Conn, clinicID uuid.UUID) {
	h.mu.Lock()
	h.subs[conn] = clinicID
	h.mu.Unlock()
}

func (h *Hub) detach(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.subs, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Handler upgrades the connection and keeps it registered until the client
// goes away. The auth middleware has already stored the session locals.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		clinicID := uuid.Nil
		if raw, ok := conn.Locals("clinic_id").(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				clinicID = id
			}
		}

		h.attach(conn, clinicID)
		defer h.detach(conn)

		// Drain client frames; the feed is one-way.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
