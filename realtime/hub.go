package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gauravbhatt9854/Foody/models"
)

// Lifecycle event names, matched by the frontend socket handlers.
const (
	EventNewOrder        = "new-order"
	EventOrderStatus     = "order-status-updated"
	EventPaymentUpdated  = "payment-updated"
	EventPaymentReceived = "payment-received"
)

// RoomStaff is the broadcast channel every connected staff/admin session
// receives. Per-order rooms are named by OrderRoom.
const RoomStaff = "staff-room"

// OrderRoom returns the channel name for a single order's updates.
func OrderRoom(orderID uint) string {
	return fmt.Sprintf("order-%d", orderID)
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	userID uint
	role   models.Role
	rooms  map[string]bool
}

// Hub holds every connected session and its room subscriptions. Delivery
// is best effort: no ack, no retry, no replay for late joiners.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]*client),
}

// RegisterClient adds a connection. Staff and admin sessions join the
// staff room immediately.
func RegisterClient(conn *websocket.Conn, userID uint, role models.Role) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	c := &client{
		userID: userID,
		role:   role,
		rooms:  make(map[string]bool),
	}
	if role.Can(models.CapStaffOrAdmin) {
		c.rooms[RoomStaff] = true
	}
	hub.clients[conn] = c
}

// UnregisterClient drops a connection and closes it.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// JoinRoom subscribes a connection to a channel.
func JoinRoom(conn *websocket.Conn, room string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if c, ok := hub.clients[conn]; ok {
		c.rooms[room] = true
	}
}

// LeaveRoom drops a subscription.
func LeaveRoom(conn *websocket.Conn, room string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if c, ok := hub.clients[conn]; ok {
		delete(c.rooms, room)
	}
}

// ClientID reports the user behind a connection, for ownership checks.
func ClientID(conn *websocket.Conn) (uint, models.Role, bool) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	c, ok := hub.clients[conn]
	if !ok {
		return 0, "", false
	}
	return c.userID, c.role, true
}

// Publish sends an event to every member of a room. Fire and forget: a
// write failure is logged and never propagated, so a dead socket can never
// fail the state mutation that triggered the event.
func Publish(room, event string, data interface{}) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("realtime: marshal %s: %v", event, err)
		return
	}

	for conn, c := range hub.clients {
		if !c.rooms[room] {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("realtime: write %s to user %d: %v", event, c.userID, err)
		}
	}
}
