package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/middlewares"
	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/realtime"
	"github.com/gauravbhatt9854/Foody/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	DB *gorm.DB
}

func NewWSController(db *gorm.DB) *WSController {
	return &WSController{DB: db}
}

// clientMessage is what connected sockets may send: room management only.
type clientMessage struct {
	Event string `json:"event"`
	Data  uint   `json:"data"`
}

// Handle upgrades the connection and serves room subscriptions. Staff and
// admin sessions are placed in the staff room on registration; any session
// may join the per-order room of an order it is allowed to see.
func (wc *WSController) Handle(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	realtime.RegisterClient(ws, user.ID, user.Role)
	defer realtime.UnregisterClient(ws)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "join-order-room":
			if wc.canWatchOrder(user, msg.Data) {
				realtime.JoinRoom(ws, realtime.OrderRoom(msg.Data))
			}
		case "leave-order-room":
			realtime.LeaveRoom(ws, realtime.OrderRoom(msg.Data))
		}
	}
}

// canWatchOrder allows staff everywhere and students only on orders they
// placed.
func (wc *WSController) canWatchOrder(user *models.User, orderID uint) bool {
	if user.Role.Can(models.CapStaffOrAdmin) {
		return true
	}

	var count int64
	wc.DB.Model(&models.Order{}).
		Where("id = ? AND customer_id = ?", orderID, user.ID).
		Count(&count)
	return count > 0
}
