package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
	"github.com/skillswap/skillswap-backend/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

type WSHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	JWTSecret string
}

func NewWSHandler(db *gorm.DB, hub *realtime.Hub, secret string) *WSHandler {
	return &WSHandler{DB: db, Hub: hub, JWTSecret: secret}
}

// Upgrade authenticates the request before the protocol switch. The token
// comes from the auth cookie, or a `token` query param for clients that
// cannot attach cookies to socket requests.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		token = c.Cookies("ss_token")
	}
	if token == "" {
		return fail(c, fiber.StatusUnauthorized, "missing token")
	}

	claims, err := utils.ParseJWT(h.JWTSecret, token)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals("wsUserId", userID)
	return c.Next()
}

// clientFrame is what the browser sends over the socket. Joins carry the
// target id; leave carries the resolved room name it was given back.
type clientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Room string `json:"room,omitempty"`
}

// Serve runs the socket session: one connection per tab, subscriptions via
// join frames instead of extra connections.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("wsUserId").(uuid.UUID)
		if !ok {
			conn.Close()
			return
		}

		client := realtime.NewClient(userID)
		h.Hub.Register(client)
		defer h.Hub.Unregister(client)

		done := make(chan struct{})
		go h.writePump(conn, client, done)
		defer close(done)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var frame clientFrame
			if err := json.Unmarshal(raw, &frame); err != nil {
				continue
			}
			h.handleFrame(client, frame)
		}
	})
}

func (h *WSHandler) writePump(conn *websocket.Conn, client *realtime.Client, done chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-client.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) handleFrame(client *realtime.Client, frame clientFrame) {
	switch frame.Type {
	case "join_dashboard":
		// dashboard room is always the caller's own
		h.Hub.Join(client, realtime.DashboardRoom(client.UserID))

	case "join_project":
		projectID, err := uuid.Parse(frame.ID)
		if err != nil {
			return
		}
		if !h.canWatchProject(client.UserID, projectID) {
			return
		}
		h.Hub.Join(client, realtime.ProjectRoom(projectID))

	case "join_chat":
		convID, err := uuid.Parse(frame.ID)
		if err != nil {
			return
		}
		var conv models.Conversation
		if err := h.DB.First(&conv, "id = ?", convID).Error; err != nil {
			return
		}
		if !conv.HasParticipant(client.UserID) {
			log.Printf("ws: user %s denied chat room %s", client.UserID, convID)
			return
		}
		h.Hub.Join(client, realtime.ChatRoom(convID))

	case "leave":
		if frame.Room != "" {
			h.Hub.Leave(client, frame.Room)
		}

	case "pong":
		// keepalive from clients that answer application-level pings
	}
}

// canWatchProject limits project rooms to people with a stake in it: the
// posting client, the assigned freelancer, or a bidder.
func (h *WSHandler) canWatchProject(userID, projectID uuid.UUID) bool {
	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return false
	}
	if project.ClientID == userID {
		return true
	}
	if project.AssignedFreelancerID != nil && *project.AssignedFreelancerID == userID {
		return true
	}
	var bidCount int64
	h.DB.Model(&models.Bid{}).
		Where("project_id = ? AND freelancer_id = ?", projectID, userID).
		Count(&bidCount)
	return bidCount > 0
}
