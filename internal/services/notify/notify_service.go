package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
)

// Notifier persists a notification row, pushes it over the hub to the
// recipient's open connections, and publishes to the per-user Redis channel
// for any out-of-process consumers.
type Notifier struct {
	DB     *gorm.DB
	Bridge *realtime.Bridge
	Hub    *realtime.Hub
	RDB    *redis.Client
}

func NewNotifier(db *gorm.DB, hub *realtime.Hub, bridge *realtime.Bridge, rdb *redis.Client) *Notifier {
	return &Notifier{DB: db, Hub: hub, Bridge: bridge, RDB: rdb}
}

func (n *Notifier) Push(userID uuid.UUID, typ, title, message string, data map[string]interface{}) {
	var payload datatypes.JSON
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			payload = raw
		}
	}

	notif := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    payload,
	}
	if err := n.DB.Create(&notif).Error; err != nil {
		log.Println("failed to persist notification:", err)
		return
	}

	n.Hub.SendToUser(userID, "notification", notif)

	raw, _ := json.Marshal(notif)
	if err := n.RDB.Publish(context.Background(), "notifications:"+userID.String(), raw).Err(); err != nil {
		log.Println("failed to publish notification:", err)
	}
}
