package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const eventsChannel = "ws:events"

func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}

type bridgeFrame struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Bridge relays hub events across instances through Redis pub/sub. Frames
// published by this instance are skipped on the way back in.
type Bridge struct {
	origin string
	hub    *Hub
	rdb    *redis.Client
}

func NewBridge(hub *Hub, rdb *redis.Client) *Bridge {
	return &Bridge{origin: uuid.New().String(), hub: hub, rdb: rdb}
}

// Publish delivers locally and fans out to the other instances.
func (b *Bridge) Publish(room, event string, data interface{}) {
	b.hub.Publish(room, event, data)

	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("bridge marshal error: %v", err)
		return
	}
	frame, _ := json.Marshal(bridgeFrame{Origin: b.origin, Room: room, Event: event, Data: raw})
	if err := b.rdb.Publish(context.Background(), eventsChannel, frame).Err(); err != nil {
		log.Printf("bridge publish error: %v", err)
	}
}

// Run consumes the shared channel until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, eventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				log.Printf("bridge decode error: %v", err)
				continue
			}
			if frame.Origin == b.origin {
				continue
			}
			b.hub.Publish(frame.Room, frame.Event, frame.Data)
		}
	}
}
