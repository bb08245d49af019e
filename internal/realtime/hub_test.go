package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return ev
	default:
		t.Fatal("expected a frame, channel empty")
		return Event{}
	}
}

func TestRegisterJoinsUserRoom(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	client := NewClient(userID)

	hub.Register(client)
	defer hub.Unregister(client)

	hub.SendToUser(userID, "notification", map[string]string{"hello": "world"})

	ev := recv(t, client)
	if ev.Event != "notification" {
		t.Fatalf("expected notification event, got %s", ev.Event)
	}
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()
	inRoom := NewClient(uuid.New())
	outside := NewClient(uuid.New())
	hub.Register(inRoom)
	hub.Register(outside)
	defer hub.Unregister(inRoom)
	defer hub.Unregister(outside)

	projectID := uuid.New()
	hub.Join(inRoom, ProjectRoom(projectID))

	hub.Publish(ProjectRoom(projectID), "bid_update", nil)

	if ev := recv(t, inRoom); ev.Event != "bid_update" {
		t.Fatalf("member got %s", ev.Event)
	}
	select {
	case raw := <-outside.Send:
		t.Fatalf("non-member received frame: %s", raw)
	default:
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	client := NewClient(uuid.New())
	hub.Register(client)
	defer hub.Unregister(client)

	convID := uuid.New()
	room := ChatRoom(convID)
	hub.Join(client, room)
	if hub.RoomSize(room) != 1 {
		t.Fatalf("expected 1 member, got %d", hub.RoomSize(room))
	}

	hub.Leave(client, room)
	if hub.RoomSize(room) != 0 {
		t.Fatalf("expected empty room, got %d", hub.RoomSize(room))
	}

	hub.Publish(room, "receive_message", nil)
	select {
	case <-client.Send:
		t.Fatal("received frame after leaving")
	default:
	}
}

func TestUnregisterCleansUpRooms(t *testing.T) {
	hub := NewHub()
	client := NewClient(uuid.New())
	hub.Register(client)

	room := DashboardRoom(client.UserID)
	hub.Join(client, room)

	hub.Unregister(client)

	if hub.RoomSize(room) != 0 {
		t.Fatal("room still has the unregistered client")
	}
	// double unregister must not panic or double-close
	hub.Unregister(client)
}

func TestMultipleConnectionsSameUser(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first := NewClient(userID)
	second := NewClient(userID)
	hub.Register(first)
	hub.Register(second)
	defer hub.Unregister(first)
	defer hub.Unregister(second)

	hub.SendToUser(userID, "notification", nil)

	if ev := recv(t, first); ev.Event != "notification" {
		t.Fatalf("first connection got %s", ev.Event)
	}
	if ev := recv(t, second); ev.Event != "notification" {
		t.Fatalf("second connection got %s", ev.Event)
	}
}
