package signaling

import "encoding/json"

const (
	EventConnected   = "connected"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventCandidate   = "candidate"
	EventUpdateRooms = "update-rooms"
	EventError       = "error"
)

type websocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// roomEventPayload is the body of inbound join_room and leave_room events.
type roomEventPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// presencePayload is broadcast to a room as user_joined or user_left.
type presencePayload struct {
	UserID      string `json:"user_id"`
	RoomID      string `json:"room_id"`
	Message     string `json:"message"`
	Sid         string `json:"sid"`
	IPv6Support bool   `json:"ipv6_support"`
	ServerIPv6  string `json:"server_ipv6,omitempty"`
}

func mustMessage(event string, payload any) *websocketMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		// payloads are our own structs, a marshal failure is a programmer error
		panic(err)
	}
	return &websocketMessage{Event: event, Data: data}
}
