package signaling

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/atomic"
	"go.uber.org/fx"
)

// provenanceKey marks every relayed payload so receivers can tell the
// message went through this server.
const provenanceKey = "ipv6_support"

// SignalRouter fans a signaling event out to every other connection in the
// sender's room. It never interprets negotiation payloads, offer, answer and
// candidate all take the same path.
type SignalRouter struct {
	logger      *slog.Logger
	roomService *room.RoomService
	peers       *PeerPool

	relayed atomic.Uint64
	dropped atomic.Uint64
}

// Relay resolves room_id from the payload, tags the payload with the
// provenance flag and delivers it to the room's connections excluding the
// sender. Unknown rooms and malformed payloads are dropped without an error
// to the sender; a failed delivery to one recipient never affects the rest.
func (r *SignalRouter) Relay(eventKind string, sender protocol.ConnectionID, payload json.RawMessage) {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		r.logger.Debug("dropping malformed relay payload",
			slog.String("event", eventKind),
			slog.String("sender", sender))
		return
	}

	roomID, _ := body["room_id"].(string)
	if roomID == "" {
		return
	}

	connIDs := r.roomService.ConnectionSnapshot(roomID, sender)
	if connIDs == nil {
		// room never existed or was deleted, best-effort signaling drops it
		return
	}

	body[provenanceKey] = true
	data, err := json.Marshal(body)
	if err != nil {
		return
	}

	r.deliver(eventKind, connIDs, json.RawMessage(data))
}

// Announce broadcasts a server-produced event to the room, excluding one
// connection (usually the one that caused the event).
func (r *SignalRouter) Announce(eventKind string, roomID protocol.RoomID, exclude protocol.ConnectionID, payload any) {
	connIDs := r.roomService.ConnectionSnapshot(roomID, exclude)
	if connIDs == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	r.deliver(eventKind, connIDs, data)
}

func (r *SignalRouter) deliver(eventKind string, connIDs []protocol.ConnectionID, data json.RawMessage) {
	message := &websocketMessage{Event: eventKind, Data: data}

	r.peers.ForEachAsync(context.Background(), connIDs, func(peer *PeerContext) error {
		if err := peer.WriteJSON(message); err != nil {
			r.dropped.Inc()
			r.logger.Warn("relay delivery failed",
				slog.String("event", eventKind),
				slog.String("connection", peer.ID))
			return nil
		}
		r.relayed.Inc()
		return nil
	})
}

// Stats reports delivered and dropped message totals since startup.
func (r *SignalRouter) Stats() (relayed, dropped uint64) {
	return r.relayed.Load(), r.dropped.Load()
}

type NewSignalRouterParams struct {
	fx.In

	Logger      *slog.Logger
	RoomService *room.RoomService
	PeerPool    *PeerPool
}

func NewSignalRouter(params NewSignalRouterParams) *SignalRouter {
	return &SignalRouter{
		logger:      params.Logger,
		roomService: params.RoomService,
		peers:       params.PeerPool,
	}
}
