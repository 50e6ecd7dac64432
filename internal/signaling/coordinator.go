package signaling

import (
	"fmt"
	"log/slog"

	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/pkg/netinfo"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/fx"
)

// LifecycleCoordinator runs the join, leave and disconnect transitions.
// Registry mutation happens inside the room service's lock; the presence
// broadcasts afterwards use point-in-time snapshots, so a connection joining
// mid-broadcast may or may not see that particular event.
type LifecycleCoordinator struct {
	logger      *slog.Logger
	roomService *room.RoomService
	peers       *PeerPool
	router      *SignalRouter
	netResolver *netinfo.Resolver
}

// Join attaches the connection and its user to the room, creating the room
// when the id is unseen, then announces user_joined to the other members.
func (l *LifecycleCoordinator) Join(peer *PeerContext, roomID protocol.RoomID, userID protocol.UserID) error {
	if roomID == "" || userID == "" {
		return ErrMalformedEvent
	}

	if _, err := l.roomService.Attach(peer.ID, roomID, userID); err != nil {
		return err
	}
	peer.SetUser(userID)

	l.logger.Info("user joined room",
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
		slog.String("connection", peer.ID))

	l.router.Announce(EventUserJoined, roomID, peer.ID, &presencePayload{
		UserID:      userID,
		RoomID:      roomID,
		Message:     fmt.Sprintf("user %s joined the room over IPv6", userID),
		Sid:         peer.ID,
		IPv6Support: true,
		ServerIPv6:  l.netResolver.ServerAddress(),
	})
	return nil
}

// Leave detaches the connection and removes the user's membership, then
// announces user_left to whoever is still attached.
func (l *LifecycleCoordinator) Leave(peer *PeerContext, roomID protocol.RoomID, userID protocol.UserID) error {
	if roomID == "" {
		return ErrMalformedEvent
	}

	l.roomService.DetachFromRoom(peer.ID, roomID, userID)

	l.logger.Info("user left room",
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
		slog.String("connection", peer.ID))

	l.router.Announce(EventUserLeft, roomID, peer.ID, &presencePayload{
		UserID:      userID,
		RoomID:      roomID,
		Message:     fmt.Sprintf("user %s left the room", userID),
		Sid:         peer.ID,
		IPv6Support: true,
	})
	return nil
}

// Disconnect clears every room association of the connection. Memberships
// stay, a user who reconnects is still listed in the rooms they joined.
// Tolerates connections that are already fully detached.
func (l *LifecycleCoordinator) Disconnect(peer *PeerContext) {
	detached := l.roomService.DetachAll(peer.ID)
	l.peers.Remove(peer.ID)

	if len(detached) > 0 {
		l.logger.Info("connection detached",
			slog.String("connection", peer.ID),
			slog.Int("rooms", len(detached)))
	}
}

type NewLifecycleCoordinatorParams struct {
	fx.In

	Logger      *slog.Logger
	RoomService *room.RoomService
	PeerPool    *PeerPool
	Router      *SignalRouter
	NetResolver *netinfo.Resolver
}

func NewLifecycleCoordinator(params NewLifecycleCoordinatorParams) *LifecycleCoordinator {
	return &LifecycleCoordinator{
		logger:      params.Logger,
		roomService: params.RoomService,
		peers:       params.PeerPool,
		router:      params.Router,
		netResolver: params.NetResolver,
	}
}
