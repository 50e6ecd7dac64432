package room

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/v6meet/signaling-server/internal/user"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/fx"
)

// Room is the registry-owned record of one conference room. The member set
// and the connection set are distinct on purpose: a user stays a member
// after every socket is gone and only an explicit leave removes membership.
type Room struct {
	id        protocol.RoomID
	name      string
	creator   protocol.UserID
	createdAt time.Time
	members   map[protocol.UserID]struct{}
	conns     map[protocol.ConnectionID]struct{}
	active    bool
	ipv6Only  bool
}

// refreshActive keeps the invariant: active is false iff both sets are empty.
func (r *Room) refreshActive() {
	r.active = len(r.members) > 0 || len(r.conns) > 0
}

type RoomInfo struct {
	ID        protocol.RoomID `json:"id"`
	Name      string          `json:"name"`
	Creator   protocol.UserID `json:"creator"`
	CreatedAt time.Time       `json:"created_at"`
	UserCount int             `json:"user_count"`
	Active    bool            `json:"active"`
	IPv6Only  bool            `json:"ipv6_only"`
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:        r.id,
		Name:      r.name,
		Creator:   r.creator,
		CreatedAt: r.createdAt,
		UserCount: len(r.members),
		Active:    r.active,
		IPv6Only:  r.ipv6Only,
	}
}

func NullableRoomID(roomID *string) protocol.RoomID {
	if roomID != nil && *roomID != "" {
		return *roomID
	}
	return fmt.Sprintf("ipv6_room_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// RoomService owns every room record plus the connection index that resolves
// a disconnect back to the rooms the socket was attached to. All of it is
// guarded by one mutex; mutating operations are short critical sections,
// no caller does network I/O while holding the lock, and broadcasts work on
// snapshots taken here.
type RoomService struct {
	sync.Mutex

	logger       *slog.Logger
	userService  *user.UserService
	roomNotifier *RoomNotifier

	rooms     map[protocol.RoomID]*Room
	order     []protocol.RoomID
	connRooms map[protocol.ConnectionID]map[protocol.RoomID]struct{}
}

func (s *RoomService) newRoomLocked(roomID protocol.RoomID, creator protocol.UserID, name string) *Room {
	if name == "" {
		name = fmt.Sprintf("IPv6 Conference Room %s", roomID)
	}

	r := &Room{
		id:        roomID,
		name:      name,
		creator:   creator,
		createdAt: time.Now(),
		members:   map[protocol.UserID]struct{}{creator: {}},
		conns:     make(map[protocol.ConnectionID]struct{}),
		active:    true,
		ipv6Only:  true,
	}

	if _, seen := s.rooms[roomID]; !seen {
		s.order = append(s.order, roomID)
	}
	s.rooms[roomID] = r
	return r
}

// CreateRoom registers a fresh room. Reusing the identity of a live room is
// refused with ErrRoomAlreadyExists so a client-picked id cannot destroy
// another user's session; an inactive leftover record is overwritten.
func (s *RoomService) CreateRoom(option *protocol.RoomCreateOption) (*RoomInfo, error) {
	if option.UserID == "" {
		return nil, ErrEmptyUserID
	}

	s.Lock()
	roomID := NullableRoomID(option.RoomID)
	if existing, exist := s.rooms[roomID]; exist && existing.active {
		s.Unlock()
		return nil, ErrRoomAlreadyExists
	}

	creator := s.userService.Ensure(option.UserID)

	var name string
	if option.Name != nil {
		name = *option.Name
	}

	r := s.newRoomLocked(roomID, creator.ID, name)
	info := r.Info()
	s.Unlock()

	s.logger.Info("room created",
		slog.String("room_id", roomID),
		slog.String("creator", creator.ID))
	s.roomNotifier.DispatchUpdateRooms()
	return &info, nil
}

func (s *RoomService) GetRoom(roomID protocol.RoomID) (*RoomInfo, error) {
	s.Lock()
	defer s.Unlock()

	r, exist := s.rooms[roomID]
	if !exist {
		return nil, ErrRoomNotExist
	}
	info := r.Info()
	return &info, nil
}

// ListActiveRooms reports active rooms in creation order, so listings are
// stable for a given registry state.
func (s *RoomService) ListActiveRooms() []RoomInfo {
	s.Lock()
	defer s.Unlock()

	result := make([]RoomInfo, 0)
	for _, roomID := range s.order {
		if r, exist := s.rooms[roomID]; exist && r.active {
			result = append(result, r.Info())
		}
	}
	return result
}

// JoinRoom adds the user to an active room's member set. A room that went
// inactive keeps its registry entry but cannot be joined this way, it has
// to be recreated.
func (s *RoomService) JoinRoom(roomID protocol.RoomID, userID protocol.UserID) (*RoomInfo, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	s.Lock()
	r, exist := s.rooms[roomID]
	if !exist || !r.active {
		s.Unlock()
		return nil, ErrRoomNotExist
	}

	u := s.userService.Ensure(userID)
	r.members[u.ID] = struct{}{}
	info := r.Info()
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
	return &info, nil
}

// LeaveRoom removes the user from the member set and reports whether the
// user actually was a member. Emptying both sets deactivates the room.
func (s *RoomService) LeaveRoom(roomID protocol.RoomID, userID protocol.UserID) bool {
	s.Lock()
	r, exist := s.rooms[roomID]
	if !exist {
		s.Unlock()
		return false
	}
	if _, member := r.members[userID]; !member {
		s.Unlock()
		return false
	}

	delete(r.members, userID)
	r.refreshActive()
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
	return true
}

// DeleteRoom hard-removes the record and scrubs the connection index of any
// reference to it. The tracker never outlives the registry entry.
func (s *RoomService) DeleteRoom(roomID protocol.RoomID) bool {
	s.Lock()
	if _, exist := s.rooms[roomID]; !exist {
		s.Unlock()
		return false
	}

	delete(s.rooms, roomID)
	for i, id := range s.order {
		if id == roomID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for connID, roomSet := range s.connRooms {
		delete(roomSet, roomID)
		if len(roomSet) == 0 {
			delete(s.connRooms, connID)
		}
	}
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
	return true
}

// Attach associates a live connection with a room, join-or-create semantics:
// an unseen room id springs into existence with the joining user as creator
// and sole member.
func (s *RoomService) Attach(connID protocol.ConnectionID, roomID protocol.RoomID, userID protocol.UserID) (*RoomInfo, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	s.Lock()
	u := s.userService.Ensure(userID)

	r, exist := s.rooms[roomID]
	if !exist {
		r = s.newRoomLocked(roomID, u.ID, "")
	}

	r.conns[connID] = struct{}{}
	r.members[u.ID] = struct{}{}
	r.refreshActive()

	roomSet, exist := s.connRooms[connID]
	if !exist {
		roomSet = make(map[protocol.RoomID]struct{})
		s.connRooms[connID] = roomSet
	}
	roomSet[roomID] = struct{}{}

	info := r.Info()
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
	return &info, nil
}

// DetachFromRoom drops the connection from the room. An empty userID leaves
// the membership untouched; callers pass the user only on an explicit leave.
func (s *RoomService) DetachFromRoom(connID protocol.ConnectionID, roomID protocol.RoomID, userID protocol.UserID) {
	s.Lock()
	r, exist := s.rooms[roomID]
	if !exist {
		s.Unlock()
		return
	}

	delete(r.conns, connID)
	if userID != "" {
		delete(r.members, userID)
	}
	r.refreshActive()

	if roomSet, exist := s.connRooms[connID]; exist {
		delete(roomSet, roomID)
		if len(roomSet) == 0 {
			delete(s.connRooms, connID)
		}
	}
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
}

// DetachAll resolves a transport disconnect: the connection is removed from
// every room it was attached to, the deactivation rule runs per room, and
// memberships stay as they are. Safe to call for a connection that is
// already fully detached.
func (s *RoomService) DetachAll(connID protocol.ConnectionID) []protocol.RoomID {
	s.Lock()
	roomSet, exist := s.connRooms[connID]
	if !exist {
		s.Unlock()
		return nil
	}

	detached := make([]protocol.RoomID, 0, len(roomSet))
	for roomID := range roomSet {
		if r, exist := s.rooms[roomID]; exist {
			delete(r.conns, connID)
			r.refreshActive()
		}
		detached = append(detached, roomID)
	}
	delete(s.connRooms, connID)
	s.Unlock()

	s.roomNotifier.DispatchUpdateRooms()
	return detached
}

// ConnectionSnapshot copies the room's live connection set minus the sender,
// taken under the lock so broadcast delivery can run without it. A missing
// room yields nil, the relay drops such events silently.
func (s *RoomService) ConnectionSnapshot(roomID protocol.RoomID, exclude protocol.ConnectionID) []protocol.ConnectionID {
	s.Lock()
	defer s.Unlock()

	r, exist := s.rooms[roomID]
	if !exist {
		return nil
	}

	result := make([]protocol.ConnectionID, 0, len(r.conns))
	for connID := range r.conns {
		if connID != exclude {
			result = append(result, connID)
		}
	}
	return result
}

// Members resolves the room's member set to user records. Identities the
// user registry does not know are skipped rather than failing the listing.
func (s *RoomService) Members(roomID protocol.RoomID) ([]*user.User, error) {
	s.Lock()
	r, exist := s.rooms[roomID]
	if !exist {
		s.Unlock()
		return nil, ErrRoomNotExist
	}
	memberIDs := make([]protocol.UserID, 0, len(r.members))
	for userID := range r.members {
		memberIDs = append(memberIDs, userID)
	}
	s.Unlock()

	result := make([]*user.User, 0, len(memberIDs))
	for _, userID := range memberIDs {
		if u, err := s.userService.Get(userID); err == nil {
			result = append(result, u)
		}
	}
	return result, nil
}

func (s *RoomService) ActiveRoomCount() int {
	s.Lock()
	defer s.Unlock()

	count := 0
	for _, r := range s.rooms {
		if r.active {
			count++
		}
	}
	return count
}

type NewRoomServiceParams struct {
	fx.In

	Logger       *slog.Logger
	UserService  *user.UserService
	RoomNotifier *RoomNotifier
}

func NewRoomService(params NewRoomServiceParams) *RoomService {
	return &RoomService{
		logger:       params.Logger,
		userService:  params.UserService,
		roomNotifier: params.RoomNotifier,
		rooms:        make(map[protocol.RoomID]*Room),
		connRooms:    make(map[protocol.ConnectionID]map[protocol.RoomID]struct{}),
	}
}
