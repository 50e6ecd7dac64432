package signaling

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/internal/user"
	"github.com/v6meet/signaling-server/pkg/netinfo"
)

// fakeConn records every message written to it; deliveries run concurrently
// so it has to lock.
type fakeConn struct {
	mu       sync.Mutex
	messages []websocketMessage
	fail     bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("broken pipe")
	}

	msg, ok := v.(*websocketMessage)
	if !ok {
		return errors.New("unexpected message type")
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConn) received(event string) []websocketMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []websocketMessage
	for _, m := range f.messages {
		if m.Event == event {
			result = append(result, m)
		}
	}
	return result
}

type testStack struct {
	rooms       *room.RoomService
	peers       *PeerPool
	router      *SignalRouter
	coordinator *LifecycleCoordinator
}

func newTestStack() *testStack {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := user.NewUserService(user.NewUserServiceParams{Logger: logger})
	rooms := room.NewRoomService(room.NewRoomServiceParams{
		Logger:       logger,
		UserService:  users,
		RoomNotifier: room.NewRoomNotifier(),
	})
	peers := NewPeerPool()
	router := NewSignalRouter(NewSignalRouterParams{
		Logger:      logger,
		RoomService: rooms,
		PeerPool:    peers,
	})
	coordinator := NewLifecycleCoordinator(NewLifecycleCoordinatorParams{
		Logger:      logger,
		RoomService: rooms,
		PeerPool:    peers,
		Router:      router,
		NetResolver: netinfo.NewResolver(),
	})
	return &testStack{rooms: rooms, peers: peers, router: router, coordinator: coordinator}
}

func (s *testStack) connect(t *testing.T) (*PeerContext, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	peer := NewPeerContext(conn)
	if err := s.peers.Add(peer); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return peer, conn
}

func TestRelay(t *testing.T) {
	t.Run("delivers to everyone except the sender", func(t *testing.T) {
		s := newTestStack()
		peerA, connA := s.connect(t)
		peerB, connB := s.connect(t)
		peerC, connC := s.connect(t)
		s.coordinator.Join(peerA, "r1", "u1")
		s.coordinator.Join(peerB, "r1", "u2")
		s.coordinator.Join(peerC, "r1", "u3")

		s.router.Relay(EventOffer, peerA.ID, json.RawMessage(`{"room_id":"r1","sdp":"X"}`))

		if got := connA.received(EventOffer); len(got) != 0 {
			t.Fatalf("sender received its own offer: %v", got)
		}
		for name, conn := range map[string]*fakeConn{"B": connB, "C": connC} {
			msgs := conn.received(EventOffer)
			if len(msgs) != 1 {
				t.Fatalf("peer %s received %d offers, want 1", name, len(msgs))
			}

			var body map[string]any
			if err := json.Unmarshal(msgs[0].Data, &body); err != nil {
				t.Fatalf("unmarshal relayed payload: %v", err)
			}
			if body["sdp"] != "X" {
				t.Fatalf("payload mutated: %v", body)
			}
			if body["ipv6_support"] != true {
				t.Fatalf("missing provenance flag: %v", body)
			}
		}
	})

	t.Run("no cross-room leakage", func(t *testing.T) {
		s := newTestStack()
		peerA, _ := s.connect(t)
		peerB, connB := s.connect(t)
		s.coordinator.Join(peerA, "r1", "u1")
		s.coordinator.Join(peerB, "r2", "u2")

		s.router.Relay(EventCandidate, peerA.ID, json.RawMessage(`{"room_id":"r1","candidate":"c"}`))

		if got := connB.received(EventCandidate); len(got) != 0 {
			t.Fatalf("candidate leaked into another room: %v", got)
		}
	})

	t.Run("unknown room is a silent no-op", func(t *testing.T) {
		s := newTestStack()
		peerA, connA := s.connect(t)
		s.coordinator.Join(peerA, "r1", "u1")

		s.router.Relay(EventOffer, peerA.ID, json.RawMessage(`{"room_id":"ghost","sdp":"X"}`))

		if len(connA.messages) != 0 {
			t.Fatalf("unexpected delivery: %v", connA.messages)
		}
		relayed, dropped := s.router.Stats()
		if relayed != 0 || dropped != 0 {
			t.Fatalf("stats = (%d, %d), want (0, 0)", relayed, dropped)
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		s := newTestStack()
		peerA, _ := s.connect(t)
		peerB, connB := s.connect(t)
		s.coordinator.Join(peerA, "r1", "u1")
		s.coordinator.Join(peerB, "r1", "u2")

		s.router.Relay(EventOffer, peerA.ID, json.RawMessage(`not json`))
		s.router.Relay(EventOffer, peerA.ID, json.RawMessage(`{"sdp":"no room id"}`))

		if got := connB.received(EventOffer); len(got) != 0 {
			t.Fatalf("malformed payload delivered: %v", got)
		}
	})

	t.Run("one broken recipient does not block the rest", func(t *testing.T) {
		s := newTestStack()
		peerA, _ := s.connect(t)
		peerB, connB := s.connect(t)
		s.coordinator.Join(peerA, "r1", "u1")
		s.coordinator.Join(peerB, "r1", "u2")

		broken := &fakeConn{fail: true}
		peerC := NewPeerContext(broken)
		s.peers.Add(peerC)
		s.coordinator.Join(peerC, "r1", "u3")

		s.router.Relay(EventAnswer, peerA.ID, json.RawMessage(`{"room_id":"r1","sdp":"Y"}`))

		if got := connB.received(EventAnswer); len(got) != 1 {
			t.Fatalf("healthy peer received %d answers, want 1", len(got))
		}
		relayed, dropped := s.router.Stats()
		if relayed == 0 || dropped != 1 {
			t.Fatalf("stats = (%d, %d), want deliveries and exactly 1 drop", relayed, dropped)
		}
	})
}
