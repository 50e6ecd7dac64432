package signaling

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// messageWriter is the slice of the websocket connection the relay needs.
type messageWriter interface {
	WriteJSON(v any) error
}

// PeerContext ties a live transport connection to the user it most recently
// declared. Room associations live in the room registry, not here.
type PeerContext struct {
	ID protocol.ConnectionID

	mu     sync.Mutex
	userID protocol.UserID
	ws     messageWriter
}

func (p *PeerContext) SetUser(userID protocol.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userID = userID
}

func (p *PeerContext) User() protocol.UserID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

func (p *PeerContext) WriteJSON(v any) error {
	return p.ws.WriteJSON(v)
}

func NewPeerContext(ws messageWriter) *PeerContext {
	return &PeerContext{
		ID: uuid.NewString(),
		ws: ws,
	}
}

// PeerPool resolves connection identifiers to live peers for delivery.
type PeerPool struct {
	peersMu sync.Mutex
	pool    map[protocol.ConnectionID]*PeerContext
}

func (s *PeerPool) Add(peer *PeerContext) error {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	if _, exist := s.pool[peer.ID]; exist {
		return ErrPeerAlreadyExists
	}

	s.pool[peer.ID] = peer
	return nil
}

func (s *PeerPool) Remove(connID protocol.ConnectionID) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	delete(s.pool, connID)
}

func (s *PeerPool) Get(connID protocol.ConnectionID) (*PeerContext, bool) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()

	peer, exist := s.pool[connID]
	return peer, exist
}

func (s *PeerPool) Count() int {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	return len(s.pool)
}

// ForEachAsync runs fn concurrently for every connection id that still
// resolves to a live peer. Ids that vanished between snapshot and delivery
// are skipped, that is the best-effort contract.
func (s *PeerPool) ForEachAsync(ctx context.Context, connIDs []protocol.ConnectionID, fn func(*PeerContext) error) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, connID := range connIDs {
		peer, exist := s.Get(connID)
		if !exist {
			continue
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(peer)
		})
	}

	return g.Wait()
}

func NewPeerPool() *PeerPool {
	return &PeerPool{
		pool: make(map[protocol.ConnectionID]*PeerContext),
	}
}
