package room

import (
	"context"
	"sync"

	"github.com/v6meet/signaling-server/pkg/executils"
	"github.com/v6meet/signaling-server/pkg/wsutils"
)

// RoomNotifier nudges lobby listeners whenever the active room listing
// changes, so clients refresh without polling.
type RoomNotifier struct {
	listeners     map[string]*wsutils.ThreadSafeWriter
	updateRoomCh  chan struct{}
	updateRoomsMu sync.Mutex
}

func (n *RoomNotifier) Listen(id string, w *wsutils.ThreadSafeWriter) {
	n.updateRoomsMu.Lock()
	defer n.updateRoomsMu.Unlock()
	n.listeners[id] = w
}

func (n *RoomNotifier) Stop(id string) {
	n.updateRoomsMu.Lock()
	defer n.updateRoomsMu.Unlock()
	delete(n.listeners, id)
}

func (n *RoomNotifier) DispatchUpdateRooms() {
	n.updateRoomsMu.Lock()
	defer n.updateRoomsMu.Unlock()

	if len(n.listeners) == 0 {
		return
	}

	n.updateRoomCh <- struct{}{}
}

func (n *RoomNotifier) getListeners() (result []*wsutils.ThreadSafeWriter) {
	n.updateRoomsMu.Lock()
	defer n.updateRoomsMu.Unlock()
	for _, listener := range n.listeners {
		result = append(result, listener)
	}
	return
}

func (n *RoomNotifier) OnUpdateRooms(ctx context.Context, fn func(*wsutils.ThreadSafeWriter)) {
	var threshold uint64 = 1000000
	var step uint64 = 2
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.updateRoomCh:
			executils.ParallelExec(n.getListeners(), threshold, step, fn)
		}
	}
}

func NewRoomNotifier() *RoomNotifier {
	return &RoomNotifier{
		listeners:    make(map[string]*wsutils.ThreadSafeWriter),
		updateRoomCh: make(chan struct{}),
	}
}
