package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	webrtc "github.com/pion/webrtc/v4"
	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/pkg/iceconfig"
	"github.com/v6meet/signaling-server/pkg/netinfo"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"github.com/v6meet/signaling-server/pkg/wsutils"
	"go.uber.org/fx"
)

type connectedPayload struct {
	Message     string             `json:"message"`
	Sid         string             `json:"sid"`
	IPv6Support bool               `json:"ipv6_support"`
	ServerIPv6  string             `json:"server_ipv6"`
	ICEServers  []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

type signalController struct {
	logger       *slog.Logger
	coordinator  *LifecycleCoordinator
	router       *SignalRouter
	peers        *PeerPool
	roomNotifier *room.RoomNotifier
	netResolver  *netinfo.Resolver
	iceServers   []webrtc.ICEServer
	upgrader     websocket.Upgrader
}

func (ctrl *signalController) wsError(w *wsutils.ThreadSafeWriter, err error) error {
	ctrl.logger.Error(fmt.Sprintf("%s | Err: %s", w.Conn.RemoteAddr(), err))
	w.WriteJSON(mustMessage(EventError, map[string]string{"error": err.Error()}))
	return err
}

// SignalControllerWebsocket is the transport edge: one goroutine per socket
// reading the event stream and dispatching by event tag. Everything after
// the upgrade is best-effort, a broken socket just runs the disconnect path.
func (ctrl *signalController) SignalControllerWebsocket(c echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(c.Response().Writer, c.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", c.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	peer := NewPeerContext(w)
	if err := ctrl.peers.Add(peer); err != nil {
		return ctrl.wsError(w, err)
	}

	ctrl.roomNotifier.Listen(peer.ID, w)
	defer func() {
		ctrl.roomNotifier.Stop(peer.ID)
		ctrl.coordinator.Disconnect(peer)
	}()

	w.WriteJSON(mustMessage(EventConnected, &connectedPayload{
		Message:     "IPv6 connection established",
		Sid:         peer.ID,
		IPv6Support: true,
		ServerIPv6:  ctrl.netResolver.ServerAddress(),
		ICEServers:  ctrl.iceServers,
	}))

	message := &websocketMessage{}
	for {
		if err := w.ReadJSON(message); err != nil {
			// socket closed or unreadable, treat as disconnect
			return nil
		}

		switch message.Event {
		case EventJoinRoom:
			var payload roomEventPayload
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				ctrl.wsError(w, ErrMalformedEvent)
				continue
			}
			if err := ctrl.coordinator.Join(peer, payload.RoomID, payload.UserID); err != nil {
				ctrl.wsError(w, err)
			}

		case EventLeaveRoom:
			var payload roomEventPayload
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				ctrl.wsError(w, ErrMalformedEvent)
				continue
			}
			if err := ctrl.coordinator.Leave(peer, payload.RoomID, payload.UserID); err != nil {
				ctrl.wsError(w, err)
			}

		case EventOffer, EventAnswer, EventCandidate:
			ctrl.router.Relay(message.Event, peer.ID, message.Data)

		default:
			ctrl.wsError(w, ErrWrongMessageEvent)
		}
	}
}

func (ctrl *signalController) Resolve(router protocol.HttpRouter) error {
	go ctrl.roomNotifier.OnUpdateRooms(context.Background(), func(w *wsutils.ThreadSafeWriter) {
		w.WriteJSON(&websocketMessage{Event: EventUpdateRooms})
	})

	router.GET("/ws", ctrl.SignalControllerWebsocket)
	return nil
}

var _ protocol.HttpResolvable = (*signalController)(nil)

type newSignalController_Params struct {
	fx.In

	Logger       *slog.Logger
	Coordinator  *LifecycleCoordinator
	Router       *SignalRouter
	PeerPool     *PeerPool
	RoomNotifier *room.RoomNotifier
	NetResolver  *netinfo.Resolver
}

func NewSignalController(params newSignalController_Params) *signalController {
	return &signalController{
		logger:       params.Logger,
		coordinator:  params.Coordinator,
		router:       params.Router,
		peers:        params.PeerPool,
		roomNotifier: params.RoomNotifier,
		netResolver:  params.NetResolver,
		iceServers:   iceconfig.Servers(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
