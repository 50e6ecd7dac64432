package status

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/internal/signaling"
	"github.com/v6meet/signaling-server/internal/user"
	"github.com/v6meet/signaling-server/pkg/iceconfig"
	"github.com/v6meet/signaling-server/pkg/netinfo"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"github.com/v6meet/signaling-server/pkg/variables"
	"go.uber.org/fx"
)

var supportedFeatures = []string{
	"video_conference",
	"room_management",
	"real_time_communication",
	"ipv6_networking",
}

type statusController struct {
	roomService *room.RoomService
	userService *user.UserService
	peers       *signaling.PeerPool
	router      *signaling.SignalRouter
	netResolver *netinfo.Resolver
}

func (ctrl *statusController) StatusControllerHealth(c echo.Context) error {
	return protocol.APIResult(c, http.StatusOK, "", map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().Format(time.RFC3339),
		"active_connections": ctrl.peers.Count(),
		"active_rooms":       ctrl.roomService.ActiveRoomCount(),
		"ipv6_status":        "enabled",
	})
}

func (ctrl *statusController) StatusControllerStatus(c echo.Context) error {
	relayed, dropped := ctrl.router.Stats()

	return protocol.APIResult(c, http.StatusOK, "", map[string]any{
		"server_version":     variables.Env(variables.SERVER_VERSION_NAME, variables.SERVER_VERSION_DEFAULT),
		"ipv6_address":       ctrl.netResolver.ServerAddress(),
		"active_rooms_count": ctrl.roomService.ActiveRoomCount(),
		"total_users_count":  ctrl.userService.Count(),
		"relayed_messages":   relayed,
		"dropped_deliveries": dropped,
		"supported_features": supportedFeatures,
	})
}

func (ctrl *statusController) StatusControllerServerInfo(c echo.Context) error {
	port := variables.Env(variables.HTTP_PORT_NAME, variables.HTTP_PORT_DEFAULT)

	return protocol.APIResult(c, http.StatusOK, "", map[string]any{
		"ipv6_address":   ctrl.netResolver.ServerAddress(),
		"port":           port,
		"ipv6_only":      true,
		"ipv6_available": ctrl.netResolver.Available(c.Request().Context()),
		"protocols":      []string{"HTTP", "WebSocket"},
		"ice_servers":    iceconfig.Servers(),
		"features":       supportedFeatures,
	})
}

func (ctrl *statusController) Resolve(router protocol.HttpRouter) error {
	router.GET("/api/health", ctrl.StatusControllerHealth)
	router.GET("/api/status", ctrl.StatusControllerStatus)
	router.GET("/api/server_info", ctrl.StatusControllerServerInfo)
	return nil
}

var _ protocol.HttpResolvable = (*statusController)(nil)

type newStatusController_Params struct {
	fx.In

	RoomService *room.RoomService
	UserService *user.UserService
	PeerPool    *signaling.PeerPool
	Router      *signaling.SignalRouter
	NetResolver *netinfo.Resolver
}

func NewStatusController(params newStatusController_Params) *statusController {
	return &statusController{
		roomService: params.RoomService,
		userService: params.UserService,
		peers:       params.PeerPool,
		router:      params.Router,
		netResolver: params.NetResolver,
	}
}
