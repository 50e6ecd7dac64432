package main

import (
	"github.com/v6meet/signaling-server/internal/room"
	"github.com/v6meet/signaling-server/internal/signaling"
	"github.com/v6meet/signaling-server/internal/status"
	"github.com/v6meet/signaling-server/internal/user"
	"github.com/v6meet/signaling-server/pkg/netinfo"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"github.com/v6meet/signaling-server/pkg/service"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			netinfo.NewResolver,

			user.NewUserService,
			room.NewRoomNotifier,
			room.NewRoomService,

			signaling.NewPeerPool,
			signaling.NewSignalRouter,
			signaling.NewLifecycleCoordinator,

			protocol.AsHttpController(room.NewRoomController),
			protocol.AsHttpController(user.NewUserController),
			protocol.AsHttpController(status.NewStatusController),
			protocol.AsHttpController(signaling.NewSignalController),
		),

		service.LoggerModule,
		service.HttpModule,
	).Run()
}
