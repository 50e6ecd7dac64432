package user

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/fx"
)

type userController struct {
	userService *UserService
}

func (ctrl *userController) UserControllerUserGet(c echo.Context) error {
	u, err := ctrl.userService.Get(c.Param("userID"))
	if err != nil {
		return protocol.APIError(c, http.StatusNotFound, "user not found")
	}

	return protocol.APIResult(c, http.StatusOK, "", map[string]any{"user": u})
}

func (ctrl *userController) Resolve(router protocol.HttpRouter) error {
	router.GET("/api/users/:userID", ctrl.UserControllerUserGet)
	return nil
}

var _ protocol.HttpResolvable = (*userController)(nil)

type newUserController_Params struct {
	fx.In

	UserService *UserService
}

func NewUserController(params newUserController_Params) *userController {
	return &userController{
		userService: params.UserService,
	}
}
