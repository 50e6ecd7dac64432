package room

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/fx"
)

type roomController struct {
	roomService *RoomService
}

type roomCreateRequest struct {
	RoomID   *string `json:"room_id"`
	UserID   string  `json:"user_id"`
	RoomName *string `json:"room_name"`
}

func (ctrl *roomController) RoomControllerRoomCreate(c echo.Context) error {
	req := new(roomCreateRequest)
	if err := c.Bind(req); err != nil {
		return protocol.APIError(c, http.StatusBadRequest, "request body must be JSON")
	}
	if req.UserID == "" {
		return protocol.APIError(c, http.StatusBadRequest, "user id must not be empty")
	}

	info, err := ctrl.roomService.CreateRoom(&protocol.RoomCreateOption{
		RoomID: req.RoomID,
		UserID: req.UserID,
		Name:   req.RoomName,
	})
	switch {
	case errors.Is(err, ErrRoomAlreadyExists):
		return protocol.APIError(c, http.StatusConflict, "room id already in use")
	case err != nil:
		return protocol.APIError(c, http.StatusBadRequest, err.Error())
	}

	return protocol.APIResult(c, http.StatusCreated, "room created", map[string]any{"room": info})
}

func (ctrl *roomController) RoomControllerRoomList(c echo.Context) error {
	rooms := ctrl.roomService.ListActiveRooms()
	return protocol.APIResult(c, http.StatusOK, "", map[string]any{
		"rooms":       rooms,
		"total_count": len(rooms),
	})
}

func (ctrl *roomController) RoomControllerRoomGet(c echo.Context) error {
	info, err := ctrl.roomService.GetRoom(c.Param("roomID"))
	if err != nil {
		return protocol.APIError(c, http.StatusNotFound, "room not found")
	}
	return protocol.APIResult(c, http.StatusOK, "", map[string]any{"room": info})
}

type roomJoinRequest struct {
	UserID string `json:"user_id"`
}

func (ctrl *roomController) RoomControllerRoomJoin(c echo.Context) error {
	req := new(roomJoinRequest)
	if err := c.Bind(req); err != nil {
		return protocol.APIError(c, http.StatusBadRequest, "request body must be JSON")
	}
	if req.UserID == "" {
		return protocol.APIError(c, http.StatusBadRequest, "user id must not be empty")
	}

	info, err := ctrl.roomService.JoinRoom(c.Param("roomID"), req.UserID)
	if err != nil {
		return protocol.APIError(c, http.StatusNotFound, "room not found or closed")
	}

	return protocol.APIResult(c, http.StatusOK, "joined room", map[string]any{"room": info})
}

func (ctrl *roomController) RoomControllerRoomMembers(c echo.Context) error {
	roomID := c.Param("roomID")
	members, err := ctrl.roomService.Members(roomID)
	if err != nil {
		return protocol.APIError(c, http.StatusNotFound, "room not found")
	}

	return protocol.APIResult(c, http.StatusOK, "", map[string]any{
		"room_id":    roomID,
		"users":      members,
		"user_count": len(members),
	})
}

func (ctrl *roomController) RoomControllerRoomDelete(c echo.Context) error {
	if !ctrl.roomService.DeleteRoom(c.Param("roomID")) {
		return protocol.APIError(c, http.StatusNotFound, "room not found")
	}
	return protocol.APIResult(c, http.StatusOK, "room deleted", nil)
}

func (ctrl *roomController) Resolve(router protocol.HttpRouter) error {
	router.POST("/api/rooms", ctrl.RoomControllerRoomCreate)
	router.GET("/api/rooms", ctrl.RoomControllerRoomList)
	router.GET("/api/rooms/:roomID", ctrl.RoomControllerRoomGet)
	router.POST("/api/rooms/:roomID/join", ctrl.RoomControllerRoomJoin)
	router.GET("/api/rooms/:roomID/users", ctrl.RoomControllerRoomMembers)
	router.DELETE("/api/rooms/:roomID", ctrl.RoomControllerRoomDelete)
	return nil
}

var _ protocol.HttpResolvable = (*roomController)(nil)

type newRoomController_Params struct {
	fx.In

	RoomService *RoomService
}

func NewRoomController(params newRoomController_Params) *roomController {
	return &roomController{
		roomService: params.RoomService,
	}
}
