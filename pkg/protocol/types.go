package protocol

type (
	RoomID       = string
	UserID       = string
	ConnectionID = string
)

type RoomCreateOption struct {
	RoomID *string
	UserID UserID
	Name   *string
}
