package signaling

import "errors"

var (
	ErrPeerAlreadyExists = errors.New("peer already exists, remove it first")
	ErrMalformedEvent    = errors.New("malformed event payload")
	ErrWrongMessageEvent = errors.New("wrong message event")
)
