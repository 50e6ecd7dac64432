package user

import "errors"

var ErrUserNotExist = errors.New("user not exist")
