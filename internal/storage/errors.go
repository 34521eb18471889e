package storage

import "errors"

// ErrIndexOutOfRange is returned when a position index does not exist.
var ErrIndexOutOfRange = errors.New("position index out of range")
