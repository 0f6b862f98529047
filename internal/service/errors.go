package service

import "errors"

var (
	ErrNotFound     = errors.New("error not found")
	ErrNotConnected = errors.New("error google drive is not connected")
)
