package httpserver

import "errors"

var (
	ErrStart    = errors.New("http server failed to start")
	ErrShutdown = errors.New("http server shutdown failed")
	ErrRunning  = errors.New("http server already running")
)
