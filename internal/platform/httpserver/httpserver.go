package httpserver

import (
	"net/http"
	"time"
)

// Timeouts bounds how long the server waits on a connection.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler, timeouts Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}
}
