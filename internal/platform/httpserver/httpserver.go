package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. No WriteTimeout: chunk processing
// runs synchronously on the request and may outlive any fixed deadline.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
