package http

import (
	"context"
	"net/http"
	"time"
)

// Server wraps the gin engine in an http.Server so the app can shut it
// down gracefully.
type Server struct {
	Engine *http.Server
}

func NewServer(cfg RouterConfig, addr string) *Server {
	return &Server{
		Engine: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Run() error {
	return s.Engine.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Engine.Shutdown(ctx)
}
