package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"meetmed/internal/config"

	"github.com/rs/zerolog"
)

// HTTPServer serves the REST API.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	var serverLogger zerolog.Logger
	if logger != nil {
		serverLogger = logger.With().Str("component", "http").Logger()
	} else {
		serverLogger = zerolog.Nop()
	}

	writeTimeout := cfg.HTTP.RequestTimeout + 5*time.Second
	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           NewRouter(svc, cfg, logger),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		log: serverLogger,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
