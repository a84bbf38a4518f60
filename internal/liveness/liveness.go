// Package liveness serves the keep-alive page polled by uptime monitors.
package liveness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const Message = "Bot is online!"

// Handler answers GET / with Message.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, Message); err != nil {
			slog.Debug("failed to write liveness response", "error", err)
		}
	})
	return mux
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run serves until ctx ends, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("liveness endpoint listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
