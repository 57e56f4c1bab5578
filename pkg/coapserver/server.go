// Package coapserver serves the device-facing telemetry resources.
package coapserver

import (
	"context"
	"fmt"
	"time"

	"github.com/plgd-dev/go-coap/v3/mux"
	coapnet "github.com/plgd-dev/go-coap/v3/net"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"
	"github.com/rs/zerolog"

	"seedbot/pkg/observability"
	"seedbot/pkg/telemetry/controller"
)

const DefaultAddr = "[::]:5683"

type Server struct {
	addr   string
	router *mux.Router
	log    zerolog.Logger
}

func New(addr string, ctrl controller.TelemetryController, log zerolog.Logger) (*Server, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	r := mux.NewRouter()
	r.Use(requestLogger(log))
	routes := map[string]mux.HandlerFunc{
		"/register": ctrl.Register,
		"/discover": ctrl.Discover,
		"/save":     ctrl.Save,
	}
	for path, h := range routes {
		if err := r.Handle(path, h); err != nil {
			return nil, fmt.Errorf("route %s: %w", path, err)
		}
	}
	return &Server{addr: addr, router: r, log: log}, nil
}

// ListenAndServe blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := coapnet.NewListenUDP("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	defer l.Close()
	return s.Serve(ctx, l)
}

func (s *Server) Serve(ctx context.Context, l *coapnet.UDPConn) error {
	srv := udp.NewServer(options.WithMux(s.router))
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			srv.Stop()
		case <-done:
		}
	}()
	s.log.Info().Str("addr", l.LocalAddr().String()).Msg("coap server listening")
	err := srv.Serve(l)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func requestLogger(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next mux.Handler) mux.Handler {
		return mux.HandlerFunc(func(w mux.ResponseWriter, r *mux.Message) {
			start := time.Now()
			path, _ := r.Path()
			next.ServeCOAP(w, r)

			code := "none"
			if m := w.Message(); m != nil {
				code = m.Code().String()
			}
			observability.RecordCoAPRequest(path, code)
			log.Info().
				Str("remote", w.Conn().RemoteAddr().String()).
				Str("method", r.Code().String()).
				Str("path", path).
				Str("code", code).
				Dur("latency", time.Since(start)).
				Msg("coap request")
		})
	}
}
