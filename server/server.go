// Package server implements the framed TCP endpoint described in spec
// component G: a single accept loop, one independent worker per
// connection, alternating READ-MLI and READ-BODY before dispatching to
// the application handler.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/kestrelpay/iso8583"
	"github.com/kestrelpay/iso8583/frame"
)

// Handler decodes and reacts to one inbound message, returning the
// wire bytes of a response (already assembled) and the response
// IsoMsg for logging/introspection. Handlers must be reentrant: the
// server invokes them concurrently, once per connection.
type Handler func(req *iso8583.Message) (responseBytes []byte, response *iso8583.Message, err error)

// Server is the process-lifetime runtime: one listener, one Spec, one
// handler, one MLI variant. Configuration is enumerated per 4.F.
type Server struct {
	addr    string
	spec    *iso8583.Spec
	variant frame.Variant
	handler Handler
	log     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server at construction time, following the
// functional-options idiom used throughout this codebase.
type Option func(*Server)

// WithVariant overrides the default 2E MLI variant.
func WithVariant(v frame.Variant) Option {
	return func(s *Server) { s.variant = v }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a Server bound to addr, spec and handler.
func New(addr string, spec *iso8583.Spec, handler Handler, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		spec:    spec,
		variant: frame.TwoExclusive,
		handler: handler,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds the listener and runs the accept loop until it
// returns a non-recoverable error (e.g. the listener is closed).
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("listening", "addr", s.addr, "mli", s.variant.String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.serveConn(conn)
	}
}

// Close stops the accept loop by closing the listener. In-flight
// connection workers are not torn down; per 5, there is no graceful-
// shutdown protocol specified.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// serveConn runs one connection's worker: alternate READ-MLI and
// READ-BODY, decode, invoke the handler, frame and write the response,
// repeat. A parse/assemble error is logged and the connection stays
// open; an I/O error or clean EOF ends this worker only, per 5 and 7.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	peer := conn.RemoteAddr().String()

	for {
		n, err := frame.Read(reader, s.variant)
		if err != nil {
			if errors.Is(err, frame.ErrConnectionClosed) {
				s.log.Debug("connection closed by peer", "peer", peer)
				return
			}
			s.log.Warn("frame read error, closing connection", "peer", peer, "err", err)
			return
		}

		body, err := frame.ReadPayload(reader, n)
		if err != nil {
			s.log.Warn("body read error, closing connection", "peer", peer, "err", err)
			return
		}

		req, err := s.spec.Parse(body)
		if err != nil {
			s.log.Warn("message parse failed, continuing connection", "peer", peer, "err", err)
			continue
		}

		respBytes, resp, err := s.handler(req)
		if err != nil {
			s.log.Warn("handler error, continuing connection", "peer", peer, "err", err)
			continue
		}

		if err := frame.Write(conn, respBytes, s.variant); err != nil {
			s.log.Warn("response write error, closing connection", "peer", peer, "err", err)
			return
		}
		s.log.Debug("handled message", "peer", peer, "response", resp)
	}
}
