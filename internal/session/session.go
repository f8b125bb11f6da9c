// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session serves one client connection from accept to close.
//
// A session sends Init, then answers every request frame with exactly one
// response frame, in order, until the transport fails or its context is
// cancelled. Request failures become Error responses and the session keeps
// serving; only transport failures end it.
package session

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	gwerrors "tablewire/gateway/internal/errors"
	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/metrics"
	"tablewire/gateway/internal/pivot"
	"tablewire/gateway/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
)

// Transport is a message-oriented client connection. *websocket.Conn satisfies it.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Backend runs the data operations behind the actions.
type Backend interface {
	ListSchemas(ctx context.Context) ([]protocol.Schema, error)
	Sample(ctx context.Context, schema, table string, limit int) ([]pivot.Row, error)
	RunQuery(ctx context.Context, schema, table, sql string) ([]pivot.Row, error)
}

// State is the lifecycle phase of a session.
type State int32

const (
	StateHandshaking State = iota
	StateServing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateServing:
		return "serving"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// handler answers one decoded request with an encoded response frame.
type handler func(ctx context.Context, req protocol.Request) ([]byte, error)

// Session is one client connection. Create with New and run with Serve.
type Session struct {
	id        string
	transport Transport
	backend   Backend
	logger    *pterm.Logger
	metrics   *metrics.Metrics
	handlers  map[protocol.Action]handler
	state     atomic.Int32
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *pterm.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records session and request counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New creates a session in the Handshaking state.
func New(t Transport, b Backend, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		transport: t,
		backend:   b,
		logger:    logging.Discard(),
	}
	s.handlers = map[protocol.Action]handler{
		protocol.ActionListSchemas: s.listSchemas,
		protocol.ActionSample:      s.sample,
		protocol.ActionRunQuery:    s.runQuery,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// State reports the current lifecycle phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Serve runs the session until the client goes away, a transport error
// occurs or ctx is cancelled. It always closes the transport. A clean close
// by either side returns nil; other failures are returned as transport errors.
func (s *Session) Serve(ctx context.Context) (err error) {
	s.metrics.SessionOpened()
	started := time.Now()
	s.logger.Info("session opened", s.logger.Args("session", s.id, "remote", remoteAddr(s.transport)))

	// Unblocks ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = s.transport.Close() })

	defer func() {
		stop()
		s.state.Store(int32(StateClosed))
		_ = s.transport.Close()
		s.metrics.SessionClosed()
		if err != nil {
			s.metrics.Failure(err)
			s.logger.Warn("session failed", s.logger.Args("session", s.id, "error", err.Error()))
			return
		}
		s.logger.Info("session closed", s.logger.Args("session", s.id, "duration", time.Since(started).Round(time.Millisecond).String()))
	}()

	if err := s.write(protocol.EncodeEvent(protocol.ActionInit)); err != nil {
		return s.transportErr(ctx, "send init", err)
	}
	s.state.Store(int32(StateServing))

	for {
		mt, msg, err := s.transport.ReadMessage()
		if err != nil {
			return s.transportErr(ctx, "read", err)
		}
		if mt != websocket.TextMessage || len(bytes.TrimSpace(msg)) == 0 {
			s.logger.Debug("frame ignored", s.logger.Args("session", s.id, "type", mt, "bytes", len(msg)))
			continue
		}
		if err := s.write(s.handle(ctx, msg)); err != nil {
			return s.transportErr(ctx, "write", err)
		}
	}
}

// handle turns one request frame into one response frame.
func (s *Session) handle(ctx context.Context, msg []byte) []byte {
	req, err := protocol.DecodeRequest(msg)
	if err != nil {
		return s.fail(protocol.ActionUnknown, gwerrors.Wrap(gwerrors.Protocol, "", err))
	}
	s.metrics.Request(req.Action.String())

	h, ok := s.handlers[req.Action]
	if !ok {
		return s.fail(req.Action, gwerrors.New(gwerrors.Protocol, fmt.Sprintf("action not supported: %q", req.Action.String())))
	}

	start := time.Now()
	resp, err := h(ctx, req)
	if err != nil {
		return s.fail(req.Action, err)
	}
	s.logger.Debug("request served", s.logger.Args(
		"session", s.id,
		"action", req.Action.String(),
		"bytes", len(resp),
		"duration", time.Since(start).String(),
	))
	return resp
}

func (s *Session) fail(action protocol.Action, err error) []byte {
	s.metrics.Failure(err)
	s.logger.Warn("request failed", s.logger.Args(
		"session", s.id,
		"action", action.String(),
		"kind", string(gwerrors.KindOf(err)),
		"error", logging.Mask(err.Error()),
	))
	return protocol.EncodeError(gwerrors.Describe(err))
}

func (s *Session) listSchemas(ctx context.Context, _ protocol.Request) ([]byte, error) {
	schemas, err := s.backend.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	return encode(protocol.ActionListSchemas, schemas)
}

func (s *Session) sample(ctx context.Context, req protocol.Request) ([]byte, error) {
	args, err := req.SampleArgs()
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Protocol, "", err)
	}
	rows, err := s.backend.Sample(ctx, args.Schema, args.Table, args.Limit)
	if err != nil {
		return nil, err
	}
	return encode(protocol.ActionSample, protocol.NewTableData(args.Schema, args.Table, pivot.Pivot(rows)))
}

func (s *Session) runQuery(ctx context.Context, req protocol.Request) ([]byte, error) {
	args, err := req.QueryArgs()
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Protocol, "", err)
	}
	rows, err := s.backend.RunQuery(ctx, args.Schema, args.Table, args.SQL)
	if err != nil {
		return nil, err
	}
	return encode(protocol.ActionRunQuery, protocol.NewTableData(args.Schema, args.Table, pivot.Pivot(rows)))
}

func encode(action protocol.Action, payload any) ([]byte, error) {
	b, err := protocol.Marshal(action, payload)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Serialization, "", err)
	}
	return b, nil
}

func (s *Session) write(b []byte) error {
	return s.transport.WriteMessage(websocket.TextMessage, b)
}

// transportErr classifies a read or write failure. Shutdown and a normal
// close handshake are not failures.
func (s *Session) transportErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return nil
	}
	if stderrors.Is(err, net.ErrClosed) {
		return nil
	}
	return gwerrors.Wrap(gwerrors.Transport, op, err)
}

func remoteAddr(t Transport) string {
	if ra, ok := t.(interface{ RemoteAddr() net.Addr }); ok && ra.RemoteAddr() != nil {
		return ra.RemoteAddr().String()
	}
	return "unknown"
}
