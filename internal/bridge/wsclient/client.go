// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package wsclient implements the bridge over a gorilla websocket connection.
package wsclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tablewire/gateway/internal/protocol"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// ErrNotConnected is returned by Call before Connect succeeds or after Close.
var ErrNotConnected = errors.New("not connected to gateway")

// Client is a single gateway connection. Calls are serialized; the gateway
// answers requests in order so one in flight at a time is all a caller needs.
type Client struct {
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// Header is sent with the upgrade request, e.g. an Origin.
	Header http.Header

	mu   sync.Mutex
	conn *websocket.Conn
}

// Connect dials url and waits for the Init frame.
func (c *Client) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return errors.New("already connected")
	}
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, c.Header)
	if err != nil {
		if resp != nil {
			return errors.Wrapf(err, "dial %s: HTTP %d", url, resp.StatusCode)
		}
		return errors.Wrapf(err, "dial %s", url)
	}

	first, err := read(ctx, conn)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "waiting for Init")
	}
	if first.Action != protocol.ActionInit {
		conn.Close()
		return errors.Newf("expected Init, got %s", first.Action)
	}
	c.conn = conn
	return nil
}

// Call sends one request and reads the next response.
func (c *Client) Call(ctx context.Context, action protocol.Action, payload any) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return protocol.Response{}, ErrNotConnected
	}
	msg, err := protocol.EncodeRequest(action, payload)
	if err != nil {
		return protocol.Response{}, errors.Wrapf(err, "encode %s request", action)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.drop()
		return protocol.Response{}, errors.Wrapf(err, "send %s", action)
	}

	resp, err := read(ctx, c.conn)
	if err != nil {
		// a response may still arrive later; the connection can no longer pair them
		c.drop()
		return protocol.Response{}, errors.Wrapf(err, "read %s response", action)
	}
	return resp, nil
}

func (c *Client) drop() {
	_ = c.conn.Close()
	c.conn = nil
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	deadline := time.Now().Add(closeGrace)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	err := c.conn.Close()
	c.conn = nil
	return err
}

// read returns the next text frame as a response. The read is abandoned
// when ctx ends by closing the connection underneath it.
func read(ctx context.Context, conn *websocket.Conn) (protocol.Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return protocol.Response{}, ctx.Err()
			}
			return protocol.Response{}, err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return protocol.DecodeResponse(msg)
	}
}
