// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge is the client side of the gateway protocol. The CLI's query
// commands use it to talk to a running gateway exactly as any other client
// would: connect, wait for Init, then one request and one response at a time.
package bridge

import (
	"context"
	"fmt"

	"tablewire/gateway/internal/bridge/wsclient"
	"tablewire/gateway/internal/protocol"
)

// Bridge represents a connection to a gateway.
type Bridge interface {
	// Connect dials the gateway at url and waits for its Init frame.
	Connect(ctx context.Context, url string) error
	// Call sends one request and returns the matching response. payload nil
	// sends no data.
	Call(ctx context.Context, action protocol.Action, payload any) (protocol.Response, error)
	Close(ctx context.Context) error
}

// New creates a websocket bridge.
func New() Bridge {
	return &wsclient.Client{}
}

// RemoteError is an Error response from the gateway.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// ListSchemas asks the gateway for its catalog.
func ListSchemas(ctx context.Context, b Bridge) ([]protocol.Schema, error) {
	var out []protocol.Schema
	if err := expect(ctx, b, protocol.ActionListSchemas, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sample fetches up to limit rows of schema.table; limit 0 uses the gateway default.
func Sample(ctx context.Context, b Bridge, schema, table string, limit int) (protocol.TableData, error) {
	var out protocol.TableData
	err := expect(ctx, b, protocol.ActionSample, protocol.SampleArgs{Schema: schema, Table: table, Limit: limit}, &out)
	return out, err
}

// RunQuery executes sql through the gateway.
func RunQuery(ctx context.Context, b Bridge, schema, table, sql string) (protocol.TableData, error) {
	var out protocol.TableData
	err := expect(ctx, b, protocol.ActionRunQuery, protocol.QueryArgs{Schema: schema, Table: table, SQL: sql}, &out)
	return out, err
}

func expect(ctx context.Context, b Bridge, action protocol.Action, payload, out any) error {
	resp, err := b.Call(ctx, action, payload)
	if err != nil {
		return err
	}
	switch resp.Action {
	case action:
		return resp.Unmarshal(out)
	case protocol.ActionError:
		return &RemoteError{Message: resp.Message()}
	default:
		return fmt.Errorf("expected %s response, got %s", action, resp.Action)
	}
}
