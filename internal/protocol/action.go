// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package protocol defines the envelope wire format exchanged between the
// gateway and its clients.
//
// Every frame is a JSON object {"action": "<Name>", "data": "<string>"}. For
// success payloads data is itself a JSON document serialized into a string
// (double encoding); for Error responses data is the plain message text.
// The types here are transport-agnostic: the websocket server and the bridge
// client both speak them.
package protocol

import "fmt"

// Action identifies the requested operation or the kind of a response.
type Action int

const (
	// ActionUnknown is the zero value and never appears on the wire.
	ActionUnknown Action = iota
	// ActionInit is emitted once by the server when a connection is accepted.
	ActionInit
	// ActionListSchemas lists schemas and their tables.
	ActionListSchemas
	// ActionSample loads a bounded row sample from a table.
	ActionSample
	// ActionRunQuery executes caller supplied SQL text.
	ActionRunQuery
	// ActionError marks failure responses.
	ActionError
)

var actionNames = map[Action]string{
	ActionInit:        "Init",
	ActionListSchemas: "ListSchemas",
	ActionSample:      "Sample",
	ActionRunQuery:    "RunQuery",
	ActionError:       "Error",
}

// legacyNames maps names used by earlier clients onto current actions.
var legacyNames = map[string]Action{
	"LoadTables": ActionListSchemas,
	"LoadTable":  ActionSample,
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames)+len(legacyNames))
	for a, name := range actionNames {
		m[name] = a
	}
	for name, a := range legacyNames {
		m[name] = a
	}
	return m
}()

// String returns the wire name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps a wire name onto an Action. Matching is exact.
func ParseAction(name string) (Action, error) {
	if a, ok := actionsByName[name]; ok {
		return a, nil
	}
	return ActionUnknown, &UnknownActionError{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	name, ok := actionNames[a]
	if !ok {
		return nil, &UnknownActionError{Name: a.String()}
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
