// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the JSON shape shared by requests and responses.
type envelope struct {
	Action string  `json:"action"`
	Data   *string `json:"data,omitempty"`
}

// Request is a decoded client request. Data holds the still-encoded payload.
type Request struct {
	Action Action
	Data   *string
}

// Response is a decoded server response, as seen by clients.
type Response struct {
	Action Action
	Data   *string
}

// DecodeError reports bytes that are not a valid envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "invalid request envelope: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// UnknownActionError reports an action name outside the known set.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("action not found: %q", e.Name)
}

// DecodeRequest parses a request envelope. Malformed JSON yields *DecodeError,
// an unrecognized action yields *UnknownActionError.
func DecodeRequest(b []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Request{}, &DecodeError{Err: err}
	}
	action, err := ParseAction(env.Action)
	if err != nil {
		return Request{}, err
	}
	return Request{Action: action, Data: env.Data}, nil
}

// DecodeResponse parses a response envelope.
func DecodeResponse(b []byte) (Response, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Response{}, &DecodeError{Err: err}
	}
	action, err := ParseAction(env.Action)
	if err != nil {
		return Response{}, err
	}
	return Response{Action: action, Data: env.Data}, nil
}

// Marshal encodes a response whose data is payload serialized to JSON and
// embedded as a string. It fails only when payload cannot be serialized.
func Marshal(action Action, payload any) ([]byte, error) {
	data, err := marshalJSON(payload)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return encodeEnvelope(action.String(), &s), nil
}

// Encode is Marshal that never fails: a payload serialization error is
// substituted by an Error envelope carrying the failure message.
func Encode(action Action, payload any) []byte {
	b, err := Marshal(action, payload)
	if err != nil {
		return EncodeError(err.Error())
	}
	return b
}

// EncodeEvent encodes an envelope without data, such as Init.
func EncodeEvent(action Action) []byte {
	return encodeEnvelope(action.String(), nil)
}

// EncodeError encodes an Error envelope carrying message as plain text.
func EncodeError(message string) []byte {
	return encodeEnvelope(ActionError.String(), &message)
}

// EncodeRequest encodes a client request. A nil payload omits data.
func EncodeRequest(action Action, payload any) ([]byte, error) {
	if payload == nil {
		return EncodeEvent(action), nil
	}
	return Marshal(action, payload)
}

// Message returns the raw data string, or "" when absent.
func (r Response) Message() string {
	if r.Data == nil {
		return ""
	}
	return *r.Data
}

// Unmarshal decodes the embedded JSON payload into v.
func (r Response) Unmarshal(v any) error {
	if r.Data == nil {
		return fmt.Errorf("%s response carries no data", r.Action)
	}
	return json.Unmarshal([]byte(*r.Data), v)
}

func encodeEnvelope(action string, data *string) []byte {
	// strings only; cannot fail
	b, _ := marshalJSON(envelope{Action: action, Data: data})
	return b
}

// marshalJSON is json.Marshal without HTML escaping, so SQL text such as
// "a < b" survives untouched.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
