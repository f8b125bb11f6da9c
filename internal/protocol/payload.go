// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package protocol

import (
	"encoding/json"
	"fmt"

	"tablewire/gateway/internal/pivot"
)

// Schema is one catalog entry returned by ListSchemas.
type Schema struct {
	Name   string   `json:"name"`
	Tables []string `json:"tables"`
}

// TableData is the payload of Sample and RunQuery responses.
type TableData struct {
	Schema   string        `json:"schema"`
	Table    string        `json:"table"`
	RowCount int           `json:"row_count"`
	Fields   []pivot.Field `json:"fields"`
}

// NewTableData labels a pivoted column set with the schema and table it came from.
func NewTableData(schema, table string, set pivot.ColumnSet) TableData {
	fields := set.Fields
	if fields == nil {
		fields = []pivot.Field{}
	}
	return TableData{
		Schema:   schema,
		Table:    table,
		RowCount: set.RowCount,
		Fields:   fields,
	}
}

// PayloadError reports request data that does not match the action's shape.
type PayloadError struct {
	Action Action
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid data for %s: %s", e.Action, e.Reason)
}

// SampleArgs is the Sample request payload: [schema, table] or [schema, table, limit].
// A zero Limit means the server default.
type SampleArgs struct {
	Schema string
	Table  string
	Limit  int
}

// MarshalJSON encodes the arguments as a JSON tuple.
func (a SampleArgs) MarshalJSON() ([]byte, error) {
	if a.Limit > 0 {
		return marshalJSON([]any{a.Schema, a.Table, a.Limit})
	}
	return marshalJSON([]string{a.Schema, a.Table})
}

// QueryArgs is the RunQuery request payload: [schema, table, sql].
type QueryArgs struct {
	Schema string
	Table  string
	SQL    string
}

// MarshalJSON encodes the arguments as a JSON tuple.
func (a QueryArgs) MarshalJSON() ([]byte, error) {
	return marshalJSON([]string{a.Schema, a.Table, a.SQL})
}

// SampleArgs decodes the request data as Sample arguments.
func (r Request) SampleArgs() (SampleArgs, error) {
	parts, err := r.tuple(2, 3)
	if err != nil {
		return SampleArgs{}, err
	}
	var args SampleArgs
	if err := r.element(parts, 0, &args.Schema); err != nil {
		return SampleArgs{}, err
	}
	if err := r.element(parts, 1, &args.Table); err != nil {
		return SampleArgs{}, err
	}
	if len(parts) == 3 {
		if err := r.element(parts, 2, &args.Limit); err != nil {
			return SampleArgs{}, err
		}
		if args.Limit < 0 {
			return SampleArgs{}, &PayloadError{Action: r.Action, Reason: "limit must not be negative"}
		}
	}
	return args, nil
}

// QueryArgs decodes the request data as RunQuery arguments.
func (r Request) QueryArgs() (QueryArgs, error) {
	parts, err := r.tuple(3, 3)
	if err != nil {
		return QueryArgs{}, err
	}
	var args QueryArgs
	if err := r.element(parts, 0, &args.Schema); err != nil {
		return QueryArgs{}, err
	}
	if err := r.element(parts, 1, &args.Table); err != nil {
		return QueryArgs{}, err
	}
	if err := r.element(parts, 2, &args.SQL); err != nil {
		return QueryArgs{}, err
	}
	return args, nil
}

func (r Request) tuple(minLen, maxLen int) ([]json.RawMessage, error) {
	if r.Data == nil {
		return nil, &PayloadError{Action: r.Action, Reason: "missing data"}
	}
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(*r.Data), &parts); err != nil {
		return nil, &PayloadError{Action: r.Action, Reason: err.Error()}
	}
	if len(parts) < minLen || len(parts) > maxLen {
		want := fmt.Sprint(minLen)
		if maxLen != minLen {
			want = fmt.Sprintf("%d to %d", minLen, maxLen)
		}
		return nil, &PayloadError{
			Action: r.Action,
			Reason: fmt.Sprintf("expected %s elements, got %d", want, len(parts)),
		}
	}
	return parts, nil
}

func (r Request) element(parts []json.RawMessage, i int, v any) error {
	if err := json.Unmarshal(parts[i], v); err != nil {
		return &PayloadError{Action: r.Action, Reason: fmt.Sprintf("element %d: %v", i, err)}
	}
	return nil
}
