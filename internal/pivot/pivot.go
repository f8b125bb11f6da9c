// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pivot turns row-oriented query results into the column-major shape
// sent to gateway clients.
//
// Columns are aligned by position, never by name: the field at index i collects
// the value at index i of every row that has one. A row with fewer columns than
// an earlier row simply contributes nothing to the trailing fields.
package pivot

// DeclaredType is the type label attached to every pivoted field. Values are
// stringified at the pivot boundary, so no native type metadata survives.
const DeclaredType = "String"

// NullValue is the textual form of a database NULL.
const NullValue = "null"

// Cell is a single named column value within a row. A nil Value is the NULL marker.
type Cell struct {
	Name  string
	Value any
}

// Row is an ordered sequence of cells as produced by a query.
type Row []Cell

// Field is one column of a pivoted result.
type Field struct {
	Name         string   `json:"name"`
	DeclaredType string   `json:"declared_type"`
	Values       []string `json:"values"`
}

// ColumnSet is the pivot output: fields in result-set order plus the number of
// input rows.
type ColumnSet struct {
	Fields   []Field
	RowCount int
}

// Pivot converts rows into a ColumnSet. It is a pure function of its input.
func Pivot(rows []Row) ColumnSet {
	set := ColumnSet{
		Fields:   []Field{},
		RowCount: len(rows),
	}
	for _, row := range rows {
		for pos, cell := range row {
			value := Stringify(cell.Value)
			if pos < len(set.Fields) {
				set.Fields[pos].Values = append(set.Fields[pos].Values, value)
				continue
			}
			set.Fields = append(set.Fields, Field{
				Name:         cell.Name,
				DeclaredType: DeclaredType,
				Values:       []string{value},
			})
		}
	}
	return set
}

// Rows zips column names with raw records into Rows. Records shorter than
// columns produce shorter rows; extra record values are named by position.
func Rows(columns []string, records [][]any) []Row {
	out := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(rec))
		for i, v := range rec {
			name := ""
			if i < len(columns) {
				name = columns[i]
			}
			row[i] = Cell{Name: name, Value: v}
		}
		out = append(out, row)
	}
	return out
}
