// Package dataset holds parsed tabular data handed to the pipelines.
package dataset

import "strconv"

// Row maps a column name to the raw cell value.
type Row map[string]string

type Dataset struct {
	Columns []string
	Rows    []Row
}

func (d *Dataset) Len() int {
	return len(d.Rows)
}

func (d *Dataset) HasColumn(name string) bool {
	for _, column := range d.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order. Missing cells
// come back as empty strings.
func (d *Dataset) Column(name string) []string {
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[name]
	}
	return values
}

// Columns commonly used as row identifiers, checked in order.
var idColumnCandidates = []string{"id", "ID", "Id", "index", "Index", "PassengerId", "passenger_id"}

// DetectIDColumn resolves the identifier column: the explicit choice wins
// when present in the data, otherwise the first candidate match. Empty
// result means callers fall back to the 1-based row position.
func (d *Dataset) DetectIDColumn(explicit string) string {
	if explicit != "" && d.HasColumn(explicit) {
		return explicit
	}
	for _, candidate := range idColumnCandidates {
		if d.HasColumn(candidate) {
			return candidate
		}
	}
	return ""
}

// RowID returns the identifier string for row i under the resolved
// ID column.
func (d *Dataset) RowID(i int, idColumn string) string {
	if idColumn != "" {
		if value, ok := d.Rows[i][idColumn]; ok && value != "" {
			return value
		}
	}
	return strconv.Itoa(i + 1)
}
