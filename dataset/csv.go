package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV parses an uploaded CSV into a Dataset. The first record is the
// header. A UTF-8 byte order mark, common in spreadsheet exports, is
// stripped before parsing.
func ReadCSV(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true
	// Spreadsheet exports sometimes drop trailing cells.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv file is empty")
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	ds := &Dataset{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			} else {
				row[column] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
