package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSVTable reads an uploaded CSV into a value matrix for the row
// mappers. Ragged rows are allowed; the mappers treat short rows as having
// empty trailing cells. A read error aborts the whole import so nothing is
// partially applied.
func ReadCSVTable(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}
