// internal/loader/csv.go
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spendlens/spendlens/internal/dataset"
)

// ReadCSV decodes a CSV stream into a Dataset. The first row is the
// header; every following row is keyed by it. Short rows are padded
// with blanks so downstream coercion sees them as missing values.
func ReadCSV(r io.Reader) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	ds := &dataset.Dataset{Columns: header}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}

		row := make(dataset.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// ReadCSVFile opens path and decodes it with ReadCSV.
func ReadCSVFile(path string) (*dataset.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}
