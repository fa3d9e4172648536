package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVParser implements the Parser interface for CSV award files.
type CSVParser struct{}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads CSV data. The first row holds the column headers.
func (p *CSVParser) Parse(fileData []byte, fileName string) ([]AwardRow, error) {
	reader := csv.NewReader(bytes.NewReader(fileData))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return parseRows(rows, "CSV")
}
