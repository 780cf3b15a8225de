package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles CSV files. Rows are returned as-is; Lines holds each
// row joined with commas.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader([]byte(s)))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: stem(filename), Rows: records}
	for _, row := range records {
		doc.Lines = append(doc.Lines, strings.Join(row, ","))
	}
	return doc, nil
}
