package schema

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	// TimestampColumn is always the first column, filled at append time
	TimestampColumn = "timestamp"
	// SerialNumberColumn is placed right after the timestamp when the sensor provides it
	SerialNumberColumn = "serialno"
)

const utf8BOM = "\ufeff"

var log = logger.GetOrCreate("schema")

// DeriveSchema builds the column order out of a sample record: timestamp, serialno (if present), then the other
// keys sorted ascending. A record field named like the timestamp column is ignored since that column is injected.
// Keys that could not be read back from a header line (empty or holding a line break) are dropped.
func DeriveSchema(record common.Record) (common.Schema, error) {
	keys := make([]string, 0, len(record))
	hasSerialNumber := false
	for key := range record {
		switch key {
		case TimestampColumn:
			continue
		case SerialNumberColumn:
			hasSerialNumber = true
			continue
		}
		if !isValidColumnName(key) {
			log.Warn("sensor field can not be used as a column, dropping it", "field", fmt.Sprintf("%q", key))
			continue
		}

		keys = append(keys, key)
	}

	if len(keys) == 0 && !hasSerialNumber {
		return nil, ErrInvalidRecord
	}

	sort.Strings(keys)

	schema := make(common.Schema, 0, len(keys)+2)
	schema = append(schema, TimestampColumn)
	if hasSerialNumber {
		schema = append(schema, SerialNumberColumn)
	}

	return append(schema, keys...), nil
}

func isValidColumnName(name string) bool {
	return len(name) > 0 && !strings.ContainsAny(name, "\r\n")
}

// ReadSchema parses the header line of an existing output file
func ReadSchema(headerLine string) (common.Schema, error) {
	headerLine = strings.TrimPrefix(headerLine, utf8BOM)
	headerLine = strings.TrimRight(headerLine, "\r\n")
	if len(headerLine) == 0 {
		return nil, fmt.Errorf("%w: empty header line", ErrMissingHeader)
	}

	reader := csv.NewReader(strings.NewReader(headerLine))
	columns, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingHeader, err)
	}

	seen := make(map[string]struct{}, len(columns))
	for idx, column := range columns {
		if len(column) == 0 {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrMissingHeader, idx)
		}
		if _, found := seen[column]; found {
			return nil, fmt.Errorf("%w: duplicated column %s", ErrMissingHeader, column)
		}
		seen[column] = struct{}{}
	}

	if columns[0] != TimestampColumn {
		return nil, fmt.Errorf("%w: first column is %s, expected %s", ErrMissingHeader, columns[0], TimestampColumn)
	}

	return columns, nil
}

// Project lays out the record values in the schema order. Absent fields produce empty cells and fields unknown
// to the schema are dropped.
func Project(record common.Record, schema common.Schema, timestamp string) common.Row {
	row := make(common.Row, len(schema))
	for idx, column := range schema {
		if column == TimestampColumn {
			row[idx] = timestamp
			continue
		}

		row[idx] = record[column]
	}

	return row
}
