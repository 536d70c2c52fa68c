package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	timestampColumn = "timestamp"
	// TemperatureColumn is converted from Celsius to Fahrenheit while parsing
	TemperatureColumn = "atmpCompensated"
)

var log = logger.GetOrCreate("analysis")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Reading is one CSV row reduced to its timestamp and the selected metrics
type Reading struct {
	Timestamp time.Time
	Values    map[string]float64
}

// ReadReadings parses the CSV content and keeps the rows where the timestamp and every selected metric parse.
// The result is sorted ascending by timestamp.
func ReadReadings(r io.Reader, metrics []string) ([]Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the CSV header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for idx, column := range header {
		positions[column] = idx
	}
	for _, column := range append([]string{timestampColumn}, metrics...) {
		if _, found := positions[column]; !found {
			return nil, fmt.Errorf("column %s not found in the CSV header", column)
		}
	}

	readings := make([]Reading, 0)
	numSkipped := 0
	for {
		row, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			break
		}
		if errRead != nil {
			numSkipped++
			continue
		}

		reading, ok := parseRow(row, positions, metrics)
		if !ok {
			numSkipped++
			continue
		}

		readings = append(readings, reading)
	}

	if numSkipped > 0 {
		log.Debug("skipped unparsable rows", "count", numSkipped)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	return readings, nil
}

func parseRow(row []string, positions map[string]int, metrics []string) (Reading, bool) {
	cell := func(column string) (string, bool) {
		idx := positions[column]
		if idx >= len(row) {
			return "", false
		}

		return row[idx], true
	}

	rawTimestamp, ok := cell(timestampColumn)
	if !ok {
		return Reading{}, false
	}
	timestamp, err := parseTimestamp(rawTimestamp)
	if err != nil {
		return Reading{}, false
	}

	values := make(map[string]float64, len(metrics))
	for _, metric := range metrics {
		raw, found := cell(metric)
		if !found {
			return Reading{}, false
		}

		value, errParse := strconv.ParseFloat(raw, 64)
		if errParse != nil {
			return Reading{}, false
		}
		if metric == TemperatureColumn {
			value = value*9/5 + 32
		}

		values[metric] = value
	}

	return Reading{
		Timestamp: timestamp,
		Values:    values,
	}, true
}

func parseTimestamp(value string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}
