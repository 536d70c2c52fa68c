package engine

import (
	"context"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// Fetcher defines the interface for acquiring one record from the sensor
type Fetcher interface {
	// Fetch returns the flattened sensor document. Any transport, status or decoding problem is an error,
	// retries are the engine's concern.
	Fetch(ctx context.Context, url string) (common.Record, error)

	IsInterfaceNil() bool
}

// Storage defines the append-only output file operations
type Storage interface {
	Path() string
	Exists() (bool, error)
	ReadHeaderLine() (string, error)
	// Create writes the header and the first row, failing with an error wrapping os.ErrExist if the file is present
	Create(header common.Schema, firstRow common.Row) error
	Append(row common.Row) error

	IsInterfaceNil() bool
}

// MetricsHandler defines the sink for the engine's counters
type MetricsHandler interface {
	ObserveFetch(duration time.Duration, err error)
	IncRowsWritten()
	SetState(state common.State)

	IsInterfaceNil() bool
}
