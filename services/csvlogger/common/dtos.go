package common

import "time"

// Record is one sensor reading as a flat field name -> textual value mapping
type Record map[string]string

// Schema is the ordered list of CSV column names locked for one output file
type Schema []string

// Row holds the cells of one CSV line, in schema order
type Row []string

// Clone returns a copy of the schema so callers can not alter the locked column order
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}

	cloned := make(Schema, len(s))
	copy(cloned, s)

	return cloned
}

// State defines the poll state machine phases
type State int

const (
	// Uninitialized is the state before the output file was inspected
	Uninitialized State = iota
	// Bootstrapping is the state in which the output file does not exist and the schema is not yet derived
	Bootstrapping
	// Steady is the state in which the schema is locked and each successful fetch appends one row
	Steady
)

// String returns the human-readable state name
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Bootstrapping:
		return "bootstrapping"
	case Steady:
		return "steady"
	default:
		return "unknown"
	}
}

// StatusSnapshot is a point-in-time view of the logger, served by the status API
type StatusSnapshot struct {
	Name          string    `json:"name"`
	State         string    `json:"state"`
	OutputPath    string    `json:"outputPath"`
	Columns       []string  `json:"columns"`
	RowsWritten   uint64    `json:"rowsWritten"`
	FetchFailures uint64    `json:"fetchFailures"`
	LastError     string    `json:"lastError,omitempty"`
	LastRowAt     time.Time `json:"lastRowAt"`
}
