package testsCommon

import (
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// MetricsHandlerStub -
type MetricsHandlerStub struct {
	ObserveFetchHandler   func(duration time.Duration, err error)
	IncRowsWrittenHandler func()
	SetStateHandler       func(state common.State)
}

// ObserveFetch -
func (stub *MetricsHandlerStub) ObserveFetch(duration time.Duration, err error) {
	if stub.ObserveFetchHandler != nil {
		stub.ObserveFetchHandler(duration, err)
	}
}

// IncRowsWritten -
func (stub *MetricsHandlerStub) IncRowsWritten() {
	if stub.IncRowsWrittenHandler != nil {
		stub.IncRowsWrittenHandler()
	}
}

// SetState -
func (stub *MetricsHandlerStub) SetState(state common.State) {
	if stub.SetStateHandler != nil {
		stub.SetStateHandler(state)
	}
}

// IsInterfaceNil -
func (stub *MetricsHandlerStub) IsInterfaceNil() bool {
	return stub == nil
}
