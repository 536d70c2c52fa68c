package testsCommon

import "github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"

// StatusProviderStub -
type StatusProviderStub struct {
	StatusHandler func() common.StatusSnapshot
}

// Status -
func (stub *StatusProviderStub) Status() common.StatusSnapshot {
	if stub.StatusHandler != nil {
		return stub.StatusHandler()
	}

	return common.StatusSnapshot{}
}

// IsInterfaceNil -
func (stub *StatusProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
