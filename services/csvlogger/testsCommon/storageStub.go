package testsCommon

import (
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// StorageStub -
type StorageStub struct {
	PathValue             string
	ExistsHandler         func() (bool, error)
	ReadHeaderLineHandler func() (string, error)
	CreateHandler         func(header common.Schema, firstRow common.Row) error
	AppendHandler         func(row common.Row) error
}

// Path -
func (stub *StorageStub) Path() string {
	return stub.PathValue
}

// Exists -
func (stub *StorageStub) Exists() (bool, error) {
	if stub.ExistsHandler != nil {
		return stub.ExistsHandler()
	}

	return false, nil
}

// ReadHeaderLine -
func (stub *StorageStub) ReadHeaderLine() (string, error) {
	if stub.ReadHeaderLineHandler != nil {
		return stub.ReadHeaderLineHandler()
	}

	return "", nil
}

// Create -
func (stub *StorageStub) Create(header common.Schema, firstRow common.Row) error {
	if stub.CreateHandler != nil {
		return stub.CreateHandler(header, firstRow)
	}

	return nil
}

// Append -
func (stub *StorageStub) Append(row common.Row) error {
	if stub.AppendHandler != nil {
		return stub.AppendHandler(row)
	}

	return nil
}

// IsInterfaceNil -
func (stub *StorageStub) IsInterfaceNil() bool {
	return stub == nil
}
