package factory

import (
	"context"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// Engine defines the logger's operations
type Engine interface {
	Bootstrap(ctx context.Context) error
	Process(ctx context.Context)
	FatalError() <-chan error
	Status() common.StatusSnapshot
	IsInterfaceNil() bool
}

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}
