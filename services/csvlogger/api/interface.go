package api

import "github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"

// StatusProvider defines the read-only view on the poll engine
type StatusProvider interface {
	Status() common.StatusSnapshot
	IsInterfaceNil() bool
}
