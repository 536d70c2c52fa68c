package testsCommon

import (
	"context"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// FetcherStub -
type FetcherStub struct {
	FetchHandler func(ctx context.Context, url string) (common.Record, error)
}

// Fetch -
func (stub *FetcherStub) Fetch(ctx context.Context, url string) (common.Record, error) {
	if stub.FetchHandler != nil {
		return stub.FetchHandler(ctx, url)
	}

	return make(common.Record), nil
}

// IsInterfaceNil -
func (stub *FetcherStub) IsInterfaceNil() bool {
	return stub == nil
}
