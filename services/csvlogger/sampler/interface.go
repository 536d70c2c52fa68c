package sampler

import (
	"context"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
)

// Fetcher defines the single-sample source being decorated
type Fetcher interface {
	Fetch(ctx context.Context, url string) (common.Record, error)
	IsInterfaceNil() bool
}
