package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const minSamplesForTrimming = 3

var log = logger.GetOrCreate("sampler")

// ArgsSamplingFetcher is the DTO used to create a new sampling fetcher
type ArgsSamplingFetcher struct {
	Fetcher        Fetcher
	NumSamples     uint32
	SampleInterval time.Duration
}

type samplingFetcher struct {
	fetcher        Fetcher
	numSamples     int
	sampleInterval time.Duration
}

// NewSamplingFetcher creates a fetcher that collects several samples and merges them into a single record
func NewSamplingFetcher(args ArgsSamplingFetcher) (*samplingFetcher, error) {
	if check.IfNil(args.Fetcher) {
		return nil, errors.New("nil fetcher")
	}
	if args.NumSamples < 2 {
		return nil, fmt.Errorf("invalid number of samples: %d, minimum is 2", args.NumSamples)
	}
	if args.SampleInterval < 0 {
		return nil, errors.New("negative sample interval")
	}

	return &samplingFetcher{
		fetcher:        args.Fetcher,
		numSamples:     int(args.NumSamples),
		sampleInterval: args.SampleInterval,
	}, nil
}

// Fetch collects all the samples and returns their aggregate. A single failed sample fails the whole call.
func (sf *samplingFetcher) Fetch(ctx context.Context, url string) (common.Record, error) {
	samples := make([]common.Record, 0, sf.numSamples)
	for i := 0; i < sf.numSamples; i++ {
		if i > 0 {
			err := sf.wait(ctx)
			if err != nil {
				return nil, err
			}
		}

		record, err := sf.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("sample %d of %d: %w", i+1, sf.numSamples, err)
		}

		samples = append(samples, record)
	}

	log.Debug("collected samples", "url", url, "num samples", len(samples))

	return AggregateSamples(samples), nil
}

func (sf *samplingFetcher) wait(ctx context.Context) error {
	timer := time.NewTimer(sf.sampleInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AggregateSamples merges the samples field by field. For numeric fields with at least 3 values the lowest and
// the highest are dropped before averaging, fewer values are averaged as they are. Means are rounded to 2 decimals.
// Non-numeric fields keep the first value encountered.
func AggregateSamples(samples []common.Record) common.Record {
	numeric := make(map[string][]float64)
	firstText := make(map[string]string)
	for _, sample := range samples {
		for key, value := range sample {
			if len(value) == 0 {
				continue
			}

			number, err := strconv.ParseFloat(value, 64)
			if err == nil && !math.IsNaN(number) && !math.IsInf(number, 0) {
				numeric[key] = append(numeric[key], number)
				continue
			}

			if _, found := firstText[key]; !found {
				firstText[key] = value
			}
		}
	}

	aggregated := make(common.Record, len(numeric)+len(firstText))
	for key, values := range numeric {
		aggregated[key] = formatMean(roundTwoDecimals(trimmedMean(values)))
	}
	for key, value := range firstText {
		if _, found := aggregated[key]; found {
			continue
		}

		aggregated[key] = value
	}

	return aggregated
}

func trimmedMean(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) >= minSamplesForTrimming {
		sorted = sorted[1 : len(sorted)-1]
	}

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return sum / float64(len(sorted))
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// formatMean writes the shortest decimal form, keeping a ".0" on integral values as a mean is never a count
func formatMean(value float64) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}

	return text
}

// IsInterfaceNil returns true if the value under the interface is nil
func (sf *samplingFetcher) IsInterfaceNil() bool {
	return sf == nil
}
