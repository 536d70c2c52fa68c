package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

const maxBodyPreview = 64

var log = logger.GetOrCreate("fetcher")

type httpFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTP-based fetcher with the provided timeout
func NewHTTPFetcher(timeout time.Duration) *httpFetcher {
	return &httpFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch performs one HTTP GET on the sensor endpoint and flattens the top-level JSON object into a record.
// Numbers keep their literal text, strings are unquoted, null becomes an empty value.
func (f *httpFetcher) Fetch(ctx context.Context, url string) (common.Record, error) {
	record, err := f.fetch(ctx, url)
	if err != nil {
		return nil, &FetchError{
			URL: url,
			Err: err,
		}
	}

	log.Trace("fetched sensor record", "url", url, "num fields", len(record))

	return record, nil
}

func (f *httpFetcher) fetch(ctx context.Context, url string) (common.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseRecord(body)
}

func parseRecord(body []byte) (common.Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, errNotJSONObject(preview(body))
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, errNotJSONObject(preview(body))
	}

	record := make(common.Record)
	result.ForEach(func(key, value gjson.Result) bool {
		record[key.String()] = scalarText(value)
		return true
	})

	return record, nil
}

func scalarText(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return value.String()
	default:
		// numbers, booleans and the unexpected nested values keep their JSON text
		return value.Raw
	}
}

func preview(body []byte) string {
	if len(body) > maxBodyPreview {
		return string(body[:maxBodyPreview]) + "..."
	}

	return string(body)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *httpFetcher) IsInterfaceNil() bool {
	return f == nil
}
