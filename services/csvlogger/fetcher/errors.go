package fetcher

import (
	"fmt"
	"net/http"
)

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return fmt.Sprintf("non-200 HTTP status code: %d %s", int(e), http.StatusText(int(e)))
}

type errNotJSONObject string

func (e errNotJSONObject) Error() string {
	return "response body is not a JSON object: " + string(e)
}

// FetchError wraps any failure in reaching the sensor or in decoding its response
type FetchError struct {
	URL string
	Err error
}

// Error returns the error message
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the inner error
func (e *FetchError) Unwrap() error {
	return e.Err
}
