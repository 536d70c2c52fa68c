package schema

import "errors"

// ErrInvalidRecord signals a record without any usable field
var ErrInvalidRecord = errors.New("invalid record: no fields")

// ErrMissingHeader signals an existing output file without a valid header line
var ErrMissingHeader = errors.New("missing header")
