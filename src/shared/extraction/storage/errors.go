package extractionstorage

import "github.com/cockroachdb/errors"

// marker errors, to be checked with markers.Is
var (
	ExtractionNotFound = errors.New("The extraction is not found")
	IDEmptyMark        = errors.New("The extraction ID is empty")
	MarshalMark        = errors.New("Failed to marshal the extraction")
	UnmarshalMark      = errors.New("Failed to unmarshal the extraction")
	DefaultErrorMark   = errors.New("Failed to reach the DB")
)
