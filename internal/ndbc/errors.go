package ndbc

import (
	"fmt"

	"github.com/waveconnect/backend-go/internal/models"
)

// InvalidRangeError is returned when a requested window ends before it starts
type InvalidRangeError struct {
	Message string
}

func (e *InvalidRangeError) Error() string {
	return e.Message
}

func NewInvalidRangeError(message string) *InvalidRangeError {
	return &InvalidRangeError{
		Message: message,
	}
}

// UnsupportedDataTypeError means a DataType outside the known series reached the parser or fetcher
type UnsupportedDataTypeError struct {
	DataType models.DataType
}

func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("unsupported data type: %s", e.DataType)
}

func NewUnsupportedDataTypeError(dt models.DataType) *UnsupportedDataTypeError {
	return &UnsupportedDataTypeError{DataType: dt}
}

// FetchError represents a failed request to the NDBC archive
type FetchError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("NDBC fetch error: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("NDBC fetch error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("NDBC fetch error: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new NDBC fetch error
func NewFetchError(message string, statusCode int, err error) *FetchError {
	return &FetchError{
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ParseError is returned when a chunk cannot be parsed at all, e.g. a broken bin header
type ParseError struct {
	DataType models.DataType
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s: %s: %v", e.DataType, e.Message, e.Err)
	}
	return fmt.Sprintf("parsing %s: %s", e.DataType, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
