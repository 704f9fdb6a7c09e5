package odbc

import (
	"errors"
	"fmt"
)

// ErrorType represents the failure classes of the adapter.
type ErrorType int

const (
	// ErrGeneric is a generic error.
	ErrGeneric ErrorType = iota
	// ErrParamCount means the host supplied a different number of inputs
	// than the statement declares.
	ErrParamCount
	// ErrBind means the driver rejected a parameter or column binding.
	ErrBind
	// ErrDescribe means the driver could not describe columns or parameters.
	ErrDescribe
	// ErrExecute is a statement execution error.
	ErrExecute
	// ErrFetch is a row positioning error.
	ErrFetch
	// ErrGetData is a large object retrieval error.
	ErrGetData
	// ErrConnect is a connection establishment error.
	ErrConnect
	// ErrStatement is a statement allocation, option or prepare error.
	ErrStatement
	// ErrTransaction is a commit or rollback error.
	ErrTransaction
	// ErrLog means the session log could not be opened.
	ErrLog
	// ErrLengthMismatch means a value cannot be described by the wire length.
	ErrLengthMismatch
)

var errorTypeNames = map[ErrorType]string{
	ErrGeneric:        "generic",
	ErrParamCount:     "param count mismatch",
	ErrBind:           "bind failure",
	ErrDescribe:       "describe failure",
	ErrExecute:        "execute failure",
	ErrFetch:          "fetch failure",
	ErrGetData:        "get data failure",
	ErrConnect:        "connect failure",
	ErrStatement:      "statement failure",
	ErrTransaction:    "transaction failure",
	ErrLog:            "log failure",
	ErrLengthMismatch: "length mismatch",
}

// String returns the name of the error class.
func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// Error is an adapter error. Message is the text the session records as its
// last diagnostic.
type Error struct {
	Type    ErrorType
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("odbc: %s", e.Message)
}

// NewError creates a new Error.
func NewError(typ ErrorType, message string) *Error {
	return &Error{
		Type:    typ,
		Message: message,
	}
}

// IsError checks if an error is of a specific type.
func IsError(err error, typ ErrorType) bool {
	var odbcErr *Error
	if !errors.As(err, &odbcErr) {
		return false
	}
	return odbcErr.Type == typ
}
