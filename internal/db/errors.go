package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrNotFound  = errors.New("db: record not found")
	ErrMalformed = errors.New("db: malformed document")
)

// Op names give persistence errors their context.
const (
	OpLoad   = "LOAD"
	OpSave   = "SAVE"
	OpPing   = "PING"
	OpGet    = "GET"
	OpSet    = "SET"
	OpQuery  = "QUERY"
	OpExec   = "EXEC"
	OpWatch  = "WATCH"
	OpDecode = "DECODE"
	OpEncode = "ENCODE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
