package ports

import "github.com/bft-labs/framecast/pkg/log"

// Logger is the structured logger used across internal packages.
type Logger = log.Logger

// Field is a structured logging key/value pair.
type Field = log.Field

// Field constructors re-exported for internal packages.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
