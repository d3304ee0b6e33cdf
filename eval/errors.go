// eval/errors.go
package eval

import "errors"

// Sentinel errors for the three failure categories the analyzers can
// surface. Callers discriminate with errors.Is; call sites wrap these
// with detail via fmt.Errorf and %w.
var (
	// ErrInsufficientData reports an empty record sequence handed to an
	// analyzer or to the report assembler.
	ErrInsufficientData = errors.New("insufficient data: no prediction records")

	// ErrMalformedRecord reports a record rejected at construction time.
	// A malformed record never enters an aggregate.
	ErrMalformedRecord = errors.New("malformed prediction record")

	// ErrConfiguration reports invalid evaluation settings. Settings are
	// validated before any computation starts.
	ErrConfiguration = errors.New("invalid evaluation configuration")
)
