package service

import (
	"context"
	"errors"
	"fmt"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// Outcome is the typed result of one supervisor phase.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTransportFailure
	OutcomeStorageFailure
	OutcomeParseFailure
	OutcomeStopped
)

// String returns the failure kind label.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTransportFailure:
		return "transport"
	case OutcomeStorageFailure:
		return "storage"
	case OutcomeParseFailure:
		return "parse"
	case OutcomeStopped:
		return "stopped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseError reports a device value that cannot be decoded. It aborts the cycle.
type ParseError struct {
	Field models.FieldName
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError covers the remote session: dial, authentication, command execution and timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StorageError covers the database session: connect, schema setup and inserts.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Classify maps err to an Outcome. A cancelled ctx always wins: whatever failed while
// shutting down is reported as a stop. Unrecognised errors count as transport failures.
func Classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if ctx.Err() != nil {
		return OutcomeStopped
	}

	var (
		parseErr     *ParseError
		storageErr   *StorageError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &parseErr):
		return OutcomeParseFailure
	case errors.As(err, &storageErr):
		return OutcomeStorageFailure
	case errors.As(err, &transportErr):
		return OutcomeTransportFailure
	default:
		return OutcomeTransportFailure
	}
}
