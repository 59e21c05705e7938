package logging

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tells the transport layer which side of the system a failure came from.
type Kind string

const (
	KindInternal Kind = "internal"
	KindProvider Kind = "provider"
	KindStorage  Kind = "storage"
)

// OperationError records where a submission failed: the operation, the
// reference id it was serving and, for provider faults, which provider.
type OperationError struct {
	Operation   string
	ReferenceID string
	Provider    string
	Kind        Kind
	Err         error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Provider != "" {
		fmt.Fprintf(&b, " [provider=%s]", e.Provider)
	}
	if e.ReferenceID != "" {
		fmt.Fprintf(&b, " (reference_id=%s)", e.ReferenceID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err as an internal failure; a nil err stays nil.
func NewOperationError(operation, referenceID string, err error) error {
	return newError(operation, referenceID, "", KindInternal, err)
}

// NewProviderError wraps a fault raised by the named verification provider.
func NewProviderError(operation, referenceID, provider string, err error) error {
	return newError(operation, referenceID, provider, KindProvider, err)
}

// NewStorageError wraps a verdict store failure.
func NewStorageError(operation, referenceID string, err error) error {
	return newError(operation, referenceID, "", KindStorage, err)
}

func newError(operation, referenceID, provider string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, ReferenceID: referenceID, Provider: provider, Kind: kind, Err: err}
}

// KindOf reports the kind of the outermost OperationError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Kind != "" {
		return opErr.Kind
	}
	return KindInternal
}
