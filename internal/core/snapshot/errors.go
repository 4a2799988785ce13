package snapshot

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDocument = errors.New("malformed snapshot document")
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
	ErrChecksumMismatch  = errors.New("snapshot checksum mismatch")
	ErrUnboundComponent  = errors.New("component type has no codec or no pool")
)

// RecordError reports which component record of a document failed to load.
type RecordError struct {
	// Entity is the position of the entity record in the document.
	Entity int
	ID     uint64
	Tag    string
	// Version is -1 when the record carried no readable version.
	Version int
	Err     error
}

func (e *RecordError) Error() string {
	if e.Version < 0 {
		return fmt.Sprintf("entity #%d (id %d) component %q: %v", e.Entity, e.ID, e.Tag, e.Err)
	}
	return fmt.Sprintf("entity #%d (id %d) component %q v%d: %v", e.Entity, e.ID, e.Tag, e.Version, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, args...))
}
