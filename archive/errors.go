package archive

import (
	"errors"
	"fmt"
)

var (
	ErrNilProvider = errors.New("archive: provider is required")
	ErrNilKinds    = errors.New("archive: kinds table is required")
	// ErrRejected is wrapped when the provider refused a write under pressure.
	ErrRejected = errors.New("archive: write rejected by provider")
)

// ArchiveError reports a failed provider round trip for one bucket archive.
type ArchiveError struct {
	Op  string // "save", "restore" or "clear"
	Key string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
