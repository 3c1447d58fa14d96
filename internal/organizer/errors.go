package organizer

import (
	"fmt"

	"mgdl/internal/services"
)

// FormatError reports a raw page file whose name cannot be mapped onto the
// chapter layout. The file is left where it is.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("organizer: %s: %s", e.Path, e.Reason)
}

// Unwrap exposes services.ErrFormat to errors.Is.
func (e *FormatError) Unwrap() error {
	return services.ErrFormat
}

// MoveError reports a planned move that failed on disk.
type MoveError struct {
	Move Move
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("organizer: move %s -> %s: %v", e.Move.Source, e.Move.Dest, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
