package gen

import (
	"errors"
	"strings"
)

// ErrGenerationFailed is matched by every GenerationError.
var ErrGenerationFailed = errors.New("fluentdb: migration generation failed")

// GenerationError reports the table and phase a generation step failed in.
type GenerationError struct {
	Phase string // "inspect", "seed", "render" or "write"
	Table string
	File  string
	Cause error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("fluentdb: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Table != "" {
		b.WriteString(" for table ")
		b.WriteString(e.Table)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, table, file string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, Table: table, File: file, Cause: cause}
}
