// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy shared by every stage. Callers test with errors.Is.
var (
	// ErrNotFound marks a missing source document, reference file or
	// reference folder.
	ErrNotFound = errors.New("not found")

	// ErrEmptyOutline marks a source document without heading paragraphs.
	ErrEmptyOutline = errors.New("empty outline")

	// ErrGenerationFailure marks a backend call that failed, timed out or
	// returned no text. It never aborts a run.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrWriteFailure marks an output document that could not be saved.
	ErrWriteFailure = errors.New("write failure")
)
