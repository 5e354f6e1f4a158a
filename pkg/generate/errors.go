package generate

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while another generation is running.
	ErrBusy        = errors.New("a generation is already running")
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrEmptyWorld  = errors.New("world name is empty")
)

// EmptyResultError means the character list came back empty, so the batch
// was aborted before any entry was created.
type EmptyResultError struct {
	World string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no new characters found for %q: all suggestions already exist or the model returned nothing usable", e.World)
}
