package emitter

import (
	"errors"
	"fmt"
)

// ErrNotFinalized is returned by Sample when triangles changed since the last Finalize.
var ErrNotFinalized = errors.New("emitter: triangles changed without Finalize")

// EmptyEmitterError reports a sample request on a mesh with no usable area.
type EmptyEmitterError struct {
	ID ID
}

func (e *EmptyEmitterError) Error() string {
	return fmt.Sprintf("emitter %d has no surface area", e.ID)
}
