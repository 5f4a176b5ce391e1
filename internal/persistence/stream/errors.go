package stream

import (
	"errors"
	"fmt"
)

// ErrCorrupt covers every stream-level failure that makes the file unloadable:
// bad magic, truncated chunks, unterminated arrays. The wrapped reason string
// is what callers surface to the user.
var ErrCorrupt = errors.New("save stream corrupt")

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
