package tlsf

import "errors"

// Sentinel errors: package-level errors.New values rather than a custom
// error type hierarchy.
var (
	// ErrTooSmall is returned by Create when size is smaller than
	// MinBlockSize.
	ErrTooSmall = errors.New("tlsf: extent smaller than minimum block size")

	// ErrMisaligned is returned by Create in ModeInternal when the
	// extent's base address is not word-aligned.
	ErrMisaligned = errors.New("tlsf: base address is not word-aligned")

	// ErrNoExtent is returned by Create in ModeInternal when no Extent
	// is supplied.
	ErrNoExtent = errors.New("tlsf: internal mode requires a non-nil extent")

	// ErrDoubleFree is raised by debug-mode pools when Free/ExtFree is
	// called on a block that is already free. In release mode (the
	// default) this condition is undefined behaviour.
	ErrDoubleFree = errors.New("tlsf: double free detected")

	// ErrNotOwned is raised by debug-mode pools when a Block handle
	// passed to ExtFree did not originate from this Pool.
	ErrNotOwned = errors.New("tlsf: block does not belong to this pool")

	// ErrBadMode is returned by Create when mode is neither ModeInternal
	// nor ModeExternal.
	ErrBadMode = errors.New("tlsf: unknown mode")
)
