package fiber

import (
	"errors"
	"fmt"

	ferrors "github.com/vango-dev/fiber/internal/errors"
)

// ErrNilContainer is returned by CreateRoot when the host container is nil.
var ErrNilContainer = errors.New("fiber: nil host container")

// ErrNilElement is returned by CreateRoot and Update for a nil element.
var ErrNilElement = errors.New("fiber: nil root element")

// ErrNoAdapter is returned by CreateRoot when no adapter was configured
// and the container does not know its own.
var ErrNoAdapter = errors.New("fiber: no host adapter for container")

// ErrRootClosed is returned after Unmount.
var ErrRootClosed = errors.New("fiber: root is unmounted")

// newInvariant builds the panic value for a structural invariant violation.
func newInvariant(code string, f *Fiber) *ferrors.FiberError {
	return ferrors.New(code).WithDetail(fmt.Sprintf("fiber %s (version %d, flags %s)", f, f.Version, f.Flags))
}

func newHookOrderError(inst *Instance, expected, got int, kind string) *ferrors.FiberError {
	name := "component"
	if inst.Current != nil {
		name = inst.Current.String()
	}
	detail := fmt.Sprintf("%s: hook order changed (expected %d, got %d)", name, expected, got)
	if kind != "" {
		detail = fmt.Sprintf("%s: unexpected %s hook at index %d", name, kind, got)
	}
	return ferrors.New("F002").WithDetail(detail)
}

func newOutsideRenderError(hook string) *ferrors.FiberError {
	return ferrors.New("F004").WithDetail(hook + " called outside a component render")
}
