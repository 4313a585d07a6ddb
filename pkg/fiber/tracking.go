package fiber

import (
	"runtime"
	"sync"
)

// renderContext holds the fiber whose component is rendering on a
// goroutine. Independent roots may run on different goroutines, so the
// context is kept per goroutine.
type renderContext struct {
	fiber *Fiber
}

// renderContexts stores per-goroutine render contexts.
var renderContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// It relies on runtime.Stack starting with "goroutine N [", so the id
// runs from byte 10 to the next space.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentFiber returns the fiber rendering on this goroutine, or nil.
func currentFiber() *Fiber {
	if ctx, ok := renderContexts.Load(getGoroutineID()); ok {
		return ctx.(*renderContext).fiber
	}
	return nil
}

// withRendering runs fn with f as the rendering fiber, restoring the
// previous one afterwards (components may render nested roots).
func withRendering(f *Fiber, fn func()) {
	gid := getGoroutineID()
	var prev *Fiber
	if ctx, ok := renderContexts.Load(gid); ok {
		prev = ctx.(*renderContext).fiber
	}
	renderContexts.Store(gid, &renderContext{fiber: f})
	defer func() {
		if prev == nil {
			renderContexts.Delete(gid)
		} else {
			renderContexts.Store(gid, &renderContext{fiber: prev})
		}
	}()
	fn()
}
