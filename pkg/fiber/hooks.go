package fiber

import (
	"strconv"

	"github.com/vango-dev/fiber/pkg/element"
)

// Cleanup is returned by an effect and runs before the effect re-runs or
// when its component unmounts.
type Cleanup func()

// hookKind identifies a hook for order validation.
type hookKind uint8

const (
	hookState hookKind = iota + 1
	hookReducer
	hookEffect
	hookMemo
	hookRef
	hookID
)

// String returns a human-readable name for the hook kind.
func (k hookKind) String() string {
	switch k {
	case hookState:
		return "State"
	case hookReducer:
		return "Reducer"
	case hookEffect:
		return "Effect"
	case hookMemo:
		return "Memo"
	case hookRef:
		return "Ref"
	case hookID:
		return "ID"
	default:
		return "Unknown"
	}
}

// beginRender resets the hook cursor.
func (i *Instance) beginRender() {
	i.hookIdx = 0
	i.dirty = false
}

// endRender locks in the hook order after the first render and, in debug
// mode, checks later renders called every recorded hook.
func (i *Instance) endRender(debug bool) {
	if !i.rendered {
		i.rendered = true
		return
	}
	if debug && i.hookIdx < len(i.order) {
		panic(newHookOrderError(i, len(i.order), i.hookIdx, ""))
	}
}

// slot returns the stored hook at the cursor and advances it. nil means
// the hook is new and the caller must store one with setSlot.
func (i *Instance) slot(kind hookKind, debug bool) any {
	idx := i.hookIdx
	i.hookIdx++

	if !i.rendered {
		i.order = append(i.order, kind)
	} else if debug {
		if idx >= len(i.order) {
			panic(newHookOrderError(i, len(i.order), idx+1, kind.String()))
		}
		if i.order[idx] != kind {
			panic(newHookOrderError(i, idx, idx, kind.String()))
		}
	}

	if idx < len(i.hooks) {
		return i.hooks[idx]
	}
	return nil
}

func (i *Instance) setSlot(h any) {
	i.hooks = append(i.hooks, h)
}

// rendering returns the fiber currently rendering, panicking when a hook
// is called outside a component render.
func rendering(hook string) *Fiber {
	f := currentFiber()
	if f == nil {
		panic(newOutsideRenderError(hook))
	}
	return f
}

// hookSlot fetches the typed hook at the cursor, or nil on first use.
func hookSlot[H any](f *Fiber, kind hookKind) *H {
	s := f.State.slot(kind, f.State.root.debug)
	if s == nil {
		return nil
	}
	h, ok := s.(*H)
	if !ok {
		panic(newHookOrderError(f.State, f.State.hookIdx-1, f.State.hookIdx-1, kind.String()))
	}
	return h
}

// =============================================================================
// State
// =============================================================================

type stateHook[T any] struct {
	value      T
	pending    T
	hasPending bool
	set        Setter[T]
}

// Setter enqueues a state update. The updater receives the latest pending
// value, so several updates in one turn compose in order. The update is
// applied when the component next renders.
type Setter[T any] func(update func(prev T) T)

// Set enqueues v as the next value.
func (s Setter[T]) Set(v T) {
	s(func(T) T { return v })
}

// UseState returns the component's state value and a stable setter.
//
//	count, setCount := fiber.UseState(0)
//	onClick := func() { setCount(func(n int) int { return n + 1 }) }
func UseState[T any](initial T) (T, Setter[T]) {
	f := rendering("UseState")
	h := hookSlot[stateHook[T]](f, hookState)
	if h == nil {
		h = newStateHook(f.State, initial)
		f.State.setSlot(h)
	}
	h.apply()
	return h.value, h.set
}

func newStateHook[T any](inst *Instance, initial T) *stateHook[T] {
	h := &stateHook[T]{value: initial}
	h.set = func(update func(prev T) T) {
		if inst.unmounted {
			return
		}
		base := h.value
		if h.hasPending {
			base = h.pending
		}
		next := update(base)
		h.pending, h.hasPending = next, true
		if !element.Same(next, h.value) {
			inst.dirty = true
			inst.root.enqueue(inst.Current)
		}
	}
	return h
}

func (h *stateHook[T]) apply() {
	if h.hasPending {
		h.value = h.pending
		h.hasPending = false
		var zero T
		h.pending = zero
	}
}

// =============================================================================
// Reducer
// =============================================================================

type reducerHook[S, A any] struct {
	state    *stateHook[S]
	reducer  func(S, A) S
	dispatch func(A)
}

// UseReducer returns the current state and a stable dispatch function.
// dispatch(a) enqueues reducer(latest, a) like a functional state update.
// The newest reducer passed to UseReducer is used.
func UseReducer[S, A any](reducer func(S, A) S, initial S) (S, func(A)) {
	f := rendering("UseReducer")
	h := hookSlot[reducerHook[S, A]](f, hookReducer)
	if h == nil {
		h = &reducerHook[S, A]{state: newStateHook(f.State, initial)}
		h.dispatch = func(a A) {
			h.state.set(func(s S) S { return h.reducer(s, a) })
		}
		f.State.setSlot(h)
	}
	h.reducer = reducer
	h.state.apply()
	return h.state.value, h.dispatch
}

// =============================================================================
// Effect
// =============================================================================

type effectHook struct {
	fn      func() Cleanup
	deps    []any
	cleanup Cleanup
	ran     bool
}

// Deps builds a dependency list. Deps() with no values is the empty list:
// the effect or memo runs once. A nil list means "every render".
func Deps(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

// UseEffect schedules fn to run after the render commits. It re-runs when
// a slot of deps changes (compared with element.Same), on every commit
// when deps is nil, and never again when deps is empty. The previous
// cleanup runs before the effect re-runs and on unmount.
//
// Within a commit all cleanups run before all effects, children before
// parents, and a component's own effects in reverse declaration order.
func UseEffect(fn func() Cleanup, deps []any) {
	f := rendering("UseEffect")
	h := hookSlot[effectHook](f, hookEffect)
	if h == nil {
		h = &effectHook{}
		f.State.setSlot(h)
	}
	if h.ran && !depsChanged(h.deps, deps) {
		return
	}
	h.fn = fn
	h.deps = deps
	h.ran = true
	if h.cleanup != nil {
		f.cleanups = append(f.cleanups, h.cleanup)
		h.cleanup = nil
	}
	f.effects = append(f.effects, h)
}

func (h *effectHook) run() {
	h.cleanup = h.fn()
}

func depsChanged(prev, next []any) bool {
	if next == nil || prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if !element.Same(prev[i], next[i]) {
			return true
		}
	}
	return false
}

// =============================================================================
// Memo, Callback, Ref, ID
// =============================================================================

type memoHook[T any] struct {
	value T
	deps  []any
	ready bool
}

// UseMemo returns compute's cached result, recomputing when deps change
// under the same rules as UseEffect.
func UseMemo[T any](compute func() T, deps []any) T {
	f := rendering("UseMemo")
	h := hookSlot[memoHook[T]](f, hookMemo)
	if h == nil {
		h = &memoHook[T]{}
		f.State.setSlot(h)
	}
	if !h.ready || depsChanged(h.deps, deps) {
		h.value = compute()
		h.deps = deps
		h.ready = true
	}
	return h.value
}

// UseCallback returns fn as it was when deps last changed.
func UseCallback[F any](fn F, deps []any) F {
	return UseMemo(func() F { return fn }, deps)
}

// UseRef returns a Ref that is stable for the component's lifetime.
func UseRef[T any](initial T) *Ref[T] {
	f := rendering("UseRef")
	h := hookSlot[Ref[T]](f, hookRef)
	if h == nil {
		h = NewRef(initial)
		f.State.setSlot(h)
	}
	return h
}

type idHook struct {
	id string
}

// UseID returns an identifier unique to the component instance.
func UseID() string {
	f := rendering("UseID")
	h := hookSlot[idHook](f, hookID)
	if h == nil {
		h = &idHook{id: "f" + strconv.FormatUint(f.State.id, 10)}
		f.State.setSlot(h)
	}
	return h.id
}
