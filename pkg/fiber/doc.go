// Package fiber is an incremental reconciler for element trees.
//
// A Root owns a tree of fibers, one per instantiated element. Rendering
// happens in passes: the scheduler walks the work-in-progress tree one
// fiber at a time, rendering components and diffing each fiber's children
// against the previous version, and yields to the host whenever its time
// budget runs out. When a pass finishes, the committer applies the
// accumulated changes to the host tree in one piece and runs effects.
//
// # Reconciliation
//
// Children are matched by key, or by position when they have no key. A
// match of the same type is updated in place; anything else is mounted
// fresh and the old fiber is deleted. Among reused children only those
// outside the longest increasing run of their old positions are moved,
// so reordering a list issues the minimal number of host moves.
//
// # State
//
// Components keep state with hooks:
//
//	var Counter = element.Func("Counter", func(p element.Props) *element.Element {
//	    n, setN := fiber.UseState(0)
//	    fiber.UseEffect(func() fiber.Cleanup {
//	        log.Printf("rendered %d", n)
//	        return nil
//	    }, fiber.Deps(n))
//	    return element.H("button", element.Props{"onClick": func() { setN.Set(n + 1) }},
//	        element.Textf("%d", n))
//	})
//
// A state update queues a pass rooted at the component. Queued passes
// run one at a time, in order, after any pass in progress commits.
//
// # Threading
//
// A root is single-threaded. Its work runs inside the Yielder's
// continuations; code on other goroutines reaches it with Root.Dispatch.
package fiber
