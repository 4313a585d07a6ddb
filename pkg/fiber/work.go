package fiber

import (
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// performUnitOfWork renders one fiber and returns the next one to visit:
// its first child, else the nearest unvisited sibling of it or an
// ancestor, stopping at the pass root.
func (r *Root) performUnitOfWork(f *Fiber) *Fiber {
	if f.Flags&Old != 0 {
		panic(newInvariant("F005", f))
	}

	if f.Flags&Skipped == 0 {
		if c := f.Component(); c != nil {
			r.updateComponent(f, c)
		} else {
			r.updateHost(f)
		}
		r.stats.Units++
		r.passUnits++
		r.metrics.unit()

		if f.Child != nil {
			return f.Child
		}
	}

	for n := f; n != nil; n = n.Parent {
		if n == r.wipRoot {
			return nil
		}
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}

// updateHost creates the node of a mount fiber and reconciles its
// children.
func (r *Root) updateHost(f *Fiber) {
	if f.Node == nil {
		f.Node = r.createNode(f)
	}
	r.reconcileChildren(f, f.Children)
}

func (r *Root) createNode(f *Fiber) host.Node {
	n := r.adapter.CreateNode(f.Type.String())
	if n == nil {
		panic(newInvariant("F001", f))
	}
	return n
}

// updateComponent runs the component's render function with f as the
// hook owner and reconciles the returned element.
func (r *Root) updateComponent(f *Fiber, c *element.Component) {
	inst := f.State
	inst.Current = f
	inst.beginRender()

	var out *element.Element
	withRendering(f, func() {
		out = c.Render(f.Props)
	})

	inst.endRender(r.debug)

	if out == nil {
		r.reconcileChildren(f, nil)
		return
	}
	r.reconcileChildren(f, []*element.Element{out})
}
