package fiber

import (
	"strconv"

	"github.com/vango-dev/fiber/pkg/element"
)

// oldEntry is a fiber of the previous sibling chain and its position.
type oldEntry struct {
	fiber *Fiber
	index int
}

// slotKey is the identity of a child among its siblings: the explicit
// key when present, else its position.
func slotKey(key string, index int) string {
	if key != "" {
		return "k:" + key
	}
	return "i:" + strconv.Itoa(index)
}

// reconcileChildren diffs elems against the children of f's previous
// version, rebuilds f.Child as the new sibling chain and appends obsolete
// fibers to the root's deletions.
func (r *Root) reconcileChildren(f *Fiber, elems []*element.Element) {
	var oldFirst *Fiber
	if f.Old != nil {
		oldFirst = f.Old.Child
	}
	elems = compact(elems)

	// Clearing a populated host node: drop the old subtree as one unit
	// and swap in a fresh node instead of removing children one by one.
	if len(elems) == 0 && f.Node != nil && f.Parent != nil && oldFirst != nil {
		for c := oldFirst; c != nil; c = c.Sibling {
			r.deletions = append(r.deletions, deletion{fiber: c})
		}
		f.replaces = f.Node
		f.Node = r.createNode(f)
		f.Child = nil
		return
	}

	old := make(map[string]oldEntry)
	oldLen := 0
	for c := oldFirst; c != nil; c = c.Sibling {
		old[slotKey(c.Key, oldLen)] = oldEntry{fiber: c, index: oldLen}
		oldLen++
	}

	var (
		prev      *Fiber
		reused    []*Fiber
		reusedIdx []int
	)
	f.Child = nil

	for i, el := range elems {
		key := slotKey(el.Key, i)

		var nf *Fiber
		entry, ok := old[key]
		switch {
		case ok && element.SameType(entry.fiber.Type, el.Type):
			delete(old, key)
			nf = r.updateFiber(entry.fiber, el, f)
			if r.canSkip(entry.fiber, el) {
				nf.Flags |= Skipped
				nf.Child = entry.fiber.Child
				for c := nf.Child; c != nil; c = c.Sibling {
					c.Parent = nf
				}
			}
			reused = append(reused, nf)
			reusedIdx = append(reusedIdx, entry.index)

		case ok:
			delete(old, key)
			r.deletions = append(r.deletions, deletion{fiber: entry.fiber, detach: true})
			nf = r.mountFiber(el, f)
			if i < entry.index {
				nf.Flags |= Moved
			} else {
				nf.Flags |= MovedEnd
			}

		default:
			nf = r.mountFiber(el, f)
			switch {
			case f.hostFresh():
				nf.Flags |= Mounted
			case i < oldLen:
				nf.Flags |= Moved
			default:
				nf.Flags |= MovedEnd
			}
		}

		if prev == nil {
			f.Child = nf
		} else {
			prev.Sibling = nf
		}
		prev = nf
	}

	// Leftovers, in old order so cleanups run deterministically.
	if len(old) > 0 {
		for i, c := 0, oldFirst; c != nil; i, c = i+1, c.Sibling {
			if e, ok := old[slotKey(c.Key, i)]; ok && e.fiber == c {
				r.deletions = append(r.deletions, deletion{fiber: c, detach: true})
			}
		}
	}

	// Reused fibers outside the LIS of their old positions are the only
	// ones that need repositioning.
	keep := lis(reusedIdx)
	for j, nf := range reused {
		if !keep[j] {
			nf.Flags |= Moved
		}
	}
}

// compact drops nil entries so positions match the old chain, which
// never holds a fiber for them.
func compact(elems []*element.Element) []*element.Element {
	for i, el := range elems {
		if el != nil {
			continue
		}
		out := append([]*element.Element(nil), elems[:i]...)
		for _, el := range elems[i+1:] {
			if el != nil {
				out = append(out, el)
			}
		}
		return out
	}
	return elems
}

// canSkip reports whether a matched fiber can adopt its old children
// without rendering: the element is unchanged, or the component's
// comparison reports equal props. Pending state always forces a render.
func (r *Root) canSkip(old *Fiber, el *element.Element) bool {
	if old.State != nil && old.State.dirty {
		return false
	}
	if el == old.Element {
		return true
	}
	if c, ok := el.Type.(*element.Component); ok && c.Compare != nil {
		return c.Compare(old.Props, el.Props)
	}
	return false
}

// updateFiber builds the next version of old for el under parent.
func (r *Root) updateFiber(old *Fiber, el *element.Element, parent *Fiber) *Fiber {
	nf := &Fiber{
		Type:     el.Type,
		Key:      el.Key,
		Props:    el.Props,
		Element:  el,
		Children: el.Children,
		Parent:   parent,
		Old:      old,
		Node:     old.Node,
		State:    old.State,
		Version:  old.Version + 1,
	}
	nf.State.Current = nf
	return nf
}

// mountFiber creates a fiber for el with a fresh instance. Host nodes
// are created later, when the fiber is first visited.
func (r *Root) mountFiber(el *element.Element, parent *Fiber) *Fiber {
	nf := &Fiber{
		Type:     el.Type,
		Key:      el.Key,
		Props:    el.Props,
		Element:  el,
		Children: el.Children,
		Parent:   parent,
		created:  true,
	}
	nf.State = newInstance(r, nf)
	return nf
}
