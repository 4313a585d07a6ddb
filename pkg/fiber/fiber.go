package fiber

import (
	"strings"
	"sync/atomic"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// Flags records what the committer must do with a fiber.
type Flags uint8

const (
	// Mounted: fresh host node under a fresh host parent; append it.
	Mounted Flags = 1 << iota
	// Moved: place the node before its next host sibling.
	Moved
	// MovedEnd: like Moved, for a fiber placed past the old tail.
	MovedEnd
	// Skipped: children were adopted from the old fiber without diffing.
	Skipped
	// Old: superseded or deleted. Links are severed; do not traverse.
	Old
)

var flagNames = []string{"Mounted", "Moved", "MovedEnd", "Skipped", "Old"}

// String returns the set flags joined with "|".
func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// placement reports whether the fiber needs a placement callback.
func (f Flags) placement() bool {
	return f&(Moved|MovedEnd) != 0
}

// Fiber is one instantiated element paired with the fiber it replaces.
//
// Parent exclusively owns the chain starting at Child; Sibling and
// Parent are traversal links. Old points at the previous version until
// the commit that supersedes it.
type Fiber struct {
	Type     element.Type
	Key      string
	Props    element.Props
	Element  *element.Element
	Children []*element.Element

	Parent  *Fiber
	Child   *Fiber
	Sibling *Fiber
	Old     *Fiber

	// Node is the host node for host fibers. nil for components.
	Node host.Node

	// State is shared by every version of one component instance.
	State *Instance

	Flags   Flags
	Version int

	// created is set for fibers instantiated in the current pass.
	created bool
	// replaces holds the host node being swapped out by a forced remount.
	replaces host.Node

	// effects and cleanups queued by this fiber's render, declaration order.
	effects  []*effectHook
	cleanups []Cleanup
}

// IsHost reports whether the fiber renders a host node.
func (f *Fiber) IsHost() bool {
	_, ok := f.Type.(element.HostTag)
	return ok
}

// Component returns the fiber's component, or nil for host fibers.
func (f *Fiber) Component() *element.Component {
	c, _ := f.Type.(*element.Component)
	return c
}

// String returns a short description such as li#a or Counter.
func (f *Fiber) String() string {
	if f == nil {
		return "<nil>"
	}
	if f.Key != "" {
		return f.Type.String() + "#" + f.Key
	}
	return f.Type.String()
}

// hostFresh reports whether the nearest host fiber at or above f was
// created in this pass, meaning its children can simply be appended.
func (f *Fiber) hostFresh() bool {
	for n := f; n != nil; n = n.Parent {
		if n.IsHost() {
			return n.created || n.replaces != nil
		}
	}
	return false
}

// hostParent returns the node of the nearest host ancestor.
func (f *Fiber) hostParent() host.Node {
	for p := f.Parent; p != nil; p = p.Parent {
		if p.Node != nil {
			return p.Node
		}
	}
	panic(newInvariant("F003", f))
}

// hostSibling returns the first host node that follows f in host order
// under the same host parent, or nil when f is last.
func (f *Fiber) hostSibling() host.Node {
	for n := f; n != nil; n = n.Parent {
		for s := n.Sibling; s != nil; s = s.Sibling {
			if node := s.firstHostNode(); node != nil {
				return node
			}
		}
		if n.Parent == nil || n.Parent.Node != nil {
			return nil
		}
	}
	return nil
}

// firstHostNode returns f's node, or the first host node in its subtree.
func (f *Fiber) firstHostNode() host.Node {
	if f.Node != nil {
		return f.Node
	}
	for c := f.Child; c != nil; c = c.Sibling {
		if n := c.firstHostNode(); n != nil {
			return n
		}
	}
	return nil
}

// topHostNodes appends the outermost host nodes of f's subtree in order.
func (f *Fiber) topHostNodes(out []host.Node) []host.Node {
	if f.Node != nil {
		return append(out, f.Node)
	}
	for c := f.Child; c != nil; c = c.Sibling {
		out = c.topHostNodes(out)
	}
	return out
}

// sever unlinks a superseded fiber.
func (f *Fiber) sever() {
	f.Parent = nil
	f.Child = nil
	f.Sibling = nil
	f.Node = nil
	f.Old = nil
	f.Flags = Old
	f.effects = nil
	f.cleanups = nil
}

// settle clears per-pass bookkeeping once a fiber is committed.
func (f *Fiber) settle() {
	f.Old = nil
	f.created = false
	f.replaces = nil
	f.Flags &^= Mounted | Moved | MovedEnd | Skipped
	f.effects = nil
	f.cleanups = nil
}

var instanceIDs atomic.Uint64

// Instance is the long-lived state of one component instance. Every fiber
// version of the instance points at the same Instance, and Current always
// points at the newest one.
type Instance struct {
	id      uint64
	root    *Root
	Current *Fiber

	hooks   []any
	hookIdx int

	// order is the hook sequence recorded on first render (debug only).
	order    []hookKind
	rendered bool

	// dirty is set when a state update is pending for the next render.
	dirty     bool
	unmounted bool
}

func newInstance(r *Root, f *Fiber) *Instance {
	return &Instance{
		id:      instanceIDs.Add(1),
		root:    r,
		Current: f,
	}
}

// ID returns the instance identifier.
func (i *Instance) ID() uint64 {
	return i.id
}

// deletion is an old fiber scheduled for removal. detach is false when
// an ancestor's node is being replaced wholesale.
type deletion struct {
	fiber  *Fiber
	detach bool
}
