package host

import "github.com/vango-dev/fiber/pkg/element"

// Node is an opaque host node handle. The adapter that created a node
// owns it; the reconciler only stores and passes it back.
type Node any

// Adapter is the capability set the committer uses to mutate the host
// tree. All methods are called from the root's scheduling goroutine.
type Adapter interface {
	// CreateNode creates a detached node for the given host tag.
	// The text tag "#text" creates a text node.
	CreateNode(tag string) Node

	// AddProps applies props to node, diffing against prev (nil on mount).
	// It must be idempotent: equal props produce no mutation. ref is the
	// fiber that owns the node, passed through for adapters that bind
	// event handlers.
	AddProps(ref any, node Node, props, prev element.Props)

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node)

	// AppendChild attaches child as the last child of parent, moving it
	// if it is already attached.
	AppendChild(parent, child Node)

	// InsertBefore attaches child immediately before before. A nil before
	// appends.
	InsertBefore(parent, child, before Node)

	// ReplaceWith puts replacement in old's position and detaches old.
	ReplaceWith(old, replacement Node)
}

// OpLog is implemented by adapters that record the mutations they
// perform. Decorators use it to observe exactly what an adapter did.
type OpLog interface {
	// Mark returns a position in the log.
	Mark() int
	// OpsSince returns the ops recorded after mark.
	OpsSince(mark int) []Op
}

// Owned is implemented by nodes that know the adapter that created them.
// It lets a root find its adapter from the container node alone.
type Owned interface {
	Adapter() Adapter
}

// AdapterOf returns the adapter owning n, or nil.
func AdapterOf(n Node) Adapter {
	if o, ok := n.(Owned); ok {
		return o.Adapter()
	}
	return nil
}

// IsReserved reports whether a prop name is consumed by the reconciler
// and must not be applied to a host node.
func IsReserved(name string) bool {
	return name == element.KeyProp || name == element.ChildrenProp
}
