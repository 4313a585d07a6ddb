// Package element provides the immutable element model consumed by the
// fiber reconciler.
//
// An Element is a {Type, Props, Key, Children} record. Type is either a
// HostTag naming a node the host adapter creates, or a *Component whose
// Render function produces the next element. Elements are created fresh
// on every render pass; reusing the same *Element value across renders is
// how a parent tells the reconciler that a subtree has not changed.
//
//	list := element.H("ul", nil,
//	    element.H("li", element.Props{"key": "a"}, "Apples"),
//	    element.H("li", element.Props{"key": "b"}, "Bananas"),
//	)
//
// Children are flattened: nested slices are spread, nil and booleans are
// dropped and strings or numbers become text elements.
package element
