package element

import (
	"fmt"
	"strconv"
)

// Type discriminates what an Element instantiates: a host node tag or a
// component. It is either a HostTag or a *Component.
type Type interface {
	isType()
	String() string
}

// HostTag names a node created by the host adapter (e.g., "div").
type HostTag string

func (HostTag) isType() {}

// String returns the tag name.
func (t HostTag) String() string { return string(t) }

// TextTag is the host tag used for text elements.
const TextTag HostTag = "#text"

// TextProp is the prop holding a text element's content.
const TextProp = "nodeValue"

// Reserved prop names that never reach the host adapter as attributes.
const (
	KeyProp      = "key"
	ChildrenProp = "children"
)

// RenderFunc renders a component's props into at most one element.
type RenderFunc func(props Props) *Element

// Component is a user-defined element type. Component identity is the
// pointer, so components are declared once (usually at package level)
// and reused across renders.
type Component struct {
	// Name is used in logs, errors and Fiber.String.
	Name string

	// Render produces the component's child element. Hooks may only be
	// called from inside Render.
	Render RenderFunc

	// Compare reports whether two props values are equal for the purpose
	// of skipping a re-render. nil means the component always re-renders
	// unless its element is reference-identical.
	Compare func(prev, next Props) bool
}

func (*Component) isType() {}

// String returns the component name.
func (c *Component) String() string {
	if c == nil || c.Name == "" {
		return "Component"
	}
	return c.Name
}

// Func declares a component from a render function.
func Func(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

// Memo returns a copy of c that skips re-rendering when compare reports
// equal props. A nil compare uses ShallowEqual.
func Memo(c *Component, compare func(prev, next Props) bool) *Component {
	if compare == nil {
		compare = ShallowEqual
	}
	return &Component{Name: c.Name, Render: c.Render, Compare: compare}
}

// Props holds element properties. The "key" and "children" entries are
// reserved: the key is lifted onto Element.Key and children onto
// Element.Children (components also see children under "children").
type Props map[string]any

// Children returns the children stored under "children".
func (p Props) Children() []*Element {
	c, _ := p[ChildrenProp].([]*Element)
	return c
}

// String returns the value of a prop formatted as a string, or "".
func (p Props) String(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Element is an immutable description of one node of the UI tree. A new
// set of elements is produced on every render pass.
type Element struct {
	Type     Type
	Props    Props
	Key      string
	Children []*Element
}

// IsHost reports whether the element describes a host node.
func (e *Element) IsHost() bool {
	if e == nil {
		return false
	}
	_, ok := e.Type.(HostTag)
	return ok
}

// IsText reports whether the element is a text element.
func (e *Element) IsText() bool {
	return e != nil && e.Type == TextTag
}

// String returns a short description such as li#a or Counter.
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.IsText() {
		return strconv.Quote(e.Props.String(TextProp))
	}
	if e.Key != "" {
		return e.Type.String() + "#" + e.Key
	}
	return e.Type.String()
}

// KeyOf returns the explicit key of e, or "" when e has none.
func KeyOf(e *Element) string {
	if e == nil {
		return ""
	}
	return e.Key
}

// SameType reports whether a and b describe the same element type.
func SameType(a, b Type) bool {
	switch at := a.(type) {
	case HostTag:
		bt, ok := b.(HostTag)
		return ok && at == bt
	case *Component:
		bt, ok := b.(*Component)
		return ok && at == bt
	}
	return false
}
