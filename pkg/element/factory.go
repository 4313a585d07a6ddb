package element

import (
	"fmt"
	"reflect"
)

// H creates a host element.
//
//	H("ul", nil,
//	    H("li", Props{"key": "a"}, "first"),
//	    H("li", Props{"key": "b"}, "second"),
//	)
func H(tag string, props Props, children ...any) *Element {
	return build(HostTag(tag), props, children)
}

// C creates a component element. The flattened children are passed to
// the component under props["children"].
func C(c *Component, props Props, children ...any) *Element {
	return build(c, props, children)
}

// Text creates a text element.
func Text(content string) *Element {
	return &Element{
		Type:  TextTag,
		Props: Props{TextProp: content},
	}
}

// Textf creates a formatted text element.
func Textf(format string, args ...any) *Element {
	return Text(fmt.Sprintf(format, args...))
}

func build(t Type, props Props, children []any) *Element {
	el := &Element{Type: t, Props: make(Props, len(props)+1)}
	for k, v := range props {
		if k == KeyProp {
			if v != nil {
				el.Key = fmt.Sprint(v)
			}
			continue
		}
		el.Props[k] = v
	}
	if kids, ok := props[ChildrenProp]; ok && len(children) == 0 {
		children = []any{kids}
	}
	el.Children = Flatten(children...)
	if len(el.Children) > 0 {
		el.Props[ChildrenProp] = el.Children
	} else {
		delete(el.Props, ChildrenProp)
	}
	return el
}

// Flatten normalizes a child list: nested slices are spread, nil and
// booleans are dropped and primitives are wrapped as text elements.
func Flatten(children ...any) []*Element {
	out := make([]*Element, 0, len(children))
	for _, child := range children {
		out = appendChild(out, child)
	}
	return out
}

func appendChild(out []*Element, child any) []*Element {
	switch v := child.(type) {
	case nil, bool:
		return out
	case *Element:
		if v != nil {
			out = append(out, v)
		}
	case []*Element:
		for _, c := range v {
			if c != nil {
				out = append(out, c)
			}
		}
	case []any:
		for _, c := range v {
			out = appendChild(out, c)
		}
	case string:
		out = append(out, Text(v))
	case fmt.Stringer:
		out = append(out, Text(v.String()))
	default:
		rv := reflect.ValueOf(child)
		if rv.Kind() == reflect.Slice {
			for i := 0; i < rv.Len(); i++ {
				out = appendChild(out, rv.Index(i).Interface())
			}
			return out
		}
		out = append(out, Text(fmt.Sprint(v)))
	}
	return out
}
