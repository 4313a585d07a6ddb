package host

import (
	"fmt"
	"strconv"
)

// OpKind is the type of a recorded host mutation.
type OpKind uint8

const (
	OpSetProp    OpKind = 0x01 // Set/update a property
	OpRemoveProp OpKind = 0x02 // Remove a property
	OpSetText    OpKind = 0x03 // Update text content
	OpAppend     OpKind = 0x04 // Append child
	OpInsert     OpKind = 0x05 // Insert child before sibling
	OpRemove     OpKind = 0x06 // Remove child
	OpReplace    OpKind = 0x07 // Replace node entirely
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpSetProp:
		return "SetProp"
	case OpRemoveProp:
		return "RemoveProp"
	case OpSetText:
		return "SetText"
	case OpAppend:
		return "Append"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// Structural reports whether the op changes tree shape rather than
// node properties.
func (k OpKind) Structural() bool {
	switch k {
	case OpAppend, OpInsert, OpRemove, OpReplace:
		return true
	}
	return false
}

// Op is a single host mutation recorded by Memory. Node labels are
// produced by Label (tag plus id attribute, or quoted text).
type Op struct {
	Kind   OpKind `json:"kind"`
	Node   string `json:"node"`
	Parent string `json:"parent,omitempty"`
	Before string `json:"before,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
}

// String renders the op in a compact human form, e.g.
// "insert li#d before li#c" or "append li#a to ul".
func (o Op) String() string {
	switch o.Kind {
	case OpSetProp:
		return fmt.Sprintf("set %s.%s=%s", o.Node, o.Key, strconv.Quote(o.Value))
	case OpRemoveProp:
		return fmt.Sprintf("unset %s.%s", o.Node, o.Key)
	case OpSetText:
		return fmt.Sprintf("text %s", strconv.Quote(o.Value))
	case OpAppend:
		return fmt.Sprintf("append %s to %s", o.Node, o.Parent)
	case OpInsert:
		return fmt.Sprintf("insert %s before %s", o.Node, o.Before)
	case OpRemove:
		return fmt.Sprintf("remove %s from %s", o.Node, o.Parent)
	case OpReplace:
		return fmt.Sprintf("replace %s with %s", o.Before, o.Node)
	default:
		return "unknown op"
	}
}

// Structural filters ops down to tree-shape changes.
func Structural(ops []Op) []Op {
	var out []Op
	for _, op := range ops {
		if op.Kind.Structural() {
			out = append(out, op)
		}
	}
	return out
}

// Strings formats every op with Op.String.
func Strings(ops []Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}
