package host

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vango-dev/fiber/pkg/element"
)

// Memory is an in-memory host tree. It implements Adapter and records
// every mutation it performs as an Op, which makes it the reference host
// for tests and for the op stream served by the CLI.
//
// Mutations come from a single root goroutine; reads (HTML, Ops) are safe
// from any goroutine.
type Memory struct {
	mu   sync.RWMutex
	root *MemoryNode
	ops  []Op
	ids  int
}

// MemoryNode is a node of a Memory tree.
type MemoryNode struct {
	Tag      string
	Attrs    map[string]string
	Handlers map[string]any
	Text     string

	id       int
	parent   *MemoryNode
	children []*MemoryNode
	mem      *Memory
}

// NewMemory creates an empty host tree whose container node has the tag
// "root".
func NewMemory() *Memory {
	m := &Memory{}
	m.root = m.newNode("root")
	return m
}

// Root returns the container node.
func (m *Memory) Root() *MemoryNode {
	return m.root
}

// Ops returns a copy of the recorded ops.
func (m *Memory) Ops() []Op {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Op(nil), m.ops...)
}

// Reset clears the recorded ops.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

// Mark implements OpLog.
func (m *Memory) Mark() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ops)
}

// OpsSince implements OpLog. A Reset after mark was taken yields every op
// recorded since the Reset.
func (m *Memory) OpsSince(mark int) []Op {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mark > len(m.ops) {
		mark = 0
	}
	return append([]Op(nil), m.ops[mark:]...)
}

func (m *Memory) newNode(tag string) *MemoryNode {
	m.ids++
	return &MemoryNode{
		Tag:   tag,
		Attrs: make(map[string]string),
		id:    m.ids,
		mem:   m,
	}
}

func (m *Memory) record(op Op) {
	m.ops = append(m.ops, op)
}

// CreateNode implements Adapter.
func (m *Memory) CreateNode(tag string) Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newNode(tag)
}

// AddProps implements Adapter.
func (m *Memory) AddProps(_ any, node Node, props, prev element.Props) {
	n := m.cast(node)
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.Tag == string(element.TextTag) {
		text := props.String(element.TextProp)
		if prev != nil && element.Same(prev[element.TextProp], props[element.TextProp]) {
			return
		}
		if prev == nil && text == "" {
			return
		}
		n.Text = text
		m.record(Op{Kind: OpSetText, Node: n.label(), Value: text})
		return
	}

	for _, key := range sortedKeys(prev) {
		if IsReserved(key) {
			continue
		}
		if _, ok := props[key]; !ok {
			m.removeProp(n, key)
		}
	}

	for _, key := range sortedKeys(props) {
		value := props[key]
		if IsReserved(key) {
			continue
		}
		if prev != nil {
			if old, ok := prev[key]; ok && element.Same(old, value) {
				continue
			}
		}
		if IsHandler(key, value) {
			if n.Handlers == nil {
				n.Handlers = make(map[string]any)
			}
			n.Handlers[key] = value
			continue
		}
		if value == nil || value == false {
			m.removeProp(n, key)
			continue
		}
		s := PropString(value)
		if cur, ok := n.Attrs[key]; ok && cur == s {
			continue
		}
		n.Attrs[key] = s
		m.record(Op{Kind: OpSetProp, Node: n.label(), Key: key, Value: s})
	}
}

// sortedKeys fixes the order props are diffed in, and so the op log.
func sortedKeys(p element.Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) removeProp(n *MemoryNode, key string) {
	if _, ok := n.Handlers[key]; ok {
		delete(n.Handlers, key)
		return
	}
	if _, ok := n.Attrs[key]; !ok {
		return
	}
	delete(n.Attrs, key)
	m.record(Op{Kind: OpRemoveProp, Node: n.label(), Key: key})
}

// RemoveChild implements Adapter.
func (m *Memory) RemoveChild(parent, child Node) {
	p, c := m.cast(parent), m.cast(child)
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.parent != p {
		panic(fmt.Sprintf("host: %s is not a child of %s", c.label(), p.label()))
	}
	c.detach()
	m.record(Op{Kind: OpRemove, Node: c.label(), Parent: p.label()})
}

// AppendChild implements Adapter.
func (m *Memory) AppendChild(parent, child Node) {
	p, c := m.cast(parent), m.cast(child)
	m.mu.Lock()
	defer m.mu.Unlock()
	c.detach()
	c.parent = p
	p.children = append(p.children, c)
	m.record(Op{Kind: OpAppend, Node: c.label(), Parent: p.label()})
}

// InsertBefore implements Adapter.
func (m *Memory) InsertBefore(parent, child, before Node) {
	if before == nil {
		m.AppendChild(parent, child)
		return
	}
	p, c, b := m.cast(parent), m.cast(child), m.cast(before)
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.parent != p {
		panic(fmt.Sprintf("host: %s is not a child of %s", b.label(), p.label()))
	}
	c.detach()
	idx := p.indexOf(b)
	p.children = append(p.children, nil)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = c
	c.parent = p
	m.record(Op{Kind: OpInsert, Node: c.label(), Parent: p.label(), Before: b.label()})
}

// ReplaceWith implements Adapter.
func (m *Memory) ReplaceWith(old, replacement Node) {
	o, r := m.cast(old), m.cast(replacement)
	m.mu.Lock()
	defer m.mu.Unlock()
	p := o.parent
	if p == nil {
		panic(fmt.Sprintf("host: %s is detached", o.label()))
	}
	r.detach()
	p.children[p.indexOf(o)] = r
	r.parent = p
	o.parent = nil
	m.record(Op{Kind: OpReplace, Node: r.label(), Parent: p.label(), Before: o.label()})
}

func (m *Memory) cast(n Node) *MemoryNode {
	mn, ok := n.(*MemoryNode)
	if !ok || mn == nil {
		panic(fmt.Sprintf("host: %T is not a memory node", n))
	}
	if mn.mem != m {
		panic("host: node belongs to a different memory tree")
	}
	return mn
}

// Adapter implements Owned.
func (n *MemoryNode) Adapter() Adapter {
	return n.mem
}

// Parent returns the parent node, or nil when detached.
func (n *MemoryNode) Parent() *MemoryNode {
	n.mem.mu.RLock()
	defer n.mem.mu.RUnlock()
	return n.parent
}

// Children returns a copy of the child list.
func (n *MemoryNode) Children() []*MemoryNode {
	n.mem.mu.RLock()
	defer n.mem.mu.RUnlock()
	return append([]*MemoryNode(nil), n.children...)
}

// Label returns the node label used in ops: "#text" nodes render as their
// quoted text, elements as tag or tag#id.
func (n *MemoryNode) Label() string {
	n.mem.mu.RLock()
	defer n.mem.mu.RUnlock()
	return n.label()
}

func (n *MemoryNode) label() string {
	if n.Tag == string(element.TextTag) {
		return strconv.Quote(n.Text)
	}
	if id, ok := n.Attrs["id"]; ok {
		return n.Tag + "#" + id
	}
	return n.Tag
}

func (n *MemoryNode) detach() {
	p := n.parent
	if p == nil {
		return
	}
	idx := p.indexOf(n)
	p.children = append(p.children[:idx], p.children[idx+1:]...)
	n.parent = nil
}

func (n *MemoryNode) indexOf(child *MemoryNode) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	panic(fmt.Sprintf("host: %s is not a child of %s", child.label(), n.label()))
}

// IsHandler reports whether a prop is an event handler rather than an
// attribute.
func IsHandler(key string, value any) bool {
	if len(key) > 2 && strings.EqualFold(key[:2], "on") {
		return true
	}
	_, isFunc := value.(func())
	return isFunc
}

// PropString converts a prop value to its attribute string.
func PropString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return ""
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Find returns the first node in document order whose id attribute is id.
func (m *Memory) Find(id string) *MemoryNode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return find(m.root, id)
}

func find(n *MemoryNode, id string) *MemoryNode {
	if id != "" && n != n.mem.root && n.Attrs["id"] == id {
		return n
	}
	for _, c := range n.children {
		if found := find(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Handler returns the event handler bound under name, or nil.
func (n *MemoryNode) Handler(name string) any {
	n.mem.mu.RLock()
	defer n.mem.mu.RUnlock()
	return n.Handlers[name]
}
