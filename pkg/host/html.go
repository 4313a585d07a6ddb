package host

import (
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/fiber/pkg/element"
)

// voidElements are HTML elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// HTML serializes the container's children. Attributes are written in
// sorted order so output is deterministic.
func (m *Memory) HTML() string {
	var b strings.Builder
	_ = m.WriteHTML(&b)
	return b.String()
}

// WriteHTML streams the container's children to w.
func (m *Memory) WriteHTML(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	for _, c := range m.root.children {
		writeNode(&b, c)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, n *MemoryNode) {
	if n.Tag == string(element.TextTag) {
		b.WriteString(escapeHTML(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		if v := n.Attrs[k]; v != "" {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(v))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if voidElements[n.Tag] {
		return
	}
	for _, c := range n.children {
		writeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for attribute values. Whitespace that could
// break attribute parsing is encoded as well.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteString(escapeHTML(string(r)))
		}
	}
	return buf.String()
}
