package demo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
)

type session struct {
	root    *fiber.Root
	mem     *host.Memory
	commits []fiber.CommitInfo
}

func start(t *testing.T) *session {
	t.Helper()
	s := &session{mem: host.NewMemory()}
	script := Script()
	root, err := fiber.CreateRoot(s.mem.Root(), App(script[0].State),
		fiber.WithDebug(true),
		fiber.WithCommitHook(func(info fiber.CommitInfo) {
			s.commits = append(s.commits, info)
		}))
	require.NoError(t, err)
	root.Flush()
	s.root = root
	return s
}

func (s *session) apply(t *testing.T, step Step) []string {
	t.Helper()
	s.mem.Reset()
	require.NoError(t, step.Apply(s.root, s.mem))
	s.root.Flush()
	return host.Strings(host.Structural(s.mem.Ops()))
}

func TestVisible(t *testing.T) {
	todos := []Todo{{ID: "a"}, {ID: "b", Done: true}, {ID: "c"}}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"a", "b", "c"}},
		{FilterAll, []string{"a", "b", "c"}},
		{FilterActive, []string{"a", "c"}},
		{FilterDone, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			var got []string
			for _, todo := range (State{Todos: todos, Filter: tt.filter}).Visible() {
				got = append(got, todo.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMount(t *testing.T) {
	s := start(t)

	want := `<section id="app"><h1>todos</h1><p id="stats">3 of 3 remaining</p>` +
		`<ul data-filter="all" id="list">` +
		`<li class="todo" id="a">write docs</li>` +
		`<li class="todo" id="b">build reconciler</li>` +
		`<li class="todo" id="c">test scheduler</li>` +
		`</ul><button id="inc">clicked 0</button></section>`
	assert.Equal(t, want, s.mem.HTML())
	require.Len(t, s.commits, 1)
	assert.Equal(t, "", s.commits[0].Component)
}

func TestScript(t *testing.T) {
	s := start(t)
	steps := Script()[1:]

	ops := s.apply(t, steps[0]) // add
	assert.Equal(t, []string{"append li#d to ul#list"}, ops)
	assert.Contains(t, s.mem.HTML(), "4 of 4 remaining")

	ops = s.apply(t, steps[1]) // toggle
	assert.Empty(t, ops)
	assert.Contains(t, s.mem.HTML(), `<li class="todo done" id="b">`)
	assert.Contains(t, s.mem.HTML(), "3 of 4 remaining")
	assert.Equal(t, []string{`set li#b.class="todo done"`}, propOps(s.mem))

	ops = s.apply(t, steps[2]) // reorder
	for _, op := range ops {
		assert.False(t, strings.HasPrefix(op, "remove"), "reorder must move, not remove: %s", op)
	}
	assert.Contains(t, s.mem.HTML(), `id="list"><li class="todo" id="d">ship</li><li class="todo" id="a">`)

	ops = s.apply(t, steps[3]) // click
	assert.Empty(t, ops)
	assert.Contains(t, s.mem.HTML(), "clicked 1")
	assert.Equal(t, "Counter", s.commits[len(s.commits)-1].Component)

	ops = s.apply(t, steps[4]) // remove
	assert.ElementsMatch(t, []string{"remove li#a from ul#list", "remove li#c from ul#list"}, ops)
	assert.Contains(t, s.mem.HTML(), "clicked 1")

	ops = s.apply(t, steps[5]) // filter
	assert.Equal(t, []string{"remove li#d from ul#list"}, ops)
	assert.Contains(t, s.mem.HTML(), `<ul data-filter="done" id="list"><li class="todo done" id="b">`)

	ops = s.apply(t, steps[6]) // clear
	assert.Equal(t, []string{"replace ul#list with ul#list"}, ops)
	assert.Contains(t, s.mem.HTML(), `0 of 0 remaining`)
	assert.Contains(t, s.mem.HTML(), `<ul data-filter="all" id="list"></ul>`)
}

func TestClickUnknownNode(t *testing.T) {
	s := start(t)

	err := Step{Click: "missing"}.Apply(s.root, s.mem)
	assert.ErrorContains(t, err, "missing")

	err = Step{Click: "stats"}.Apply(s.root, s.mem)
	assert.ErrorContains(t, err, "no click handler")
}

func propOps(mem *host.Memory) []string {
	var out []string
	for _, op := range mem.Ops() {
		if op.Kind == host.OpSetProp {
			out = append(out, op.String())
		}
	}
	return out
}
