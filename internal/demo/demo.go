package demo

import (
	"fmt"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
)

// Filters accepted by State.Filter.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterDone   = "done"
)

// Todo is one list entry. ID doubles as the element key.
type Todo struct {
	ID    string
	Title string
	Done  bool
}

// State is the input of one App render.
type State struct {
	Todos  []Todo
	Filter string
}

// Visible returns the todos that pass the filter.
func (s State) Visible() []Todo {
	var out []Todo
	for _, t := range s.Todos {
		switch s.Filter {
		case FilterActive:
			if t.Done {
				continue
			}
		case FilterDone:
			if !t.Done {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Item renders one todo. Unchanged todos are skipped.
var Item = element.Memo(element.Func("TodoItem", func(p element.Props) *element.Element {
	t := p["todo"].(Todo)
	class := "todo"
	if t.Done {
		class = "todo done"
	}
	return element.H("li", element.Props{"id": t.ID, "class": class},
		element.Text(t.Title))
}), nil)

// Stats shows how many todos remain.
var Stats = element.Func("Stats", func(p element.Props) *element.Element {
	todos, _ := p["todos"].([]Todo)
	remaining := fiber.UseMemo(func() int {
		n := 0
		for _, t := range todos {
			if !t.Done {
				n++
			}
		}
		return n
	}, fiber.Deps(todos))
	return element.H("p", element.Props{"id": "stats"},
		element.Textf("%d of %d remaining", remaining, len(todos)))
})

// Counter keeps local state updated by its onClick handler.
var Counter = element.Func("Counter", func(p element.Props) *element.Element {
	clicks, setClicks := fiber.UseState(0)
	onClick := fiber.UseCallback(func() {
		setClicks(func(n int) int { return n + 1 })
	}, fiber.Deps())
	return element.H("button", element.Props{"id": "inc", "onClick": onClick},
		element.Textf("clicked %d", clicks))
})

// App renders the whole todo view.
func App(s State) *element.Element {
	visible := s.Visible()
	items := make([]any, len(visible))
	for i, t := range visible {
		items[i] = element.C(Item, element.Props{"key": t.ID, "todo": t})
	}
	filter := s.Filter
	if filter == "" {
		filter = FilterAll
	}
	return element.H("section", element.Props{"id": "app"},
		element.H("h1", nil, element.Text("todos")),
		element.C(Stats, element.Props{"todos": s.Todos}),
		element.H("ul", element.Props{"id": "list", "data-filter": filter}, items...),
		element.C(Counter, nil),
	)
}

// Step is one scripted interaction: either a new State or a click on the
// node with id Click.
type Step struct {
	Name  string
	State State
	Click string
}

// Apply performs the step against root. It must run on the root's
// goroutine (see fiber.Root.Dispatch).
func (s Step) Apply(root *fiber.Root, mem *host.Memory) error {
	if s.Click == "" {
		return root.Update(App(s.State))
	}
	n := mem.Find(s.Click)
	if n == nil {
		return fmt.Errorf("demo: no node with id %q", s.Click)
	}
	fn, ok := n.Handler("onClick").(func())
	if !ok {
		return fmt.Errorf("demo: node %q has no click handler", s.Click)
	}
	fn()
	return nil
}

// Script returns the scripted session: mount, add, toggle, reorder,
// click, remove, filter and clear.
func Script() []Step {
	a := Todo{ID: "a", Title: "write docs"}
	b := Todo{ID: "b", Title: "build reconciler"}
	c := Todo{ID: "c", Title: "test scheduler"}
	d := Todo{ID: "d", Title: "ship"}
	bDone := b
	bDone.Done = true

	return []Step{
		{Name: "mount", State: State{Todos: []Todo{a, b, c}}},
		{Name: "add", State: State{Todos: []Todo{a, b, c, d}}},
		{Name: "toggle", State: State{Todos: []Todo{a, bDone, c, d}}},
		{Name: "reorder", State: State{Todos: []Todo{d, a, c, bDone}}},
		{Name: "click", Click: "inc"},
		{Name: "remove", State: State{Todos: []Todo{d, bDone}}},
		{Name: "filter", State: State{Todos: []Todo{d, bDone}, Filter: FilterDone}},
		{Name: "clear", State: State{}},
	}
}
