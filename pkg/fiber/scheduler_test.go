package fiber

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

func manyItems(n int) *element.Element {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}
	return list(keys...)
}

func TestCreateRootErrors(t *testing.T) {
	mem := host.NewMemory()

	_, err := CreateRoot(nil, list("a"))
	assert.ErrorIs(t, err, ErrNilContainer)

	_, err = CreateRoot(mem.Root(), nil)
	assert.ErrorIs(t, err, ErrNilElement)

	_, err = CreateRoot(struct{}{}, list("a"))
	assert.ErrorIs(t, err, ErrNoAdapter)

	_, err = CreateRoot(struct{}{}, list("a"), WithAdapter(mem))
	assert.NoError(t, err)
}

func TestCreateRootDefersWork(t *testing.T) {
	mem := host.NewMemory()
	root, err := CreateRoot(mem.Root(), list("a"))
	require.NoError(t, err)

	y := root.Yielder().(*ManualYielder)
	assert.Equal(t, 1, y.Pending())
	assert.Empty(t, mem.Ops())
	assert.False(t, root.Idle())

	y.RunUntilIdle()
	assert.True(t, root.Idle())
	assert.Equal(t, listHTML("a"), mem.HTML())
}

func TestWorkLoopYieldsOnBudget(t *testing.T) {
	mem := host.NewMemory()
	y := &ManualYielder{}
	root, err := CreateRoot(mem.Root(), manyItems(10),
		WithYielder(y),
		WithClock(NewFakeClock(time.Millisecond)),
		WithBudget(3*time.Millisecond),
	)
	require.NoError(t, err)

	require.True(t, y.RunNext())
	assert.False(t, root.Idle(), "one budget slice must not finish 12 fibers")
	assert.Empty(t, mem.Ops(), "nothing is committed before the pass completes")
	assert.Equal(t, 1, y.Pending(), "the work loop re-registers itself")
	assert.Equal(t, 1, root.Stats().Yields)

	callbacks := 1 + y.RunUntilIdle()
	assert.True(t, root.Idle())
	assert.Greater(t, callbacks, 3)
	assert.Equal(t, 12, root.Stats().Units)
	assert.Equal(t, 1, root.Stats().Commits)
	assert.Equal(t, listHTML("a", "b", "c", "d", "e", "f", "g", "h", "i", "j"), mem.HTML())
}

func TestUpdateDuringPassWaitsForCommit(t *testing.T) {
	mem := host.NewMemory()
	y := &ManualYielder{}
	var commits []CommitInfo
	root, err := CreateRoot(mem.Root(), manyItems(6),
		WithYielder(y),
		WithClock(NewFakeClock(time.Millisecond)),
		WithBudget(2*time.Millisecond),
		WithCommitHook(func(info CommitInfo) { commits = append(commits, info) }),
	)
	require.NoError(t, err)

	y.RunNext()
	require.False(t, root.Idle())
	require.NoError(t, root.Update(list("z")))
	y.RunUntilIdle()

	require.Len(t, commits, 2)
	assert.Equal(t, uint64(1), commits[0].Seq)
	assert.Equal(t, 8, commits[0].Units)
	assert.Equal(t, uint64(2), commits[1].Seq)
	assert.Equal(t, 6, commits[1].Deletions)
	assert.Equal(t, listHTML("z"), mem.HTML())
}

func TestUpdateAfterUnmount(t *testing.T) {
	var cleaned bool
	comp := element.Func("C", func(element.Props) *element.Element {
		UseEffect(func() Cleanup { return func() { cleaned = true } }, Deps())
		return element.H("div", nil)
	})
	root, mem := mount(t, element.C(comp, nil))

	root.Unmount()
	assert.True(t, cleaned)
	assert.Equal(t, "", mem.HTML())
	assert.Equal(t, []string{"remove div from root"}, host.Strings(mem.Ops()))

	assert.ErrorIs(t, root.Update(list("a")), ErrRootClosed)
	root.Unmount()
}

func TestSetterAfterUnmountIsIgnored(t *testing.T) {
	c := newCounter("Counter")
	root, _ := mount(t, element.C(c.comp, nil))
	root.Unmount()

	c.set(inc)
	root.Flush()
	assert.Equal(t, 1, c.renders)
	assert.True(t, root.Idle())
}

func TestDispatchRunsThroughYielder(t *testing.T) {
	c := newCounter("Counter")
	root, mem := mount(t, element.C(c.comp, element.Props{"id": "n"}))
	y := root.Yielder().(*ManualYielder)
	y.RunUntilIdle()

	done := make(chan struct{})
	go func() {
		root.Dispatch(func() { c.set(inc) })
		close(done)
	}()
	<-done

	y.RunUntilIdle()
	assert.Equal(t, `<p id="n">1</p>`, mem.HTML())
}

func TestMultipleRootsAreIndependent(t *testing.T) {
	a, b := newCounter("A"), newCounter("B")
	rootA, memA := mount(t, element.C(a.comp, element.Props{"id": "a"}))
	_, memB := mount(t, element.C(b.comp, element.Props{"id": "b"}))

	a.set(inc)
	rootA.Flush()

	assert.Equal(t, `<p id="a">1</p>`, memA.HTML())
	assert.Equal(t, `<p id="b">0</p>`, memB.HTML())
	assert.Empty(t, memB.Ops())
}

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func sum(f *dto.MetricFamily) float64 {
	var total float64
	for _, m := range f.GetMetric() {
		if c := m.GetCounter(); c != nil {
			total += c.GetValue()
		}
	}
	return total
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	root, mem := mount(t, list("a", "b", "c"), WithMetrics(m))
	update(t, root, mem, list("c", "b"))

	families := gather(t, reg)
	require.Contains(t, families, "test_commits_total")
	assert.Equal(t, 2.0, sum(families["test_commits_total"]))
	assert.Equal(t, 2.0, sum(families["test_passes_total"]))
	assert.Equal(t, 1.0, sum(families["test_deletions_total"]))
	assert.Equal(t, float64(root.Stats().Units), sum(families["test_units_total"]))

	ops := map[string]float64{}
	for _, metric := range families["test_host_ops_total"].GetMetric() {
		ops[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, ops["remove"])
	assert.Equal(t, 1.0, ops["insert"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.unit()
	m.pass("root")
	m.yield()
	m.hostOp("append")
	m.queue(3)
	m.commit(time.Millisecond, 1, 1)
}

func TestEventLoopYielder(t *testing.T) {
	y, err := NewEventLoopYielder(nil)
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = y.Close(ctx)
	}()

	committed := make(chan CommitInfo, 1)
	mem := host.NewMemory()
	_, err = CreateRoot(mem.Root(), list("a", "b"),
		WithYielder(y),
		WithCommitHook(func(info CommitInfo) { committed <- info }),
	)
	require.NoError(t, err)

	select {
	case info := <-committed:
		assert.Equal(t, uint64(1), info.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("root never committed on the event loop")
	}
	assert.Equal(t, listHTML("a", "b"), mem.HTML())
}

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(time.Second)
	t0 := c.Now()
	assert.Equal(t, time.Second, c.Now().Sub(t0))
	c.Advance(time.Minute)
	assert.Equal(t, 2*time.Second+time.Minute, c.Now().Sub(t0))
}
