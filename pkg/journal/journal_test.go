package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
)

func open(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := open(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j.now = func() time.Time { return at }

	require.NoError(t, j.Record(fiber.CommitInfo{Seq: 1, Units: 4, Placements: 1, Duration: time.Millisecond}))
	require.NoError(t, j.Record(fiber.CommitInfo{Seq: 2, Component: "Counter", Units: 1, Effects: 2, Cleanups: 2}))
	require.NoError(t, j.Record(fiber.CommitInfo{Seq: 3, Deletions: 3}))

	all, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, 4, all[0].Units)
	assert.Equal(t, 1, all[0].Placements)
	assert.Equal(t, time.Millisecond, all[0].Duration)
	assert.True(t, at.Equal(all[0].CommittedAt))

	assert.Equal(t, "Counter", all[1].Component)
	assert.Equal(t, 2, all[1].Effects)
	assert.Equal(t, 2, all[1].Cleanups)
	assert.Equal(t, 3, all[2].Deletions)

	recent, err := j.List(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(2), recent[0].Seq)
	assert.Equal(t, uint64(3), recent[1].Seq)
}

func TestHookRecordsRootCommits(t *testing.T) {
	j := open(t)
	mem := host.NewMemory()

	root, err := fiber.CreateRoot(mem.Root(), element.H("p", nil, element.Text("a")),
		fiber.WithCommitHook(j.Hook(nil)))
	require.NoError(t, err)
	root.Flush()

	require.NoError(t, root.Update(element.H("p", nil, element.Text("b"))))
	root.Flush()

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, uint64(2), entries[1].Seq)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commits.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(fiber.CommitInfo{Seq: 7}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(7), entries[0].Seq)
}

func TestOpenFailure(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "commits.db"))
	require.Error(t, err)
	assert.Equal(t, "F050", ferrors.CodeOf(err))
}

func TestRecordAfterClose(t *testing.T) {
	j, err := Open(Memory)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	err = j.Record(fiber.CommitInfo{Seq: 1})
	assert.Equal(t, "F051", ferrors.CodeOf(err))
}
