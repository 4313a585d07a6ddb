package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
)

func list(keys ...string) *element.Element {
	items := make([]any, len(keys))
	for i, k := range keys {
		items[i] = element.H("li", element.Props{"key": k, "id": k})
	}
	return element.H("ul", nil, items...)
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestAdapterRecordsMutations(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub()
	root, err := fiber.CreateRoot(mem.Root(), list("a", "b", "c"), fiber.WithAdapter(hub.Adapter(mem)))
	require.NoError(t, err)
	root.Flush()

	mounted := hub.take()
	assert.Equal(t, host.Strings(mem.Ops()), host.Strings(mounted))

	mem.Reset()
	require.NoError(t, root.Update(list("b", "d", "c", "a")))
	root.Flush()

	assert.Equal(t, host.Strings(mem.Ops()), host.Strings(hub.take()))
	assert.Empty(t, hub.take())
}

func TestAdapterRecordsPropsAndText(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub()
	view := func(class, label string) *element.Element {
		return element.H("div", element.Props{"id": "box", "class": class, "onClick": func() {}},
			element.Text(label))
	}

	root, err := fiber.CreateRoot(mem.Root(), view("a", "hello"), fiber.WithAdapter(hub.Adapter(mem)))
	require.NoError(t, err)
	root.Flush()
	hub.take()

	require.NoError(t, root.Update(view("b", "world")))
	root.Flush()

	assert.Equal(t, []string{`set div#box.class="b"`, `text "world"`}, host.Strings(hub.take()))
}

func TestAdapterMatchesHostOps(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub()
	a := hub.Adapter(mem)

	n := a.CreateNode("input")
	a.AppendChild(mem.Root(), n)
	mounted := element.Props{"id": "x", "checked": false, "hidden": nil, "tabindex": 1}
	a.AddProps(nil, n, mounted, nil)
	same := element.Props{"id": "x", "checked": false, "hidden": nil, "tabindex": "1"}
	a.AddProps(nil, n, same, mounted)
	a.AddProps(nil, n, same, same)

	want := []string{
		"append input to root",
		`set input#x.id="x"`,
		`set input#x.tabindex="1"`,
	}
	assert.Equal(t, want, host.Strings(mem.Ops()))
	assert.Equal(t, mem.Ops(), hub.take())
}

// plain hides the memory host's op log.
type plain struct {
	host.Adapter
}

func TestAdapterWithoutOpLogRecordsStructure(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub()
	root, err := fiber.CreateRoot(mem.Root(), list("a", "b"), fiber.WithAdapter(hub.Adapter(plain{mem})))
	require.NoError(t, err)
	root.Flush()

	assert.Equal(t, host.Strings(host.Structural(mem.Ops())), host.Strings(hub.take()))
}

func TestHubBroadcastsCommits(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub(WithSnapshot(mem.HTML))
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	root, err := fiber.CreateRoot(mem.Root(), list("a", "b"),
		fiber.WithAdapter(hub.Adapter(mem)),
		fiber.WithCommitHook(hub.CommitHook()))
	require.NoError(t, err)
	root.Flush()

	conn := dial(t, srv, hub, 1)

	snap := read(t, conn)
	assert.Equal(t, MessageSnapshot, snap.Type)
	assert.Equal(t, `<ul><li id="a"></li><li id="b"></li></ul>`, snap.HTML)

	require.NoError(t, root.Update(list("b", "a")))
	root.Flush()

	msg := read(t, conn)
	assert.Equal(t, MessageCommit, msg.Type)
	assert.Equal(t, uint64(2), msg.Seq)
	assert.Equal(t, []string{"append li#a to ul"}, host.Strings(msg.Ops))
}

func TestCommitHookSkipsEmptyCommits(t *testing.T) {
	mem := host.NewMemory()
	hub := NewHub()
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	root, err := fiber.CreateRoot(mem.Root(), list("a"),
		fiber.WithAdapter(hub.Adapter(mem)),
		fiber.WithCommitHook(hub.CommitHook()))
	require.NoError(t, err)
	root.Flush()

	conn := dial(t, srv, hub, 1)

	// Identical tree: the commit happens but records nothing.
	require.NoError(t, root.Update(list("a")))
	root.Flush()
	require.NoError(t, root.Update(list("a", "b")))
	root.Flush()

	msg := read(t, conn)
	assert.Equal(t, uint64(3), msg.Seq)
	assert.Equal(t, []string{"append li#b to ul"}, host.Strings(msg.Ops))
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, hub, 1)
	dial(t, srv, hub, 2)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestServeHTTPRejectsPlainRequests(t *testing.T) {
	hub := NewHub()
	w := httptest.NewRecorder()
	hub.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, 0, hub.ClientCount())
}
