package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/internal/config"
	ferrors "github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/internal/export"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/journal"
	"github.com/vango-dev/fiber/pkg/stream"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func quietSession(t *testing.T, cfg *config.Config, driver string) *session {
	t.Helper()
	s, err := newSession(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), driver)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "--config", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "mount (")
	assert.Contains(t, out, "append li#d to ul#list")
	assert.Contains(t, out, "replace ul#list with ul#list")
	assert.Contains(t, out, `<section id="app">`)
	assert.Contains(t, out, "0 of 0 remaining")
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run", "--config", t.TempDir(), "--json", "--steps", "2")
	require.NoError(t, err)

	var log []export.StepOps
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	require.Len(t, log, 3)
	assert.Equal(t, "mount", log[0].Step)
	assert.Equal(t, "add", log[1].Step)
	assert.Equal(t, "toggle", log[2].Step)
	assert.NotEmpty(t, log[0].Ops)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName),
		[]byte(`{"scheduler": {"driver": "threads"}}`), 0644))

	_, err := execute(t, "run", "--config", dir)
	require.Error(t, err)
	assert.Equal(t, "F011", ferrors.CodeOf(err))
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestExportRequiresBucket(t *testing.T) {
	_, err := execute(t, "export", "--config", t.TempDir())
	assert.Equal(t, "F040", ferrors.CodeOf(err))
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestServeRoutes(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "commits.db")
	s := quietSession(t, cfg, config.DriverManual)

	srv := httptest.NewServer(s.router())
	defer srv.Close()

	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	_, body = get(t, srv.URL+"/snapshot")
	assert.Contains(t, body, "3 of 3 remaining")

	_, body = get(t, srv.URL+"/")
	assert.Contains(t, body, `<div id="mount"><section id="app">`)

	code, step := post(t, srv.URL+"/step")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "add", step["step"])
	assert.Equal(t, float64(6), step["remaining"])

	_, body = get(t, srv.URL+"/snapshot")
	assert.Contains(t, body, `<li class="todo" id="d">ship</li>`)

	_, body = get(t, srv.URL+"/metrics")
	assert.Contains(t, body, "fiber_commits_total 2")

	code, body = get(t, srv.URL+"/journal")
	assert.Equal(t, http.StatusOK, code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[1].Seq)
}

func TestServeJournalDisabled(t *testing.T) {
	s := quietSession(t, config.Default(), config.DriverManual)
	srv := httptest.NewServer(s.router())
	defer srv.Close()

	code, _ := get(t, srv.URL+"/journal")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServeStreamsOps(t *testing.T) {
	s := quietSession(t, config.Default(), config.DriverManual)
	srv := httptest.NewServer(s.router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg stream.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, stream.MessageSnapshot, msg.Type)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	post(t, srv.URL+"/step")

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, stream.MessageCommit, msg.Type)
	assert.Equal(t, uint64(2), msg.Seq)
	assert.Contains(t, host.Strings(msg.Ops), "append li#d to ul#list")
}

func snapshotContains(base, want string) bool {
	resp, err := http.Get(base + "/snapshot")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return err == nil && strings.Contains(string(body), want)
}

func TestServeEventLoopDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.Driver = config.DriverEventLoop
	s := quietSession(t, cfg, "")

	srv := httptest.NewServer(s.router())
	defer srv.Close()

	require.Eventually(t, func() bool {
		return snapshotContains(srv.URL, "3 of 3 remaining")
	}, 2*time.Second, 10*time.Millisecond)

	code, step := post(t, srv.URL+"/step")
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "add", step["step"])

	require.Eventually(t, func() bool {
		return snapshotContains(srv.URL, "4 of 4 remaining")
	}, 2*time.Second, 10*time.Millisecond)
}

type fakeS3 struct {
	keys   []string
	bodies map[string]string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	f.bodies[key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func TestExportScript(t *testing.T) {
	fake := &fakeS3{bodies: make(map[string]string)}
	exp, err := export.New(fake, "ui", "snapshots/")
	require.NoError(t, err)

	res, err := exportScript(context.Background(), config.Default(), exp, "nightly")
	require.NoError(t, err)

	assert.Equal(t, []string{"snapshots/nightly/index.html", "snapshots/nightly/ops.json"}, fake.keys)
	assert.Contains(t, fake.bodies[res.HTMLKey], `<ul data-filter="all" id="list"></ul>`)

	var log []export.StepOps
	require.NoError(t, json.Unmarshal([]byte(fake.bodies[res.OpsKey]), &log))
	require.Len(t, log, 8)
	assert.Equal(t, "clear", log[7].Step)
}
