package ctl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/engine"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

func seedDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	d, err := db.Open(dir, db.Options{})
	require.NoError(t, err)
	eng := engine.New(d)
	record := func(chain, sender, inviter string, ts int64) {
		require.NoError(t, eng.RecordEvent(chain, models.GreetingEvent{
			Sender:    sender,
			Timestamp: ts,
			Content:   models.Content{Kind: models.KindText, Payload: "gm"},
		}, inviter))
	}
	record("base", "alice", "", 1)
	record("base", "alice", "", 2)
	record("op", "bob", "alice", 3)
	require.NoError(t, d.Close())
	return dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestStatsCommand(t *testing.T) {
	dir := seedDB(t)
	out := run(t, "stats", "--db", dir, "-o", "yaml")

	var rep statsReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	assert.Equal(t, uint64(3), rep.Total)
	assert.False(t, rep.CooldownEnabled)
	assert.Equal(t, []countRow{{ID: "base", Count: 2}, {ID: "op", Count: 1}}, rep.Chains)
}

func TestTopCommand(t *testing.T) {
	dir := seedDB(t)

	out := run(t, "top", "identities", "--db", dir, "-o", "table", "-n", "1")
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "bob")

	out = run(t, "top", "invitations", "--db", dir, "-o", "yaml")
	var rep topReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, "alice", rep.Entries[0].ID)
	assert.Equal(t, uint64(30), rep.Entries[0].Count)
}

func TestKeysCommand(t *testing.T) {
	dir := seedDB(t)
	out := run(t, "keys", "--db", dir, "-o", "yaml", "--prefix", "gm:cnt:")

	var rep keysReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	// total + 2 chains + 2 identities
	assert.Equal(t, 5, rep.Total)
	require.Len(t, rep.Families, 1)
	assert.Equal(t, "gm:cnt", rep.Families[0].Family)
}

func TestOfflineRequiresDB(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	assert.Error(t, cmd.Execute())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: http://gm.example\napi_key: k1\noutput: yaml\n"), 0o600))

	cfg, err := LoadFromFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://gm.example", cfg.Host)
	assert.Equal(t, "k1", cfg.APIKey)

	cfg, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)
	assert.Empty(t, cfg.Host)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestGreetingTargets(t *testing.T) {
	targets, err := greetingTargets(BenchmarkConfig{Host: "http://h/", APIKey: "k", Chain: "c", Senders: 3}, 7)
	require.NoError(t, err)
	require.Len(t, targets, 3)

	seen := map[string]bool{}
	for _, tg := range targets {
		assert.Equal(t, "http://h/v1/greetings", tg.URL)
		assert.Equal(t, "Bearer k", tg.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.Unmarshal(tg.Body, &body))
		seen[body["sender"].(string)] = true
	}
	assert.Len(t, seen, 3)
}

func TestRunBenchmark(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rep, err := runBenchmark(BenchmarkConfig{Host: srv.URL, Chain: "c", RPS: 20, Duration: 250 * time.Millisecond, Senders: 2})
	require.NoError(t, err)
	require.NotZero(t, rep.Requests)
	assert.Equal(t, int(rep.Requests), rep.StatusCodes["201"])
	assert.Equal(t, int64(rep.Requests), hits.Load())

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "table", rep))
	assert.Contains(t, buf.String(), "status 201")

	_, err = runBenchmark(BenchmarkConfig{Host: srv.URL})
	assert.Error(t, err)
}
