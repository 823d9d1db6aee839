package nodes_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lendora/lendora/internal/infrastructure/nodes"
	timescheduler "github.com/lendora/lendora/internal/infrastructure/scheduler/gocron"
	"github.com/stretchr/testify/require"
)

const nodesYAML = `nodes:
  - name: local
    url: ws://127.0.0.1:4001
    description: local devnet node
    timeout: 2s
    retries: 2
    enabled: true
  - name: backup
    url: ws://127.0.0.1:4002
    enabled: false
`

func writeNodesFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "nodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		registry, err := nodes.LoadRegistry(writeNodesFile(t, nodesYAML))
		require.NoError(t, err)

		all := registry.Nodes()
		require.Len(t, all, 2)
		require.Equal(t, "local", all[0].Name)
		require.Equal(t, 2*time.Second, all[0].Timeout)
		require.Equal(t, 2, all[0].Retries)

		// defaults applied to the sparse entry
		require.Equal(t, 5*time.Second, all[1].Timeout)
		require.Equal(t, 1, all[1].Retries)

		enabled := registry.Enabled()
		require.Len(t, enabled, 1)
		require.Equal(t, "local", enabled[0].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := nodes.LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("empty node list", func(t *testing.T) {
		_, err := nodes.LoadRegistry(writeNodesFile(t, "nodes: []\n"))
		require.Error(t, err)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := nodes.LoadRegistry(writeNodesFile(t, "nodes:\n  - name: broken\n"))
		require.Error(t, err)
		require.True(t, strings.Contains(err.Error(), "missing a url"))
	})
}

func TestMonitor(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// nolint
		conn.Close()
	}))
	defer srv.Close()

	registry, err := nodes.NewRegistry([]nodes.Node{
		{
			Name:    "reachable",
			URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
			Timeout: time.Second,
			Retries: 1,
			Enabled: true,
		},
		{
			Name:    "down",
			URL:     "ws://127.0.0.1:1",
			Timeout: 200 * time.Millisecond,
			Retries: 1,
			Enabled: true,
		},
	})
	require.NoError(t, err)

	monitor := nodes.NewMonitor(registry, timescheduler.NewScheduler(), time.Minute)
	monitor.ProbeAll()

	health := monitor.Snapshot()
	require.Len(t, health, 2)
	require.True(t, health["reachable"].Reachable)
	require.False(t, health["down"].Reachable)
	require.Greater(t, health["reachable"].Latency, time.Duration(0))

	primary, ok := monitor.Primary()
	require.True(t, ok)
	require.Equal(t, "reachable", primary.Name)
}
