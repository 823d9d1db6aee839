package nodes

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lendora/lendora/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Health is the last observed probe result for a node.
type Health struct {
	Node      Node
	Reachable bool
	Latency   time.Duration
	CheckedAt time.Time
}

// Monitor periodically probes every enabled node over websocket and
// keeps the latest result per node.
type Monitor struct {
	registry  *Registry
	scheduler ports.SchedulerService
	interval  time.Duration

	mtx    sync.RWMutex
	health map[string]Health
}

func NewMonitor(
	registry *Registry, scheduler ports.SchedulerService, interval time.Duration,
) *Monitor {
	return &Monitor{
		registry:  registry,
		scheduler: scheduler,
		interval:  interval,
		health:    make(map[string]Health),
	}
}

// Start probes all nodes once, then schedules recurring probes.
func (m *Monitor) Start() error {
	m.ProbeAll()
	if err := m.scheduler.ScheduleTaskRepeated(m.interval, m.ProbeAll); err != nil {
		return err
	}
	m.scheduler.Start()
	return nil
}

func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

func (m *Monitor) ProbeAll() {
	for _, node := range m.registry.Enabled() {
		h := m.probe(node)
		m.mtx.Lock()
		m.health[node.Name] = h
		m.mtx.Unlock()

		if !h.Reachable {
			log.WithField("node", node.Name).Warn("node unreachable")
		}
	}
}

func (m *Monitor) probe(node Node) Health {
	h := Health{Node: node, CheckedAt: time.Now()}

	for attempt := 0; attempt < node.Retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), node.Timeout)
		start := time.Now()
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, node.URL, nil)
		cancel()
		if err != nil {
			log.WithError(err).WithField("node", node.Name).Debug("probe failed")
			continue
		}

		h.Reachable = true
		h.Latency = time.Since(start)
		// nolint
		conn.Close()
		break
	}
	return h
}

// Snapshot returns the latest health for every probed node.
func (m *Monitor) Snapshot() map[string]Health {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	out := make(map[string]Health, len(m.health))
	for name, h := range m.health {
		out[name] = h
	}
	return out
}

// Primary returns the reachable node with the lowest observed latency.
func (m *Monitor) Primary() (Node, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var best Health
	found := false
	for _, h := range m.health {
		if !h.Reachable {
			continue
		}
		if !found || h.Latency < best.Latency {
			best = h
			found = true
		}
	}
	return best.Node, found
}
