package health

import (
	"sort"
	"sync"
	"time"
)

// Probe computes a component's current status on demand.
type Probe func() Status

// Monitor aggregates the health of named components. A component is either
// a Probe evaluated on every check or a pushed Status.
type Monitor struct {
	mu       sync.RWMutex
	probes   map[string]Probe
	statuses map[string]Status
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	return &Monitor{
		probes:   make(map[string]Probe),
		statuses: make(map[string]Status),
	}
}

// Register adds or replaces a probe for name.
func (m *Monitor) Register(name string, probe Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
	m.probes[name] = probe
}

// Update records a pushed status for name, replacing any probe.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	delete(m.probes, name)
	m.statuses[name] = status
}

// Get returns the current status of name.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	probe, isProbe := m.probes[name]
	status, isStatus := m.statuses[name]
	m.mu.RUnlock()

	if isProbe {
		return m.evaluate(name, probe), true
	}
	return status, isStatus
}

// Remove stops tracking name.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.probes, name)
	delete(m.statuses, name)
}

// Count returns the number of tracked components.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.probes) + len(m.statuses)
}

// AggregateHealth evaluates every component and aggregates the result.
// Sub-statuses are ordered by component name.
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	probes := make(map[string]Probe, len(m.probes))
	for name, p := range m.probes {
		probes[name] = p
	}
	subStatuses := make([]Status, 0, len(m.probes)+len(m.statuses))
	for _, status := range m.statuses {
		subStatuses = append(subStatuses, status)
	}
	m.mu.RUnlock()

	// Probes run outside the lock; they may take their own locks.
	for name, p := range probes {
		subStatuses = append(subStatuses, m.evaluate(name, p))
	}

	sort.Slice(subStatuses, func(i, j int) bool {
		return subStatuses[i].Component < subStatuses[j].Component
	})
	return Aggregate(systemName, subStatuses)
}

// HealthFunc adapts the monitor to the metrics server's /health endpoint.
// Degraded counts as serving.
func (m *Monitor) HealthFunc(systemName string) func() (any, bool) {
	return func() (any, bool) {
		status := m.AggregateHealth(systemName)
		return status, !status.IsUnhealthy()
	}
}

func (m *Monitor) evaluate(name string, probe Probe) Status {
	status := probe()
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	return status
}
