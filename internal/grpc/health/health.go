// Package health serves the standard gRPC health protocol and keeps its
// status in line with the service's dependencies.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"honeytrap/pkg/logger"
)

// ServiceName is the fully qualified name reported next to the overall
// ("") status.
const ServiceName = "honeytrap.v1.Honeypot"

// Check probes one dependency
type Check func(ctx context.Context) error

// Monitor re-evaluates dependency checks on an interval and flips the
// serving status accordingly.
type Monitor struct {
	server   *grpchealth.Server
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu      sync.RWMutex
	checks  map[string]Check
	serving bool
}

// NewMonitor creates a monitor that starts out SERVING
func NewMonitor(interval time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	m := &Monitor{
		server:   grpchealth.NewServer(),
		interval: interval,
		timeout:  2 * time.Second,
		logger:   log.WithComponent("grpc-health"),
		checks:   make(map[string]Check),
	}
	m.setServing(true)
	return m
}

// AddCheck registers a dependency probe under name
func (m *Monitor) AddCheck(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// Register registers the health service with a gRPC server
func (m *Monitor) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, m.server)
}

// Results runs every check and returns the failures by name
func (m *Monitor) Results(ctx context.Context) map[string]error {
	m.mu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.RUnlock()
	sort.Strings(names)

	failures := make(map[string]error)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := checks[name](ctx)
		cancel()
		if err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Evaluate runs the checks once and updates the serving status
func (m *Monitor) Evaluate(ctx context.Context) bool {
	failures := m.Results(ctx)
	healthy := len(failures) == 0

	m.mu.Lock()
	changed := healthy != m.serving
	m.mu.Unlock()

	if changed {
		if healthy {
			m.logger.Info().Msg("dependencies healthy, serving")
		} else {
			for name, err := range failures {
				m.logger.Warn().Err(err).Str("dependency", name).Msg("dependency unhealthy")
			}
		}
	}
	m.setServing(healthy)
	return healthy
}

// Run evaluates the checks every interval until ctx ends
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evaluate(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING for every service from now on
func (m *Monitor) Shutdown() {
	m.server.Shutdown()
}

func (m *Monitor) setServing(ok bool) {
	m.mu.Lock()
	m.serving = ok
	m.mu.Unlock()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
}
