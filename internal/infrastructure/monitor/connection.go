package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/focus/internal/infrastructure/buffer"
)

// Probe checks one collaborator. Critical probes decide IsOnline.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// PostgresProbe pings the pool.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return Probe{Name: "postgres", Critical: true, Check: func(ctx context.Context) error {
		return pool.Ping(ctx)
	}}
}

// RedisProbe pings the session cache.
func RedisProbe(client *redislib.Client) Probe {
	return Probe{Name: "redis", Critical: true, Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// PingProbe adapts stores that expose a context-free Ping.
func PingProbe(name string, critical bool, ping func() error) Probe {
	return Probe{Name: name, Critical: critical, Check: func(context.Context) error {
		return ping()
	}}
}

type Monitor struct {
	probes []Probe
	buffer *buffer.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(probes []Probe, buf *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		buffer:   buf,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start runs the first check synchronously so IsOnline is meaningful as
// soon as Start returns.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every critical probe passed on the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := m.status
	status.Probes = make(map[string]ProbeStatus, len(m.status.Probes))
	for name, p := range m.status.Probes {
		status.Probes[name] = p
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Online:    true,
		Probes:    make(map[string]ProbeStatus, len(m.probes)),
		LastCheck: time.Now().UTC(),
	}
	for _, probe := range m.probes {
		result := ProbeStatus{Healthy: true, Critical: probe.Critical}
		if err := m.run(ctx, probe); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			if probe.Critical {
				status.Online = false
			}
		}
		status.Probes[probe.Name] = result
	}
	status.Buffer, status.Pending = m.checkBuffer()
	for _, n := range status.Pending {
		status.BufferSize += n
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Online != status.Online {
		m.logger.Warn("connectivity changed", zap.Bool("online", status.Online))
	}
}

func (m *Monitor) run(ctx context.Context, probe Probe) error {
	if probe.Check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return probe.Check(ctx)
}

// checkBuffer reports pending side effects per entity.
func (m *Monitor) checkBuffer() (bool, map[string]int) {
	if m.buffer == nil {
		return false, nil
	}
	counts, err := m.buffer.CountByEntity()
	if err != nil {
		m.logger.Warn("buffer check failed", zap.Error(err))
		return false, counts
	}
	return true, counts
}
