package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/storage"
)

// ManagerConfig tunes store lifetimes.
type ManagerConfig struct {
	// IdleTTL is how long an unused store stays in memory.
	IdleTTL time.Duration
	// SweepInterval is how often idle stores are looked for.
	SweepInterval time.Duration
	// LoadTimeout bounds hydration of a single store.
	LoadTimeout time.Duration
}

// DefaultManagerConfig returns production defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		IdleTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		LoadTimeout:   3 * time.Second,
	}
}

type entry struct {
	store    *Store
	ready    chan struct{}
	refs     int
	lastUsed time.Time
}

// Manager owns one Store per device. Stores are hydrated on first use and
// evicted, after flushing, once idle for longer than IdleTTL.
type Manager struct {
	st     storage.Storage
	cfg    ManagerConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// NewManager creates a manager persisting through st.
func NewManager(st storage.Storage, cfg ManagerConfig, logger *slog.Logger) *Manager {
	return &Manager{
		st:      st,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// With runs fn against the store of deviceID. The store cannot be evicted
// while fn runs.
func (m *Manager) With(ctx context.Context, deviceID string, fn func(*Store) error) error {
	e, err := m.acquire(ctx, deviceID)
	if err != nil {
		return err
	}
	defer m.release(e)
	return fn(e.store)
}

func (m *Manager) acquire(ctx context.Context, deviceID string) (*entry, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}

	if e, ok := m.entries[deviceID]; ok {
		e.refs++
		e.lastUsed = m.now()
		m.mu.Unlock()
		<-e.ready
		return e, nil
	}

	e := &entry{ready: make(chan struct{}), refs: 1, lastUsed: m.now()}
	m.entries[deviceID] = e
	liveStores.Inc()
	m.mu.Unlock()

	// Hydration must not be cut short by the request that triggered it,
	// otherwise a cancelled request would cache an empty cart.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.LoadTimeout)
	e.store = Open(loadCtx, deviceID, m.st, m.logger)
	cancel()
	close(e.ready)

	return e, nil
}

// release drops a reference. A detached store is forgotten as soon as nobody
// uses it, so the next request retries hydration instead of keeping an empty
// cart for the whole idle TTL.
func (m *Manager) release(e *entry) {
	m.mu.Lock()
	e.refs--
	e.lastUsed = m.now()

	drop := e.refs == 0 && e.store.Detached()
	if drop {
		if cur, ok := m.entries[e.store.deviceID]; ok && cur == e {
			delete(m.entries, e.store.deviceID)
		} else {
			drop = false
		}
	}
	m.mu.Unlock()

	if drop {
		e.store.Close()
		liveStores.Dec()
	}
}

// EvictIdle closes and drops every unused store idle for longer than the
// TTL. It returns the number of stores evicted.
func (m *Manager) EvictIdle() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var victims []*Store
	for id, e := range m.entries {
		if e.refs == 0 && e.lastUsed.Before(cutoff) {
			victims = append(victims, e.store)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, s := range victims {
		s.Close()
		liveStores.Dec()
	}
	if len(victims) > 0 {
		m.logger.Debug("evicted idle carts", slog.Int("count", len(victims)))
	}
	return len(victims)
}

// Run evicts idle stores every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Len returns the number of stores held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close flushes and closes every store. Subsequent calls to With fail with
// ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		e.store.Close()
		liveStores.Dec()
	}
	m.logger.Info("cart manager closed", slog.Int("flushed", len(entries)))
}
