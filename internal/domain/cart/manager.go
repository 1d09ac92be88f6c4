package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ManagerConfig controls how session carts are keyed and kept in memory.
type ManagerConfig struct {
	// Namespace prefixes every storage key.
	Namespace string
	// IdleTTL is how long an unused cart stays resident. Zero keeps carts
	// until Forget is called.
	IdleTTL time.Duration
}

// residentCart is a store kept in memory together with its last access time
// and the number of callers holding it.
type residentCart struct {
	store    *Store
	lastUsed time.Time
	inUse    int
}

// Manager hands out one Store per session, rehydrating it from Storage the
// first time the session is seen. It assumes it is the only writer of its
// namespace: two processes sharing a storage key overwrite each other's
// snapshots, last write wins. Within one process a cart is never evicted
// while acquired, so a request cannot write to a store that a later request
// has already replaced by rehydrating.
type Manager struct {
	cfg     ManagerConfig
	storage Storage
	opts    []Option
	now     func() time.Time

	mu    sync.Mutex
	carts map[string]*residentCart
}

// NewManager returns a Manager persisting carts into storage. The options
// are applied to every store it opens.
func NewManager(cfg ManagerConfig, storage Storage, opts ...Option) *Manager {
	return &Manager{
		cfg:     cfg,
		storage: storage,
		opts:    opts,
		now:     time.Now,
		carts:   make(map[string]*residentCart),
	}
}

// Key returns the storage key for a session.
func (m *Manager) Key(session string) string {
	if m.cfg.Namespace == "" {
		return session
	}
	return m.cfg.Namespace + "/" + session
}

// Open returns the cart of session, loading it from storage when it is not
// resident. The store is not pinned: once idle it may be evicted while the
// caller still holds it. Use Acquire to mutate a cart.
func (m *Manager) Open(ctx context.Context, session string) (*Store, error) {
	s, release, err := m.Acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	release()
	return s, nil
}

// Acquire returns the cart of session and keeps it resident until release
// is called. Concurrent first calls for one session load once each but all
// receive the same Store. Calling release more than once has no effect.
func (m *Manager) Acquire(ctx context.Context, session string) (s *Store, release func(), err error) {
	if session == "" {
		return nil, nil, ErrEmptySession
	}

	if rc, ok := m.pin(session, nil); ok {
		return rc.store, m.releaser(rc), nil
	}

	// Load outside the lock, storage may be remote.
	loaded := Open(ctx, m.Key(session), m.storage, m.opts...)

	rc, _ := m.pin(session, loaded)
	return rc.store, m.releaser(rc), nil
}

// pin marks the resident cart of session as used. When none is resident
// and loaded is not nil, loaded becomes the resident cart.
func (m *Manager) pin(session string, loaded *Store) (*residentCart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc, ok := m.carts[session]
	if !ok {
		if loaded == nil {
			return nil, false
		}
		rc = &residentCart{store: loaded}
		m.carts[session] = rc
	}
	rc.lastUsed = m.now()
	rc.inUse++
	return rc, true
}

func (m *Manager) releaser(rc *residentCart) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			rc.inUse--
			rc.lastUsed = m.now()
		})
	}
}

// Forget drops the resident cart of session, acquired or not. Its snapshot
// stays in storage.
func (m *Manager) Forget(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, session)
}

// Len returns the number of resident carts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.carts)
}

// evict drops carts idle for at least IdleTTL and returns how many it
// dropped. Acquired carts are never idle.
func (m *Manager) evict(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for session, rc := range m.carts {
		if rc.inUse == 0 && now.Sub(rc.lastUsed) >= m.cfg.IdleTTL {
			delete(m.carts, session)
			n++
		}
	}
	return n
}

// StartEviction launches a goroutine that drops idle carts every IdleTTL
// until ctx is cancelled. It does nothing when IdleTTL is zero.
func (m *Manager) StartEviction(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	lg := zctx.From(ctx)
	go func() {
		ticker := time.NewTicker(m.cfg.IdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.evict(now); n > 0 {
					lg.Debug("Evicted idle carts", zap.Int("count", n))
				}
			}
		}
	}()
}
