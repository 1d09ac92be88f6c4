package cart

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pueblos-cart/internal/domain/product"
)

// Store owns one cart. Every state change is followed by a write of the full
// snapshot to Storage; a failed write is logged and reported to the Observer
// but never undoes the change, the in-memory state stays authoritative.
type Store struct {
	key      string
	storage  Storage
	observer Observer
	now      func() time.Time

	mu        sync.Mutex
	items     []LineItem
	version   uint64
	updatedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithObserver sets the observer notified about mutations and storage errors.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the clock used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store persisting under key.
func New(key string, storage Storage, opts ...Option) *Store {
	s := &Store{
		key:      key,
		storage:  storage,
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open returns a store for key, rehydrated from the snapshot in storage.
// A missing snapshot gives an empty store. An unreadable snapshot or a
// failing storage also gives an empty store; the problem is logged.
func Open(ctx context.Context, key string, storage Storage, opts ...Option) *Store {
	s := New(key, storage, opts...)

	data, err := storage.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			zctx.From(ctx).Warn("Cart snapshot unavailable, starting empty",
				zap.String("key", key),
				zap.Error(err),
			)
			s.observer.LoadFailed(ctx, key, err)
		}
		return s
	}

	snap, err := Decode(data)
	if err != nil {
		zctx.From(ctx).Warn("Discarding unreadable cart snapshot",
			zap.String("key", key),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		s.observer.LoadFailed(ctx, key, err)
		return s
	}
	s.restore(snap)
	return s
}

// restore installs snap, collapsing duplicate product lines and dropping
// lines with a non-positive quantity so a hand-edited or foreign snapshot
// cannot break the one-line-per-product invariant.
func (s *Store) restore(snap Snapshot) {
	items := make([]LineItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		if it.Quantity <= 0 || it.Product.ID <= 0 {
			continue
		}
		if i := indexOf(items, it.Product.ID); i >= 0 {
			items[i].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	s.items = items
	s.version = snap.Version
	s.updatedAt = snap.UpdatedAt
}

// Key returns the storage key of the store.
func (s *Store) Key() string {
	return s.key
}

// Add merges qty of p into the cart: an existing line for p.ID has its
// quantity increased in place, otherwise a line is appended.
func (s *Store) Add(ctx context.Context, p product.Product, qty int) error {
	if p.ID <= 0 {
		return ErrInvalidProduct
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, p.ID); i >= 0 {
		s.items[i].Quantity += qty
	} else {
		s.items = append(s.items, LineItem{Product: p, Quantity: qty})
	}
	s.commit(ctx, OpAdd)
	return nil
}

// AddOne adds a single unit of p.
func (s *Store) AddOne(ctx context.Context, p product.Product) error {
	return s.Add(ctx, p, 1)
}

// Remove deletes the line for productID. It reports whether a line existed;
// removing an absent product changes nothing and writes nothing.
func (s *Store) Remove(ctx context.Context, productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(ctx, productID)
}

func (s *Store) removeLocked(ctx context.Context, productID int64) bool {
	i := indexOf(s.items, productID)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.commit(ctx, OpRemove)
	return true
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// or less removes the line. It never creates a line and reports whether a
// line for productID existed.
func (s *Store) SetQuantity(ctx context.Context, productID int64, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty <= 0 {
		return s.removeLocked(ctx, productID)
	}

	i := indexOf(s.items, productID)
	if i < 0 {
		return false
	}
	if s.items[i].Quantity == qty {
		return true
	}
	s.items[i].Quantity = qty
	s.commit(ctx, OpSetQuantity)
	return true
}

// Clear empties the cart. The empty state is always written, which also
// replaces a snapshot that could not be read.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.commit(ctx, OpClear)
}

// Subtract lowers each line by the quantity of the matching entry in taken
// and drops lines that reach zero. Products no longer in the cart are
// skipped, and units added after taken was read stay in the cart. It reports
// whether anything changed; all changes are written as one.
func (s *Store) Subtract(ctx context.Context, taken []LineItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, t := range taken {
		if t.Quantity <= 0 {
			continue
		}
		i := indexOf(s.items, t.Product.ID)
		if i < 0 {
			continue
		}
		changed = true
		if s.items[i].Quantity <= t.Quantity {
			s.items = slices.Delete(s.items, i, i+1)
			continue
		}
		s.items[i].Quantity -= t.Quantity
	}
	if changed {
		s.commit(ctx, OpSubtract)
	}
	return changed
}

// Total returns the sum of unit price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Total())
	}
	return total
}

// ItemCount returns the sum of quantities, not the number of lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.items)
}

// Version returns the number of state changes applied so far, including
// those of previous sessions restored from the snapshot.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.version
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:   s.version,
		UpdatedAt: s.updatedAt,
		Items:     slices.Clone(s.items),
	}
}

// commit records a state change and writes it through. Must hold s.mu.
func (s *Store) commit(ctx context.Context, op Op) {
	s.version++
	s.updatedAt = s.now().UTC()

	snap := s.snapshotLocked()
	s.observer.Mutated(ctx, s.key, op, snap)

	if err := s.storage.Save(ctx, s.key, Encode(snap)); err != nil {
		zctx.From(ctx).Warn("Cart snapshot not persisted",
			zap.String("key", s.key),
			zap.String("op", string(op)),
			zap.Uint64("version", s.version),
			zap.Error(err),
		)
		s.observer.PersistFailed(ctx, s.key, err)
	}
}

func indexOf(items []LineItem, productID int64) int {
	return slices.IndexFunc(items, func(it LineItem) bool {
		return it.Product.ID == productID
	})
}
