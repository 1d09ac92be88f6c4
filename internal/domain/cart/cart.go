// Package cart implements the shopper's cart: an ordered set of line items,
// one per product, that is written through to durable storage after every
// change and rehydrated from it on first use.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pueblos-cart/internal/domain/product"
)

var (
	// ErrInvalidQuantity is returned by Add for a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrInvalidProduct is returned by Add for a product without a usable ID.
	ErrInvalidProduct = errors.New("product id must be greater than 0")
	// ErrSnapshotNotFound is returned by a Storage that holds nothing for a key.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrEmptySession is returned by Manager.Open for an empty session key.
	ErrEmptySession = errors.New("session key required")
)

// LineItem pairs a product with the quantity the shopper wants.
type LineItem struct {
	Product  product.Product
	Quantity int
}

// Total returns unit price times quantity. A malformed price counts as zero.
func (l LineItem) Total() decimal.Decimal {
	return l.Product.Price.Decimal().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a point-in-time copy of a cart, as persisted.
type Snapshot struct {
	// Version increases by one with every state change of the store.
	Version   uint64
	UpdatedAt time.Time
	Items     []LineItem
}

// Op names a cart mutation.
type Op string

// Cart mutations reported to observers.
const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpSetQuantity Op = "set_quantity"
	OpClear       Op = "clear"
	OpSubtract    Op = "subtract"
)

// Storage is a durable key/value medium for cart snapshots.
//
// Load returns ErrSnapshotNotFound when nothing was saved under key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Observer is notified after cart state transitions and persistence
// problems. Calls happen while the store lock is held, so implementations
// must not call back into the store.
type Observer interface {
	Mutated(ctx context.Context, key string, op Op, snap Snapshot)
	PersistFailed(ctx context.Context, key string, err error)
	LoadFailed(ctx context.Context, key string, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) Mutated(context.Context, string, Op, Snapshot) {}
func (NopObserver) PersistFailed(context.Context, string, error)  {}
func (NopObserver) LoadFailed(context.Context, string, error)     {}
