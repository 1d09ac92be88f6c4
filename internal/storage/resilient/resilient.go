// Package resilient guards a snapshot storage with a circuit breaker so a
// failing backend is not hammered on every cart change.
package resilient

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Config tunes the breaker.
type Config struct {
	// Name identifies the breaker in logs.
	Name string `default:"cart-snapshots" usage:"circuit breaker name"`
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32 `default:"5" usage:"consecutive failures before opening"`
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `default:"30s" usage:"open state duration"`
	// HalfOpenRequests is the number of probes let through when half-open.
	HalfOpenRequests uint32 `default:"1" usage:"probes allowed in half-open state"`
}

// Storage wraps a cart.Storage with a circuit breaker. A missing snapshot
// and a canceled caller count as successes.
type Storage struct {
	next cart.Storage
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// Wrap returns next guarded by a breaker configured from cfg. State changes
// are logged through lg.
func Wrap(next cart.Storage, cfg Config, lg *zap.Logger) *Storage {
	if lg == nil {
		lg = zap.NewNop()
	}
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Snapshot storage breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: isSuccessful,
	}
	return &Storage{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]byte](st),
	}
}

func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, cart.ErrSnapshotNotFound) ||
		errors.Is(err, context.Canceled)
}

// Load implements cart.Storage.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		return s.next.Load(ctx, key)
	})
	if err != nil {
		return nil, s.wrap(ctx, err)
	}
	return data, nil
}

// Save implements cart.Storage.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.next.Save(ctx, key, data)
	})
	if err != nil {
		return s.wrap(ctx, err)
	}
	return nil
}

// State returns the current breaker state.
func (s *Storage) State() gobreaker.State {
	return s.cb.State()
}

func (s *Storage) wrap(ctx context.Context, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		zctx.From(ctx).Debug("Snapshot storage short-circuited", zap.Error(err))
		return errors.Wrap(err, "snapshot storage unavailable")
	}
	return err
}
