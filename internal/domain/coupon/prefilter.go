package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

var _ Repository = (*Prefilter)(nil)

// DefaultRefreshInterval is the minimum time between two code list reloads
// of a Prefilter built by LoadPrefilter.
const DefaultRefreshInterval = 5 * time.Second

// Prefilter rejects codes that were never issued without touching the
// underlying Repository. A bloom filter has no false negatives, so every
// code it was built with still reaches the repository.
//
// Codes stored after the filter was built are picked up by reloading the
// code list: a code the filter does not know triggers a reload when the
// previous one is at least the refresh interval old. Unknown codes therefore
// cost at most one listing per interval.
type Prefilter struct {
	next     Repository
	lister   CodeLister
	fpRate   float64
	interval time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	filter *bloom.BloomFilter

	reloadMu sync.Mutex
	loadedAt time.Time
}

// PrefilterOption configures a Prefilter.
type PrefilterOption func(*Prefilter)

// WithRefreshInterval sets the minimum time between code list reloads.
// Zero or less never reloads.
func WithRefreshInterval(d time.Duration) PrefilterOption {
	return func(p *Prefilter) {
		p.interval = d
	}
}

// WithPrefilterClock overrides the clock used to pace reloads.
func WithPrefilterClock(now func() time.Time) PrefilterOption {
	return func(p *Prefilter) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPrefilter builds a Prefilter over next holding codes. fpRate is the
// accepted false positive rate. It never reloads unless next is also a
// CodeLister and a positive refresh interval is set.
func NewPrefilter(next Repository, codes []string, fpRate float64, opts ...PrefilterOption) *Prefilter {
	p := &Prefilter{
		next:   next,
		fpRate: fpRate,
		now:    time.Now,
		filter: buildFilter(codes, fpRate),
	}
	if l, ok := next.(CodeLister); ok {
		p.lister = l
	}
	for _, o := range opts {
		o(p)
	}
	p.loadedAt = p.now()
	return p
}

// LoadPrefilter lists the codes of repo and builds a Prefilter over it that
// reloads every DefaultRefreshInterval at most, unless opts say otherwise.
func LoadPrefilter[R interface {
	Repository
	CodeLister
}](ctx context.Context, repo R, fpRate float64, opts ...PrefilterOption) (*Prefilter, error) {
	codes, err := repo.ListCodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupon codes")
	}
	opts = append([]PrefilterOption{WithRefreshInterval(DefaultRefreshInterval)}, opts...)
	return NewPrefilter(repo, codes, fpRate, opts...), nil
}

func buildFilter(codes []string, fpRate float64) *bloom.BloomFilter {
	n := uint(len(codes))
	if n < 1024 {
		n = 1024
	}
	f := bloom.NewWithEstimates(n, fpRate)
	for _, c := range codes {
		f.AddString(NormalizeCode(c))
	}
	return f
}

// Add registers a newly issued code.
func (p *Prefilter) Add(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.AddString(NormalizeCode(code))
}

// MayExist reports whether code might have been issued.
func (p *Prefilter) MayExist(code string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter.TestString(NormalizeCode(code))
}

// Reload rebuilds the filter from the current code list.
func (p *Prefilter) Reload(ctx context.Context) error {
	if p.lister == nil {
		return errors.New("repository cannot list coupon codes")
	}
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	return p.reloadLocked(ctx)
}

// reloadLocked must hold p.reloadMu.
func (p *Prefilter) reloadLocked(ctx context.Context) error {
	started := p.now()
	codes, err := p.lister.ListCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list coupon codes")
	}
	f := buildFilter(codes, p.fpRate)

	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
	p.loadedAt = started
	return nil
}

// reloadIfStale reloads the code list when the last reload is at least one
// interval old.
func (p *Prefilter) reloadIfStale(ctx context.Context) error {
	if p.lister == nil || p.interval <= 0 {
		return nil
	}
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	// A concurrent miss may have reloaded while we waited.
	if p.now().Sub(p.loadedAt) < p.interval {
		return nil
	}
	return p.reloadLocked(ctx)
}

// FindByCode implements Repository.
func (p *Prefilter) FindByCode(ctx context.Context, code string) (*Rule, error) {
	if p.MayExist(code) {
		return p.next.FindByCode(ctx, code)
	}

	if err := p.reloadIfStale(ctx); err != nil {
		// Without a code list only the repository can tell.
		zctx.From(ctx).Warn("Coupon code list reload failed", zap.Error(err))
		return p.lookup(ctx, code)
	}
	if !p.MayExist(code) {
		return nil, ErrInvalidCoupon
	}
	return p.next.FindByCode(ctx, code)
}

// lookup asks the repository directly and remembers codes it knows.
func (p *Prefilter) lookup(ctx context.Context, code string) (*Rule, error) {
	rule, err := p.next.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	p.Add(code)
	return rule, nil
}

// IncrementUses implements Repository.
func (p *Prefilter) IncrementUses(ctx context.Context, code string) error {
	return p.next.IncrementUses(ctx, code)
}

// DecrementUses implements Repository.
func (p *Prefilter) DecrementUses(ctx context.Context, code string) error {
	return p.next.DecrementUses(ctx, code)
}
