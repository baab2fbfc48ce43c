/*
provider.go - Year-keyed holiday cache

PURPOSE:
  Holiday data is fetched once per calendar year and then served from
  memory for the lifetime of the Provider. Classification of every shift
  in a year waits for that first fetch to finish.

FAILURE POLICY:
  A failing Source never fails the caller. HolidaysFor returns an empty
  Set flagged as Degraded, logs the failure, and does not cache it, so the
  next lookup for that year tries again. Callers that care (payroll
  results) surface the Degraded flag instead of silently trusting the set.

CONCURRENCY:
  Safe for concurrent use. Concurrent first lookups of the same year share
  one fetch (singleflight). The shared fetch runs detached from any single
  caller's cancellation, bounded by the provider's fetch timeout; a caller
  whose context ends stops waiting and gets a degraded set, while the
  others keep waiting for the fetch.

  Every year carries a generation. Forget and Refresh bump it, and a fetch
  only stores its set if the generation is unchanged since it started, so
  a fetch that read the source before a Forget never repopulates the cache
  with the old data. Cached sets are immutable once stored.
*/
package calendar

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// =============================================================================
// SET - Immutable holiday set for one year
// =============================================================================

// Set is a read-only set of holiday dates.
type Set struct {
	dates    map[Date]struct{}
	degraded bool
}

// NewSet builds a Set from a list of dates. Duplicates are ignored.
func NewSet(dates ...Date) Set {
	m := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		m[d] = struct{}{}
	}
	return Set{dates: m}
}

func degradedSet() Set { return Set{degraded: true} }

func (s Set) Contains(d Date) bool {
	_, ok := s.dates[d]
	return ok
}

func (s Set) Len() int { return len(s.dates) }

// Degraded reports whether the set stands in for holiday data that could
// not be loaded.
func (s Set) Degraded() bool { return s.degraded }

// Dates returns the holidays in ascending order.
func (s Set) Dates() []Date {
	out := make([]Date, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// =============================================================================
// PROVIDER
// =============================================================================

// DefaultFetchTimeout bounds a single source fetch.
const DefaultFetchTimeout = 30 * time.Second

// Provider caches holiday sets per year in front of a Source.
type Provider struct {
	source  Source
	logger  *slog.Logger
	timeout time.Duration

	mu    sync.RWMutex
	years map[int]Set
	gens  map[int]uint64
	group singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used to report source failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFetchTimeout bounds each source fetch. Non-positive values keep the
// default.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewProvider creates a provider backed by source.
func NewProvider(source Source, opts ...Option) *Provider {
	p := &Provider{
		source:  source,
		logger:  slog.Default(),
		timeout: DefaultFetchTimeout,
		years:   make(map[int]Set),
		gens:    make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HolidaysFor returns the holiday set of a year, fetching it on first use.
// If ctx ends before the fetch completes, HolidaysFor returns a degraded set
// without cancelling the fetch for other callers.
func (p *Provider) HolidaysFor(ctx context.Context, year int) Set {
	if set, ok := p.cached(year); ok {
		return set
	}

	// The fetch outlives this caller; only the timeout can stop it.
	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan(yearKey(year), func() (any, error) {
		p.mu.RLock()
		set, ok := p.years[year]
		gen := p.gens[year]
		p.mu.RUnlock()
		if ok {
			return set, nil
		}

		set, err := p.fetch(detached, year)
		if err != nil {
			return nil, err
		}
		p.store(year, gen, set)
		return set, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			p.logger.Warn("holiday lookup failed, treating year as having no holidays",
				"year", year, "err", res.Err)
			return degradedSet()
		}
		return res.Val.(Set)
	case <-ctx.Done():
		p.logger.Warn("holiday lookup abandoned, treating year as having no holidays",
			"year", year, "err", ctx.Err())
		return degradedSet()
	}
}

// Forget drops the cached set of a year so the next lookup refetches it.
// A fetch already in flight for that year is not cached when it completes.
// Sets already returned to callers are unaffected.
func (p *Provider) Forget(year int) {
	p.mu.Lock()
	delete(p.years, year)
	p.gens[year]++
	p.mu.Unlock()
	p.group.Forget(yearKey(year))
}

// Refresh refetches a year from the source. The cached set is replaced only
// on success; on failure the previous set (if any) stays in place. Unlike
// HolidaysFor, Refresh stops when ctx ends.
func (p *Provider) Refresh(ctx context.Context, year int) error {
	_, err, _ := p.group.Do("refresh:"+yearKey(year), func() (any, error) {
		p.mu.Lock()
		p.gens[year]++
		gen := p.gens[year]
		p.mu.Unlock()

		set, err := p.fetch(ctx, year)
		if err != nil {
			return nil, err
		}
		p.store(year, gen, set)
		return nil, nil
	})
	return err
}

// CachedYears lists the years currently held in memory.
func (p *Provider) CachedYears() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	years := make([]int, 0, len(p.years))
	for y := range p.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func (p *Provider) fetch(ctx context.Context, year int) (Set, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dates, err := p.source.Holidays(ctx, year)
	if err != nil {
		return Set{}, err
	}
	return NewSet(dates...), nil
}

// store caches set unless the year was forgotten or refreshed after gen
// was read.
func (p *Provider) store(year int, gen uint64, set Set) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gens[year] != gen {
		p.logger.Debug("discarding stale holiday set", "year", year)
		return
	}
	p.years[year] = set
}

func (p *Provider) cached(year int) (Set, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.years[year]
	return set, ok
}

func yearKey(year int) string { return strconv.Itoa(year) }
