package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNoSources is returned by combinators built without any source.
var ErrNoSources = errors.New("calendar: no holiday sources configured")

// Source lists the public holidays of a year. Implementations may block on
// I/O and should honor ctx.
type Source interface {
	Holidays(ctx context.Context, year int) ([]Date, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, year int) ([]Date, error)

func (f SourceFunc) Holidays(ctx context.Context, year int) ([]Date, error) {
	return f(ctx, year)
}

// Static returns a source serving a fixed list of dates, filtered by year.
func Static(dates ...Date) Source {
	fixed := append([]Date(nil), dates...)
	return SourceFunc(func(_ context.Context, year int) ([]Date, error) {
		var out []Date
		for _, d := range fixed {
			if d.Year == year {
				out = append(out, d)
			}
		}
		return out, nil
	})
}

// Fallback tries each source in order and returns the first success. The
// error of the last source is returned when all of them fail.
func Fallback(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, year int) ([]Date, error) {
		if len(sources) == 0 {
			return nil, ErrNoSources
		}
		var lastErr error
		for _, s := range sources {
			dates, err := s.Holidays(ctx, year)
			if err == nil {
				return dates, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		}
		return nil, fmt.Errorf("all holiday sources failed: %w", lastErr)
	})
}

// Union merges the dates of every source. Any failing source fails the
// whole lookup.
func Union(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, year int) ([]Date, error) {
		if len(sources) == 0 {
			return nil, ErrNoSources
		}
		seen := make(map[Date]struct{})
		for _, s := range sources {
			dates, err := s.Holidays(ctx, year)
			if err != nil {
				return nil, err
			}
			for _, d := range dates {
				seen[d] = struct{}{}
			}
		}
		return sortedDates(seen), nil
	})
}

func sortedDates(set map[Date]struct{}) []Date {
	out := make([]Date, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
