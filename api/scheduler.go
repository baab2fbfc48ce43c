/*
scheduler.go - Background holiday refresh

PURPOSE:
  Keeps the holiday cache of the current and the next year warm, so the
  first payroll request of a year does not wait on the holiday source and
  a remote calendar that was down at startup is retried without a restart.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Refreshes immediately on start
  - A failed refresh keeps the previously cached set

USAGE:
  refresher := NewHolidayRefresher(provider, logger)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - calendar/provider.go: Provider.Refresh
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// YearRefresher refetches the holidays of one year.
type YearRefresher interface {
	Refresh(ctx context.Context, year int) error
}

// HolidayRefresher periodically refreshes holiday data.
type HolidayRefresher struct {
	Calendar YearRefresher
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration
	Now      func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHolidayRefresher creates a refresher running every 12 hours.
func NewHolidayRefresher(cal YearRefresher, logger *slog.Logger) *HolidayRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayRefresher{
		Calendar: cal,
		Logger:   logger,
		Interval: 12 * time.Hour,
		Timeout:  30 * time.Second,
		Now:      time.Now,
	}
}

// Start begins refreshing in the background. Calling Start twice is a
// no-op.
func (hr *HolidayRefresher) Start() {
	hr.mu.Lock()
	defer hr.mu.Unlock()

	if hr.ticker != nil {
		return
	}
	hr.ticker = time.NewTicker(hr.Interval)
	hr.stop = make(chan struct{})
	hr.wg.Add(1)

	go hr.run(hr.ticker, hr.stop)

	hr.Logger.Info("holiday refresher started", "interval", hr.Interval)
}

// Stop stops the refresher and waits for an in-flight refresh.
func (hr *HolidayRefresher) Stop() {
	hr.mu.Lock()
	defer hr.mu.Unlock()

	if hr.ticker == nil {
		return
	}
	hr.ticker.Stop()
	close(hr.stop)
	hr.wg.Wait()
	hr.ticker = nil
	hr.Logger.Info("holiday refresher stopped")
}

func (hr *HolidayRefresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer hr.wg.Done()

	hr.RefreshNow(context.Background())

	for {
		select {
		case <-ticker.C:
			hr.RefreshNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RefreshNow refreshes the current and the next year once and reports how
// many refreshes failed.
func (hr *HolidayRefresher) RefreshNow(ctx context.Context) int {
	year := hr.Now().Year()
	failed := 0
	for _, y := range []int{year, year + 1} {
		ctx, cancel := context.WithTimeout(ctx, hr.Timeout)
		err := hr.Calendar.Refresh(ctx, y)
		cancel()
		if err != nil {
			failed++
			hr.Logger.Warn("holiday refresh failed", "year", y, "err", err)
			continue
		}
		hr.Logger.Debug("holidays refreshed", "year", y)
	}
	return failed
}
