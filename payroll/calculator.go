package payroll

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Calculator bundles the rate table, legal constants and holiday calendar
// so callers do not thread them through every call. It holds no mutable
// state of its own and is safe for concurrent use when the calendar is.
type Calculator struct {
	Rates    RateTable
	Legal    LegalConstants
	Holidays HolidayCalendar
	Logger   *slog.Logger

	// BatchConcurrency bounds AggregateBatch. Zero means GOMAXPROCS.
	BatchConcurrency int
}

// NewCalculator creates a calculator. A nil holidays calendar means no
// holidays.
func NewCalculator(rates RateTable, legal LegalConstants, holidays HolidayCalendar) *Calculator {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	return &Calculator{
		Rates:    rates,
		Legal:    legal,
		Holidays: holidays,
		Logger:   slog.Default(),
	}
}

// ClassifyShift classifies one shift.
func (c *Calculator) ClassifyShift(ctx context.Context, shift ShiftInput) (ClassifiedShift, error) {
	return Classify(ctx, shift, c.Rates, c.Holidays)
}

// Aggregate computes the payroll of one period.
func (c *Calculator) Aggregate(ctx context.Context, period PayPeriod) (Result, error) {
	result, err := Aggregate(ctx, period, c.Rates, c.Legal, c.Holidays)
	if err != nil {
		c.logger().Debug("payroll aggregation rejected",
			"employee_id", period.EmployeeID, "err", err)
		return Result{}, err
	}
	if result.HolidayDataDegraded {
		c.logger().Warn("payroll computed without holiday data",
			"employee_id", period.EmployeeID,
			"period_start", period.PeriodStart.String(),
			"period_end", period.PeriodEnd.String())
	}
	return result, nil
}

// BatchOutcome is the result of one period in a batch. Exactly one of
// Result and Err is meaningful.
type BatchOutcome struct {
	Index  int
	Result Result
	Err    error
}

// AggregateBatch computes independent periods concurrently. A failing
// period does not affect the others; outcomes are in input order.
func (c *Calculator) AggregateBatch(ctx context.Context, periods []PayPeriod) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(periods))

	limit := c.BatchConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i := range periods {
		g.Go(func() error {
			result, err := c.Aggregate(ctx, periods[i])
			outcomes[i] = BatchOutcome{Index: i, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
