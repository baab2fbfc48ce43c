/*
main.go - Command-line payroll calculator

PURPOSE:
  Computes the payroll statement of one period stored as a JSON file,
  without a server or a database.

USAGE:
  calc -period period.json [-config rates.yaml] [-offline] [-json]

  -period   PayPeriod JSON (same body as POST /api/payroll/calculate)
  -config   YAML file overriding rates and legal constants
  -offline  Use the computed national calendar only (no network)
  -json     Print the full result as JSON instead of a table

EXIT CODES:
  0  statement printed
  1  invalid input (bad file, invalid shift)
  2  usage error
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
)

func main() {
	periodPath := flag.String("period", "", "pay period JSON file")
	configPath := flag.String("config", "", "YAML file with rate and legal overrides")
	offline := flag.Bool("offline", false, "use the computed holiday calendar only")
	asJSON := flag.Bool("json", false, "print the result as JSON")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *periodPath == "" {
		fmt.Fprintln(os.Stderr, "calc: -period is required")
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), logger, *periodPath, *configPath, *offline, *asJSON, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "calc:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, periodPath, configPath string, offline, asJSON bool, out io.Writer) error {
	cfg := config.Config{
		Rates: payroll.DefaultRateTable(),
		Legal: payroll.DefaultLegalConstants(),
	}
	if configPath != "" {
		file, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if err := file.Apply(&cfg); err != nil {
			return err
		}
		if err := cfg.Legal.Validate(); err != nil {
			return err
		}
	}

	period, err := readPeriod(periodPath)
	if err != nil {
		return err
	}

	source := calendar.Colombia()
	if !offline {
		source = calendar.Fallback(calendar.NewNager(calendar.DefaultNagerURL, "CO"), source)
	}
	calc := payroll.NewCalculator(cfg.Rates, cfg.Legal, calendar.NewProvider(source, calendar.WithLogger(logger)))
	calc.Logger = logger

	result, err := calc.Aggregate(ctx, period)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printStatement(out, result, cfg.Rates)
}

func readPeriod(path string) (payroll.PayPeriod, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return payroll.PayPeriod{}, err
	}
	var p payroll.PayPeriod
	if err := json.Unmarshal(b, &p); err != nil {
		return payroll.PayPeriod{}, fmt.Errorf("%s: %w", path, err)
	}
	p.FillBounds()
	if err := p.Validate(); err != nil {
		return payroll.PayPeriod{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func printStatement(out io.Writer, r payroll.Result, rates payroll.RateTable) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	money := func(d decimal.Decimal) string { return d.StringFixed(2) }

	fmt.Fprintf(out, "Employee %s, %s to %s\n\n", r.EmployeeID, r.PeriodStart, r.PeriodEnd)

	fmt.Fprintln(tw, "Code\tCategory\tHours\tRate\tPayment\t")
	for _, c := range payroll.Categories {
		hours := r.HoursByCategory.Get(c)
		if hours.IsZero() {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			c.Code(), c.Label(), money(hours), money(rates.Rate(c)), money(r.PaymentByCategory.Get(c)))
	}
	fmt.Fprintf(tw, "\tTotal\t%s\t\t%s\t\n", money(r.TotalWorkedHours), money(r.TotalSurchargePayment))
	fmt.Fprintln(tw, "\t\t\t\t\t")

	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Base salary", r.BaseSalary},
		{"Surcharges and overtime", r.TotalSurchargePayment},
		{"Transport allowance", r.TransportAllowanceApplied},
		{"Other income", r.TotalOtherIncome},
		{"Gross pay", r.GrossPay},
		{"Contribution base (IBC)", r.ContributionBase},
		{"Health", r.HealthDeduction.Neg()},
		{"Pension", r.PensionDeduction.Neg()},
		{"Other deductions", r.TotalOtherDeductions.Neg()},
		{"Net pay", r.NetPay},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "\t%s\t\t\t%s\t\n", row.label, money(row.value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.HolidayDataDegraded {
		fmt.Fprintln(out, "\nWARNING: holiday data was unavailable; holiday hours may be classified as ordinary.")
	}
	return nil
}
