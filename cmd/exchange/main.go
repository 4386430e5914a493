package main

import (
	"chat-exchange/domain"
	"chat-exchange/infrastructure/privatbank"
	"chat-exchange/runtime"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exchange: %v\n", err)
	}
	os.Exit(code)
}

// run queries the archive once, outside of any chat session, with the same client and aggregation as the server.
func run(args []string, stdout, stderr io.Writer) (int, error) {
	flags := flag.NewFlagSet("exchange", flag.ContinueOnError)
	flags.SetOutput(stderr)
	days := flags.Int("days", domain.MinDays, "number of past days to fetch, today included (1-10)")
	currencies := flags.String("currencies", domain.DefaultCurrencies().String(), "comma separated currency codes")
	asJSON := flags.Bool("json", false, "print the JSON document broadcast to chat peers")
	if err := flags.Parse(args); err != nil {
		return exitConfig, err
	}

	cfg, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	color.Enable = cfg.Colours

	dates, err := domain.NewDateRange(time.Now(), *days)
	if err != nil {
		return exitConfig, err
	}
	selection := domain.ParseCurrencySelection(*currencies)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logs.GetLoggerFromString(cfg.LogLevel)
	client := privatbank.NewClient(logger, &http.Client{}, privatbank.Config{
		BaseURL:      cfg.RatesAPIURL,
		Timeout:      cfg.FetchTimeout,
		MaxRetries:   cfg.FetchRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, nil)
	results := runtime.NewRateFetcher(client, logger).FetchRange(ctx, dates)

	for _, failed := range results.Failed() {
		fmt.Fprintln(stderr, color.New(color.FgRed).Render(
			fmt.Sprintf("%s: %v", domain.FormatDate(failed.Date), failed.Err)))
	}

	records := domain.Aggregate(results, selection)
	if *asJSON {
		doc, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return exitRuntime, fmt.Errorf("encode rates: %w", err)
		}
		fmt.Fprintln(stdout, string(doc))
	} else {
		renderTable(stdout, records)
	}

	if len(results.Failed()) == len(results) {
		return exitRuntime, fmt.Errorf("no date could be fetched")
	}
	return exitOK, nil
}

func renderTable(w io.Writer, records []domain.RateRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Currency", "Sale NB", "Purchase NB", "Sale", "Purchase"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, r := range records {
		table.Append([]string{
			field(r, "date"),
			field(r, "currency"),
			field(r, "saleRateNB"),
			field(r, "purchaseRateNB"),
			field(r, "saleRate"),
			field(r, "purchaseRate"),
		})
	}
	table.Render()
}

// field renders a member as it was received, "-" when absent.
func field(r domain.RateRecord, key string) string {
	raw, ok := r.Field(key)
	if !ok || string(raw) == "null" {
		return "-"
	}
	return strings.Trim(string(raw), `"`)
}
