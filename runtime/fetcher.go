package runtime

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"chat-exchange/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.RateFetcher = (*RateFetcher)(nil)

// RateFetcher fans one client call out per date and fans the results back in.
type RateFetcher struct {
	client contract.RateClient
	log    *slog.Logger
}

func NewRateFetcher(client contract.RateClient, log *slog.Logger) *RateFetcher {
	return &RateFetcher{client: client, log: log}
}

// FetchRange waits for every date, success or failure.
// result[i] always belongs to dates[i], whatever the completion order.
func (f *RateFetcher) FetchRange(ctx context.Context, dates domain.DateRange) domain.RateQueryResult {
	results := make(domain.RateQueryResult, len(dates))
	start := time.Now()

	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.fetch(ctx, date)
		}()
	}
	wg.Wait()

	for _, failed := range results.Failed() {
		f.log.Warn("Rates unavailable", "date", domain.FormatDate(failed.Date), "error", failed.Err)
	}
	f.log.Debug("Rates fetched", "dates", len(dates), "failed", len(results.Failed()), "took", time.Since(start))
	return results
}

func (f *RateFetcher) fetch(ctx context.Context, date time.Time) (result domain.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.FetchResult{Date: date, Err: fmt.Errorf("%w: %v", errors.ErrFetchPanic, r)}
		}
	}()
	result = f.client.Fetch(ctx, date)
	result.Date = date
	return result
}
