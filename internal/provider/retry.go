package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dvloznov/rent-ledger/internal/logger"
)

// RetryingClient retries transient failures of the wrapped client with
// exponential backoff. Permanent failures are returned on the first attempt.
type RetryingClient struct {
	next       Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewRetryingClient wraps next. maxRetries is the number of retries after the
// first attempt.
func NewRetryingClient(next Client, maxRetries int) *RetryingClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingClient{
		next:       next,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// WithBackOff replaces the backoff policy. Used by tests to avoid sleeping.
func (c *RetryingClient) WithBackOff(f func() backoff.BackOff) *RetryingClient {
	c.newBackOff = f
	return c
}

// FetchHistorical implements Client.
func (c *RetryingClient) FetchHistorical(ctx context.Context, req HistoricalRequest) (*HistoricalPage, error) {
	var page *HistoricalPage
	err := c.retry(ctx, "FetchHistorical", func() error {
		var err error
		page, err = c.next.FetchHistorical(ctx, req)
		return err
	})
	return page, err
}

// FetchDelta implements Client.
func (c *RetryingClient) FetchDelta(ctx context.Context, req DeltaRequest) (*DeltaPage, error) {
	var page *DeltaPage
	err := c.retry(ctx, "FetchDelta", func() error {
		var err error
		page, err = c.next.FetchDelta(ctx, req)
		return err
	})
	return page, err
}

func (c *RetryingClient) retry(ctx context.Context, op string, fn func() error) error {
	log := logger.FromContext(ctx)
	attempt := 0

	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("Transient provider error, retrying")
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, b)
}

var _ Client = (*RetryingClient)(nil)
