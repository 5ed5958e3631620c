package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/rent-ledger/internal/provider"
	mock_provider "github.com/dvloznov/rent-ledger/internal/provider/mocks"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestRetryingClient_FetchDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transient := &provider.TransientError{StatusCode: 429, Err: errors.New("rate limited")}
	permanent := errors.New("ITEM_LOGIN_REQUIRED")
	okPage := &provider.DeltaPage{NextCursor: "c1"}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "success first try", errs: []error{nil}, wantCalls: 1},
		{name: "transient then success", errs: []error{transient, transient, nil}, wantCalls: 3},
		{name: "permanent not retried", errs: []error{permanent}, wantCalls: 1, wantErr: permanent},
		{name: "transient exhausts retries", errs: []error{transient, transient, transient}, wantCalls: 3, wantErr: transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock_provider.NewMockClient(ctrl)
			for _, err := range tt.errs {
				if err != nil {
					m.EXPECT().FetchDelta(gomock.Any(), gomock.Any()).Return(nil, err)
				} else {
					m.EXPECT().FetchDelta(gomock.Any(), gomock.Any()).Return(okPage, nil)
				}
			}

			c := provider.NewRetryingClient(m, 2).WithBackOff(noWait)
			page, err := c.FetchDelta(context.Background(), provider.DeltaRequest{AccessToken: "tok"})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c1", page.NextCursor)
		})
	}
}

func TestRetryingClient_StopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	m := mock_provider.NewMockClient(ctrl)
	m.EXPECT().FetchHistorical(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, provider.HistoricalRequest) (*provider.HistoricalPage, error) {
			cancel()
			return nil, &provider.TransientError{StatusCode: 503, Err: errors.New("unavailable")}
		})

	c := provider.NewRetryingClient(m, 5).WithBackOff(noWait)
	_, err := c.FetchHistorical(ctx, provider.HistoricalRequest{})
	require.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &provider.TransientError{StatusCode: 500, Err: errors.New("boom")})
	assert.True(t, provider.IsTransient(wrapped))
	assert.False(t, provider.IsTransient(errors.New("plain")))
	assert.False(t, provider.IsTransient(nil))
}
