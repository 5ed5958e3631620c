package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_client.go -source=interfaces.go Client

// Client is the bank-data provider as seen by the sync orchestrator.
type Client interface {
	// FetchHistorical returns one offset/count page of transactions in a date range.
	FetchHistorical(ctx context.Context, req HistoricalRequest) (*HistoricalPage, error)

	// FetchDelta returns changes since the cursor. An empty cursor starts from the beginning.
	FetchDelta(ctx context.Context, req DeltaRequest) (*DeltaPage, error)
}

// Transaction is a transaction in the provider's shape. Amount is
// outflow-positive, as the provider reports it.
type Transaction struct {
	TransactionID       string
	AccountID           string
	Date                string // YYYY-MM-DD
	Name                string
	MerchantName        string
	OriginalDescription string
	Amount              decimal.Decimal
	Pending             bool
	CategoryHint        CategoryHint
}

// CategoryHint is the provider's own category guess.
type CategoryHint struct {
	Primary  string
	Detailed string
}

// RemovedTransaction identifies a transaction the provider no longer reports.
type RemovedTransaction struct {
	TransactionID string
	AccountID     string
}

// HistoricalRequest asks for a page of transactions between two dates.
type HistoricalRequest struct {
	AccessToken string
	AccountID   string
	StartDate   time.Time
	EndDate     time.Time
	Offset      int
	Count       int
}

// HistoricalPage is one page of a historical fetch.
type HistoricalPage struct {
	Transactions      []Transaction
	TotalTransactions int
}

// DeltaRequest asks for changes since Cursor.
type DeltaRequest struct {
	AccessToken string
	Cursor      string
	Count       int
}

// DeltaPage is one page of a delta fetch.
type DeltaPage struct {
	Added      []Transaction
	Modified   []Transaction
	Removed    []RemovedTransaction
	NextCursor string
	HasMore    bool
}
