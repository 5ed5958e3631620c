package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/plaid/plaid-go/v29/plaid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"

	// MaxPageSize is the largest page either Plaid transactions endpoint accepts.
	MaxPageSize = 500
)

// PlaidConfig holds the credentials for the Plaid API.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox | production
}

// PlaidClient adapts the Plaid transactions endpoints to Client.
type PlaidClient struct {
	api *plaid.APIClient
}

// NewPlaidClient creates a Plaid-backed provider client.
func NewPlaidClient(cfg PlaidConfig) (*PlaidClient, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("NewPlaidClient: client id and secret are required")
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch strings.ToLower(cfg.Environment) {
	case "", "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("NewPlaidClient: unknown environment %q", cfg.Environment)
	}

	return &PlaidClient{api: plaid.NewAPIClient(configuration)}, nil
}

// FetchHistorical implements Client using /transactions/get.
func (c *PlaidClient) FetchHistorical(ctx context.Context, req HistoricalRequest) (*HistoricalPage, error) {
	request := plaid.NewTransactionsGetRequest(
		req.AccessToken,
		req.StartDate.Format(dateLayout),
		req.EndDate.Format(dateLayout),
	)

	options := plaid.NewTransactionsGetRequestOptions()
	if req.AccountID != "" {
		options.SetAccountIds([]string{req.AccountID})
	}
	options.SetCount(int32(clampCount(req.Count)))
	options.SetOffset(int32(req.Offset))
	request.SetOptions(*options)

	resp, httpResp, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
	if err != nil {
		return nil, classifyPlaidError("FetchHistorical", httpResp, err)
	}

	txs := resp.GetTransactions()
	page := &HistoricalPage{
		Transactions:      make([]Transaction, 0, len(txs)),
		TotalTransactions: int(resp.GetTotalTransactions()),
	}
	for _, t := range txs {
		page.Transactions = append(page.Transactions, fromPlaidTransaction(t))
	}
	return page, nil
}

// FetchDelta implements Client using /transactions/sync.
func (c *PlaidClient) FetchDelta(ctx context.Context, req DeltaRequest) (*DeltaPage, error) {
	request := plaid.NewTransactionsSyncRequest(req.AccessToken)
	if req.Cursor != "" {
		request.SetCursor(req.Cursor)
	}
	if req.Count > 0 {
		request.SetCount(int32(clampCount(req.Count)))
	}

	resp, httpResp, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, classifyPlaidError("FetchDelta", httpResp, err)
	}

	page := &DeltaPage{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	for _, t := range resp.GetAdded() {
		page.Added = append(page.Added, fromPlaidTransaction(t))
	}
	for _, t := range resp.GetModified() {
		page.Modified = append(page.Modified, fromPlaidTransaction(t))
	}
	for _, r := range resp.GetRemoved() {
		page.Removed = append(page.Removed, RemovedTransaction{
			TransactionID: r.GetTransactionId(),
			AccountID:     r.GetAccountId(),
		})
	}
	return page, nil
}

func fromPlaidTransaction(t plaid.Transaction) Transaction {
	pfc := t.GetPersonalFinanceCategory()
	return Transaction{
		TransactionID:       t.GetTransactionId(),
		AccountID:           t.GetAccountId(),
		Date:                t.GetDate(),
		Name:                t.GetName(),
		MerchantName:        t.GetMerchantName(),
		OriginalDescription: t.GetOriginalDescription(),
		Amount:              decimal.NewFromFloat(t.GetAmount()),
		Pending:             t.GetPending(),
		CategoryHint: CategoryHint{
			Primary:  pfc.GetPrimary(),
			Detailed: pfc.GetDetailed(),
		},
	}
}

// classifyPlaidError wraps a Plaid failure, marking rate limits, timeouts and
// server errors as transient.
func classifyPlaidError(op string, httpResp *http.Response, err error) error {
	msg := err.Error()
	if plaidErr, perr := plaid.ToPlaidError(err); perr == nil {
		msg = fmt.Sprintf("%s: %s", plaidErr.GetErrorCode(), plaidErr.GetErrorMessage())
	}
	wrapped := fmt.Errorf("%s: plaid: %s: %w", op, msg, err)

	if httpResp != nil && isTransientStatus(httpResp.StatusCode) {
		return &TransientError{StatusCode: httpResp.StatusCode, Err: wrapped}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{StatusCode: http.StatusGatewayTimeout, Err: wrapped}
	}
	return wrapped
}

func clampCount(n int) int {
	switch {
	case n <= 0:
		return 100
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

var _ Client = (*PlaidClient)(nil)
