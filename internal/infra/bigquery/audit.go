package bigquery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

const (
	DefaultAuditDataset = "ledger"
	DefaultAuditTable   = "categorization_audit"
)

// AuditRow is one categorization decision streamed to BigQuery.
type AuditRow struct {
	TransactionID string `bigquery:"transaction_id"`
	UserID        string `bigquery:"user_id"`
	BankAccountID string `bigquery:"bank_account_id"`

	TransactionDate bigquery.NullDate `bigquery:"transaction_date"`
	Description     string            `bigquery:"description"`
	Amount          *big.Rat          `bigquery:"amount"` // NUMERIC

	CategoryL0 string              `bigquery:"category_l0"`
	CategoryL1 string              `bigquery:"category_l1"`
	CategoryL2 string              `bigquery:"category_l2"`
	CategoryL3 string              `bigquery:"category_l3"`
	CostCenter bigquery.NullString `bigquery:"cost_center"`

	RuleSource   string  `bigquery:"rule_source"`
	Confidence   float64 `bigquery:"confidence"`
	ReviewStatus string  `bigquery:"review_status"`
	Explanation  string  `bigquery:"explanation"`

	CategorizedTS time.Time `bigquery:"categorized_ts"`
	RecordedTS    time.Time `bigquery:"recorded_ts"`
}

// newAuditRow converts a categorized transaction to its audit row.
func newAuditRow(tx domain.CanonicalTransaction, recorded time.Time) *AuditRow {
	row := &AuditRow{
		TransactionID: tx.ProviderTransactionID,
		UserID:        tx.UserID,
		BankAccountID: tx.BankAccountID,
		Description:   tx.Description,
		Amount:        tx.Amount.Rat(),
		CategoryL0:    tx.CategoryHierarchy.L0,
		CategoryL1:    tx.CategoryHierarchy.L1,
		CategoryL2:    tx.CategoryHierarchy.L2,
		CategoryL3:    tx.CategoryHierarchy.L3,
		CostCenter:    bigquery.NullString{StringVal: tx.CostCenter, Valid: tx.CostCenter != ""},
		RuleSource:    string(tx.RuleSource),
		Confidence:    tx.Confidence,
		ReviewStatus:  string(tx.ReviewStatus),
		Explanation:   tx.Explanation,
		CategorizedTS: tx.LastUpdatedAt,
		RecordedTS:    recorded,
	}
	row.TransactionDate = nullDate(tx.Date)
	return row
}

// insertID hashes the transaction identity and the categorization outcome.
// Replaying a page with the same outcome yields the same id, so BigQuery's
// best-effort dedup drops the row; a changed category produces a new row.
func insertID(tx domain.CanonicalTransaction) string {
	h := sha256.New()
	for _, part := range []string{
		tx.UserID,
		tx.BankAccountID,
		tx.ProviderTransactionID,
		tx.Date.String(),
		tx.Description,
		tx.Amount.String(),
		tx.CategoryHierarchy.String(),
		tx.CostCenter,
		string(tx.RuleSource),
		strconv.FormatFloat(tx.Confidence, 'f', -1, 64),
		string(tx.ReviewStatus),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AuditSink streams categorization decisions into a BigQuery table. It holds
// a shared client for all inserts.
type AuditSink struct {
	client  *bigquery.Client
	dataset string
	table   string
	now     func() time.Time
}

// NewAuditSink creates an AuditSink writing to projectID.dataset.table.
func NewAuditSink(ctx context.Context, projectID, dataset, table string) (*AuditSink, error) {
	if dataset == "" {
		dataset = DefaultAuditDataset
	}
	if table == "" {
		table = DefaultAuditTable
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewAuditSink: creating client: %w", err)
	}
	return &AuditSink{client: client, dataset: dataset, table: table, now: time.Now}, nil
}

// Close closes the BigQuery client connection.
func (s *AuditSink) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// EnsureTable creates the audit table, partitioned by transaction date, if it
// does not exist yet.
func (s *AuditSink) EnsureTable(ctx context.Context) error {
	table := s.client.Dataset(s.dataset).Table(s.table)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(AuditRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "transaction_date"},
	}
	if err := table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating %s.%s: %w", s.dataset, s.table, err)
	}
	return nil
}

// RecordCategorizations streams one row per transaction.
func (s *AuditSink) RecordCategorizations(ctx context.Context, txs []domain.CanonicalTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	recorded := s.now().UTC()
	savers := make([]*bigquery.StructSaver, 0, len(txs))
	for _, tx := range txs {
		savers = append(savers, &bigquery.StructSaver{
			Struct:   newAuditRow(tx, recorded),
			InsertID: insertID(tx),
		})
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("RecordCategorizations: inserting %d rows: %w", len(savers), err)
	}
	return nil
}

func nullDate(d civil.Date) bigquery.NullDate {
	return bigquery.NullDate{Date: d, Valid: d.IsValid()}
}
