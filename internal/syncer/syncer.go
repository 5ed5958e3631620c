package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/rent-ledger/internal/categorizer"
	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
	"github.com/dvloznov/rent-ledger/internal/pipeline"
	"github.com/dvloznov/rent-ledger/internal/provider"
	"github.com/dvloznov/rent-ledger/internal/store"
)

const (
	dateLayout = "2006-01-02"

	// DefaultPageSize is the number of transactions requested per provider call.
	DefaultPageSize = 250

	// DefaultLeaseTTL bounds how long a crashed sync blocks its account.
	DefaultLeaseTTL = 10 * time.Minute

	// DefaultLookbackYears is the backfill range when no start date is given.
	DefaultLookbackYears = 2
)

// Store is the persistence the orchestrator drives.
type Store interface {
	store.AccountStore
	store.TransactionWriter
	store.Leaser
	categorizer.RuleReader
}

// AuditSink receives every categorized transaction after its page commits.
type AuditSink interface {
	RecordCategorizations(ctx context.Context, txs []domain.CanonicalTransaction) error
}

// Config tunes paging, batching and locking.
type Config struct {
	PageSize   int
	BatchLimit int
	LeaseTTL   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > provider.MaxPageSize {
		c.PageSize = provider.MaxPageSize
	}
	c.BatchLimit = store.ClampBatchLimit(c.BatchLimit)
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = DefaultLeaseTTL
	}
	return c
}

// Request is one sync invocation.
type Request struct {
	UserID        string `json:"userId"`
	BankAccountID string `json:"bankAccountId"`
	FullSync      bool   `json:"fullSync,omitempty"`
	// StartDate (YYYY-MM-DD) bounds a full sync; it is ignored for incremental syncs.
	StartDate string `json:"startDate,omitempty"`
}

// Result summarizes a completed sync.
type Result struct {
	Mode    domain.SyncMode `json:"mode"`
	Count   int             `json:"count"`
	Removed int             `json:"removed"`
	Pages   int             `json:"pages"`
}

// Orchestrator runs full and incremental syncs for one bank account at a time.
type Orchestrator struct {
	store    Store
	provider provider.Client
	engine   *categorizer.Engine
	audit    AuditSink
	cfg      Config
	now      func() time.Time
	newOwner func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAuditSink streams categorization results to sink.
func WithAuditSink(sink AuditSink) Option {
	return func(o *Orchestrator) { o.audit = sink }
}

// WithConfig sets paging, batching and lease parameters.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg.withDefaults() }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator.
func New(st Store, client provider.Client, engine *categorizer.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		provider: client,
		engine:   engine,
		cfg:      Config{}.withDefaults(),
		now:      time.Now,
		newOwner: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.engine == nil {
		o.engine = categorizer.NewEngine()
	}
	return o
}

// Sync runs one sync for the requested account. Only one sync per account
// runs at a time; a concurrent request fails with domain.ErrSyncInProgress.
func (o *Orchestrator) Sync(ctx context.Context, req Request) (*Result, error) {
	userID := strings.TrimSpace(req.UserID)
	bankAccountID := strings.TrimSpace(req.BankAccountID)
	if userID == "" || bankAccountID == "" {
		return nil, fmt.Errorf("Sync: %w: userId and bankAccountId are required", domain.ErrInvalidRequest)
	}

	var start time.Time
	if req.FullSync {
		var err error
		start, err = o.startDate(req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("Sync: %w", err)
		}
	}

	acc, err := o.store.GetBankAccount(ctx, userID, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("Sync: loading bank account: %w", err)
	}
	if strings.TrimSpace(acc.AccessToken) == "" {
		return nil, fmt.Errorf("Sync: account %s: %w", bankAccountID, domain.ErrMissingCredential)
	}

	mode := domain.SyncModeIncremental
	if req.FullSync {
		mode = domain.SyncModeFull
	}

	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Str("bank_account_id", bankAccountID).
		Str("mode", mode.Label()).
		Logger()
	ctx = logger.WithContext(ctx, log)

	lease := &syncLease{
		store:         o.store,
		userID:        userID,
		bankAccountID: bankAccountID,
		owner:         o.newOwner(),
		ttl:           o.cfg.LeaseTTL,
	}
	if err := lease.acquire(ctx); err != nil {
		return nil, fmt.Errorf("Sync: %w", err)
	}
	defer func() {
		if err := lease.release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("Failed to release sync lease")
		}
	}()

	rc := categorizer.LoadRuleContext(ctx, o.store, userID)

	log.Info().Int("rules", rc.Len()).Msg("Sync started")

	var res *Result
	if mode == domain.SyncModeFull {
		res, err = o.backfill(ctx, acc, rc, lease, start)
	} else {
		res, err = o.incremental(ctx, acc, rc, lease)
	}
	if err != nil {
		log.Error().Err(err).Msg("Sync failed")
		return nil, err
	}

	log.Info().
		Int("count", res.Count).
		Int("removed", res.Removed).
		Int("pages", res.Pages).
		Msg("Sync completed")
	return res, nil
}

func (o *Orchestrator) startDate(raw string) (time.Time, error) {
	today := o.today()
	if strings.TrimSpace(raw) == "" {
		return today.AddDate(-DefaultLookbackYears, 0, 0), nil
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}
	if start.After(today) {
		return time.Time{}, fmt.Errorf("%w: startDate is in the future", domain.ErrInvalidRequest)
	}
	return start, nil
}

func (o *Orchestrator) today() time.Time {
	now := o.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// backfill pages through the historical endpoint by offset. The provider's
// total is re-read on every page; the loop ends on an empty page or once the
// offset reaches the latest total. The cursor is reset to null on success.
func (o *Orchestrator) backfill(ctx context.Context, acc *domain.BankAccount, rc *categorizer.RuleContext, lease *syncLease, start time.Time) (*Result, error) {
	log := logger.FromContext(ctx)
	res := &Result{Mode: domain.SyncModeFull}
	end := o.today()
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backfill: stopped before page %d: %w", res.Pages+1, err)
		}
		if err := lease.renew(ctx); err != nil {
			return nil, fmt.Errorf("backfill: before page %d: %w", res.Pages+1, err)
		}

		page, err := o.provider.FetchHistorical(ctx, provider.HistoricalRequest{
			AccessToken: acc.AccessToken,
			AccountID:   acc.ProviderAccountID,
			StartDate:   start,
			EndDate:     end,
			Offset:      offset,
			Count:       o.cfg.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("backfill: fetching offset %d: %w", offset, err)
		}
		if len(page.Transactions) == 0 {
			break
		}
		res.Pages++

		txs := o.categorize(ctx, acc, rc, filterByAccount(acc.ProviderAccountID, page.Transactions))
		if err := lease.renew(ctx); err != nil {
			return nil, fmt.Errorf("backfill: page %d: %w", res.Pages, err)
		}
		if err := o.commitUpserts(ctx, acc, txs); err != nil {
			return nil, fmt.Errorf("backfill: page %d: %w", res.Pages, err)
		}
		o.recordAudit(ctx, txs)

		res.Count += len(txs)
		offset += len(page.Transactions)

		log.Info().
			Int("page", res.Pages).
			Int("size", len(page.Transactions)).
			Int("offset", offset).
			Int("total", page.TotalTransactions).
			Msg("Backfill page committed")

		if offset >= page.TotalTransactions {
			break
		}
	}

	if err := lease.renew(ctx); err != nil {
		return nil, fmt.Errorf("backfill: saving sync state: %w", err)
	}
	state := domain.SyncState{Cursor: "", LastSyncAt: o.now().UTC(), Mode: domain.SyncModeFull}
	if err := o.store.SaveSyncState(ctx, acc.UserID, acc.ID, state); err != nil {
		return nil, fmt.Errorf("backfill: saving sync state: %w", err)
	}
	return res, nil
}

// incremental follows the delta cursor. Each page's upserts and removals
// are committed before that page's cursor is saved, so an interrupted run
// resumes from the last committed page.
func (o *Orchestrator) incremental(ctx context.Context, acc *domain.BankAccount, rc *categorizer.RuleContext, lease *syncLease) (*Result, error) {
	log := logger.FromContext(ctx)
	res := &Result{Mode: domain.SyncModeIncremental}
	cursor := acc.Sync.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("incremental: stopped before page %d: %w", res.Pages+1, err)
		}
		if err := lease.renew(ctx); err != nil {
			return nil, fmt.Errorf("incremental: before page %d: %w", res.Pages+1, err)
		}

		page, err := o.provider.FetchDelta(ctx, provider.DeltaRequest{
			AccessToken: acc.AccessToken,
			Cursor:      cursor,
			Count:       o.cfg.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("incremental: fetching page %d: %w", res.Pages+1, err)
		}
		res.Pages++

		changed := make([]provider.Transaction, 0, len(page.Added)+len(page.Modified))
		changed = append(changed, page.Added...)
		changed = append(changed, page.Modified...)
		upserts := o.categorize(ctx, acc, rc, dedupe(filterByAccount(acc.ProviderAccountID, changed)))
		removed := removedIDs(acc.ProviderAccountID, page.Removed)

		if page.HasMore && (page.NextCursor == "" || page.NextCursor == cursor) {
			return nil, fmt.Errorf("incremental: page %d: provider reported more pages without advancing cursor %q", res.Pages, cursor)
		}
		if err := lease.renew(ctx); err != nil {
			return nil, fmt.Errorf("incremental: page %d: %w", res.Pages, err)
		}
		if err := o.commitUpserts(ctx, acc, upserts); err != nil {
			return nil, fmt.Errorf("incremental: page %d: %w", res.Pages, err)
		}
		if err := o.commitDeletes(ctx, acc, removed); err != nil {
			return nil, fmt.Errorf("incremental: page %d: %w", res.Pages, err)
		}
		o.recordAudit(ctx, upserts)

		if page.NextCursor != "" {
			cursor = page.NextCursor
		}
		state := domain.SyncState{Cursor: cursor, LastSyncAt: o.now().UTC(), Mode: domain.SyncModeIncremental}
		if err := o.store.SaveSyncState(ctx, acc.UserID, acc.ID, state); err != nil {
			return nil, fmt.Errorf("incremental: saving cursor after page %d: %w", res.Pages, err)
		}

		res.Count += len(upserts)
		res.Removed += len(removed)

		log.Info().
			Int("page", res.Pages).
			Int("upserts", len(upserts)).
			Int("removed", len(removed)).
			Bool("has_more", page.HasMore).
			Msg("Delta page committed")

		if !page.HasMore {
			break
		}
	}

	return res, nil
}

// syncLease is the per-account lease held for one sync run. It is renewed
// before every provider fetch and every commit; a run whose lease was taken
// over stops before writing.
type syncLease struct {
	store         store.Leaser
	userID        string
	bankAccountID string
	owner         string
	ttl           time.Duration
}

func (l *syncLease) acquire(ctx context.Context) error {
	return l.store.AcquireLease(ctx, l.userID, l.bankAccountID, l.owner, l.ttl)
}

func (l *syncLease) renew(ctx context.Context) error {
	return l.store.RenewLease(ctx, l.userID, l.bankAccountID, l.owner, l.ttl)
}

func (l *syncLease) release(ctx context.Context) error {
	return l.store.ReleaseLease(ctx, l.userID, l.bankAccountID, l.owner)
}

func (o *Orchestrator) categorize(ctx context.Context, acc *domain.BankAccount, rc *categorizer.RuleContext, txs []provider.Transaction) []domain.CanonicalTransaction {
	out := make([]domain.CanonicalTransaction, 0, len(txs))
	for _, ptx := range txs {
		tx := pipeline.NormalizeTransaction(acc.UserID, acc.ID, ptx)
		if tx.ProviderTransactionID == "" {
			log := logger.FromContext(ctx)
			log.Warn().Str("description", tx.Description).Msg("Skipping provider transaction without id")
			continue
		}
		if tx.ProviderAccountID == "" {
			tx.ProviderAccountID = acc.ProviderAccountID
		}
		o.engine.Apply(ctx, &tx, ptx.CategoryHint, rc)
		out = append(out, tx)
	}
	return out
}

func (o *Orchestrator) commitUpserts(ctx context.Context, acc *domain.BankAccount, txs []domain.CanonicalTransaction) error {
	for _, batch := range store.Chunk(txs, o.cfg.BatchLimit) {
		if err := o.store.CommitUpserts(ctx, acc.UserID, acc.ID, batch); err != nil {
			return fmt.Errorf("committing %d upserts: %w", len(batch), err)
		}
	}
	return nil
}

func (o *Orchestrator) commitDeletes(ctx context.Context, acc *domain.BankAccount, ids []string) error {
	for _, batch := range store.Chunk(ids, o.cfg.BatchLimit) {
		if err := o.store.CommitDeletes(ctx, acc.UserID, acc.ID, batch); err != nil {
			return fmt.Errorf("committing %d deletions: %w", len(batch), err)
		}
	}
	return nil
}

func (o *Orchestrator) recordAudit(ctx context.Context, txs []domain.CanonicalTransaction) {
	if o.audit == nil || len(txs) == 0 {
		return
	}
	if err := o.audit.RecordCategorizations(ctx, txs); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("count", len(txs)).Msg("Failed to record categorization audit")
	}
}

// filterByAccount drops transactions of other accounts on the same provider
// connection. Transactions without an account id are kept.
func filterByAccount(accountID string, txs []provider.Transaction) []provider.Transaction {
	if accountID == "" {
		return txs
	}
	out := txs[:0:0]
	for _, tx := range txs {
		if tx.AccountID == "" || tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

// dedupe keeps the last occurrence of each transaction id, in first-seen order.
func dedupe(txs []provider.Transaction) []provider.Transaction {
	index := make(map[string]int, len(txs))
	out := make([]provider.Transaction, 0, len(txs))
	for _, tx := range txs {
		if i, ok := index[tx.TransactionID]; ok {
			out[i] = tx
			continue
		}
		index[tx.TransactionID] = len(out)
		out = append(out, tx)
	}
	return out
}

func removedIDs(accountID string, removed []provider.RemovedTransaction) []string {
	seen := make(map[string]bool, len(removed))
	var ids []string
	for _, r := range removed {
		if r.TransactionID == "" || seen[r.TransactionID] {
			continue
		}
		if accountID != "" && r.AccountID != "" && r.AccountID != accountID {
			continue
		}
		seen[r.TransactionID] = true
		ids = append(ids, r.TransactionID)
	}
	return ids
}
