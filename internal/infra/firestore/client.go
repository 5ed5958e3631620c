package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dvloznov/rent-ledger/internal/store"
)

const (
	usersCollection        = "users"
	bankAccountsCollection = "bankAccounts"
	transactionsCollection = "transactions"
	rulesCollection        = "categorizationRules"
	locksCollection        = "locks"
	syncLockID             = "sync"
)

// Store is the Firestore implementation of store.Store. It holds a shared
// client for all operations.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Store connected to the given project and database.
// An empty databaseID uses the default database.
func NewStore(ctx context.Context, projectID, databaseID string) (*Store, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating firestore client: %w", err)
	}
	return &Store{client: client, now: time.Now}, nil
}

// Close closes the Firestore client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) accountRef(userID, bankAccountID string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(userID).Collection(bankAccountsCollection).Doc(bankAccountID)
}

func (s *Store) transactionRef(userID, bankAccountID, providerTransactionID string) *firestore.DocumentRef {
	return s.accountRef(userID, bankAccountID).Collection(transactionsCollection).Doc(providerTransactionID)
}

func (s *Store) rulesRef(userID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(userID).Collection(rulesCollection)
}

func (s *Store) lockRef(userID, bankAccountID string) *firestore.DocumentRef {
	return s.accountRef(userID, bankAccountID).Collection(locksCollection).Doc(syncLockID)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

var _ store.Store = (*Store)(nil)
