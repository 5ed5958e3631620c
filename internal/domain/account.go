package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidRequest is returned for missing or malformed input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAccountNotFound is returned when the bank account document does not exist.
	ErrAccountNotFound = errors.New("bank account not found")
	// ErrMissingCredential is returned when no provider access token is stored.
	ErrMissingCredential = errors.New("no provider access credential for account")
	// ErrSyncInProgress is returned when another sync holds the account lease.
	ErrSyncInProgress = errors.New("sync already in progress for account")
)

// SyncMode is the mode of the last sync run.
type SyncMode string

const (
	SyncModeIncremental SyncMode = "incremental"
	SyncModeFull        SyncMode = "full"
)

// Label is the mode name reported to callers of the sync endpoint.
func (m SyncMode) Label() string {
	if m == SyncModeFull {
		return "backfill"
	}
	return "incremental"
}

// SyncState is the resumption state kept on the bank account document.
// An empty Cursor is stored as null.
type SyncState struct {
	Cursor     string
	LastSyncAt time.Time
	Mode       SyncMode
}

// BankAccount is the subset of the bank account document the pipeline reads.
type BankAccount struct {
	ID                string
	UserID            string
	ProviderAccountID string
	AccessToken       string
	Sync              SyncState
}
