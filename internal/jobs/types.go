package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/rent-ledger/internal/rules"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeSyncAccount runs the sync orchestrator for one bank account.
	JobTypeSyncAccount JobType = "sync_account"
	// JobTypeRegenerateRules rebuilds the property-derived rules of one property.
	JobTypeRegenerateRules JobType = "regenerate_rules"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a published job does not set MaxRetries.
const DefaultMaxRetries = 3

// Job is one unit of background work. Exactly one payload is set, matching Type.
type Job struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	Type   JobType `json:"type"`
	UserID string  `json:"userId"`

	Sync     *syncer.Request `json:"sync,omitempty"`
	Property *rules.Property `json:"property,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// Result is the handler's outcome, e.g. a sync result.
	Result interface{} `json:"result,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retryCount"`
	MaxRetries int `json:"maxRetries"`
}

// NewSyncAccountJob builds a pending sync job for req.
func NewSyncAccountJob(req syncer.Request) *Job {
	return &Job{Type: JobTypeSyncAccount, UserID: req.UserID, Sync: &req}
}

// NewRegenerateRulesJob builds a pending rule regeneration job.
func NewRegenerateRulesJob(userID string, p rules.Property) *Job {
	return &Job{Type: JobTypeRegenerateRules, UserID: userID, Property: &p}
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// Publish enqueues a job. It assigns JobID, Status and CreatedAt when unset.
	Publish(ctx context.Context, job *Job) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A non-nil error marks the job for retry unless
// it is wrapped with backoff.Permanent.
type JobHandler func(ctx context.Context, job *Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by ID. It returns ErrJobNotFound when missing.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs retrieves jobs with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Type   JobType
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
