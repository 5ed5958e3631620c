package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
	"github.com/dvloznov/rent-ledger/internal/rules"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

// SyncRunner runs one account sync.
type SyncRunner interface {
	Sync(ctx context.Context, req syncer.Request) (*syncer.Result, error)
}

// RuleRegenerator rebuilds the derived rules of one property.
type RuleRegenerator interface {
	Regenerate(ctx context.Context, userID string, p rules.Property) (*rules.RegenerateResult, error)
}

// NewDispatcher returns a JobHandler routing each job type to its runner.
// Errors that retrying cannot fix are marked permanent.
func NewDispatcher(sync SyncRunner, regen RuleRegenerator) JobHandler {
	return func(ctx context.Context, job *Job) error {
		log := logger.FromContext(ctx).With().
			Str("job_id", job.JobID).
			Str("job_type", string(job.Type)).
			Str("user_id", job.UserID).
			Logger()
		ctx = logger.WithContext(ctx, log)

		switch job.Type {
		case JobTypeSyncAccount:
			if job.Sync == nil {
				return backoff.Permanent(fmt.Errorf("sync job %s has no request", job.JobID))
			}
			res, err := sync.Sync(ctx, *job.Sync)
			if err != nil {
				return classify(err)
			}
			job.Result = res
			log.Info().Str("mode", res.Mode.Label()).Int("count", res.Count).Msg("Sync job completed")
			return nil

		case JobTypeRegenerateRules:
			if job.Property == nil {
				return backoff.Permanent(fmt.Errorf("rules job %s has no property", job.JobID))
			}
			res, err := regen.Regenerate(ctx, job.UserID, *job.Property)
			if err != nil {
				return classify(err)
			}
			job.Result = res
			log.Info().Int("upserted", res.Upserted).Int("deleted", res.Deleted).Msg("Rule regeneration completed")
			return nil

		default:
			return backoff.Permanent(fmt.Errorf("unknown job type: %s", job.Type))
		}
	}
}

// classify marks request and account errors as permanent. A held lease is
// retried since the other sync will finish.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrMissingCredential):
		return backoff.Permanent(err)
	default:
		return err
	}
}

// IsPermanent reports whether err was marked with backoff.Permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}
