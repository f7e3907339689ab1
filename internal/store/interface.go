package store

import (
	"context"
	"errors"
	"time"

	"conduit/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrQueueEmpty is returned by PopJob when no job arrived before the wait ran out.
	ErrQueueEmpty = errors.New("import queue is empty")
)

// Drafts keeps form values the API has not accepted yet.
type Drafts interface {
	SaveDraft(ctx context.Context, d model.Draft) error
	GetDraft(ctx context.Context, key string) (*model.Draft, bool, error)
	DeleteDraft(ctx context.Context, key string) error
}

// Jobs is the import queue.
type Jobs interface {
	EnqueueJob(ctx context.Context, job *model.ImportJob) error
	SaveJob(ctx context.Context, job *model.ImportJob) error
	GetJob(ctx context.Context, id uuid.UUID) (*model.ImportJob, error)
	ListJobs(ctx context.Context, limit int) ([]model.ImportJob, error)
	PopJob(ctx context.Context, wait time.Duration) (uuid.UUID, error)
}
