package ports

import (
	"context"

	"github.com/aretw0/cutline/pkg/domain"
)

// JobStore defines the interface for persisting job records.
type JobStore interface {
	// Save persists the job, replacing any previous record with the same ID.
	Save(ctx context.Context, job *domain.Job) error

	// Load retrieves a job by ID.
	// Returns domain.ErrJobNotFound if the job does not exist.
	Load(ctx context.Context, id string) (*domain.Job, error)

	// Delete removes the job record.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored jobs.
	List(ctx context.Context) ([]string, error)
}
