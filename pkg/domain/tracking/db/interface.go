package db

import (
	"context"

	"github.com/loom-ml/loom/pkg/domain"
)

type RunInterface interface {
	// Register stores a new run.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.RunBody: the run to be registered. Status is forced to
	// Registered; UpdatedAt is set by the store.
	//
	// Returns
	//
	// - error: dberrors/postgres.Conflict when the run id is taken.
	Register(ctx context.Context, run domain.RunBody) error

	// Get reads a run with its tags and checkpoint records.
	//
	// Returns
	//
	// - domain.RunBody
	//
	// - error: dberrors/postgres.Missing when the run is not found.
	Get(ctx context.Context, runId string) (domain.RunBody, error)

	// SetStatus updates a run's lifecycle state (and exit, when terminal).
	SetStatus(ctx context.Context, runId string, status domain.RunStatus, exit *domain.RunExit) error

	// GetTags reads the tag set of a run.
	GetTags(ctx context.Context, runId string) (map[string]string, error)

	// UpsertTags overwrites the listed tag keys of a run.
	// Keys not listed keep their value.
	UpsertTags(ctx context.Context, runId string, tags map[string]string) error

	// AddCheckpoint records (or refreshes) the metadata of a checkpoint file.
	AddCheckpoint(ctx context.Context, runId string, cp domain.CheckpointRecord) error

	// GetCheckpoints lists the checkpoint records of a run, newest last.
	GetCheckpoints(ctx context.Context, runId string) ([]domain.CheckpointRecord, error)
}

// Interface bundles the tracker's database access.
type Interface interface {
	Runs() RunInterface
	Close()
}
