package tracking

import (
	"context"
)

// RunContext is the metadata store of the run this process belongs to.
//
// When the process runs under the managed tracker (cluster submission),
// the context is backed by the tracker REST API. When running locally or in
// unit tests, use Null() instead; the driver treats such a run as "offline".
//
// The driver is the sole writer of tags within a process; no locking is
// layered on top of the tracker's own persistence.
type RunContext interface {
	// Id is the identity of the current run.
	Id() string

	// Experiment is the name of the experiment this run belongs to.
	Experiment() string

	// Managed reports whether this context is backed by the remote tracker.
	Managed() bool

	// GetTags reads the persisted tag set of the run.
	GetTags(ctx context.Context) (map[string]string, error)

	// SetTags overwrites the listed tag keys in the persisted tag set.
	// Keys not listed keep their value.
	SetTags(ctx context.Context, tags map[string]string) error
}

type nullContext struct{}

// Null returns the offline RunContext: no identity, no persisted tags.
func Null() RunContext {
	return nullContext{}
}

func (nullContext) Id() string         { return "" }
func (nullContext) Experiment() string { return "" }
func (nullContext) Managed() bool      { return false }

func (nullContext) GetTags(context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func (nullContext) SetTags(context.Context, map[string]string) error {
	return nil
}
