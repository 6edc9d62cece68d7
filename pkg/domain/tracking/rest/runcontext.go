package rest

import (
	"context"
	"os"

	"github.com/loom-ml/loom/pkg/domain/tracking"
)

// Environment variables set by the cluster submission layer for processes
// running under the managed tracker.
const (
	EnvRunId       = "LOOM_RUN_ID"
	EnvParentRunId = "LOOM_PARENT_RUN_ID"
	EnvExperiment  = "LOOM_EXPERIMENT"
)

type runContext struct {
	client     TrackerClient
	runId      string
	experiment string
}

var _ tracking.RunContext = &runContext{}

// NewRunContext binds a run identity to the tracker API.
func NewRunContext(client TrackerClient, runId string, experiment string) tracking.RunContext {
	return &runContext{client: client, runId: runId, experiment: experiment}
}

func (r *runContext) Id() string {
	return r.runId
}

func (r *runContext) Experiment() string {
	return r.experiment
}

func (r *runContext) Managed() bool {
	return true
}

func (r *runContext) GetTags(ctx context.Context) (map[string]string, error) {
	return r.client.GetTags(ctx, r.runId)
}

func (r *runContext) SetTags(ctx context.Context, tags map[string]string) error {
	_, err := r.client.PutTags(ctx, r.runId, tags)
	return err
}

// FromEnv derives the current and parent run contexts from the submission
// environment.
//
// When LOOM_RUN_ID is absent, the process is an offline run: the current
// context is tracking.Null() and the parent context is nil.
// The parent context is nil unless LOOM_PARENT_RUN_ID is set (sweep child runs).
func FromEnv(client TrackerClient) (current tracking.RunContext, parent tracking.RunContext) {
	runId := os.Getenv(EnvRunId)
	if client == nil || runId == "" {
		return tracking.Null(), nil
	}

	experiment := os.Getenv(EnvExperiment)
	current = NewRunContext(client, runId, experiment)

	if parentId := os.Getenv(EnvParentRunId); parentId != "" {
		parent = NewRunContext(client, parentId, experiment)
	}
	return current, parent
}
