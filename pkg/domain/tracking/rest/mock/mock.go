package mock

import (
	"context"
	"errors"
	"io"

	"github.com/loom-ml/loom-api-types/runs"
	"github.com/loom-ml/loom/pkg/domain/internal/db/mock"
	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
)

type GetCheckpointCall struct {
	RunId string
	Name  string
}

type PutTagsCall struct {
	RunId string
	Tags  map[string]string
}

type TrackerClient struct {
	Impl struct {
		RegisterRun     func(ctx context.Context, spec runs.RunSpec) (runs.Detail, error)
		GetRun          func(ctx context.Context, runId string) (runs.Detail, error)
		GetTags         func(ctx context.Context, runId string) (map[string]string, error)
		PutTags         func(ctx context.Context, runId string, tags map[string]string) (runs.Detail, error)
		ListCheckpoints func(ctx context.Context, runId string) ([]runs.Checkpoint, error)
		GetCheckpoint   func(ctx context.Context, runId string, name string, handler func(io.Reader) error) error
		PutCheckpoint   func(ctx context.Context, runId string, name string, r io.Reader) (runs.Checkpoint, error)
	}
	Calls struct {
		RegisterRun     mock.CallLog[runs.RunSpec]
		GetRun          mock.CallLog[string]
		GetTags         mock.CallLog[string]
		PutTags         mock.CallLog[PutTagsCall]
		ListCheckpoints mock.CallLog[string]
		GetCheckpoint   mock.CallLog[GetCheckpointCall]
		PutCheckpoint   mock.CallLog[GetCheckpointCall]
	}
}

var _ rest.TrackerClient = &TrackerClient{}

func New() *TrackerClient {
	return &TrackerClient{}
}

var errNotImplemented = errors.New("[MOCK] not implemented")

func (m *TrackerClient) RegisterRun(ctx context.Context, spec runs.RunSpec) (runs.Detail, error) {
	m.Calls.RegisterRun = append(m.Calls.RegisterRun, spec)
	if m.Impl.RegisterRun != nil {
		return m.Impl.RegisterRun(ctx, spec)
	}
	return runs.Detail{}, errNotImplemented
}

func (m *TrackerClient) GetRun(ctx context.Context, runId string) (runs.Detail, error) {
	m.Calls.GetRun = append(m.Calls.GetRun, runId)
	if m.Impl.GetRun != nil {
		return m.Impl.GetRun(ctx, runId)
	}
	return runs.Detail{}, errNotImplemented
}

func (m *TrackerClient) GetTags(ctx context.Context, runId string) (map[string]string, error) {
	m.Calls.GetTags = append(m.Calls.GetTags, runId)
	if m.Impl.GetTags != nil {
		return m.Impl.GetTags(ctx, runId)
	}
	return nil, errNotImplemented
}

func (m *TrackerClient) PutTags(ctx context.Context, runId string, tags map[string]string) (runs.Detail, error) {
	m.Calls.PutTags = append(m.Calls.PutTags, PutTagsCall{RunId: runId, Tags: tags})
	if m.Impl.PutTags != nil {
		return m.Impl.PutTags(ctx, runId, tags)
	}
	return runs.Detail{}, errNotImplemented
}

func (m *TrackerClient) ListCheckpoints(ctx context.Context, runId string) ([]runs.Checkpoint, error) {
	m.Calls.ListCheckpoints = append(m.Calls.ListCheckpoints, runId)
	if m.Impl.ListCheckpoints != nil {
		return m.Impl.ListCheckpoints(ctx, runId)
	}
	return nil, errNotImplemented
}

func (m *TrackerClient) GetCheckpoint(ctx context.Context, runId string, name string, handler func(io.Reader) error) error {
	m.Calls.GetCheckpoint = append(m.Calls.GetCheckpoint, GetCheckpointCall{RunId: runId, Name: name})
	if m.Impl.GetCheckpoint != nil {
		return m.Impl.GetCheckpoint(ctx, runId, name, handler)
	}
	return errNotImplemented
}

func (m *TrackerClient) PutCheckpoint(ctx context.Context, runId string, name string, r io.Reader) (runs.Checkpoint, error) {
	m.Calls.PutCheckpoint = append(m.Calls.PutCheckpoint, GetCheckpointCall{RunId: runId, Name: name})
	if m.Impl.PutCheckpoint != nil {
		return m.Impl.PutCheckpoint(ctx, runId, name, r)
	}
	return runs.Checkpoint{}, errNotImplemented
}
