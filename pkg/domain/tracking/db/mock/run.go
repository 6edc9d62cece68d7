package mock

import (
	"context"
	"errors"

	"github.com/loom-ml/loom/pkg/domain"
	dbmock "github.com/loom-ml/loom/pkg/domain/internal/db/mock"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
)

type RunInterface struct {
	Impl struct {
		Register       func(ctx context.Context, run domain.RunBody) error
		Get            func(ctx context.Context, runId string) (domain.RunBody, error)
		SetStatus      func(ctx context.Context, runId string, status domain.RunStatus, exit *domain.RunExit) error
		GetTags        func(ctx context.Context, runId string) (map[string]string, error)
		UpsertTags     func(ctx context.Context, runId string, tags map[string]string) error
		AddCheckpoint  func(ctx context.Context, runId string, cp domain.CheckpointRecord) error
		GetCheckpoints func(ctx context.Context, runId string) ([]domain.CheckpointRecord, error)
	}

	Calls struct {
		Register  dbmock.CallLog[domain.RunBody]
		Get       dbmock.CallLog[string]
		SetStatus dbmock.CallLog[struct {
			RunId  string
			Status domain.RunStatus
			Exit   *domain.RunExit
		}]
		GetTags    dbmock.CallLog[string]
		UpsertTags dbmock.CallLog[struct {
			RunId string
			Tags  map[string]string
		}]
		AddCheckpoint dbmock.CallLog[struct {
			RunId      string
			Checkpoint domain.CheckpointRecord
		}]
		GetCheckpoints dbmock.CallLog[string]
	}
}

var _ kdb.RunInterface = &RunInterface{}

func NewRunInterface() *RunInterface {
	return &RunInterface{}
}

func (m *RunInterface) Register(ctx context.Context, run domain.RunBody) error {
	m.Calls.Register = append(m.Calls.Register, run)
	if m.Impl.Register == nil {
		return errors.New("[mock] Register is not implemented")
	}
	return m.Impl.Register(ctx, run)
}

func (m *RunInterface) Get(ctx context.Context, runId string) (domain.RunBody, error) {
	m.Calls.Get = append(m.Calls.Get, runId)
	if m.Impl.Get == nil {
		return domain.RunBody{}, errors.New("[mock] Get is not implemented")
	}
	return m.Impl.Get(ctx, runId)
}

func (m *RunInterface) SetStatus(
	ctx context.Context, runId string, status domain.RunStatus, exit *domain.RunExit,
) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		RunId  string
		Status domain.RunStatus
		Exit   *domain.RunExit
	}{RunId: runId, Status: status, Exit: exit})
	if m.Impl.SetStatus == nil {
		return errors.New("[mock] SetStatus is not implemented")
	}
	return m.Impl.SetStatus(ctx, runId, status, exit)
}

func (m *RunInterface) GetTags(ctx context.Context, runId string) (map[string]string, error) {
	m.Calls.GetTags = append(m.Calls.GetTags, runId)
	if m.Impl.GetTags == nil {
		return nil, errors.New("[mock] GetTags is not implemented")
	}
	return m.Impl.GetTags(ctx, runId)
}

func (m *RunInterface) UpsertTags(ctx context.Context, runId string, tags map[string]string) error {
	m.Calls.UpsertTags = append(m.Calls.UpsertTags, struct {
		RunId string
		Tags  map[string]string
	}{RunId: runId, Tags: tags})
	if m.Impl.UpsertTags == nil {
		return errors.New("[mock] UpsertTags is not implemented")
	}
	return m.Impl.UpsertTags(ctx, runId, tags)
}

func (m *RunInterface) AddCheckpoint(ctx context.Context, runId string, cp domain.CheckpointRecord) error {
	m.Calls.AddCheckpoint = append(m.Calls.AddCheckpoint, struct {
		RunId      string
		Checkpoint domain.CheckpointRecord
	}{RunId: runId, Checkpoint: cp})
	if m.Impl.AddCheckpoint == nil {
		return errors.New("[mock] AddCheckpoint is not implemented")
	}
	return m.Impl.AddCheckpoint(ctx, runId, cp)
}

func (m *RunInterface) GetCheckpoints(ctx context.Context, runId string) ([]domain.CheckpointRecord, error) {
	m.Calls.GetCheckpoints = append(m.Calls.GetCheckpoints, runId)
	if m.Impl.GetCheckpoints == nil {
		return nil, errors.New("[mock] GetCheckpoints is not implemented")
	}
	return m.Impl.GetCheckpoints(ctx, runId)
}
