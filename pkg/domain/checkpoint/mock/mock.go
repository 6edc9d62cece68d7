package mock

import (
	"context"

	"github.com/loom-ml/loom/pkg/domain/checkpoint"
	"github.com/loom-ml/loom/pkg/domain/internal/db/mock"
)

type Handler struct {
	Impl struct {
		DownloadRecoveryCheckpointsOrWeights func(ctx context.Context) error
		RecoveryOrCheckpointPathTrain        func() string
		AdditionalTrainingDone               func()
		CheckpointsToTest                    func() []string
	}
	Calls struct {
		Download               mock.CallLog[struct{}]
		RecoveryPath           mock.CallLog[struct{}]
		AdditionalTrainingDone mock.CallLog[struct{}]
		CheckpointsToTest      mock.CallLog[struct{}]
	}
}

var _ checkpoint.Handler = &Handler{}

func New() *Handler {
	return &Handler{}
}

func (m *Handler) DownloadRecoveryCheckpointsOrWeights(ctx context.Context) error {
	m.Calls.Download = append(m.Calls.Download, struct{}{})
	if m.Impl.DownloadRecoveryCheckpointsOrWeights != nil {
		return m.Impl.DownloadRecoveryCheckpointsOrWeights(ctx)
	}
	return nil
}

func (m *Handler) RecoveryOrCheckpointPathTrain() string {
	m.Calls.RecoveryPath = append(m.Calls.RecoveryPath, struct{}{})
	if m.Impl.RecoveryOrCheckpointPathTrain != nil {
		return m.Impl.RecoveryOrCheckpointPathTrain()
	}
	return ""
}

func (m *Handler) AdditionalTrainingDone() {
	m.Calls.AdditionalTrainingDone = append(m.Calls.AdditionalTrainingDone, struct{}{})
	if m.Impl.AdditionalTrainingDone != nil {
		m.Impl.AdditionalTrainingDone()
	}
}

func (m *Handler) CheckpointsToTest() []string {
	m.Calls.CheckpointsToTest = append(m.Calls.CheckpointsToTest, struct{}{})
	if m.Impl.CheckpointsToTest != nil {
		return m.Impl.CheckpointsToTest()
	}
	return nil
}
