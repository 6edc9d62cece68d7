package mock

import (
	"context"
	"errors"

	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/internal/db/mock"
	"github.com/loom-ml/loom/pkg/domain/train"
)

type TrainCall struct {
	ResumeFrom string
}

type TestCall struct {
	Data container.DataModule
}

type Trainer struct {
	Impl struct {
		Train func(ctx context.Context, resumeFrom string) (*train.Result, error)
		Test  func(ctx context.Context, data container.DataModule) (*train.Result, error)
	}
	Calls struct {
		Train mock.CallLog[TrainCall]
		Test  mock.CallLog[TestCall]
	}
}

var _ train.Trainer = &Trainer{}

func NewTrainer() *Trainer {
	return &Trainer{}
}

func (m *Trainer) Train(ctx context.Context, resumeFrom string) (*train.Result, error) {
	m.Calls.Train = append(m.Calls.Train, TrainCall{ResumeFrom: resumeFrom})
	if m.Impl.Train != nil {
		return m.Impl.Train(ctx, resumeFrom)
	}
	return &train.Result{}, nil
}

func (m *Trainer) Test(ctx context.Context, data container.DataModule) (*train.Result, error) {
	m.Calls.Test = append(m.Calls.Test, TestCall{Data: data})
	if m.Impl.Test != nil {
		return m.Impl.Test(ctx, data)
	}
	return &train.Result{}, nil
}

type Distributed struct {
	Impl struct {
		Initialized func() bool
		Destroy     func() error
	}
	Calls struct {
		Destroy mock.CallLog[struct{}]
	}
}

var _ train.Distributed = &Distributed{}

func NewDistributed() *Distributed {
	return &Distributed{}
}

func (m *Distributed) Initialized() bool {
	if m.Impl.Initialized != nil {
		return m.Impl.Initialized()
	}
	return false
}

func (m *Distributed) Destroy() error {
	m.Calls.Destroy = append(m.Calls.Destroy, struct{}{})
	if m.Impl.Destroy != nil {
		return m.Impl.Destroy()
	}
	return nil
}

// NewFactory returns a train.Factory resolving to the given mocks, and a
// CallLog of the node counts it was invoked with.
func NewFactory(tr train.Trainer, dist train.Distributed) (train.Factory, *mock.CallLog[int]) {
	calls := &mock.CallLog[int]{}
	return func(c container.Container, numNodes int) (train.Trainer, train.Distributed, error) {
		*calls = append(*calls, numNodes)
		if tr == nil {
			return nil, nil, errors.New("[MOCK] not implemented")
		}
		return tr, dist, nil
	}, calls
}
