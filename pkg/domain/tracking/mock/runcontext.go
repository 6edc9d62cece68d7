package mock

import (
	"context"
	"errors"

	"github.com/loom-ml/loom/pkg/domain/tracking"
)

type RunContext struct {
	Impl struct {
		Id         func() string
		Experiment func() string
		Managed    func() bool
		GetTags    func(ctx context.Context) (map[string]string, error)
		SetTags    func(ctx context.Context, tags map[string]string) error
	}

	Calls struct {
		GetTags int
		SetTags []map[string]string
	}
}

var _ tracking.RunContext = &RunContext{}

func NewRunContext() *RunContext {
	return &RunContext{}
}

func (m *RunContext) Id() string {
	if m.Impl.Id == nil {
		return "test-run"
	}
	return m.Impl.Id()
}

func (m *RunContext) Experiment() string {
	if m.Impl.Experiment == nil {
		return "test-experiment"
	}
	return m.Impl.Experiment()
}

func (m *RunContext) Managed() bool {
	if m.Impl.Managed == nil {
		return false
	}
	return m.Impl.Managed()
}

func (m *RunContext) GetTags(ctx context.Context) (map[string]string, error) {
	m.Calls.GetTags += 1
	if m.Impl.GetTags == nil {
		return map[string]string{}, nil
	}
	return m.Impl.GetTags(ctx)
}

func (m *RunContext) SetTags(ctx context.Context, tags map[string]string) error {
	m.Calls.SetTags = append(m.Calls.SetTags, tags)
	if m.Impl.SetTags == nil {
		return errors.New("[mock] SetTags is not implemented")
	}
	return m.Impl.SetTags(ctx, tags)
}
