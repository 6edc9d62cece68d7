package mock

import (
	"context"
	"testing"

	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/internal/db/mock"
)

type SetupCall struct{}

type CreateFilesystemCall struct {
	ProjectRoot string
}

type LoadModelCheckpointCall struct {
	Path string
}

type Container struct {
	t    *testing.T
	Impl struct {
		Name                func() string
		EffectiveRandomSeed func() int64
		CreateFilesystem    func(projectRoot string) error
		Setup               func(ctx context.Context) error
		CreateModelAndStore func(ctx context.Context) error
		Model               func() *container.Model
		SupportsTestStep    func() bool
		LoadModelCheckpoint func(ctx context.Context, path string) error
		DataModule          func() (container.DataModule, error)
		PretrainedWeights   func() string
		Workload            func() container.Workload
	}
	Calls struct {
		CreateFilesystem    mock.CallLog[CreateFilesystemCall]
		Setup               mock.CallLog[SetupCall]
		CreateModelAndStore mock.CallLog[SetupCall]
		LoadModelCheckpoint mock.CallLog[LoadModelCheckpointCall]
		SetNumNodes         mock.CallLog[int]
		SetMaxGPUs          mock.CallLog[int]
		SetLocalDatasets    mock.CallLog[[]string]
	}

	name          string
	seed          int64
	numNodes      int
	maxGPUs       int
	localDatasets []string
	outputsRoot   string
	checkpointDir string
}

var _ container.Container = &Container{}

func New(t *testing.T) *Container {
	return &Container{
		t:        t,
		name:     "fake-model",
		seed:     42,
		numNodes: 1,
		maxGPUs:  1,
	}
}

func (m *Container) Name() string {
	if m.Impl.Name != nil {
		return m.Impl.Name()
	}
	return m.name
}

func (m *Container) EffectiveRandomSeed() int64 {
	if m.Impl.EffectiveRandomSeed != nil {
		return m.Impl.EffectiveRandomSeed()
	}
	return m.seed
}

func (m *Container) NumNodes() int {
	return m.numNodes
}

func (m *Container) SetNumNodes(n int) {
	m.Calls.SetNumNodes = append(m.Calls.SetNumNodes, n)
	m.numNodes = n
}

func (m *Container) MaxGPUs() int {
	return m.maxGPUs
}

func (m *Container) SetMaxGPUs(n int) {
	m.Calls.SetMaxGPUs = append(m.Calls.SetMaxGPUs, n)
	m.maxGPUs = n
}

func (m *Container) LocalDatasets() []string {
	return m.localDatasets
}

func (m *Container) SetLocalDatasets(dirs []string) {
	m.Calls.SetLocalDatasets = append(m.Calls.SetLocalDatasets, dirs)
	m.localDatasets = dirs
}

func (m *Container) OutputsRoot() string {
	return m.outputsRoot
}

func (m *Container) CheckpointDir() string {
	return m.checkpointDir
}

// SetPaths primes OutputsRoot and CheckpointDir without going through
// CreateFilesystem.
func (m *Container) SetPaths(outputsRoot string, checkpointDir string) {
	m.outputsRoot = outputsRoot
	m.checkpointDir = checkpointDir
}

func (m *Container) CreateFilesystem(projectRoot string) error {
	m.Calls.CreateFilesystem = append(
		m.Calls.CreateFilesystem, CreateFilesystemCall{ProjectRoot: projectRoot},
	)
	if m.Impl.CreateFilesystem != nil {
		return m.Impl.CreateFilesystem(projectRoot)
	}
	if m.outputsRoot == "" {
		m.outputsRoot = projectRoot + "/outputs/" + m.Name()
		m.checkpointDir = m.outputsRoot + "/checkpoints"
	}
	return nil
}

func (m *Container) Setup(ctx context.Context) error {
	m.Calls.Setup = append(m.Calls.Setup, SetupCall{})
	if m.Impl.Setup != nil {
		return m.Impl.Setup(ctx)
	}
	return nil
}

func (m *Container) CreateModelAndStore(ctx context.Context) error {
	m.Calls.CreateModelAndStore = append(m.Calls.CreateModelAndStore, SetupCall{})
	if m.Impl.CreateModelAndStore != nil {
		return m.Impl.CreateModelAndStore(ctx)
	}
	return nil
}

func (m *Container) Model() *container.Model {
	if m.Impl.Model != nil {
		return m.Impl.Model()
	}
	return &container.Model{Dir: m.outputsRoot + "/model"}
}

func (m *Container) SupportsTestStep() bool {
	if m.Impl.SupportsTestStep != nil {
		return m.Impl.SupportsTestStep()
	}
	return true
}

func (m *Container) LoadModelCheckpoint(ctx context.Context, path string) error {
	m.Calls.LoadModelCheckpoint = append(
		m.Calls.LoadModelCheckpoint, LoadModelCheckpointCall{Path: path},
	)
	if m.Impl.LoadModelCheckpoint != nil {
		return m.Impl.LoadModelCheckpoint(ctx, path)
	}
	return nil
}

func (m *Container) DataModule() (container.DataModule, error) {
	if m.Impl.DataModule != nil {
		return m.Impl.DataModule()
	}
	return container.DataModule{
		TrainDirs: m.localDatasets,
		TestDirs:  m.localDatasets,
	}, nil
}

func (m *Container) PretrainedWeights() string {
	if m.Impl.PretrainedWeights != nil {
		return m.Impl.PretrainedWeights()
	}
	return ""
}

func (m *Container) Workload() container.Workload {
	if m.Impl.Workload != nil {
		return m.Impl.Workload()
	}
	return container.Workload{
		Image:   "registry.example/train:latest",
		Command: []string{"python", "train.py"},
	}
}
