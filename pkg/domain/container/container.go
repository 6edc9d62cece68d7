package container

import (
	"context"
)

// DataModule describes the data sources the trainer feeds to the model,
// for both the training and the test pass.
type DataModule struct {
	TrainDirs []string
	TestDirs  []string
}

// Model is the handle of the trainable artifact owned by a container.
//
// The handle snapshots the container's output paths at creation time, so the
// output directory structure must exist before the model is created.
type Model struct {
	// Dir is the directory where the model stores its weights.
	Dir string

	// WeightsPath is the current weights file. Empty until training or
	// LoadModelCheckpoint produced one.
	WeightsPath string
}

// Workload is what the external trainer actually executes for a container.
type Workload struct {
	// Image is the training image reference (k8s execution only).
	Image string

	// Command is the training entry point.
	Command []string

	// Env is extra environment for the training process.
	Env map[string]string
}

// Container bundles model-specific configuration with lifecycle hooks.
//
// The run driver mutates NumNodes, LocalDatasets and MaxGPUs during its
// sequencing; everything else is owned by the container.
type Container interface {
	Name() string

	// EffectiveRandomSeed is the seed actually applied, after any
	// run-specific adjustment.
	EffectiveRandomSeed() int64

	NumNodes() int
	SetNumNodes(n int)

	MaxGPUs() int
	SetMaxGPUs(n int)

	LocalDatasets() []string
	SetLocalDatasets(dirs []string)

	// OutputsRoot is the root of this container's output tree.
	// Valid after CreateFilesystem.
	OutputsRoot() string

	// CheckpointDir is where training writes checkpoint files.
	// Valid after CreateFilesystem.
	CheckpointDir() string

	// CreateFilesystem materializes the output directory structure under
	// projectRoot. Idempotent per root.
	CreateFilesystem(projectRoot string) error

	// Setup runs model-specific initialization.
	Setup(ctx context.Context) error

	// CreateModelAndStore builds the model handle and retains it.
	// The handle snapshots output paths, so call CreateFilesystem first.
	CreateModelAndStore(ctx context.Context) error

	// Model returns the stored model handle, or nil before CreateModelAndStore.
	Model() *Model

	// SupportsTestStep reports whether the model implements the test pass.
	// When false, the driver skips inference by design.
	SupportsTestStep() bool

	// LoadModelCheckpoint restores weights in place from the given path.
	// It fails when the path is unreadable.
	LoadModelCheckpoint(ctx context.Context, path string) error

	// DataModule returns the data-loading description for train/test.
	DataModule() (DataModule, error)

	// PretrainedWeights is a URL or path of initial weights, or "" when
	// training starts from scratch.
	PretrainedWeights() string

	// Workload is what the trainer executes for this container.
	Workload() Workload
}
