package train

import (
	"context"
	"sync"
	"time"

	"github.com/loom-ml/loom/pkg/domain/container"
)

// Environment variables passed to the training process.
const (
	EnvSeed          = "LOOM_SEED"
	EnvResumeFrom    = "LOOM_RESUME_FROM"
	EnvOutputDir     = "LOOM_OUTPUT_DIR"
	EnvCheckpointDir = "LOOM_CHECKPOINT_DIR"
	EnvMaxGPUs       = "LOOM_MAX_GPUS"
	EnvNumNodes      = "LOOM_NUM_NODES"
	EnvMode          = "LOOM_MODE"
	EnvTrainData     = "LOOM_TRAIN_DATA"
	EnvTestData      = "LOOM_TEST_DATA"
	EnvWeights       = "LOOM_WEIGHTS"
)

// Modes of the training process, passed via EnvMode.
const (
	ModeTrain = "train"
	ModeTest  = "test"
)

// EnvWorldRank is set by MPI-style launchers on distributed workers.
// Single-process test passes must run with it unset.
const EnvWorldRank = "OMPI_COMM_WORLD_RANK"

// Result of one training or test pass.
type Result struct {
	ExitCode int
	Duration time.Duration

	// Metrics captured from the process log. See StoringLogger.
	Metrics map[string]float64
}

func (r *Result) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

type Trainer interface {
	// Train fits the container's model.
	//
	// resumeFrom is a checkpoint path to resume from, or "" to start fresh.
	Train(ctx context.Context, resumeFrom string) (*Result, error)

	// Test runs the test pass of the container's model over data.
	Test(ctx context.Context, data container.DataModule) (*Result, error)
}

// Distributed is the process-group handle of multi-device training.
//
// The driver must Destroy it before running a single-process test pass.
type Distributed interface {
	// Initialized reports whether a process group is (still) set up.
	Initialized() bool

	// Destroy tears the process group down. Idempotent.
	Destroy() error
}

// Factory builds a Trainer for c spanning numNodes nodes.
type Factory func(c container.Container, numNodes int) (Trainer, Distributed, error)

// Group is the Distributed bookkeeping shared by trainer implementations.
type Group struct {
	mu          sync.Mutex
	initialized bool
}

var _ Distributed = &Group{}

func (g *Group) MarkInitialized() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initialized = true
}

func (g *Group) Initialized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initialized
}

func (g *Group) Destroy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initialized = false
	return nil
}
