package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/loom-ml/loom/pkg/domain"
	"github.com/loom-ml/loom/pkg/domain/checkpoint"
	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/rng"
	"github.com/loom-ml/loom/pkg/domain/tracking"
	"github.com/loom-ml/loom/pkg/domain/train"
	"github.com/loom-ml/loom/pkg/utils/logs"
)

// ErrDatasetMissing is returned by Setup when a dataset path does not name
// an existing directory.
var ErrDatasetMissing = errors.New("dataset not found")

// ErrNoParentRun is returned by SetRunTagsFromParent outside a sweep child run.
var ErrNoParentRun = errors.New("parent run context is required")

// parentTagKeys is the allow-list of tags propagated from a sweep parent run.
// Missing tags default to the empty string.
var parentTagKeys = []string{
	"tag",
	"model_name",
	"execution_mode",
	"recovered_from",
	"friendly_name",
	"build_number",
	"build_user",
	domain.TagRunRecoveryFromId,
}

// RunInfo describes the execution environment of one run.
type RunInfo struct {
	// LocalDatasets are dataset mount paths. Each must be an existing
	// directory.
	LocalDatasets []string
}

type state int

const (
	notSetup state = iota
	setupDone
)

type Config struct {
	// Container is the model container driven by this runner.
	Container container.Container

	// ProjectRoot is where the output tree is materialized.
	ProjectRoot string

	// RunContext is the active run. Use tracking.Null() for offline runs.
	RunContext tracking.RunContext

	// ParentRunContext is set on sweep child runs only.
	ParentRunContext tracking.RunContext

	// NewCheckpointHandler builds the checkpoint handler during Setup,
	// after the container's filesystem exists.
	NewCheckpointHandler func(container.Container, tracking.RunContext) checkpoint.Handler

	// TrainerFactory builds trainers for the training and test phases.
	TrainerFactory train.Factory

	// Logger for phase sections and warnings. Default log.Default().
	Logger *log.Logger
}

// Runner sequences setup, training and inference of one experiment run.
//
// It is a linear fail-fast sequencer: collaborator failures propagate
// unmodified, nothing is retried.
type Runner struct {
	c           container.Container
	projectRoot string
	runCtx      tracking.RunContext
	parent      tracking.RunContext
	newHandler  func(container.Container, tracking.RunContext) checkpoint.Handler
	factory     train.Factory
	logger      *log.Logger

	state   state
	handler checkpoint.Handler
	dist    train.Distributed
	metrics map[string]float64
}

func New(conf Config) (*Runner, error) {
	if conf.Container == nil {
		return nil, errors.New("container is required")
	}
	if conf.RunContext == nil {
		return nil, errors.New("run context is required")
	}
	if conf.NewCheckpointHandler == nil {
		return nil, errors.New("checkpoint handler factory is required")
	}
	if conf.TrainerFactory == nil {
		return nil, errors.New("trainer factory is required")
	}
	logger := conf.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		c:           conf.Container,
		projectRoot: conf.ProjectRoot,
		runCtx:      conf.RunContext,
		parent:      conf.ParentRunContext,
		newHandler:  conf.NewCheckpointHandler,
		factory:     conf.TrainerFactory,
		logger:      logger,
	}, nil
}

// Metrics returns the metrics captured from the latest training or test
// pass, or nil before any pass ran.
func (r *Runner) Metrics() map[string]float64 {
	return r.metrics
}

// Setup prepares the run: dataset validation, RNG seeding, output
// filesystem, checkpoint recovery, container setup and model construction.
//
// Setup is a one-way transition; a second call is a no-op.
func (r *Runner) Setup(ctx context.Context, info *RunInfo) error {
	if r.state == setupDone {
		return nil
	}

	if info != nil && 0 < len(info.LocalDatasets) {
		resolved, err := resolveDatasets(info.LocalDatasets)
		if err != nil {
			return err
		}
		r.c.SetLocalDatasets(resolved)
	}

	// process-wide. seeded exactly once, at setup.
	rng.SeedEverything(r.c.EffectiveRandomSeed())

	// output directories must exist before model construction: the model
	// handle snapshots its output paths.
	if err := r.c.CreateFilesystem(r.projectRoot); err != nil {
		return err
	}

	r.handler = r.newHandler(r.c, r.runCtx)
	if err := r.handler.DownloadRecoveryCheckpointsOrWeights(ctx); err != nil {
		return err
	}

	if err := r.c.Setup(ctx); err != nil {
		return err
	}
	if err := r.c.CreateModelAndStore(ctx); err != nil {
		return err
	}

	r.state = setupDone
	return nil
}

func resolveDatasets(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		stat, err := os.Stat(abs)
		if err != nil || !stat.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, abs)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

// SetRunTagsFromParent copies the allow-listed tags of the sweep parent run
// into the current run, and records the recovery id and the effective
// random seed of this run.
func (r *Runner) SetRunTagsFromParent(ctx context.Context) error {
	if r.parent == nil {
		return fmt.Errorf("%w: this is not a sweep child run", ErrNoParentRun)
	}

	parentTags, err := r.parent.GetTags(ctx)
	if err != nil {
		return err
	}

	tags := map[string]string{}
	for _, key := range parentTagKeys {
		tags[key] = parentTags[key]
	}
	tags[domain.TagRunRecoveryId] = domain.RecoveryId(r.runCtx.Experiment(), r.runCtx.Id())
	tags[domain.TagEffectiveRandomSeed] = strconv.FormatInt(r.c.EffectiveRandomSeed(), 10)

	return r.runCtx.SetTags(ctx, tags)
}

// Run drives the whole run: Setup, tag propagation, training, checkpoint
// bookkeeping and inference.
func (r *Runner) Run(ctx context.Context, info *RunInfo) error {
	if err := r.Setup(ctx, info); err != nil {
		return err
	}

	// propagate tags before any training output, so downstream tooling can
	// associate tags with the run from the start.
	if r.runCtx.Managed() && r.parent != nil {
		if err := r.SetRunTagsFromParent(ctx); err != nil {
			return err
		}
	}

	if err := r.train(ctx); err != nil {
		return err
	}

	r.handler.AdditionalTrainingDone()
	toTest := r.handler.CheckpointsToTest()
	if len(toTest) == 0 {
		// training may legitimately write no checkpoints. not an error.
		r.logger.Printf("WARNING: no checkpoints eligible for testing, skipping inference")
		return nil
	}

	return r.RunInference(ctx, toTest)
}

func (r *Runner) train(ctx context.Context) error {
	end := logs.Section(r.logger, "model training")
	defer end()

	trainer, dist, err := r.factory(r.c, r.c.NumNodes())
	if err != nil {
		return err
	}
	r.dist = dist

	result, err := trainer.Train(ctx, r.handler.RecoveryOrCheckpointPathTrain())
	if err != nil {
		return err
	}
	r.metrics = result.Metrics
	if !result.Succeeded() {
		return fmt.Errorf("training failed with exit code %d", result.ExitCode)
	}
	return nil
}

// RunInference evaluates the model on exactly one checkpoint.
//
// Zero or multiple checkpoints is a usage error. A container that does not
// support the test pass skips inference with a warning; that is deliberate,
// not a failure.
func (r *Runner) RunInference(ctx context.Context, checkpointPaths []string) error {
	if len(checkpointPaths) != 1 {
		return fmt.Errorf(
			"exactly one checkpoint is required for inference: got %d", len(checkpointPaths),
		)
	}

	end := logs.Section(r.logger, "model inference")
	defer end()

	if !r.c.SupportsTestStep() {
		r.logger.Printf(
			"WARNING: container %s does not support the test pass, skipping inference",
			r.c.Name(),
		)
		return nil
	}

	// two sequential distributed invocations in one process are unsupported
	// by training frameworks. force a clean single-device pass.
	r.c.SetMaxGPUs(1)
	r.c.SetNumNodes(1)
	os.Unsetenv(train.EnvWorldRank)
	if r.dist != nil && r.dist.Initialized() {
		if err := r.dist.Destroy(); err != nil {
			return err
		}
	}

	trainer, _, err := r.factory(r.c, 1)
	if err != nil {
		return err
	}

	if err := r.c.LoadModelCheckpoint(ctx, checkpointPaths[0]); err != nil {
		return err
	}

	data, err := r.c.DataModule()
	if err != nil {
		return err
	}

	result, err := trainer.Test(ctx, data)
	if err != nil {
		return err
	}
	for k, v := range result.Metrics {
		if r.metrics == nil {
			r.metrics = map[string]float64{}
		}
		r.metrics[k] = v
	}
	if !result.Succeeded() {
		return fmt.Errorf("inference failed with exit code %d", result.ExitCode)
	}
	return nil
}
