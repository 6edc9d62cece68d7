package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/train"
	xe "github.com/loom-ml/loom/pkg/errors"
)

type trainer struct {
	c     container.Container
	group *train.Group
	out   io.Writer
}

var _ train.Trainer = &trainer{}

type Option func(*trainer)

// WithLogDestination forwards the training process output to w.
func WithLogDestination(w io.Writer) Option {
	return func(t *trainer) {
		t.out = w
	}
}

// New creates a Trainer running the container's training command as a
// subprocess of this process.
func New(c container.Container, opts ...Option) (train.Trainer, train.Distributed, error) {
	t := &trainer{c: c, group: &train.Group{}, out: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	return t, t.group, nil
}

// Factory is a train.Factory for subprocess training.
// It supports single-node runs only.
var Factory train.Factory = func(c container.Container, numNodes int) (train.Trainer, train.Distributed, error) {
	if numNodes != 1 {
		return nil, nil, fmt.Errorf("subprocess training is single-node: %d nodes are requested", numNodes)
	}
	return New(c)
}

func (t *trainer) Train(ctx context.Context, resumeFrom string) (*train.Result, error) {
	data, err := t.c.DataModule()
	if err != nil {
		return nil, err
	}

	extra := map[string]string{
		train.EnvMode:      train.ModeTrain,
		train.EnvTrainData: joinPaths(data.TrainDirs),
	}
	if resumeFrom != "" {
		extra[train.EnvResumeFrom] = resumeFrom
	}

	// the process group spans the devices of this single process.
	if 1 < t.c.MaxGPUs() {
		t.group.MarkInitialized()
	}

	return t.run(ctx, extra)
}

func (t *trainer) Test(ctx context.Context, data container.DataModule) (*train.Result, error) {
	extra := map[string]string{
		train.EnvMode:     train.ModeTest,
		train.EnvTestData: joinPaths(data.TestDirs),
	}
	if model := t.c.Model(); model != nil && model.WeightsPath != "" {
		extra[train.EnvWeights] = model.WeightsPath
	}

	return t.run(ctx, extra)
}

func (t *trainer) run(ctx context.Context, extra map[string]string) (*train.Result, error) {
	workload := t.c.Workload()
	if len(workload.Command) == 0 {
		return nil, errors.New("training command is empty")
	}

	logger := train.NewStoringLogger(t.out)
	cmd := exec.CommandContext(ctx, workload.Command[0], workload.Command[1:]...)
	cmd.Stdout = logger
	cmd.Stderr = logger
	cmd.Env = append(os.Environ(), envOf(t.c, workload, extra)...)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		exitErr := new(exec.ExitError)
		if !errors.As(err, &exitErr) {
			return nil, xe.Wrap(err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &train.Result{
		ExitCode: exitCode,
		Duration: elapsed,
		Metrics:  logger.Metrics(),
	}, nil
}

func envOf(c container.Container, workload container.Workload, extra map[string]string) []string {
	env := []string{
		train.EnvSeed + "=" + strconv.FormatInt(c.EffectiveRandomSeed(), 10),
		train.EnvOutputDir + "=" + c.OutputsRoot(),
		train.EnvCheckpointDir + "=" + c.CheckpointDir(),
		train.EnvMaxGPUs + "=" + strconv.Itoa(c.MaxGPUs()),
		train.EnvNumNodes + "=" + strconv.Itoa(c.NumNodes()),
	}
	for k, v := range workload.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

func joinPaths(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}
