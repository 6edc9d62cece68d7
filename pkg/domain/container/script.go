package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	xe "github.com/loom-ml/loom/pkg/errors"
)

const (
	checkpointDirName = "checkpoints"
	modelDirName      = "model"
	outputsDirName    = "outputs"
)

// ScriptSpec is everything a ScriptContainer needs to know about its model.
type ScriptSpec struct {
	// Name identifies the model. Used as the output subdirectory name.
	Name string

	// RandomSeed is the base random seed of the model.
	RandomSeed int64

	// Image is the training image reference (k8s execution only).
	Image string

	// Command is the training entry point.
	Command []string

	// Env is extra environment for the training process.
	Env map[string]string

	// PretrainedWeights is a URL or path of initial weights, optional.
	PretrainedWeights string

	// TestStep declares that the training script implements the test pass.
	TestStep bool

	// TrainSubdirs/TestSubdirs select subdirectories of each local dataset
	// for the train and test splits. Empty means the dataset root itself.
	TrainSubdirs []string
	TestSubdirs  []string
}

// ScriptContainer is a Container whose model lifecycle is delegated to an
// external training script.
//
// Setup and CreateModelAndStore are filesystem-level operations here; the
// heavyweight work happens in the script launched by the trainer.
type ScriptContainer struct {
	spec ScriptSpec

	numNodes      int
	maxGPUs       int
	localDatasets []string

	outputsRoot string
	model       *Model
}

var _ Container = &ScriptContainer{}

func NewScriptContainer(spec ScriptSpec) (*ScriptContainer, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("container name is required")
	}
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("container %s: training command is required", spec.Name)
	}
	return &ScriptContainer{spec: spec, numNodes: 1, maxGPUs: 1}, nil
}

func (s *ScriptContainer) Name() string {
	return s.spec.Name
}

func (s *ScriptContainer) EffectiveRandomSeed() int64 {
	return s.spec.RandomSeed
}

func (s *ScriptContainer) NumNodes() int {
	return s.numNodes
}

func (s *ScriptContainer) SetNumNodes(n int) {
	s.numNodes = n
}

func (s *ScriptContainer) MaxGPUs() int {
	return s.maxGPUs
}

func (s *ScriptContainer) SetMaxGPUs(n int) {
	s.maxGPUs = n
}

func (s *ScriptContainer) LocalDatasets() []string {
	return s.localDatasets
}

func (s *ScriptContainer) SetLocalDatasets(dirs []string) {
	s.localDatasets = dirs
}

func (s *ScriptContainer) OutputsRoot() string {
	return s.outputsRoot
}

func (s *ScriptContainer) CheckpointDir() string {
	if s.outputsRoot == "" {
		return ""
	}
	return filepath.Join(s.outputsRoot, checkpointDirName)
}

func (s *ScriptContainer) CreateFilesystem(projectRoot string) error {
	root, err := filepath.Abs(filepath.Join(projectRoot, outputsDirName, s.spec.Name))
	if err != nil {
		return xe.Wrap(err)
	}

	for _, d := range []string{
		root,
		filepath.Join(root, checkpointDirName),
		filepath.Join(root, modelDirName),
	} {
		if err := os.MkdirAll(d, os.FileMode(0755)); err != nil {
			return xe.Wrap(err)
		}
	}

	s.outputsRoot = root
	return nil
}

func (s *ScriptContainer) Setup(ctx context.Context) error {
	// nothing to prepare beyond the filesystem; the script owns its own setup.
	return ctx.Err()
}

func (s *ScriptContainer) CreateModelAndStore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.outputsRoot == "" {
		return fmt.Errorf("container %s: output filesystem is not created", s.spec.Name)
	}
	s.model = &Model{Dir: filepath.Join(s.outputsRoot, modelDirName)}
	return nil
}

func (s *ScriptContainer) Model() *Model {
	return s.model
}

func (s *ScriptContainer) SupportsTestStep() bool {
	return s.spec.TestStep
}

func (s *ScriptContainer) LoadModelCheckpoint(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.model == nil {
		return fmt.Errorf("container %s: model is not created", s.spec.Name)
	}

	source, err := os.Open(path)
	if err != nil {
		return xe.Wrap(err)
	}
	defer source.Close()

	dest := filepath.Join(s.model.Dir, filepath.Base(path))
	if err := copyFile(source, dest); err != nil {
		return xe.Wrap(err)
	}

	s.model.WeightsPath = dest
	return nil
}

func (s *ScriptContainer) DataModule() (DataModule, error) {
	if len(s.localDatasets) == 0 {
		return DataModule{}, fmt.Errorf("container %s: no local datasets are set", s.spec.Name)
	}

	dm := DataModule{}
	for _, root := range s.localDatasets {
		dm.TrainDirs = append(dm.TrainDirs, joinEach(root, s.spec.TrainSubdirs)...)
		dm.TestDirs = append(dm.TestDirs, joinEach(root, s.spec.TestSubdirs)...)
	}
	return dm, nil
}

func (s *ScriptContainer) PretrainedWeights() string {
	return s.spec.PretrainedWeights
}

func (s *ScriptContainer) Workload() Workload {
	env := map[string]string{}
	for k, v := range s.spec.Env {
		env[k] = v
	}
	return Workload{
		Image:   s.spec.Image,
		Command: append([]string{}, s.spec.Command...),
		Env:     env,
	}
}

func joinEach(root string, subdirs []string) []string {
	if len(subdirs) == 0 {
		return []string{root}
	}
	joined := make([]string, 0, len(subdirs))
	for _, sd := range subdirs {
		joined = append(joined, filepath.Join(root, sd))
	}
	return joined
}

func copyFile(source *os.File, dest string) error {
	d, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := d.ReadFrom(source); err != nil {
		d.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return d.Close()
}
