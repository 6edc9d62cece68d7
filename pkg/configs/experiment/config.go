package experiment

import (
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
)

// ExperimentConfig describes one experiment run: the model, its compute
// shape and where its results are tracked.
//
// to get `ExperimentConfig` instance, use `ExperimentConfigMarshall.TrySeal()` .
type ExperimentConfig struct {
	projectRoot string
	model       *ModelConfig
	compute     *ComputeConfig
	tracker     *rest.Profile
	backend     *BackendConfig
}

// Root directory where the output tree of the run is materialized.
func (c *ExperimentConfig) ProjectRoot() string {
	return c.projectRoot
}

// Configuration of the model under training.
func (c *ExperimentConfig) Model() *ModelConfig {
	return c.model
}

// Configuration of the compute shape.
func (c *ExperimentConfig) Compute() *ComputeConfig {
	return c.compute
}

// Tracker API profile. nil means the run is offline.
func (c *ExperimentConfig) Tracker() *rest.Profile {
	return c.tracker
}

// Configuration of the training backend.
func (c *ExperimentConfig) Backend() *BackendConfig {
	return c.backend
}

type ModelConfig struct {
	name              string
	randomSeed        int64
	image             string
	command           []string
	env               map[string]string
	pretrainedWeights string
	testStep          bool
	trainSubdirs      []string
	testSubdirs       []string
}

// Name of the model. Used as the output subdirectory name.
func (m *ModelConfig) Name() string {
	return m.name
}

// Base random seed of the model. default = 42
func (m *ModelConfig) RandomSeed() int64 {
	return m.randomSeed
}

// Training image reference. Required for the k8s backend only.
func (m *ModelConfig) Image() string {
	return m.image
}

// Entry point of the training script.
func (m *ModelConfig) Command() []string {
	return m.command
}

// Extra environment for the training process.
func (m *ModelConfig) Env() map[string]string {
	return m.env
}

// URL or path of initial weights. Empty means training from scratch.
func (m *ModelConfig) PretrainedWeights() string {
	return m.pretrainedWeights
}

// Whether the training script implements the test pass.
func (m *ModelConfig) TestStep() bool {
	return m.testStep
}

// Subdirectories of each dataset used for the train split.
func (m *ModelConfig) TrainSubdirs() []string {
	return m.trainSubdirs
}

// Subdirectories of each dataset used for the test split.
func (m *ModelConfig) TestSubdirs() []string {
	return m.testSubdirs
}

type ComputeConfig struct {
	numNodes int
	maxGPUs  int
	datasets []string
}

// How many nodes training spans. default = 1
func (c *ComputeConfig) NumNodes() int {
	return c.numNodes
}

// GPU budget per node. default = 1
func (c *ComputeConfig) MaxGPUs() int {
	return c.maxGPUs
}

// Local dataset mount paths.
func (c *ComputeConfig) Datasets() []string {
	return c.datasets
}

// BackendKind selects where training processes run.
type BackendKind string

const (
	BackendLocal BackendKind = "local"
	BackendK8s   BackendKind = "k8s"
)

type BackendConfig struct {
	kind BackendKind
	k8s  *K8sBackendConfig
}

// Which backend spawns training. default = local
func (b *BackendConfig) Kind() BackendKind {
	return b.kind
}

// k8s backend settings. non-nil when Kind() == BackendK8s.
func (b *BackendConfig) K8s() *K8sBackendConfig {
	return b.k8s
}

type K8sBackendConfig struct {
	namespace      string
	gpuResource    string
	serviceAccount string
	memory         resource.Quantity
}

// k8s namespace where training Jobs are spawned.
func (k *K8sBackendConfig) Namespace() string {
	return k.namespace
}

// Resource name of GPU limits. default = "nvidia.com/gpu"
func (k *K8sBackendConfig) GPUResource() string {
	return k.gpuResource
}

// ServiceAccount of training pods. Optional.
func (k *K8sBackendConfig) ServiceAccount() string {
	return k.serviceAccount
}

// Memory limit per training pod. Zero means no limit.
func (k *K8sBackendConfig) Memory() resource.Quantity {
	return k.memory
}
