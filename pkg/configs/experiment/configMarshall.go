package experiment

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/experiment.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ExperimentConfigMarshall struct {
	ProjectRoot string                 `yaml:"projectRoot"`
	Model       *ModelConfigMarshall   `yaml:"model"`
	Compute     *ComputeConfigMarshall `yaml:"compute,omitempty"`
	Tracker     *rest.Profile          `yaml:"tracker,omitempty"`
	Backend     *BackendConfigMarshall `yaml:"backend,omitempty"`
}

var _ Marshalled[*ExperimentConfig] = &ExperimentConfigMarshall{}

func (e *ExperimentConfigMarshall) trySeal(path string) *ExperimentConfig {
	compute := e.Compute
	if compute == nil {
		compute = &ComputeConfigMarshall{}
	}
	backend := e.Backend
	if backend == nil {
		backend = &BackendConfigMarshall{}
	}
	if e.Tracker != nil {
		if err := e.Tracker.Verify(); err != nil {
			panic(fmt.Errorf("%s.tracker: %w", path, err))
		}
	}
	return &ExperimentConfig{
		projectRoot: required(e.ProjectRoot, path+".projectRoot"),
		model:       nonnil(e.Model, path+".model").trySeal(path + ".model"),
		compute:     compute.trySeal(path + ".compute"),
		tracker:     e.Tracker,
		backend:     backend.trySeal(path + ".backend"),
	}
}

type ModelConfigMarshall struct {
	Name              string            `yaml:"name"`
	RandomSeed        *int64            `yaml:"randomSeed,omitempty"`
	Image             string            `yaml:"image,omitempty"`
	Command           []string          `yaml:"command"`
	Env               map[string]string `yaml:"env,omitempty"`
	PretrainedWeights string            `yaml:"pretrainedWeights,omitempty"`
	TestStep          bool              `yaml:"testStep,omitempty"`
	TrainSubdirs      []string          `yaml:"trainSubdirs,omitempty"`
	TestSubdirs       []string          `yaml:"testSubdirs,omitempty"`
}

func (m *ModelConfigMarshall) trySeal(path string) *ModelConfig {
	seed := int64(42)
	if m.RandomSeed != nil {
		seed = *m.RandomSeed
	}
	if len(m.Command) == 0 {
		panic(path + ".command is required")
	}
	return &ModelConfig{
		name:              required(m.Name, path+".name"),
		randomSeed:        seed,
		image:             m.Image,
		command:           m.Command,
		env:               m.Env,
		pretrainedWeights: m.PretrainedWeights,
		testStep:          m.TestStep,
		trainSubdirs:      m.TrainSubdirs,
		testSubdirs:       m.TestSubdirs,
	}
}

type ComputeConfigMarshall struct {
	NumNodes int      `yaml:"numNodes,omitempty"`
	MaxGPUs  int      `yaml:"maxGPUs,omitempty"`
	Datasets []string `yaml:"datasets,omitempty"`
}

func (c *ComputeConfigMarshall) trySeal(path string) *ComputeConfig {
	numNodes := c.NumNodes
	if numNodes == 0 {
		numNodes = 1
	}
	maxGPUs := c.MaxGPUs
	if maxGPUs == 0 {
		maxGPUs = 1
	}
	if numNodes < 1 {
		panic(path + ".numNodes should be 1 or more")
	}
	if maxGPUs < 1 {
		panic(path + ".maxGPUs should be 1 or more")
	}
	return &ComputeConfig{
		numNodes: numNodes,
		maxGPUs:  maxGPUs,
		datasets: c.Datasets,
	}
}

type BackendConfigMarshall struct {
	Kind string                    `yaml:"kind,omitempty"`
	K8s  *K8sBackendConfigMarshall `yaml:"k8s,omitempty"`
}

func (b *BackendConfigMarshall) trySeal(path string) *BackendConfig {
	kind := BackendKind(b.Kind)
	if kind == "" {
		kind = BackendLocal
	}
	switch kind {
	case BackendLocal:
		return &BackendConfig{kind: kind}
	case BackendK8s:
		return &BackendConfig{
			kind: kind,
			k8s:  nonnil(b.K8s, path+".k8s").trySeal(path + ".k8s"),
		}
	default:
		panic(fmt.Sprintf("%s.kind should be local or k8s: %s", path, b.Kind))
	}
}

type K8sBackendConfigMarshall struct {
	Namespace      string `yaml:"namespace"`
	GPUResource    string `yaml:"gpuResource,omitempty"`
	ServiceAccount string `yaml:"serviceAccount,omitempty"`
	Memory         string `yaml:"memory,omitempty"`
}

func (k *K8sBackendConfigMarshall) trySeal(path string) *K8sBackendConfig {
	gpuResource := k.GPUResource
	if gpuResource == "" {
		gpuResource = "nvidia.com/gpu"
	}
	memory := resource.Quantity{}
	if k.Memory != "" {
		q, err := resource.ParseQuantity(k.Memory)
		if err != nil {
			panic(fmt.Errorf("%s.memory can not be parsed: %w", path, err))
		}
		memory = q
	}
	return &K8sBackendConfig{
		namespace:      required(k.Namespace, path+".namespace"),
		gpuResource:    gpuResource,
		serviceAccount: k.ServiceAccount,
		memory:         memory,
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
