package experiment_test

import (
	"testing"

	"github.com/loom-ml/loom/pkg/configs/experiment"
	"github.com/loom-ml/loom/pkg/utils/cmp"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestConfigMarshall(t *testing.T) {
	t.Run("it loads config from yaml: ", func(t *testing.T) {
		experimentYml := []byte(`
projectRoot: /var/loom/testing-example
model:
  name: deepsmile-crck
  randomSeed: 7
  image: loom-repo/deepsmile:v0.0.1
  command: ["python", "train.py"]
  env:
    PRECISION: "16"
  pretrainedWeights: https://weights.testing-example/simclr.ckpt
  testStep: true
  trainSubdirs: ["train"]
  testSubdirs: ["test"]
compute:
  numNodes: 2
  maxGPUs: 4
  datasets: ["/data/crck"]
tracker:
  apiRoot: https://tracker.testing-example:8080/api
  token: fake-token
backend:
  kind: k8s
  k8s:
    namespace: loom-testing-example
    serviceAccount: fake-service-account
    memory: 16Gi
`)
		result, err := experiment.Unmarshal(experimentYml)

		if err != nil {
			t.Errorf("failed to parse config.: %v", err)
		}

		t.Run(".projectRoot", func(t *testing.T) {
			actual := result.ProjectRoot()
			expected := "/var/loom/testing-example"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".model.name", func(t *testing.T) {
			actual := result.Model().Name()
			expected := "deepsmile-crck"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".model.randomSeed", func(t *testing.T) {
			actual := result.Model().RandomSeed()
			expected := int64(7)
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".model.command", func(t *testing.T) {
			actual := result.Model().Command()
			expected := []string{"python", "train.py"}
			if !cmp.SliceEq(actual, expected) {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".model.env", func(t *testing.T) {
			actual := result.Model().Env()
			expected := map[string]string{"PRECISION": "16"}
			if !cmp.MapEq(actual, expected) {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".model.pretrainedWeights", func(t *testing.T) {
			actual := result.Model().PretrainedWeights()
			expected := "https://weights.testing-example/simclr.ckpt"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".model.testStep", func(t *testing.T) {
			if !result.Model().TestStep() {
				t.Errorf("testStep is not set")
			}
		})

		t.Run(".compute.numNodes", func(t *testing.T) {
			actual := result.Compute().NumNodes()
			expected := 2
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".compute.maxGPUs", func(t *testing.T) {
			actual := result.Compute().MaxGPUs()
			expected := 4
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".compute.datasets", func(t *testing.T) {
			actual := result.Compute().Datasets()
			expected := []string{"/data/crck"}
			if !cmp.SliceEq(actual, expected) {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".tracker.apiRoot", func(t *testing.T) {
			actual := result.Tracker().ApiRoot
			expected := "https://tracker.testing-example:8080/api"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".backend.kind", func(t *testing.T) {
			actual := result.Backend().Kind()
			expected := experiment.BackendK8s
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".backend.k8s.namespace", func(t *testing.T) {
			actual := result.Backend().K8s().Namespace()
			expected := "loom-testing-example"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".backend.k8s.gpuResource", func(t *testing.T) {
			actual := result.Backend().K8s().GPUResource()
			expected := "nvidia.com/gpu"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".backend.k8s.memory", func(t *testing.T) {
			actual := result.Backend().K8s().Memory()
			expected := resource.MustParse("16Gi")
			if !expected.Equal(actual) {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})
	})

	t.Run("it applies defaults: ", func(t *testing.T) {
		experimentYml := []byte(`
projectRoot: /var/loom/testing-example
model:
  name: deepsmile-crck
  command: ["python", "train.py"]
`)
		result, err := experiment.Unmarshal(experimentYml)

		if err != nil {
			t.Errorf("failed to parse config.: %v", err)
		}

		t.Run(".model.randomSeed", func(t *testing.T) {
			actual := result.Model().RandomSeed()
			expected := int64(42)
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".compute", func(t *testing.T) {
			if n := result.Compute().NumNodes(); n != 1 {
				t.Errorf("unexpected numNodes: %d", n)
			}
			if g := result.Compute().MaxGPUs(); g != 1 {
				t.Errorf("unexpected maxGPUs: %d", g)
			}
		})

		t.Run(".tracker", func(t *testing.T) {
			if result.Tracker() != nil {
				t.Errorf("tracker should be nil for offline runs")
			}
		})

		t.Run(".backend.kind", func(t *testing.T) {
			if k := result.Backend().Kind(); k != experiment.BackendLocal {
				t.Errorf("unexpected backend kind: %s", k)
			}
		})
	})

	t.Run("it panics on misconfiguration: ", func(t *testing.T) {
		for name, yml := range map[string]string{
			"missing projectRoot": `
model:
  name: deepsmile-crck
  command: ["python", "train.py"]
`,
			"missing model name": `
projectRoot: /var/loom
model:
  command: ["python", "train.py"]
`,
			"missing command": `
projectRoot: /var/loom
model:
  name: deepsmile-crck
`,
			"unknown backend kind": `
projectRoot: /var/loom
model:
  name: deepsmile-crck
  command: ["python", "train.py"]
backend:
  kind: slurm
`,
			"k8s backend without k8s section": `
projectRoot: /var/loom
model:
  name: deepsmile-crck
  command: ["python", "train.py"]
backend:
  kind: k8s
`,
			"broken memory quantity": `
projectRoot: /var/loom
model:
  name: deepsmile-crck
  command: ["python", "train.py"]
backend:
  kind: k8s
  k8s:
    namespace: loom
    memory: a-lot
`,
		} {
			t.Run(name, func(t *testing.T) {
				defer func() {
					if recover() == nil {
						t.Errorf("no panic is caused")
					}
				}()
				experiment.Unmarshal([]byte(yml))
			})
		}
	})
}
