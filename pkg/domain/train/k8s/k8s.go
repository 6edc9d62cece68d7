package k8s

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	kubebatch "k8s.io/api/batch/v1"
	kubecore "k8s.io/api/core/v1"
	kubeapiresource "k8s.io/apimachinery/pkg/api/resource"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/loom-ml/loom/pkg/domain/cluster"
	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/train"
	"github.com/loom-ml/loom/pkg/utils/pointer"
	"github.com/loom-ml/loom/pkg/utils/retry"
)

// TrainerContainerName is the name of the main container in training jobs.
const TrainerContainerName = "trainer"

type Config struct {
	// Poll is the interval of job status polling. Default 3 seconds.
	Poll time.Duration

	// GPUResource is the k8s resource name of GPU limits.
	// Default "nvidia.com/gpu".
	GPUResource string

	// ServiceAccount of training pods. Optional.
	ServiceAccount string

	// Memory limit per training pod. Zero means no limit.
	Memory kubeapiresource.Quantity
}

func (c Config) fillDefault() Config {
	if c.Poll <= 0 {
		c.Poll = 3 * time.Second
	}
	if c.GPUResource == "" {
		c.GPUResource = "nvidia.com/gpu"
	}
	return c
}

type trainer struct {
	cluster  cluster.Cluster
	conf     Config
	c        container.Container
	numNodes int
	group    *train.Group
	out      io.Writer
}

var _ train.Trainer = &trainer{}

// NewFactory returns a train.Factory spawning training as k8s Jobs on cl.
func NewFactory(cl cluster.Cluster, conf Config) train.Factory {
	conf = conf.fillDefault()
	return func(c container.Container, numNodes int) (train.Trainer, train.Distributed, error) {
		if numNodes < 1 {
			return nil, nil, fmt.Errorf("at least 1 node is required: %d nodes are requested", numNodes)
		}
		t := &trainer{
			cluster:  cl,
			conf:     conf,
			c:        c,
			numNodes: numNodes,
			group:    &train.Group{},
			out:      os.Stderr,
		}
		return t, t.group, nil
	}
}

func (t *trainer) Train(ctx context.Context, resumeFrom string) (*train.Result, error) {
	data, err := t.c.DataModule()
	if err != nil {
		return nil, err
	}

	extra := map[string]string{
		train.EnvMode:      train.ModeTrain,
		train.EnvTrainData: strings.Join(data.TrainDirs, ":"),
	}
	if resumeFrom != "" {
		extra[train.EnvResumeFrom] = resumeFrom
	}

	if 1 < t.numNodes || 1 < t.c.MaxGPUs() {
		t.group.MarkInitialized()
	}

	return t.run(ctx, train.ModeTrain, extra)
}

func (t *trainer) Test(ctx context.Context, data container.DataModule) (*train.Result, error) {
	extra := map[string]string{
		train.EnvMode:     train.ModeTest,
		train.EnvTestData: strings.Join(data.TestDirs, ":"),
	}
	if model := t.c.Model(); model != nil && model.WeightsPath != "" {
		extra[train.EnvWeights] = model.WeightsPath
	}

	return t.run(ctx, train.ModeTest, extra)
}

func (t *trainer) run(ctx context.Context, mode string, extra map[string]string) (*train.Result, error) {
	spec, err := t.buildJob(mode, extra)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	backoff := retry.StaticBackoff(t.conf.Poll)

	created := <-t.cluster.NewJob(ctx, backoff, spec)
	if created.Err != nil {
		return nil, created.Err
	}

	// the job is left in place after completion, so its logs stay inspectable.
	stopped := <-t.cluster.GetJob(
		ctx, backoff, created.Value.Name(), cluster.JobHasStopped,
	)
	if stopped.Err != nil {
		return nil, stopped.Err
	}
	elapsed := time.Since(start)

	logger := train.NewStoringLogger(t.out)
	if stream, err := stopped.Value.Log(ctx, TrainerContainerName); err == nil {
		_, cperr := io.Copy(logger, stream)
		stream.Close()
		if cperr != nil {
			return nil, cperr
		}
	}

	exitCode, reason, ok := stopped.Value.ExitCode(TrainerContainerName)
	if !ok {
		return nil, fmt.Errorf(
			"job %s has stopped but its exit code is unknown", stopped.Value.Name(),
		)
	}
	if stopped.Value.Status() == cluster.Failed && exitCode == 0 {
		return nil, fmt.Errorf("job %s has failed: %s", stopped.Value.Name(), reason)
	}

	return &train.Result{
		ExitCode: int(exitCode),
		Duration: elapsed,
		Metrics:  logger.Metrics(),
	}, nil
}

func (t *trainer) buildJob(mode string, extra map[string]string) (*kubebatch.Job, error) {
	workload := t.c.Workload()
	if len(workload.Command) == 0 {
		return nil, fmt.Errorf("training command is empty")
	}

	// normalize the image reference. bare names get their registry and tag
	// made explicit, bogus names are rejected before touching the cluster.
	ref, err := name.ParseReference(workload.Image)
	if err != nil {
		return nil, fmt.Errorf("invalid training image %q: %w", workload.Image, err)
	}
	image := ref.Name()

	model := toLabelValue(t.c.Name())
	jobName := fmt.Sprintf("loom-%s-%s-%d", model, mode, time.Now().Unix())

	env := []kubecore.EnvVar{
		{Name: train.EnvSeed, Value: strconv.FormatInt(t.c.EffectiveRandomSeed(), 10)},
		{Name: train.EnvOutputDir, Value: t.c.OutputsRoot()},
		{Name: train.EnvCheckpointDir, Value: t.c.CheckpointDir()},
		{Name: train.EnvMaxGPUs, Value: strconv.Itoa(t.c.MaxGPUs())},
		{Name: train.EnvNumNodes, Value: strconv.Itoa(t.numNodes)},
	}
	for k, v := range workload.Env {
		env = append(env, kubecore.EnvVar{Name: k, Value: v})
	}
	for k, v := range extra {
		env = append(env, kubecore.EnvVar{Name: k, Value: v})
	}

	limits := kubecore.ResourceList{}
	if 0 < t.c.MaxGPUs() {
		limits[kubecore.ResourceName(t.conf.GPUResource)] = *kubeapiresource.NewQuantity(
			int64(t.c.MaxGPUs()), kubeapiresource.DecimalSI,
		)
	}
	if !t.conf.Memory.IsZero() {
		limits[kubecore.ResourceMemory] = t.conf.Memory
	}

	labels := map[string]string{
		"app.kubernetes.io/name":      "loom",
		"app.kubernetes.io/component": "trainer",
		"loom/model":                  model,
		"loom/mode":                   mode,
	}

	return &kubebatch.Job{
		ObjectMeta: kubeapimeta.ObjectMeta{
			Name:   jobName,
			Labels: labels,
		},
		Spec: kubebatch.JobSpec{
			Parallelism:  pointer.Ref(int32(t.numNodes)),
			Completions:  pointer.Ref(int32(t.numNodes)),
			BackoffLimit: pointer.Ref(int32(0)),
			Template: kubecore.PodTemplateSpec{
				ObjectMeta: kubeapimeta.ObjectMeta{Labels: labels},
				Spec: kubecore.PodSpec{
					RestartPolicy:      kubecore.RestartPolicyNever,
					ServiceAccountName: t.conf.ServiceAccount,
					Containers: []kubecore.Container{
						{
							Name:    TrainerContainerName,
							Image:   image,
							Command: workload.Command,
							Env:     env,
							Resources: kubecore.ResourceRequirements{
								Limits: limits,
							},
						},
					},
				},
			},
		},
	}, nil
}

var reNonLabelChar = regexp.MustCompile(`[^-.a-zA-Z0-9]`)

func toLabelValue(s string) string {
	s = strings.ToLower(s)
	s = reNonLabelChar.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-._")
	if 63 < len(s) {
		s = strings.Trim(s[:63], "-._")
	}
	return s
}
