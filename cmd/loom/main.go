package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	cfg "github.com/loom-ml/loom/pkg/configs/experiment"
	"github.com/loom-ml/loom/pkg/domain/checkpoint"
	"github.com/loom-ml/loom/pkg/domain/cluster"
	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/runner"
	"github.com/loom-ml/loom/pkg/domain/tracking"
	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
	"github.com/loom-ml/loom/pkg/domain/train"
	trainK8s "github.com/loom-ml/loom/pkg/domain/train/k8s"
	trainLocal "github.com/loom-ml/loom/pkg/domain/train/local"
	"github.com/loom-ml/loom/pkg/utils/kubeutil"
)

func main() {

	configPath := flag.String("config", "", "experiment config path")
	kubeconfig := flag.String("kubeconfig", "", "kubeconfig path (k8s backend only)")
	ckpt := flag.String("checkpoint", "", "skip training and run inference on this checkpoint")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	conf, err := cfg.LoadExperimentConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	model := conf.Model()
	c, err := container.NewScriptContainer(container.ScriptSpec{
		Name:              model.Name(),
		RandomSeed:        model.RandomSeed(),
		Image:             model.Image(),
		Command:           model.Command(),
		Env:               model.Env(),
		PretrainedWeights: model.PretrainedWeights(),
		TestStep:          model.TestStep(),
		TrainSubdirs:      model.TrainSubdirs(),
		TestSubdirs:       model.TestSubdirs(),
	})
	if err != nil {
		log.Fatalf("experiment config is broken: %s", err)
	}
	c.SetNumNodes(conf.Compute().NumNodes())
	c.SetMaxGPUs(conf.Compute().MaxGPUs())

	var tracker rest.TrackerClient
	if prof := conf.Tracker(); prof != nil {
		tracker, err = rest.NewClient(prof)
		if err != nil {
			log.Fatalf("can not build tracker client: %s", err)
		}
	}
	current, parent := rest.FromEnv(tracker)
	if !current.Managed() {
		log.Println("no tracked run identity. running offline.")
	}

	factory, err := trainerFactory(conf, *kubeconfig)
	if err != nil {
		log.Fatalf("can not build trainer: %s", err)
	}

	r, err := runner.New(runner.Config{
		Container:        c,
		ProjectRoot:      conf.ProjectRoot(),
		RunContext:       current,
		ParentRunContext: parent,
		NewCheckpointHandler: func(c container.Container, runCtx tracking.RunContext) checkpoint.Handler {
			return checkpoint.New(c, runCtx, tracker)
		},
		TrainerFactory: factory,
	})
	if err != nil {
		log.Fatalf("can not build runner: %s", err)
	}

	info := &runner.RunInfo{LocalDatasets: conf.Compute().Datasets()}

	if *ckpt != "" {
		if err := r.Setup(ctx, info); err != nil {
			log.Fatalf("setup failed: %s", err)
		}
		if err := r.RunInference(ctx, []string{*ckpt}); err != nil {
			log.Fatalf("inference failed: %s", err)
		}
		return
	}

	if err := r.Run(ctx, info); err != nil {
		log.Fatalf("run failed: %s", err)
	}
}

func trainerFactory(conf *cfg.ExperimentConfig, kubeconfig string) (train.Factory, error) {
	backend := conf.Backend()
	switch backend.Kind() {
	case cfg.BackendK8s:
		clientset, err := kubeutil.ConnectToK8s(kubeconfig)
		if err != nil {
			return nil, err
		}
		k8sconf := backend.K8s()
		cl := cluster.AttachCluster(
			cluster.WrapK8sClient(clientset), k8sconf.Namespace(),
		)
		return trainK8s.NewFactory(cl, trainK8s.Config{
			GPUResource:    k8sconf.GPUResource(),
			ServiceAccount: k8sconf.ServiceAccount(),
			Memory:         k8sconf.Memory(),
		}), nil
	default:
		return trainLocal.Factory, nil
	}
}
