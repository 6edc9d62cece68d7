package checkpoint_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loom-ml/loom-api-types/misc/rfctime"
	"github.com/loom-ml/loom-api-types/runs"
	"github.com/loom-ml/loom/pkg/domain/checkpoint"
	contmock "github.com/loom-ml/loom/pkg/domain/container/mock"
	trackmock "github.com/loom-ml/loom/pkg/domain/tracking/mock"
	restmock "github.com/loom-ml/loom/pkg/domain/tracking/rest/mock"
	"github.com/loom-ml/loom/pkg/utils/cmp"
)

func newContainer(t *testing.T) *contmock.Container {
	root := t.TempDir()
	ckptDir := filepath.Join(root, "checkpoints")
	if err := os.MkdirAll(ckptDir, os.FileMode(0755)); err != nil {
		t.Fatal(err)
	}
	c := contmock.New(t)
	c.SetPaths(root, ckptDir)
	return c
}

func managedRun(tags map[string]string) *trackmock.RunContext {
	runCtx := trackmock.NewRunContext()
	runCtx.Impl.Managed = func() bool { return true }
	runCtx.Impl.GetTags = func(context.Context) (map[string]string, error) {
		return tags, nil
	}
	return runCtx
}

func TestHandler_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("it recovers the newest checkpoint of the source run", func(t *testing.T) {
		c := newContainer(t)
		runCtx := managedRun(map[string]string{
			"run_recovery_from_id": "histo-exp:run-0",
		})

		tracker := restmock.New()
		tracker.Impl.ListCheckpoints = func(_ context.Context, runId string) ([]runs.Checkpoint, error) {
			if runId != "run-0" {
				t.Errorf("unexpected source run: %s", runId)
			}
			return []runs.Checkpoint{
				{Name: "epoch=1.ckpt", UpdatedAt: rfctime.RFC3339(time.Now().Add(-2 * time.Hour))},
				{Name: "epoch=5.ckpt", UpdatedAt: rfctime.RFC3339(time.Now().Add(-1 * time.Hour))},
			}, nil
		}
		tracker.Impl.GetCheckpoint = func(_ context.Context, runId string, name string, handler func(io.Reader) error) error {
			if name != "epoch=5.ckpt" {
				t.Errorf("not the newest checkpoint: %s", name)
			}
			return handler(strings.NewReader("recovered-weights"))
		}

		testee := checkpoint.New(c, runCtx, tracker)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err != nil {
			t.Fatal(err)
		}

		path := testee.RecoveryOrCheckpointPathTrain()
		if path != filepath.Join(c.CheckpointDir(), "recovery.ckpt") {
			t.Fatalf("unexpected recovery path: %s", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "recovered-weights" {
			t.Errorf("unexpected content: %s", string(content))
		}
	})

	t.Run("it fails when the source run has no checkpoints", func(t *testing.T) {
		c := newContainer(t)
		runCtx := managedRun(map[string]string{"run_recovery_from_id": "run-0"})

		tracker := restmock.New()
		tracker.Impl.ListCheckpoints = func(context.Context, string) ([]runs.Checkpoint, error) {
			return []runs.Checkpoint{}, nil
		}

		testee := checkpoint.New(c, runCtx, tracker)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err == nil {
			t.Error("no error is returned")
		}
	})

	t.Run("it propagates tracker failures", func(t *testing.T) {
		c := newContainer(t)
		runCtx := managedRun(map[string]string{"run_recovery_from_id": "run-0"})

		wantErr := errors.New("fake tracker error")
		tracker := restmock.New()
		tracker.Impl.ListCheckpoints = func(context.Context, string) ([]runs.Checkpoint, error) {
			return nil, wantErr
		}

		testee := checkpoint.New(c, runCtx, tracker)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); !errors.Is(err, wantErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it downloads pretrained weights from a URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("pretrained-weights"))
			},
		))
		defer server.Close()

		c := newContainer(t)
		c.Impl.PretrainedWeights = func() string { return server.URL + "/weights.ckpt" }

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(testee.RecoveryOrCheckpointPathTrain())
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "pretrained-weights" {
			t.Errorf("unexpected content: %s", string(content))
		}
	})

	t.Run("it fails when the weights URL is not found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		c := newContainer(t)
		c.Impl.PretrainedWeights = func() string { return server.URL + "/weights.ckpt" }

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err == nil {
			t.Error("no error is returned")
		}
	})

	t.Run("it copies pretrained weights from a local path", func(t *testing.T) {
		source := filepath.Join(t.TempDir(), "weights.ckpt")
		if err := os.WriteFile(source, []byte("local-weights"), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		c := newContainer(t)
		c.Impl.PretrainedWeights = func() string { return source }

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(testee.RecoveryOrCheckpointPathTrain())
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "local-weights" {
			t.Errorf("unexpected content: %s", string(content))
		}
	})

	t.Run("it does nothing when no source is configured", func(t *testing.T) {
		c := newContainer(t)

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		if err := testee.DownloadRecoveryCheckpointsOrWeights(ctx); err != nil {
			t.Fatal(err)
		}
		if path := testee.RecoveryOrCheckpointPathTrain(); path != "" {
			t.Errorf("unexpected recovery path: %s", path)
		}
	})
}

func TestHandler_CheckpointsToTest(t *testing.T) {
	writeCkpt := func(t *testing.T, dir string, name string, mod time.Time) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("it prefers the last checkpoint after training", func(t *testing.T) {
		c := newContainer(t)
		now := time.Now()
		writeCkpt(t, c.CheckpointDir(), "epoch=1.ckpt", now.Add(-2*time.Hour))
		writeCkpt(t, c.CheckpointDir(), "last.ckpt", now.Add(-3*time.Hour))
		writeCkpt(t, c.CheckpointDir(), "recovery.ckpt", now)

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		testee.AdditionalTrainingDone()

		if !cmp.SliceEq(testee.CheckpointsToTest(), []string{
			filepath.Join(c.CheckpointDir(), "last.ckpt"),
		}) {
			t.Errorf("unexpected checkpoints: %v", testee.CheckpointsToTest())
		}
	})

	t.Run("it falls back to the newest checkpoint", func(t *testing.T) {
		c := newContainer(t)
		now := time.Now()
		writeCkpt(t, c.CheckpointDir(), "epoch=1.ckpt", now.Add(-2*time.Hour))
		writeCkpt(t, c.CheckpointDir(), "epoch=5.ckpt", now.Add(-1*time.Hour))
		writeCkpt(t, c.CheckpointDir(), "notes.txt", now)

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		testee.AdditionalTrainingDone()

		if !cmp.SliceEq(testee.CheckpointsToTest(), []string{
			filepath.Join(c.CheckpointDir(), "epoch=5.ckpt"),
		}) {
			t.Errorf("unexpected checkpoints: %v", testee.CheckpointsToTest())
		}
	})

	t.Run("it is empty when training wrote nothing", func(t *testing.T) {
		c := newContainer(t)

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)
		testee.AdditionalTrainingDone()

		if found := testee.CheckpointsToTest(); len(found) != 0 {
			t.Errorf("unexpected checkpoints: %v", found)
		}
	})

	t.Run("before training it offers the recovered weights only", func(t *testing.T) {
		c := newContainer(t)
		now := time.Now()
		writeCkpt(t, c.CheckpointDir(), "recovery.ckpt", now)
		writeCkpt(t, c.CheckpointDir(), "epoch=1.ckpt", now)

		testee := checkpoint.New(c, trackmock.NewRunContext(), nil)

		if !cmp.SliceEq(testee.CheckpointsToTest(), []string{
			filepath.Join(c.CheckpointDir(), "recovery.ckpt"),
		}) {
			t.Errorf("unexpected checkpoints: %v", testee.CheckpointsToTest())
		}
	})
}
