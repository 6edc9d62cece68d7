package checkpoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/loom-ml/loom/pkg/domain"
	"github.com/loom-ml/loom/pkg/domain/container"
	"github.com/loom-ml/loom/pkg/domain/tracking"
	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
	xe "github.com/loom-ml/loom/pkg/errors"
)

type handler struct {
	c          container.Container
	runCtx     tracking.RunContext
	tracker    rest.TrackerClient
	httpclient *http.Client

	// set once training has reported in. guards CheckpointsToTest.
	trained bool
}

var _ Handler = &handler{}

type Option func(*handler)

// WithHTTPClient replaces the client used for pretrained weights downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *handler) {
		h.httpclient = hc
	}
}

// New creates a Handler bound to the container and the active run context.
//
// tracker may be nil for offline runs; checkpoint recovery from another run
// is then unavailable, pretrained weights still work.
func New(
	c container.Container,
	runCtx tracking.RunContext,
	tracker rest.TrackerClient,
	opts ...Option,
) Handler {
	h := &handler{
		c:          c,
		runCtx:     runCtx,
		tracker:    tracker,
		httpclient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *handler) recoveryPath() string {
	dir := h.c.CheckpointDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, RecoveryCheckpointName)
}

func (h *handler) DownloadRecoveryCheckpointsOrWeights(ctx context.Context) error {
	dest := h.recoveryPath()
	if dest == "" {
		return fmt.Errorf("checkpoint directory is not created")
	}

	if sourceRun := h.recoverySourceRun(ctx); sourceRun != "" {
		return h.downloadFromRun(ctx, sourceRun, dest)
	}

	if weights := h.c.PretrainedWeights(); weights != "" {
		return h.fetchWeights(ctx, weights, dest)
	}

	return nil
}

// recoverySourceRun reads the run named by the run_recovery_from_id tag.
func (h *handler) recoverySourceRun(ctx context.Context) string {
	if h.tracker == nil || h.runCtx == nil || !h.runCtx.Managed() {
		return ""
	}
	tags, err := h.runCtx.GetTags(ctx)
	if err != nil {
		return ""
	}
	return domain.RunIdOfRecoveryId(tags[domain.TagRunRecoveryFromId])
}

func (h *handler) downloadFromRun(ctx context.Context, sourceRun string, dest string) error {
	found, err := h.tracker.ListCheckpoints(ctx, sourceRun)
	if err != nil {
		return xe.Wrap(err)
	}
	if len(found) == 0 {
		return fmt.Errorf("run %s has no checkpoints to recover from", sourceRun)
	}

	// checkpoints are listed oldest first; recover from the newest one.
	newest := found[len(found)-1].Name

	return h.tracker.GetCheckpoint(ctx, sourceRun, newest, func(r io.Reader) error {
		return writeFile(dest, r)
	})
}

func (h *handler) fetchWeights(ctx context.Context, weights string, dest string) error {
	if !strings.HasPrefix(weights, "http://") && !strings.HasPrefix(weights, "https://") {
		// a local path. copy it over.
		source, err := os.Open(weights)
		if err != nil {
			return xe.Wrap(err)
		}
		defer source.Close()
		return writeFile(dest, source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, weights, nil)
	if err != nil {
		return xe.Wrap(err)
	}
	resp, err := h.httpclient.Do(req)
	if err != nil {
		return xe.Wrap(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot download weights %s: status code = %d", weights, resp.StatusCode)
	}

	return writeFile(dest, resp.Body)
}

func (h *handler) RecoveryOrCheckpointPathTrain() string {
	path := h.recoveryPath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (h *handler) AdditionalTrainingDone() {
	h.trained = true
}

func (h *handler) CheckpointsToTest() []string {
	if !h.trained {
		// before training, the only testable weights are the recovered ones.
		if path := h.RecoveryOrCheckpointPathTrain(); path != "" {
			return []string{path}
		}
		return nil
	}

	dir := h.c.CheckpointDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	newest := ""
	var newestMod int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, Suffix) || name == RecoveryCheckpointName {
			continue
		}
		if name == LastCheckpointName {
			return []string{filepath.Join(dir, name)}
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || newestMod < mod {
			newest, newestMod = name, mod
		}
	}

	if newest == "" {
		return nil
	}
	return []string{filepath.Join(dir, newest)}
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return xe.Wrap(err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return xe.Wrap(err)
	}
	return f.Close()
}
