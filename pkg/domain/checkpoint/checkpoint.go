package checkpoint

import (
	"context"
)

// File names with meaning inside a container's checkpoint directory.
const (
	// RecoveryCheckpointName is where downloaded recovery checkpoints or
	// pretrained weights are placed.
	RecoveryCheckpointName = "recovery.ckpt"

	// LastCheckpointName is the checkpoint training writes last.
	LastCheckpointName = "last.ckpt"

	// Suffix of checkpoint files.
	Suffix = ".ckpt"
)

// Handler tracks which checkpoints of a run are used for recovery and
// which for testing. Created once per run, not recreated.
type Handler interface {
	// DownloadRecoveryCheckpointsOrWeights fetches the recovery checkpoint
	// of the source run, or the pretrained weights of the container, into
	// the checkpoint directory. No-op when neither is configured.
	//
	// Failures propagate: training cannot safely proceed with a partially
	// restored state.
	DownloadRecoveryCheckpointsOrWeights(ctx context.Context) error

	// RecoveryOrCheckpointPathTrain returns the path training should resume
	// from, or "" to start fresh.
	RecoveryOrCheckpointPathTrain() string

	// AdditionalTrainingDone tells the handler that training has written
	// (possibly new) checkpoints.
	AdditionalTrainingDone()

	// CheckpointsToTest returns the checkpoint paths eligible for the test
	// pass. Empty when no checkpoint is available.
	CheckpointsToTest() []string
}
