package domain

import (
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a run as stored by the tracker.
type RunStatus string

const (
	// registered in the tracker, no training observed yet.
	Registered RunStatus = "registered"

	// training (or inference) is in progress.
	Running RunStatus = "running"

	// the run finished successfully.
	Done RunStatus = "done"

	// the run finished with an error.
	Failed RunStatus = "failed"
)

func (s RunStatus) Valid() bool {
	switch s {
	case Registered, Running, Done, Failed:
		return true
	}
	return false
}

type RunExit struct {
	Code    uint8
	Message string
}

// RunBody is the tracker-side record of a run.
type RunBody struct {
	Id          string
	Experiment  string
	ParentId    string
	Status      RunStatus
	UpdatedAt   time.Time
	Exit        *RunExit
	Tags        map[string]string
	Checkpoints []CheckpointRecord
}

// CheckpointRecord is the metadata of one checkpoint file registered for a run.
type CheckpointRecord struct {
	Name      string
	Size      int64
	UpdatedAt time.Time
}

// Tag keys the run driver gives meaning to.
const (
	// TagRunRecoveryFromId names the run whose checkpoints seed this run.
	TagRunRecoveryFromId = "run_recovery_from_id"

	// TagRunRecoveryId is the recovery id of this run itself.
	TagRunRecoveryId = "run_recovery_id"

	// TagEffectiveRandomSeed is the seed the run was actually started with.
	TagEffectiveRandomSeed = "effective_random_seed"
)

// RecoveryId identifies a run for recovery purposes: "EXPERIMENT:RUN_ID".
func RecoveryId(experiment string, runId string) string {
	return experiment + ":" + runId
}

// RunIdOfRecoveryId extracts the run id out of a recovery id.
// A bare run id passes through unchanged.
func RunIdOfRecoveryId(recoveryId string) string {
	if i := strings.LastIndex(recoveryId, ":"); 0 <= i {
		return recoveryId[i+1:]
	}
	return recoveryId
}
