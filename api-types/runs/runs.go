package runs

import (
	"github.com/loom-ml/loom-api-types/internal/utils/cmp"
	"github.com/loom-ml/loom-api-types/misc/rfctime"
	"github.com/loom-ml/loom-api-types/tags"
)

type Summary struct {
	RunId      string          `json:"runId"`
	Experiment string          `json:"experiment"`
	Status     string          `json:"status"`
	UpdatedAt  rfctime.RFC3339 `json:"updatedAt"`
	Exit       *Exit           `json:"exit,omitempty"`
}

func (s Summary) Equal(o Summary) bool {

	exitEq := (s.Exit == nil && o.Exit == nil) ||
		(s.Exit != nil && o.Exit != nil && s.Exit.Equal(*o.Exit))

	return s.RunId == o.RunId &&
		s.Experiment == o.Experiment &&
		s.Status == o.Status &&
		exitEq &&
		s.UpdatedAt.Equal(o.UpdatedAt)
}

type Exit struct {
	Code    uint8  `json:"code"`
	Message string `json:"message"`
}

func (e Exit) Equal(o Exit) bool {
	return e.Code == o.Code && e.Message == o.Message
}

type Detail struct {
	Summary
	ParentRunId string       `json:"parentRunId,omitempty"`
	Tags        []tags.Tag   `json:"tags"`
	Checkpoints []Checkpoint `json:"checkpoints"`
}

func (r Detail) Equal(o Detail) bool {
	return r.Summary.Equal(o.Summary) &&
		r.ParentRunId == o.ParentRunId &&
		cmp.SliceEqualUnordered(r.Tags, o.Tags) &&
		cmp.SliceEqualUnordered(r.Checkpoints, o.Checkpoints)
}

// Checkpoint is the metadata of one checkpoint file stored for a run.
type Checkpoint struct {
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (c Checkpoint) Equal(o Checkpoint) bool {
	return c.Name == o.Name &&
		c.Size == o.Size &&
		c.UpdatedAt.Equal(o.UpdatedAt)
}

// RunSpec is a request body to register a run.
type RunSpec struct {
	RunId       string     `json:"runId"`
	Experiment  string     `json:"experiment"`
	ParentRunId string     `json:"parentRunId,omitempty"`
	Tags        []tags.Tag `json:"tags,omitempty"`
}

// StatusChange is a request body to move a run to another lifecycle state.
type StatusChange struct {
	Status string `json:"status"`
	Exit   *Exit  `json:"exit,omitempty"`
}
