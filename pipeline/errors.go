package pipeline

import "errors"

var (
	// ErrStageRunRequired is returned when a stage has no Run function.
	ErrStageRunRequired = errors.New("stage run function required")

	// ErrDuplicateStage is returned when two stages share a name.
	ErrDuplicateStage = errors.New("duplicate stage name")

	// ErrOutputNotProduced is returned when a stage succeeds but its
	// artifact is still missing.
	ErrOutputNotProduced = errors.New("stage output not produced")
)
