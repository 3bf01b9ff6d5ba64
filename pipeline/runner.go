// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// State is where a stage stands relative to its artifact.
type State int

const (
	// Pending means the stage's artifact is missing and the stage will run.
	Pending State = iota
	// Done means the artifact exists and the stage will be skipped.
	Done
	// Stale means the artifact exists but an input changed after it was
	// written, so the stage runs again.
	Stale
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stage is one step of the pipeline.
type Stage struct {
	// Name identifies the stage in logs and errors
	Name string

	// Output is the path of the artifact the stage produces.
	// Empty means the stage has no artifact and always runs.
	Output string

	// Inputs are the artifacts Output is derived from. Output is stale
	// when any of them was modified after it.
	Inputs []string

	// Run produces the artifact
	Run func(ctx context.Context) error
}

// state reports Done when the stage's artifact is a regular file no older
// than its inputs.
func (s *Stage) state() State {
	if s.Output == "" {
		return Pending
	}
	info, err := os.Stat(s.Output)
	if err != nil || !info.Mode().IsRegular() {
		return Pending
	}
	for _, in := range s.Inputs {
		inInfo, err := os.Stat(in)
		if err == nil && inInfo.ModTime().After(info.ModTime()) {
			return Stale
		}
	}
	return Done
}

// StageState pairs a stage with its current state.
type StageState struct {
	Name   string
	Output string
	State  State
}

// Runner executes stages in order.
type Runner struct {
	stages []Stage
	force  bool
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithForce runs every stage even when its artifact exists.
func WithForce(force bool) Option {
	return func(r *Runner) error {
		r.force = force
		return nil
	}
}

// NewRunner creates a runner for stages, which run in the given order.
func NewRunner(stages []Stage, opts ...Option) (*Runner, error) {
	seen := make(map[string]bool, len(stages))
	for _, st := range stages {
		if st.Run == nil {
			return nil, fmt.Errorf("%w: %s", ErrStageRunRequired, st.Name)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, st.Name)
		}
		seen[st.Name] = true
	}

	r := &Runner{
		stages: stages,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// States reports the current state of every stage, in run order.
func (r *Runner) States() []StageState {
	states := make([]StageState, len(r.stages))
	for i := range r.stages {
		states[i] = StageState{
			Name:   r.stages[i].Name,
			Output: r.stages[i].Output,
			State:  r.stages[i].state(),
		}
	}
	return states
}

// Run executes every pending stage in order and stops at the first failure.
// The error names the artifact the failing stage was meant to produce.
func (r *Runner) Run(ctx context.Context) error {
	for i := range r.stages {
		st := &r.stages[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		state := st.state()
		if !r.force && state == Done {
			r.logger.Info("skipping stage, output exists", "stage", st.Name, "output", st.Output)
			continue
		}

		r.logger.Info("running stage", "stage", st.Name, "state", state)
		start := time.Now()
		if err := st.Run(ctx); err != nil {
			if st.Output == "" {
				return fmt.Errorf("stage %s failed: %w", st.Name, err)
			}
			return fmt.Errorf("stage %s failed to produce %s: %w", st.Name, st.Output, err)
		}
		if st.Output != "" && st.state() != Done {
			return fmt.Errorf("%w: stage %s did not write %s", ErrOutputNotProduced, st.Name, st.Output)
		}
		r.logger.Info("stage complete", "stage", st.Name, "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
