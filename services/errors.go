package services

import (
	"context"
	"errors"
	"fmt"

	"reelmaker/utils"
)

var (
	// ErrNoInput means the job was submitted with zero items
	ErrNoInput = errors.New("no photos or media provided")
	// ErrNoValidMedia means every item failed normalization
	ErrNoValidMedia = errors.New("no valid media after processing")
	// ErrEmptyInput means the concatenator was handed no segments
	ErrEmptyInput = errors.New("no segments to concatenate")
	// ErrEncodeFailure means a mandatory encoder stage failed
	ErrEncodeFailure = errors.New("encoder failed to create output")
)

// Stage names the pipeline step an error came from
type Stage string

const (
	StageNormalize   Stage = "normalize"
	StageConcatenate Stage = "concatenate"
	StageOverlay     Stage = "overlay"
	StageSnippet     Stage = "snippet"
	StageRemux       Stage = "remux"
)

// StageError carries encoder diagnostics for a failed stage
type StageError struct {
	Stage    Stage
	ExitCode int
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *StageError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s: timed out: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ItemError is a per-item normalization failure; the item is dropped
type ItemError struct {
	Index int
	Kind  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// runStage executes one encoder call and verifies the declared output exists.
// Both conditions must hold for success. A killed encoder on a done context
// reports the context error rather than an encode failure.
func runStage(ctx context.Context, runner utils.Runner, stage Stage, args []string, outputPath string) error {
	err := runner.Run(ctx, args)
	if err == nil && utils.FileExists(outputPath) {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", stage, ctxErr)
	}

	se := &StageError{Stage: stage, ExitCode: 0, Err: ErrEncodeFailure}
	var execErr *utils.ExecError
	if errors.As(err, &execErr) {
		se.ExitCode = execErr.ExitCode
		se.Stderr = execErr.Stderr
		se.TimedOut = execErr.TimedOut
		se.Err = fmt.Errorf("%w: %v", ErrEncodeFailure, execErr)
	} else if err != nil {
		se.ExitCode = -1
		se.Err = fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	} else {
		se.Err = fmt.Errorf("%w: missing output %s", ErrEncodeFailure, outputPath)
	}
	return se
}
