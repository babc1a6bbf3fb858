package initseq

import (
	"errors"
	"fmt"

	"i4.energy/across/ntnmodem/at"
)

var (
	// ErrChannelTimeout is the cause of a step whose command got no result
	// within the step timeout on its last attempt.
	ErrChannelTimeout = errors.New("command timed out")

	// ErrUnexpectedResult is the cause of a step whose command returned a
	// result other than the expected one on its last attempt.
	ErrUnexpectedResult = errors.New("unexpected result")

	// ErrEventTimeout is the cause of a step whose expected unsolicited
	// event did not arrive in time.
	//
	// Event waits are not retried on their own; the owning step's retry
	// policy only covers the command.
	ErrEventTimeout = errors.New("expected event not received")

	// ErrInvalidRecord is returned when an external sequence record cannot
	// be converted into a Step.
	ErrInvalidRecord = errors.New("invalid sequence record")
)

// StepError reports the step that aborted a sequence.
type StepError struct {
	Index     int
	Command   string
	Rationale string
	Attempts  int
	Result    at.ResultCode
	Err       error
}

func (e *StepError) Error() string {
	what := e.Rationale
	if what == "" {
		what = e.Command
	}
	return fmt.Sprintf("init step %d (%s) failed after %d attempt(s): %v", e.Index, what, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
