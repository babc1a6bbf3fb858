package initseq

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/timeutil"
	"i4.energy/across/ntnmodem/urc"
)

// DefaultStepTimeout applies to steps without a timeout.
const DefaultStepTimeout = time.Second

// Engine executes sequences against a channel. An Engine is not safe for
// concurrent use; one sequence runs at a time.
type Engine struct {
	Channel channel.Channel
	// Events is used to await expected unsolicited events.
	Events *urc.Dispatcher
	Clock  timeutil.Clock
	Logger *slog.Logger
	// GPIO performs hardware steps that carry no action of their own.
	GPIO func(time.Duration)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// Execute runs seq and reports whether every step completed. The cause of
// a failure is written to the engine's logger.
func (e *Engine) Execute(ctx context.Context, seq Sequence, params Params) bool {
	if err := e.Run(ctx, seq, params); err != nil {
		e.logger().Error("Init sequence failed", "error", err)
		return false
	}
	return true
}

// Run executes the steps of seq in order and stops at the first step that
// cannot be completed, returning a *StepError.
func (e *Engine) Run(ctx context.Context, seq Sequence, params Params) error {
	log := e.logger()
	clock := timeutil.Or(e.Clock)

	for i, step := range seq {
		if step.Delay > 0 {
			if err := clock.Sleep(ctx, step.Delay); err != nil {
				return &StepError{Index: i, Command: step.Command, Rationale: step.Rationale, Err: err}
			}
		}

		if step.Hardware != nil {
			if step.Command != "" {
				log.Info("Hardware step, command ignored", "step", i, "command", step.Command)
			}
			action := step.Hardware.Action
			if action == nil {
				action = e.GPIO
			}
			if action != nil {
				action(step.Hardware.Duration)
			}
			if err := clock.Sleep(ctx, step.Hardware.Duration); err != nil {
				return &StepError{Index: i, Rationale: step.Rationale, Err: err}
			}
			continue
		}

		if !step.Valid() {
			log.Warn("Skipping invalid init step", "step", i, "command", step.Command)
			continue
		}

		command := params.Substitute(step.Command)
		if err := e.runCommand(ctx, i, step, command); err != nil {
			return err
		}

		if resp, ok := e.Channel.ReadResponse(""); ok {
			log.Debug("Init step response", "step", i, "rationale", step.Rationale, "response", resp)
		}

		if step.Event != nil {
			if err := e.awaitEvent(ctx, i, step, command); err != nil {
				return err
			}
		}
	}
	return nil
}

// runCommand sends command until it yields the expected result or the
// step has no retries left.
func (e *Engine) runCommand(ctx context.Context, index int, step Step, command string) error {
	log := e.logger()
	clock := timeutil.Or(e.Clock)

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}

	for attempt := 1; ; attempt++ {
		result, err := e.Channel.Send(ctx, command, timeout)
		if err != nil {
			return &StepError{Index: index, Command: command, Rationale: step.Rationale, Attempts: attempt, Result: result, Err: err}
		}
		if step.Expect == at.ResultUnknown || result == step.Expect {
			return nil
		}

		cause := ErrUnexpectedResult
		if result == at.ResultTimeout {
			cause = ErrChannelTimeout
		}
		log.Error("Init step attempt failed",
			"step", index,
			"attempt", attempt,
			"command", command,
			"rationale", step.Rationale,
			"expected", step.Expect,
			"result", result)

		if step.Retry == nil || attempt > step.Retry.Count {
			return &StepError{Index: index, Command: command, Rationale: step.Rationale, Attempts: attempt, Result: result, Err: cause}
		}

		log.Warn("Retrying init step", "step", index, "attempt", attempt+1, "delay", step.Retry.Delay)
		if step.Retry.Delay > 0 {
			if err := clock.Sleep(ctx, step.Retry.Delay); err != nil {
				return &StepError{Index: index, Command: command, Rationale: step.Rationale, Attempts: attempt, Result: result, Err: err}
			}
		}
	}
}

func (e *Engine) awaitEvent(ctx context.Context, index int, step Step, command string) error {
	fail := func(err error) error {
		return &StepError{Index: index, Command: command, Rationale: step.Rationale, Attempts: 1, Err: err}
	}
	if e.Events == nil {
		return fail(errors.New("no event dispatcher configured"))
	}
	line, err := e.Events.Await(ctx, step.Event.Pattern, step.Event.Timeout)
	if err != nil {
		return fail(err)
	}
	if line == "" {
		e.logger().Error("Expected event not received", "step", index, "urc", step.Event.Pattern)
		return fail(ErrEventTimeout)
	}
	return nil
}
