// Package builtin registers the modem variants shipped with the engine.
package builtin

import (
	"context"
	"fmt"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/variant"
)

// Register adds the built-in variants to r.
func Register(r *variant.Registry) error {
	for _, v := range []struct {
		match   variant.Match
		variant variant.Variant
	}{
		{variant.MatchChipset(variant.ALT1250), Altair()},
		{variant.MatchModel(variant.BG95), QuectelBG95()},
		{variant.MatchModel(variant.CC660D), QuectelCC660D()},
	} {
		if err := r.Register(v.match, v.variant); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in variants.
func NewRegistry() *variant.Registry {
	r := variant.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

// CommandError is the cause of a vendor command that did not return OK.
type CommandError struct {
	Command string
	Result  at.ResultCode
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Command, e.Result)
}

func exec(ctx context.Context, ch channel.Channel, cmd string, timeout time.Duration) error {
	result, err := ch.Send(ctx, cmd, timeout)
	if err != nil {
		return err
	}
	if result != at.ResultOK {
		return &CommandError{Command: cmd, Result: result}
	}
	return nil
}

func query(ctx context.Context, ch channel.Channel, cmd, prefix string) (string, error) {
	if err := exec(ctx, ch, cmd, 0); err != nil {
		return "", err
	}
	resp, ok := ch.ReadResponse(prefix)
	if !ok {
		return "", fmt.Errorf("%s: no %s response", cmd, prefix)
	}
	return resp, nil
}

// unresponsive reports a modem that does not answer AT within a second as
// asleep.
func unresponsive(ctx context.Context, ch channel.Channel) (bool, error) {
	result, err := ch.Send(ctx, at.CmdAt, time.Second)
	if err != nil {
		return false, err
	}
	return result == at.ResultTimeout, nil
}
