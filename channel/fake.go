package channel

import (
	"context"
	"slices"
	"sync"
	"time"

	"i4.energy/across/ntnmodem/at"
)

// Reply is one scripted answer of a Fake.
type Reply struct {
	Result at.ResultCode
	// Lines is the response body made available to ReadResponse.
	Lines []string
	// Unsolicited lines are queued once the command completes.
	Unsolicited []string
}

// OK is a successful Reply carrying lines.
func OK(lines ...string) Reply {
	return Reply{Result: at.ResultOK, Lines: lines}
}

// Fail is a Reply with the given result and no body.
func Fail(result at.ResultCode) Reply {
	return Reply{Result: result}
}

// Fake is a scripted in-memory Channel for tests and dry runs.
//
// Replies are consumed in order per command; the last reply of a command
// is repeated once the script for it is exhausted. Unscripted commands
// answer with Fallback.
type Fake struct {
	mu          sync.Mutex
	busy        bool
	replies     map[string][]Reply
	calls       []string
	response    []string
	unsolicited []string
	closed      bool

	// Fallback answers unscripted commands. Defaults to ERROR.
	Fallback Reply
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		replies:  make(map[string][]Reply),
		Fallback: Fail(at.ResultError),
	}
}

// On appends replies to the script of command.
func (f *Fake) On(command string, replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[command] = append(f.replies[command], replies...)
	return f
}

// Push queues unsolicited lines as if the modem emitted them while idle.
func (f *Fake) Push(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsolicited = append(f.unsolicited, lines...)
}

// Calls returns every command sent so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Count returns how many times command was sent.
func (f *Fake) Count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}

func (f *Fake) acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.busy {
		return ErrBusy
	}
	f.busy = true
	return nil
}

func (f *Fake) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

// Send implements Channel.
func (f *Fake) Send(ctx context.Context, command string, timeout time.Duration) (at.ResultCode, error) {
	if err := f.acquire(); err != nil {
		return at.ResultUnknown, err
	}
	defer f.release()
	if err := ctx.Err(); err != nil {
		return at.ResultUnknown, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)

	reply := f.Fallback
	if script := f.replies[command]; len(script) > 0 {
		reply = script[0]
		if len(script) > 1 {
			f.replies[command] = script[1:]
		}
	}
	f.response = slices.Clone(reply.Lines)
	f.unsolicited = append(f.unsolicited, reply.Unsolicited...)
	return reply.Result, nil
}

// ReadResponse implements Channel.
func (f *Fake) ReadResponse(prefix string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return takeResponse(&f.response, prefix)
}

// PollUnsolicited implements Channel. The wait is not honoured.
func (f *Fake) PollUnsolicited(ctx context.Context, prefixes []string, wait time.Duration) (bool, error) {
	if err := f.acquire(); err != nil {
		return false, err
	}
	defer f.release()
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.unsolicited) > 0 {
		line := f.unsolicited[0]
		f.unsolicited = f.unsolicited[1:]
		if hasAnyPrefix(line, prefixes) {
			f.response = []string{line}
			return true, nil
		}
	}
	return false, ctx.Err()
}

// Close implements Channel.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}

var _ Channel = (*Fake)(nil)
