package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"i4.energy/across/ntnmodem/at"
)

// DefaultTimeout applies to commands sent without a timeout.
const DefaultTimeout = time.Second

// Client is a Channel over a Transport.
//
// A single reader goroutine owns all reads from the transport. Lines that
// arrive while a command is in flight form that command's response unless
// they carry a prefix unrelated to the command, in which case they are
// queued as unsolicited. Notification lines (+CEREG: and the like) answer a
// query only as the last line of their prefix, and never answer a write.
// Lines that arrive while idle are always queued as unsolicited.
type Client struct {
	transport Transport
	logger    *slog.Logger

	// guard is held for the duration of Send and PollUnsolicited
	guard sync.Mutex

	mu sync.Mutex
	// pending holds lines read from the transport but not yet routed
	pending []string
	// readErr is set once the reader goroutine stops
	readErr error
	// response holds the lines of the last exchange until read
	response []string
	// unsolicited holds queued unsolicited lines in arrival order
	unsolicited []string
	closed      bool

	// notify is signalled whenever pending or readErr changes
	notify chan struct{}
}

// NewClient starts reading from t and returns a Client that owns it.
func NewClient(t Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		transport: t,
		logger:    logger.With("component", "channel"),
		notify:    make(chan struct{}, 1),
	}
	go c.read()
	return c
}

// read is the only goroutine that reads from the transport.
func (c *Client) read() {
	scanner := bufio.NewScanner(c.transport)
	scanner.Split(at.Splitter)

	for scanner.Scan() {
		token := scanner.Text()
		if token != at.Prompt {
			token = strings.TrimSpace(token)
		}
		if token == "" {
			continue
		}
		c.mu.Lock()
		c.pending = append(c.pending, token)
		c.mu.Unlock()
		c.signal()
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	c.signal()
}

func (c *Client) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

var errWaitExpired = errors.New("wait expired")

// next returns the next pending line, waiting until expiry fires.
func (c *Client) next(ctx context.Context, expiry <-chan time.Time) (string, error) {
	for {
		c.mu.Lock()
		if len(c.pending) > 0 {
			line := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()
			return line, nil
		}
		readErr := c.readErr
		c.mu.Unlock()

		if readErr != nil {
			return "", fmt.Errorf("%w: %w", ErrDisconnected, readErr)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-expiry:
			return "", errWaitExpired
		case <-c.notify:
		}
	}
}

// drainIdle moves lines that arrived while no command was in flight into
// the unsolicited queue. Orphaned final results are discarded.
func (c *Client) drainIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.pending {
		if at.Classify(line) == at.TypeFinal {
			c.logger.Debug("Discarding orphaned result", "line", line)
			continue
		}
		c.unsolicited = append(c.unsolicited, line)
	}
	c.pending = nil
}

func (c *Client) usable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.readErr != nil && len(c.pending) == 0 {
		return fmt.Errorf("%w: %w", ErrDisconnected, c.readErr)
	}
	return nil
}

// Send implements Channel.
func (c *Client) Send(ctx context.Context, command string, timeout time.Duration) (at.ResultCode, error) {
	if !c.guard.TryLock() {
		return at.ResultUnknown, ErrBusy
	}
	defer c.guard.Unlock()

	if err := c.usable(); err != nil {
		return at.ResultUnknown, err
	}

	c.drainIdle()
	c.mu.Lock()
	c.response = nil
	c.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	wire := strings.TrimSpace(command) + at.CR
	if _, err := c.transport.Write([]byte(wire)); err != nil {
		return at.ResultUnknown, fmt.Errorf("write command %q: %w", command, err)
	}
	c.logger.Debug("Command sent", "command", command, "timeout", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// candidates maps a notification prefix to the index in unsolicited of
	// the latest line that may answer this command.
	candidates := make(map[string]int)

	for {
		line, err := c.next(ctx, timer.C)
		if errors.Is(err, errWaitExpired) {
			c.logger.Debug("Command timed out", "command", command)
			return at.ResultTimeout, nil
		}
		if err != nil {
			return at.ResultUnknown, err
		}

		switch at.Classify(line) {
		case at.TypeFinal:
			result := at.ParseResult(line)
			c.mu.Lock()
			if result == at.ResultOK {
				c.claimAnswers(candidates)
			} else {
				c.response = append(c.response, line)
			}
			c.mu.Unlock()
			c.logger.Debug("Command completed", "command", command, "result", result)
			return result, nil

		case at.TypePrompt:
			c.mu.Lock()
			c.response = append(c.response, line)
			c.mu.Unlock()
			return at.ResultOK, nil

		case at.TypeURC:
			c.mu.Lock()
			switch {
			case !at.Answers(command, line):
				c.unsolicited = append(c.unsolicited, line)
			case at.IsNotification(line):
				// The answer is the last such line before the final
				// result. Earlier ones stay queued as events.
				c.unsolicited = append(c.unsolicited, line)
				candidates[at.Prefix(line)] = len(c.unsolicited) - 1
			default:
				c.response = append(c.response, line)
			}
			c.mu.Unlock()

		case at.TypeData:
			if line == strings.TrimSpace(command) {
				// command echo
				continue
			}
			c.mu.Lock()
			c.response = append(c.response, line)
			c.mu.Unlock()
		}
	}
}

// claimAnswers moves the candidate lines from the unsolicited queue to the
// response. The caller holds mu.
func (c *Client) claimAnswers(candidates map[string]int) {
	if len(candidates) == 0 {
		return
	}
	indices := slices.Sorted(maps.Values(candidates))
	for _, i := range indices {
		c.response = append(c.response, c.unsolicited[i])
	}
	for _, i := range slices.Backward(indices) {
		c.unsolicited = slices.Delete(c.unsolicited, i, i+1)
	}
}

// ReadResponse implements Channel.
func (c *Client) ReadResponse(prefix string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return takeResponse(&c.response, prefix)
}

func takeResponse(response *[]string, prefix string) (string, bool) {
	var matched []string
	for _, line := range *response {
		if strings.HasPrefix(line, prefix) {
			matched = append(matched, line)
		}
	}
	*response = nil
	if len(matched) == 0 {
		return "", false
	}
	return strings.Join(matched, "\n"), true
}

// PollUnsolicited implements Channel. Queued lines that do not start with
// one of prefixes are discarded.
func (c *Client) PollUnsolicited(ctx context.Context, prefixes []string, wait time.Duration) (bool, error) {
	if !c.guard.TryLock() {
		return false, ErrBusy
	}
	defer c.guard.Unlock()

	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false, ErrClosed
	}

	var expiry <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		expiry = timer.C
	}

	for {
		c.drainIdle()
		if c.takeUnsolicited(prefixes) {
			return true, nil
		}
		if expiry == nil {
			return false, c.usable()
		}
		if err := c.waitPending(ctx, expiry); err != nil {
			if errors.Is(err, errWaitExpired) {
				return false, nil
			}
			return false, err
		}
	}
}

func (c *Client) takeUnsolicited(prefixes []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.unsolicited) > 0 {
		line := c.unsolicited[0]
		c.unsolicited = c.unsolicited[1:]
		if hasAnyPrefix(line, prefixes) {
			c.response = []string{line}
			return true
		}
		c.logger.Debug("Discarding unsolicited line", "line", line)
	}
	return false
}

// waitPending blocks until a line is pending, the transport fails or
// expiry fires.
func (c *Client) waitPending(ctx context.Context, expiry <-chan time.Time) error {
	for {
		c.mu.Lock()
		ready := len(c.pending) > 0
		readErr := c.readErr
		c.mu.Unlock()
		if ready {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: %w", ErrDisconnected, readErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expiry:
			return errWaitExpired
		case <-c.notify:
		}
	}
}

// Close implements Channel.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.mu.Unlock()
	return c.transport.Close()
}

var _ Channel = (*Client)(nil)
