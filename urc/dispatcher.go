package urc

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/timeutil"
)

// DefaultBackoff is the pause between polls while awaiting an event and
// nothing is ready.
const DefaultBackoff = time.Second

// Handler consumes dispatched events.
type Handler func(Event)

// Options configures a Dispatcher. Zero values select defaults.
type Options struct {
	Table    Table
	Prefixes []string
	Backoff  time.Duration
	Clock    timeutil.Clock
	Logger   *slog.Logger
}

// Dispatcher pulls unsolicited lines from a channel, classifies them and
// either hands them to registered handlers or queues them for Next.
type Dispatcher struct {
	channel  channel.Channel
	table    Table
	prefixes []string
	backoff  time.Duration
	clock    timeutil.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	queue    []Event
	handlers map[Kind][]Handler
}

// NewDispatcher returns a Dispatcher reading from ch.
func NewDispatcher(ch channel.Channel, opts Options) *Dispatcher {
	d := &Dispatcher{
		channel:  ch,
		table:    opts.Table,
		prefixes: opts.Prefixes,
		backoff:  opts.Backoff,
		clock:    timeutil.Or(opts.Clock),
		logger:   opts.Logger,
		handlers: make(map[Kind][]Handler),
	}
	if d.table == nil {
		d.table = DefaultTable()
	}
	if len(d.prefixes) == 0 {
		d.prefixes = channel.DefaultPrefixes
	}
	if d.backoff <= 0 {
		d.backoff = DefaultBackoff
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	d.logger = d.logger.With("component", "urc")
	return d
}

// Extend adds classification rules, typically supplied by a modem variant.
func (d *Dispatcher) Extend(rules ...Rule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table = d.table.With(rules...)
}

// Classify returns the Kind of line.
func (d *Dispatcher) Classify(line string) Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Classify(line)
}

// Handle registers h for events of kind. Events with a handler are no
// longer queued.
func (d *Dispatcher) Handle(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch classifies line and routes the resulting event.
func (d *Dispatcher) Dispatch(line string) Event {
	d.mu.Lock()
	ev := Event{Kind: d.table.Classify(line), Line: line, Received: d.clock.Now()}
	handlers := d.handlers[ev.Kind]
	if len(handlers) == 0 {
		d.queue = append(d.queue, ev)
	}
	d.mu.Unlock()

	d.logger.Debug("Unsolicited event", "urc", line, "kind", ev.Kind)
	for _, h := range handlers {
		h(ev)
	}
	return ev
}

// Next pops the oldest queued event.
func (d *Dispatcher) Next() (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Event{}, false
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Poll drains every unsolicited line currently available from the channel,
// waiting up to wait for the first one, and dispatches them. It returns the
// number of lines dispatched.
func (d *Dispatcher) Poll(ctx context.Context, wait time.Duration) (int, error) {
	n := 0
	for {
		ready, err := d.channel.PollUnsolicited(ctx, d.prefixes, wait)
		if err != nil {
			return n, err
		}
		if !ready {
			return n, nil
		}
		if line, ok := d.channel.ReadResponse(""); ok {
			d.Dispatch(line)
			n++
		}
		wait = 0
	}
}

// takeQueued removes and returns the first queued event matching expected.
func (d *Dispatcher) takeQueued(expected string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, ev := range d.queue {
		if strings.HasPrefix(ev.Line, expected) {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return ev.Line, true
		}
	}
	return "", false
}

// Await blocks until an unsolicited line starting with expected arrives or
// timeout elapses, and returns the line. A zero timeout waits without bound.
// On timeout the empty string is returned with a nil error. Lines that do
// not match are dispatched as usual. An empty expected matches any line.
//
// The error is non-nil only when the channel fails or ctx is done.
func (d *Dispatcher) Await(ctx context.Context, expected string, timeout time.Duration) (string, error) {
	d.logger.Info("Waiting for unsolicited event", "urc", expected, "timeout", timeout)
	if line, ok := d.takeQueued(expected); ok {
		return line, nil
	}

	start := d.clock.Now()
	for timeout == 0 || d.clock.Since(start) < timeout {
		ready, err := d.channel.PollUnsolicited(ctx, d.prefixes, 0)
		if err != nil {
			return "", err
		}
		if !ready {
			if err := d.clock.Sleep(ctx, d.backoff); err != nil {
				return "", err
			}
			continue
		}
		line, ok := d.channel.ReadResponse("")
		if !ok {
			continue
		}
		if strings.HasPrefix(line, expected) {
			d.logger.Debug("Unsolicited event received", "urc", line, "elapsed", d.clock.Since(start))
			return line, nil
		}
		d.Dispatch(line)
	}
	return "", nil
}
