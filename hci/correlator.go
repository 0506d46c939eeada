package hci

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
)

// Result is the resolution of a submitted command: the return parameters of
// its Command Complete event (or the single status byte of a Command Status
// event), or the error that ended it.
type Result struct {
	Return []byte
	Err    error
}

// PendingCommand is one in-flight command, owned by the correlator from
// submission until fulfilment, timeout, or cancellation. It is fulfilled
// exactly once.
type PendingCommand struct {
	op       Opcode
	wire     []byte // encoded packet, held while waiting for credit
	done     chan Result
	timer    *time.Timer
	resolved bool
	queued   bool
	c        *correlator
}

// Opcode returns the opcode this command was submitted with.
func (p *PendingCommand) Opcode() Opcode { return p.op }

// Done returns the single-fulfilment result channel.
func (p *PendingCommand) Done() <-chan Result { return p.done }

// Wait blocks until the command resolves.
func (p *PendingCommand) Wait() ([]byte, error) {
	r := <-p.done
	return r.Return, r.Err
}

// Cancel removes the command from the outstanding or queued set. It frees no
// credit: credit is only ever adjusted from controller-reported values.
// Cancelling an already-resolved command is a no-op.
func (p *PendingCommand) Cancel() {
	p.c.cancel(p)
}

// correlator turns the asynchronous completion-event stream into
// request/response semantics, tracking controller command flow control
// [Vol 2, Part E, 4.4]. Credit starts at 1 and is thereafter set only from
// the Num_HCI_Command_Packets field of completion events; the controller is
// authoritative, there is no hardcoded ceiling.
//
// One mutex guards credit, the outstanding set, and the starved queue: the
// decrement-on-send and restore-on-event paths race by construction and must
// never interleave.
type correlator struct {
	mu      sync.Mutex
	credit  int
	sent    map[Opcode][]*PendingCommand // FIFO per opcode
	queue   []*PendingCommand            // submissions awaiting credit
	closed  bool
	err     error
	degrade bool

	write          func([]byte) error
	warn           func(error)
	log            btle.Logger
	defaultTimeout time.Duration
}

func newCorrelator(write func([]byte) error, warn func(error), log btle.Logger, defaultTimeout time.Duration) *correlator {
	if defaultTimeout <= 0 {
		defaultTimeout = defaultCommandTimeout
	}
	return &correlator{
		credit:         initialCredit,
		sent:           make(map[Opcode][]*PendingCommand),
		write:          write,
		warn:           warn,
		log:            log,
		defaultTimeout: defaultTimeout,
	}
}

// submit encodes the command and either sends it immediately, consuming one
// credit, or queues it when the controller's budget is exhausted. The
// returned handle resolves on completion, timeout, or cancellation.
func (c *correlator) submit(op Opcode, params []byte, timeout time.Duration) (*PendingCommand, error) {
	wire, err := (&CommandPacket{Opcode: op, Params: params}).Marshal()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, c.err
	}

	p := &PendingCommand{
		op:   op,
		done: make(chan Result, 1),
		c:    c,
	}
	p.timer = time.AfterFunc(timeout, func() { c.expire(p) })

	if c.credit > 0 && len(c.queue) == 0 {
		c.sendLocked(p, wire)
	} else {
		p.wire = wire
		p.queued = true
		c.queue = append(c.queue, p)
	}
	return p, nil
}

// sendLocked writes the packet and moves p into the outstanding set.
func (c *correlator) sendLocked(p *PendingCommand, wire []byte) {
	c.credit--
	c.sent[p.op] = append(c.sent[p.op], p)
	if err := c.write(wire); err != nil {
		c.failLocked(errors.Wrap(ErrTransportClosed, err.Error()))
	}
}

// completion handles a Command Complete or Command Status event. It refreshes
// credit from the controller-reported value, resolves the oldest outstanding
// command with the matching opcode, and drains the starved queue up to the
// new credit. Completions for untracked opcodes are protocol anomalies, not
// faults: controllers occasionally report commands the host never tracked
// across a reset.
func (c *correlator) completion(op uint16, numPkts uint8, ret []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.credit = int(numPkts)
	c.degrade = false

	// NOP completions exist purely for flow control.
	if Opcode(op) != opcodeNop {
		fifo := c.sent[Opcode(op)]
		if len(fifo) == 0 {
			c.anomaly(errors.Errorf("hci: completion for untracked opcode 0x%04X", op))
		} else {
			p := fifo[0]
			if len(fifo) == 1 {
				delete(c.sent, Opcode(op))
			} else {
				c.sent[Opcode(op)] = fifo[1:]
			}
			c.resolveLocked(p, Result{Return: ret})
		}
	}

	c.drainLocked()
}

// drainLocked sends queued commands while credit lasts.
func (c *correlator) drainLocked() {
	for c.credit > 0 && len(c.queue) > 0 && !c.closed {
		p := c.queue[0]
		c.queue = c.queue[1:]
		wire := p.wire
		p.wire = nil
		p.queued = false
		c.sendLocked(p, wire)
	}
}

// expire resolves p with ErrCommandTimeout at its deadline. For a command
// that was actually sent, credit is not assumed restored: the controller may
// or may not have failed, so the correlator blocks further submission until
// controller traffic resumes and reports itself degraded in the meantime.
// A command that expired while still queued never reached the controller and
// says nothing about its health.
func (c *correlator) expire(p *PendingCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.resolved {
		return
	}
	if !p.queued {
		c.degrade = true
	}
	c.removeLocked(p)
	c.resolveLocked(p, Result{Err: errors.Wrapf(ErrCommandTimeout, "opcode %v", p.op)})
}

func (c *correlator) cancel(p *PendingCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.resolved {
		return
	}
	c.removeLocked(p)
	c.resolveLocked(p, Result{Err: ErrCommandCancelled})
}

// removeLocked takes p out of the outstanding set or the queue.
func (c *correlator) removeLocked(p *PendingCommand) {
	if p.queued {
		for i, q := range c.queue {
			if q == p {
				c.queue = append(c.queue[:i], c.queue[i+1:]...)
				break
			}
		}
		p.queued = false
		return
	}
	fifo := c.sent[p.op]
	for i, q := range fifo {
		if q == p {
			fifo = append(fifo[:i], fifo[i+1:]...)
			break
		}
	}
	if len(fifo) == 0 {
		delete(c.sent, p.op)
	} else {
		c.sent[p.op] = fifo
	}
}

// fail resolves every outstanding and queued command with err and refuses
// further submissions. Used when the transport dies.
func (c *correlator) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLocked(err)
}

func (c *correlator) failLocked(err error) {
	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	for _, fifo := range c.sent {
		for _, p := range fifo {
			c.resolveLocked(p, Result{Err: err})
		}
	}
	c.sent = make(map[Opcode][]*PendingCommand)
	for _, p := range c.queue {
		c.resolveLocked(p, Result{Err: err})
	}
	c.queue = nil
}

func (c *correlator) resolveLocked(p *PendingCommand, r Result) {
	if p.resolved {
		return
	}
	p.resolved = true
	p.timer.Stop()
	p.done <- r
}

func (c *correlator) anomaly(err error) {
	c.log.Warn(err.Error())
	if c.warn != nil {
		c.warn(err)
	}
}

// Credit reports the controller's current outstanding-command allowance.
// Diagnostic only.
func (c *correlator) Credit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credit
}

// Degraded reports whether a command timed out without the controller
// granting credit since.
func (c *correlator) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degrade
}

// Outstanding reports the number of submitted-but-unresolved commands.
func (c *correlator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, fifo := range c.sent {
		n += len(fifo)
	}
	return n
}
