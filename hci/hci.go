// Package hci implements the Host Controller Interface protocol engine:
// packet encode/decode, command/event correlation with controller flow
// control, and fan-out of decoded events to subscribers.
package hci

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
	"github.com/bryanperris/btle/hci/cmd"
	"github.com/bryanperris/btle/hci/evt"
)

// Command is an HCI command that knows its opcode and how to marshal its
// parameter block.
type Command interface {
	OpCode() int
	Len() int
	Marshal([]byte) error
}

// CommandRP unmarshals a command's return parameters.
type CommandRP interface {
	Unmarshal(b []byte) error
}

// NewHCI returns an engine configured by opts. Call Init to open the
// transport and start it.
func NewHCI(opts ...btle.Option) (*HCI, error) {
	h := &HCI{
		log:            btle.GetLogger().ChildLogger(map[string]interface{}{"pkg": "hci"}),
		commandTimeout: defaultCommandTimeout,
		sktRxChan:      make(chan []byte, sktRxQueueSize),
		done:           make(chan struct{}),
	}
	if err := h.Option(opts...); err != nil {
		return nil, errors.Wrap(err, "can't set options")
	}
	return h, nil
}

// HCI is one engine instance bound to one controller. After the transport
// dies the instance is unusable and must be reconstructed.
type HCI struct {
	transport transport
	skt       io.ReadWriteCloser

	correlator *correlator
	dispatcher *dispatcher

	commandTimeout time.Duration
	errorHandler   func(error)
	log            btle.Logger

	// Device information learned during Init.
	addr    net.HardwareAddr
	bufSize int
	bufCnt  int
	txPwrLv int

	// dataHandler receives ACL data packets; the engine itself implements
	// no connection layer.
	dataHandler func(*ACLDataPacket)

	sktRxChan chan []byte

	muClose sync.Mutex
	done    chan struct{}
	err     error
}

// Option applies configuration options.
func (h *HCI) Option(opts ...btle.Option) error {
	var err error
	for _, opt := range opts {
		err = opt(h)
	}
	return err
}

// SetTransportHCISocket selects the raw HCI user-channel socket transport.
func (h *HCI) SetTransportHCISocket(id int) error {
	h.transport = transport{hci: &transportHCISocket{id: id}}
	return nil
}

// SetTransportH4Socket selects an H4 stream-socket transport.
func (h *HCI) SetTransportH4Socket(addr string, timeout time.Duration) error {
	h.transport = transport{h4socket: &transportH4Socket{addr: addr, timeout: timeout}}
	return nil
}

// SetTransportH4Uart selects an H4 UART transport.
func (h *HCI) SetTransportH4Uart(path string) error {
	h.transport = transport{h4uart: &transportH4Uart{path: path}}
	return nil
}

// SetCommandTimeout sets the default deadline for submitted commands.
func (h *HCI) SetCommandTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("hci: command timeout must be positive")
	}
	h.commandTimeout = d
	return nil
}

// SetErrorHandler installs a handler for asynchronous errors and protocol
// anomalies.
func (h *HCI) SetErrorHandler(f func(error)) error {
	h.errorHandler = f
	return nil
}

// SetLoggerOption routes the engine's logging through l.
func (h *HCI) SetLoggerOption(l btle.Logger) error {
	h.log = l
	return nil
}

// SetDataHandler installs a consumer for inbound ACL data packets.
func (h *HCI) SetDataHandler(f func(*ACLDataPacket)) {
	h.dataHandler = f
}

// Init opens the configured transport, starts the engine, and runs the
// controller bring-up command sequence.
func (h *HCI) Init() error {
	skt, err := getTransport(h.transport)
	if err != nil {
		return err
	}
	h.run(skt)
	return h.init()
}

// run starts the engine loops on an already-open transport.
func (h *HCI) run(skt io.ReadWriteCloser) {
	h.skt = skt
	h.correlator = newCorrelator(h.writePacket, h.dispatchError, h.log, h.commandTimeout)
	h.dispatcher = newDispatcher(h.log)

	go h.sktReadLoop()
	go h.sktProcessLoop()
}

// init is the controller bring-up sequence: reset, learn the device address
// and buffer geometry, and open up the event masks the engine depends on.
func (h *HCI) init() error {
	h.log.Info("hci reset")
	if err := h.Send(&cmd.Reset{}, nil); err != nil {
		return errors.Wrap(err, "reset")
	}

	bdaddr := cmd.ReadBDADDRRP{}
	if err := h.Send(&cmd.ReadBDADDR{}, &bdaddr); err != nil {
		return errors.Wrap(err, "read bdaddr")
	}
	a := bdaddr.BDADDR
	h.addr = net.HardwareAddr([]byte{a[5], a[4], a[3], a[2], a[1], a[0]})

	// Not supported by LE-only controllers [Vol 2, Part E, 7.4.5]; the LE
	// buffer size below overrides when present.
	bufSize := cmd.ReadBufferSizeRP{}
	if err := h.Send(&cmd.ReadBufferSize{}, &bufSize); err == nil {
		h.bufCnt = int(bufSize.HCTotalNumACLDataPackets)
		h.bufSize = int(bufSize.HCACLDataPacketLength)
	}

	leBufSize := cmd.LEReadBufferSizeRP{}
	if err := h.Send(&cmd.LEReadBufferSize{}, &leBufSize); err != nil {
		return errors.Wrap(err, "le read buffer size")
	}
	if leBufSize.HCTotalNumLEDataPackets != 0 {
		h.bufCnt = int(leBufSize.HCTotalNumLEDataPackets)
		h.bufSize = int(leBufSize.HCLEDataPacketLength)
	}

	txPwr := cmd.LEReadAdvertisingChannelTxPowerRP{}
	if err := h.Send(&cmd.LEReadAdvertisingChannelTxPower{}, &txPwr); err == nil {
		h.txPwrLv = int(txPwr.TransmitPowerLevel)
	}

	if err := h.Send(&cmd.LESetEventMask{LEEventMask: 0x000000000000001F}, nil); err != nil {
		return errors.Wrap(err, "le set event mask")
	}
	if err := h.Send(&cmd.SetEventMask{EventMask: 0x3DBFF807FFFBFFFF}, nil); err != nil {
		return errors.Wrap(err, "set event mask")
	}

	return nil
}

// Send submits c, waits for its completion, checks the status byte, and
// unmarshals the return parameters into r when given.
func (h *HCI) Send(c Command, r CommandRP) error {
	params := make([]byte, c.Len())
	if err := c.Marshal(params); err != nil {
		return errors.Wrap(err, "can't marshal command")
	}

	p, err := h.Submit(Opcode(c.OpCode()), params, 0)
	if err != nil {
		return err
	}
	b, err := p.Wait()
	if err != nil {
		return err
	}
	if len(b) > 0 && b[0] != 0x00 {
		return ErrCommand(b[0])
	}
	if r != nil {
		return r.Unmarshal(b)
	}
	return nil
}

// Submit enqueues one command for the controller. A zero timeout applies the
// engine default. The returned handle resolves with the completion event's
// return parameters, ErrCommandTimeout, ErrCommandCancelled, or
// ErrTransportClosed.
func (h *HCI) Submit(op Opcode, params []byte, timeout time.Duration) (*PendingCommand, error) {
	if !h.isOpen() {
		return nil, h.closeErr()
	}
	return h.correlator.submit(op, params, timeout)
}

// Subscribe registers interest in the events selected by f. The subscription
// lives until its Cancel or engine shutdown.
func (h *HCI) Subscribe(f EventFilter, opts ...SubOption) *Subscription {
	return h.dispatcher.subscribe(f, opts...)
}

// Credit reports the controller's current outstanding-command allowance.
// Diagnostic only.
func (h *HCI) Credit() int { return h.correlator.Credit() }

// Degraded reports whether the engine is blocking submissions after a
// command timeout, waiting for controller traffic to resume.
func (h *HCI) Degraded() bool { return h.correlator.Degraded() }

// Addr returns the controller's device address, learned during Init.
func (h *HCI) Addr() net.HardwareAddr { return h.addr }

// TxPowerLevel returns the advertising channel transmit power in dBm,
// learned during Init.
func (h *HCI) TxPowerLevel() int { return h.txPwrLv }

// Error returns the error that terminated the engine, if any.
func (h *HCI) Error() error {
	h.muClose.Lock()
	defer h.muClose.Unlock()
	return h.err
}

// Close shuts the engine down. All outstanding commands and subscriptions
// resolve with ErrClosed.
func (h *HCI) Close() error {
	return h.shutdown(ErrClosed)
}

func (h *HCI) shutdown(err error) error {
	h.muClose.Lock()
	select {
	case <-h.done:
		h.muClose.Unlock()
		return nil
	default:
	}
	h.err = err
	close(h.done)
	h.muClose.Unlock()

	h.correlator.fail(err)
	h.dispatcher.close(err)
	if h.skt != nil {
		return h.skt.Close()
	}
	return nil
}

func (h *HCI) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *HCI) closeErr() error {
	h.muClose.Lock()
	defer h.muClose.Unlock()
	if h.err != nil {
		return h.err
	}
	return ErrClosed
}

func (h *HCI) writePacket(b []byte) error {
	if !h.isOpen() {
		return h.closeErr()
	}
	n, err := h.skt.Write(b)
	if err != nil {
		return errors.Wrap(err, "can't write to transport")
	}
	if n != len(b) {
		return errors.New("short write to transport")
	}
	return nil
}

// sktReadLoop is the single inbound reader: one logical reader task per
// connected controller.
func (h *HCI) sktReadLoop() {
	defer close(h.sktRxChan)

	b := make([]byte, 4096)
	for {
		n, err := h.skt.Read(b)

		switch {
		case n == 0 && err == nil:
			// read timeout
			select {
			case <-h.done:
				return
			default:
				continue
			}

		case err != nil:
			select {
			case <-h.done:
				// caller-initiated close, error already set
			default:
				h.log.Debugf("transport read failed: %v", err)
			}
			return

		default:
			p := make([]byte, n)
			copy(p, b)
			select {
			case h.sktRxChan <- p:
			case <-h.done:
				return
			}
		}
	}
}

// sktProcessLoop decodes and dispatches everything the read loop produces,
// in exact transport order. Decode failures are local to the offending
// packet: it is discarded and processing resumes on the next one.
func (h *HCI) sktProcessLoop() {
	for {
		select {
		case <-h.done:
			return

		case p, ok := <-h.sktRxChan:
			if !ok {
				h.shutdown(ErrTransportClosed)
				return
			}
			if err := h.handlePkt(p); err != nil {
				h.dispatchError(err)
			}
		}
	}
}

func (h *HCI) handlePkt(b []byte) error {
	pkt, err := DecodePacket(b)
	if err != nil {
		return errors.Wrap(err, "discarding packet")
	}

	switch p := pkt.(type) {
	case *EventPacket:
		h.handleEvt(p)
		return nil
	case *ACLDataPacket:
		if h.dataHandler != nil {
			h.dataHandler(p)
			return nil
		}
		h.log.Debugf("dropping acl data for handle 0x%04X, no data handler", p.Handle&0x0FFF)
		return nil
	case *SCODataPacket:
		h.log.Debugf("dropping sco data for handle 0x%04X", p.Handle&0x0FFF)
		return nil
	default:
		// A controller never sends Command packets to the host.
		return errors.Errorf("hci: unexpected packet from controller: % X", b)
	}
}

// handleEvt offers the event to the correlator first - Command Complete and
// Command Status must be intercepted for flow control - then fans it out to
// subscribers regardless of whether the correlator consumed it.
func (h *HCI) handleEvt(e *EventPacket) {
	switch e.Code {
	case evt.CommandCompleteCode:
		cc := evt.CommandComplete(e.Params)
		if !cc.Valid() {
			h.dispatchError(errors.Errorf("hci: invalid command complete event: % X", e.Params))
			break
		}
		h.correlator.completion(cc.CommandOpcode(), cc.NumHCICommandPackets(), cc.ReturnParameters())

	case evt.CommandStatusCode:
		cs := evt.CommandStatus(e.Params)
		if !cs.Valid() {
			h.dispatchError(errors.Errorf("hci: invalid command status event: % X", e.Params))
			break
		}
		h.correlator.completion(cs.CommandOpcode(), cs.NumHCICommandPackets(), []byte{cs.Status()})

	case evt.HardwareErrorCode:
		h.dispatchError(errors.Errorf("hci: controller hardware error 0x%02X", evt.HardwareError(e.Params).Code()))
	}

	h.dispatcher.dispatch(e)
}

// dispatchError surfaces a non-fatal engine error: the handler when one is
// installed, the warn log otherwise.
func (h *HCI) dispatchError(e error) {
	switch {
	case h.errorHandler != nil:
		h.errorHandler(e)
	case !h.isOpen():
		h.log.Debugf("engine closing: %v", e)
	default:
		h.log.Warn(e.Error())
	}
}
