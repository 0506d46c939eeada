package hci

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
	"github.com/bryanperris/btle/hci/cmd"
	"github.com/bryanperris/btle/hci/evt"
)

// fakeSkt is an in-memory controller. Writes are decoded as commands and
// answered from the reply table with Command Complete events; reads follow
// the transport convention of (0, nil) on poll timeout.
type fakeSkt struct {
	mu      sync.Mutex
	rx      chan []byte
	done    chan struct{}
	closed  bool
	opcodes []Opcode

	// replies maps an opcode to its Command Complete return parameters
	// (status byte first). Unlisted opcodes get a bare success status.
	replies map[Opcode][]byte

	// mute suppresses automatic replies, for timeout scenarios.
	mute bool
}

func newFakeSkt() *fakeSkt {
	return &fakeSkt{
		rx:      make(chan []byte, 32),
		done:    make(chan struct{}),
		replies: make(map[Opcode][]byte),
	}
}

func (s *fakeSkt) Read(b []byte) (int, error) {
	select {
	case p := <-s.rx:
		return copy(b, p), nil
	case <-s.done:
		return 0, errors.New("socket closed")
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (s *fakeSkt) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("socket closed")
	}

	pkt, err := DecodePacket(b)
	if err != nil {
		return 0, err
	}
	c, ok := pkt.(*CommandPacket)
	if !ok {
		return len(b), nil
	}
	s.opcodes = append(s.opcodes, c.Opcode)
	if s.mute {
		return len(b), nil
	}

	ret, ok := s.replies[c.Opcode]
	if !ok {
		ret = []byte{0x00}
	}
	s.complete(c.Opcode, ret)
	return len(b), nil
}

// complete queues a Command Complete event granting one credit.
func (s *fakeSkt) complete(op Opcode, ret []byte) {
	params := append([]byte{0x01, byte(op), byte(op >> 8)}, ret...)
	s.event(evt.CommandCompleteCode, params)
}

func (s *fakeSkt) event(code uint8, params []byte) {
	b, err := (&EventPacket{Code: code, Params: params}).Marshal()
	if err != nil {
		panic(err)
	}
	select {
	case s.rx <- b:
	case <-s.done:
	}
}

// fail simulates transport death out from under the engine.
func (s *fakeSkt) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

func (s *fakeSkt) Close() error {
	s.fail()
	return nil
}

func newTestHCI(t *testing.T, skt *fakeSkt) *HCI {
	t.Helper()
	h, err := NewHCI()
	if err != nil {
		t.Fatal(err)
	}
	h.run(skt)
	return h
}

func TestHCIInit(t *testing.T) {
	skt := newFakeSkt()
	skt.replies[0x1009] = []byte{0x00, 0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA} // bdaddr, wire order
	skt.replies[0x1005] = []byte{0x00, 0x1B, 0x00, 0x40, 0x08, 0x00, 0x08, 0x00}
	skt.replies[0x2002] = []byte{0x00, 0xFB, 0x00, 0x0F}
	skt.replies[0x2007] = []byte{0x00, 0x07}

	h := newTestHCI(t, skt)
	defer h.Close()

	if err := h.init(); err != nil {
		t.Fatal(err)
	}

	if got := h.Addr().String(); got != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("addr %s", got)
	}
	if h.TxPowerLevel() != 7 {
		t.Fatalf("tx power %d", h.TxPowerLevel())
	}
	if h.bufSize != 0x00FB || h.bufCnt != 0x0F {
		t.Fatalf("buffer geometry %d x %d", h.bufSize, h.bufCnt)
	}

	// reset must be the first command on the wire
	skt.mu.Lock()
	first := skt.opcodes[0]
	skt.mu.Unlock()
	if first != 0x0C03 {
		t.Fatalf("first opcode %v", first)
	}
	if h.Credit() != 1 {
		t.Fatalf("credit %d after init", h.Credit())
	}
}

func TestHCISendStatusError(t *testing.T) {
	skt := newFakeSkt()
	skt.replies[0x200C] = []byte{0x0C} // command disallowed

	h := newTestHCI(t, skt)
	defer h.Close()

	err := h.Send(&cmd.LESetScanEnable{LEScanEnable: 0x01}, nil)
	e, ok := errors.Cause(err).(ErrCommand)
	if !ok || byte(e) != 0x0C {
		t.Fatalf("got err %v, want ErrCommand(0x0C)", err)
	}
}

func TestHCISubscribeAdvReport(t *testing.T) {
	skt := newFakeSkt()
	h := newTestHCI(t, skt)
	defer h.Close()

	advSub := h.Subscribe(EventFilter{Subevents: []int{evt.LEAdvertisingReportSubCode}})
	defer advSub.Cancel()
	dcSub := h.Subscribe(EventFilter{Events: []int{evt.DisconnectionCompleteCode}})
	defer dcSub.Cancel()

	// one report, public addr, empty ad data, rssi -60
	skt.event(evt.LEMetaCode, []byte{
		0x02, // subevent: advertising report
		0x01, // one report
		0x00, // ADV_IND
		0x00, // public
		0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA,
		0x00, // no data
		0xC4, // -60
	})

	select {
	case e := <-advSub.C():
		if e.Code != evt.LEMetaCode {
			t.Fatalf("code 0x%02X", e.Code)
		}
	case <-time.After(time.Second):
		t.Fatal("advertising report not delivered")
	}
	select {
	case e := <-dcSub.C():
		t.Fatalf("disconnection subscription got event 0x%02X", e.Code)
	default:
	}
}

func TestHCISubscriptionCancel(t *testing.T) {
	skt := newFakeSkt()
	h := newTestHCI(t, skt)
	defer h.Close()

	sub := h.Subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})
	sub.Cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed on cancel")
	}
	if sub.Err() != nil {
		t.Fatalf("err %v after caller cancel", sub.Err())
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("channel still delivering after cancel")
	}

	// a second cancel is a no-op
	sub.Cancel()
}

func TestHCITransportDeath(t *testing.T) {
	skt := newFakeSkt()
	skt.mute = true
	h := newTestHCI(t, skt)

	p1, err := h.Submit(0x0C03, nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := h.Submit(0x1009, nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sub := h.Subscribe(EventFilter{Subevents: []int{evt.LEAdvertisingReportSubCode}})

	skt.fail()

	// everything outstanding resolves with the transport error
	if _, err := p1.Wait(); errors.Cause(err) != ErrTransportClosed {
		t.Fatalf("in-flight: %v", err)
	}
	if _, err := p2.Wait(); errors.Cause(err) != ErrTransportClosed {
		t.Fatalf("queued: %v", err)
	}
	select {
	case <-sub.Done():
		if errors.Cause(sub.Err()) != ErrTransportClosed {
			t.Fatalf("subscription err %v", sub.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not ended")
	}

	// the engine is dead for good
	if _, err := h.Submit(0x0C03, nil, 0); errors.Cause(err) != ErrTransportClosed {
		t.Fatalf("submit after death: %v", err)
	}
	if errors.Cause(h.Error()) != ErrTransportClosed {
		t.Fatalf("engine err %v", h.Error())
	}
}

func TestHCISubscribeAfterDeath(t *testing.T) {
	skt := newFakeSkt()
	h := newTestHCI(t, skt)

	skt.fail()
	// wait for the read loop to notice and tear the engine down
	deadline := time.After(time.Second)
	for h.Error() == nil {
		select {
		case <-deadline:
			t.Fatal("engine never recorded the transport death")
		case <-time.After(time.Millisecond):
		}
	}

	// a late subscriber gets a subscription that is already over, never
	// one that silently blocks forever
	sub := h.Subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription on a dead engine never ends")
	}
	if errors.Cause(sub.Err()) != ErrTransportClosed {
		t.Fatalf("subscription err %v, want ErrTransportClosed", sub.Err())
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("dead engine delivered an event")
	}
}

func TestHCISubscribeAfterClose(t *testing.T) {
	skt := newFakeSkt()
	h := newTestHCI(t, skt)

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	sub := h.Subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription on a closed engine never ends")
	}
	if errors.Cause(sub.Err()) != ErrClosed {
		t.Fatalf("subscription err %v, want ErrClosed", sub.Err())
	}
}

func TestHCIClose(t *testing.T) {
	skt := newFakeSkt()
	skt.mute = true
	h := newTestHCI(t, skt)

	p, _ := h.Submit(0x0C03, nil, time.Minute)
	sub := h.Subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Wait(); errors.Cause(err) != ErrClosed {
		t.Fatalf("pending: %v", err)
	}
	<-sub.Done()
	if errors.Cause(sub.Err()) != ErrClosed {
		t.Fatalf("subscription err %v", sub.Err())
	}

	// closing twice is a no-op
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestHCIDataHandler(t *testing.T) {
	skt := newFakeSkt()
	h := newTestHCI(t, skt)
	defer h.Close()

	got := make(chan *ACLDataPacket, 1)
	h.SetDataHandler(func(p *ACLDataPacket) { got <- p })

	b, err := (&ACLDataPacket{Handle: 0x0040, Data: []byte{0xDE, 0xAD}}).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	select {
	case skt.rx <- b:
	case <-time.After(time.Second):
		t.Fatal("rx stalled")
	}

	select {
	case p := <-got:
		if p.Handle != 0x0040 || len(p.Data) != 2 {
			t.Fatalf("handle 0x%04X data % X", p.Handle, p.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("acl data not delivered")
	}
}

func TestHCIGarbageDiscarded(t *testing.T) {
	skt := newFakeSkt()
	errs := make(chan error, 1)
	h, err := NewHCI(btle.OptErrorHandler(func(err error) { errs <- err }))
	if err != nil {
		t.Fatal(err)
	}
	h.run(skt)
	defer h.Close()

	skt.rx <- []byte{0x07, 0xDE, 0xAD} // unknown packet type
	select {
	case <-errs:
	case <-time.After(time.Second):
		t.Fatal("garbage not reported")
	}

	// the engine keeps running
	sub := h.Subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})
	defer sub.Cancel()
	skt.event(evt.HardwareErrorCode, []byte{0x42})
	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("event after garbage not delivered")
	}
}
