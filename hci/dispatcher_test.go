package hci

import (
	"testing"

	"github.com/bryanperris/btle"
	"github.com/bryanperris/btle/hci/evt"
)

func hwErr(code byte) *EventPacket {
	return &EventPacket{Code: evt.HardwareErrorCode, Params: []byte{code}}
}

func TestSubscriptionDropNewest(t *testing.T) {
	d := newDispatcher(btle.GetLogger())
	s := d.subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}}, WithBuffer(2))

	for i := byte(0); i < 5; i++ {
		d.dispatch(hwErr(i))
	}

	// buffer kept the two oldest; the overflow was discarded
	if e := <-s.C(); e.Params[0] != 0 {
		t.Fatalf("first event %d", e.Params[0])
	}
	if e := <-s.C(); e.Params[0] != 1 {
		t.Fatalf("second event %d", e.Params[0])
	}
	select {
	case e := <-s.C():
		t.Fatalf("unexpected third event %d", e.Params[0])
	default:
	}
}

func TestSubscriptionDropOldest(t *testing.T) {
	d := newDispatcher(btle.GetLogger())
	s := d.subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}}, WithBuffer(2), WithDropOldest())

	for i := byte(0); i < 5; i++ {
		d.dispatch(hwErr(i))
	}

	// buffer kept the two newest
	if e := <-s.C(); e.Params[0] != 3 {
		t.Fatalf("first event %d", e.Params[0])
	}
	if e := <-s.C(); e.Params[0] != 4 {
		t.Fatalf("second event %d", e.Params[0])
	}
}

func TestSubscriptionSlowConsumerIsolated(t *testing.T) {
	d := newDispatcher(btle.GetLogger())
	slow := d.subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}}, WithBuffer(1))
	healthy := d.subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}}, WithBuffer(8))

	for i := byte(0); i < 4; i++ {
		d.dispatch(hwErr(i))
	}

	// the stalled subscription never backs up its siblings
	for i := byte(0); i < 4; i++ {
		e := <-healthy.C()
		if e.Params[0] != i {
			t.Fatalf("event %d out of order: got %d", i, e.Params[0])
		}
	}
	if e := <-slow.C(); e.Params[0] != 0 {
		t.Fatalf("slow subscription got %d", e.Params[0])
	}
}

func TestDispatchMatchesSubevent(t *testing.T) {
	d := newDispatcher(btle.GetLogger())
	s := d.subscribe(EventFilter{Subevents: []int{evt.LEConnectionCompleteSubCode}})

	// an advertising report must not match a connection complete filter
	d.dispatch(&EventPacket{Code: evt.LEMetaCode, Params: []byte{evt.LEAdvertisingReportSubCode, 0x00}})
	select {
	case e := <-s.C():
		t.Fatalf("unwanted subevent delivered: % X", e.Params)
	default:
	}

	d.dispatch(&EventPacket{Code: evt.LEMetaCode, Params: []byte{evt.LEConnectionCompleteSubCode, 0x00}})
	e := <-s.C()
	if e.Params[0] != evt.LEConnectionCompleteSubCode {
		t.Fatalf("got subevent 0x%02X", e.Params[0])
	}
}

func TestDispatchAfterCancelIsNoop(t *testing.T) {
	d := newDispatcher(btle.GetLogger())
	s := d.subscribe(EventFilter{Events: []int{evt.HardwareErrorCode}})

	s.Cancel()
	d.dispatch(hwErr(0)) // must not panic on the closed channel

	if _, ok := <-s.C(); ok {
		t.Fatal("delivery after cancel")
	}
}
