package adv

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
	"github.com/bryanperris/btle/hci/evt"
)

// Advertising report event types [Vol 6, Part B, 4.4.2].
const (
	EvtTypAdvInd        = 0x00 // Connectable undirected (ADV_IND).
	EvtTypAdvDirectInd  = 0x01 // Connectable directed (ADV_DIRECT_IND).
	EvtTypAdvScanInd    = 0x02 // Scannable undirected (ADV_SCAN_IND).
	EvtTypAdvNonconnInd = 0x03 // Non-connectable undirected (ADV_NONCONN_IND).
	EvtTypScanRsp       = 0x04 // Scan response (SCAN_RSP).
)

// A Report is one device's entry within an LE Advertising Report event.
// Data is the raw AD blob; Structures decodes it on demand so one malformed
// report never invalidates reports batched alongside it.
type Report struct {
	EventType   uint8
	AddressType uint8
	Address     [6]byte
	RSSI        int8
	Data        []byte

	structures []Structure
	parseErr   error
	parsed     bool
}

// DecodeReports splits an LE Advertising Report subevent payload (starting
// at the subevent code) into its batched per-device reports. A report whose
// outer fields cannot be read is dropped with a warning error; the remaining
// reports are still returned.
func DecodeReports(b []byte) ([]Report, error) {
	e := evt.LEAdvertisingReport(b)

	sub, err := e.SubeventCodeWErr()
	if err != nil {
		return nil, errors.Wrap(err, "adv: report subevent code")
	}
	if sub != evt.LEAdvertisingReportSubCode {
		return nil, errors.Errorf("adv: subevent 0x%02X is not an advertising report", sub)
	}
	nr, err := e.NumReportsWErr()
	if err != nil || nr == 0 {
		return nil, errors.New("adv: report count missing")
	}

	var firstErr error
	reports := make([]Report, 0, nr)
	for i := 0; i < int(nr); i++ {
		r, err := decodeReport(e, i)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "adv: report %d of %d", i, nr)
			}
			continue
		}
		reports = append(reports, r)
	}
	if len(reports) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return reports, firstErr
}

func decodeReport(e evt.LEAdvertisingReport, i int) (Report, error) {
	var r Report
	var err error
	if r.EventType, err = e.EventTypeWErr(i); err != nil {
		return r, errors.Wrap(err, "event type")
	}
	if r.AddressType, err = e.AddressTypeWErr(i); err != nil {
		return r, errors.Wrap(err, "address type")
	}
	if r.Address, err = e.AddressWErr(i); err != nil {
		return r, errors.Wrap(err, "address")
	}
	if r.RSSI, err = e.RSSIWErr(i); err != nil {
		return r, errors.Wrap(err, "rssi")
	}
	data, err := e.DataWErr(i)
	if err != nil {
		return r, errors.Wrap(err, "ad data")
	}
	r.Data = append([]byte(nil), data...)
	return r, nil
}

// Structures decodes the report's AD blob, caching the result.
func (r *Report) Structures() ([]Structure, error) {
	if !r.parsed {
		r.structures, r.parseErr = ParseStructures(r.Data)
		r.parsed = true
	}
	return r.structures, r.parseErr
}

// Addr renders the device address in the usual colon-separated display
// order (the wire carries it reversed).
func (r *Report) Addr() btle.Addr {
	a := r.Address
	return btle.NewAddr(fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[5], a[4], a[3], a[2], a[1], a[0]))
}

// Connectable reports whether the advertisement invites connections.
func (r *Report) Connectable() bool {
	return r.EventType == EvtTypAdvInd || r.EventType == EvtTypAdvDirectInd
}

// NewAdvertisement wraps a decoded report in the platform-independent
// Advertisement view.
func NewAdvertisement(r *Report) btle.Advertisement {
	return &advertisement{r: r}
}

type advertisement struct {
	r *Report
}

func (a *advertisement) LocalName() string {
	ss, _ := a.r.Structures()
	for _, s := range ss {
		if n, ok := s.(LocalName); ok {
			return n.Name
		}
	}
	return ""
}

func (a *advertisement) ManufacturerData() []byte {
	ss, _ := a.r.Structures()
	for _, s := range ss {
		if m, ok := s.(ManufacturerData); ok {
			b := make([]byte, 2+len(m.Data))
			b[0] = byte(m.CompanyID)
			b[1] = byte(m.CompanyID >> 8)
			copy(b[2:], m.Data)
			return b
		}
	}
	return nil
}

func (a *advertisement) ServiceData() []btle.ServiceData {
	ss, _ := a.r.Structures()
	var out []btle.ServiceData
	for _, s := range ss {
		if d, ok := s.(ServiceData); ok {
			out = append(out, btle.ServiceData{UUID: d.UUID, Data: d.Data})
		}
	}
	return out
}

func (a *advertisement) Services() []btle.UUID {
	ss, _ := a.r.Structures()
	var out []btle.UUID
	for _, s := range ss {
		if u, ok := s.(ServiceUUIDs); ok {
			out = append(out, u.UUIDs...)
		}
	}
	return out
}

func (a *advertisement) SolicitedService() []btle.UUID {
	ss, _ := a.r.Structures()
	var out []btle.UUID
	for _, s := range ss {
		if u, ok := s.(SolicitedUUIDs); ok {
			out = append(out, u.UUIDs...)
		}
	}
	return out
}

func (a *advertisement) TxPowerLevel() int {
	ss, _ := a.r.Structures()
	for _, s := range ss {
		if p, ok := s.(TxPowerLevel); ok {
			return int(p)
		}
	}
	return 0
}

func (a *advertisement) Connectable() bool { return a.r.Connectable() }

func (a *advertisement) RSSI() int { return int(a.r.RSSI) }

func (a *advertisement) Addr() btle.Addr { return a.r.Addr() }

// ToMap renders the advertisement for serialization or logging; the result
// marshals cleanly with jsoniter.
func (a *advertisement) ToMap() (map[string]interface{}, error) {
	ss, err := a.r.Structures()
	if err != nil {
		return nil, err
	}

	keys := btle.AdvertisementMapKeys
	m := map[string]interface{}{
		keys.MAC:         a.Addr().String(),
		keys.RSSI:        a.RSSI(),
		keys.EventType:   a.r.EventType,
		keys.Connectable: a.Connectable(),
	}
	for _, s := range ss {
		switch v := s.(type) {
		case Flags:
			m[keys.Flags] = uint8(v)
		case LocalName:
			m[keys.Name] = v.Name
		case TxPowerLevel:
			m[keys.TxPower] = int(v)
		case ManufacturerData:
			m[keys.MFG] = v
		case ServiceUUIDs:
			m[keys.Services] = appendUUIDStrings(m[keys.Services], v.UUIDs)
		case SolicitedUUIDs:
			m[keys.Solicited] = appendUUIDStrings(m[keys.Solicited], v.UUIDs)
		case ServiceData:
			sd, _ := m[keys.ServiceData].(map[string]interface{})
			if sd == nil {
				sd = make(map[string]interface{})
			}
			sd[v.UUID.String()] = v.Data
			m[keys.ServiceData] = sd
		}
	}
	return m, nil
}

// MarshalJSON implements json.Marshaler via the map form.
func (a *advertisement) MarshalJSON() ([]byte, error) {
	m, err := a.ToMap()
	if err != nil {
		return nil, err
	}
	return jsoniter.Marshal(m)
}

func appendUUIDStrings(cur interface{}, uu []btle.UUID) []string {
	out, _ := cur.([]string)
	for _, u := range uu {
		out = append(out, u.String())
	}
	return out
}
