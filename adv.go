package btle

// AdvHandler handles an advertisement.
type AdvHandler func(a Advertisement)

// AdvFilter returns true if the advertisement matches a caller-specified
// condition.
type AdvFilter func(a Advertisement) bool

// Advertisement is the decoded view of one received advertising report,
// independent of how the platform delivered it (HCI event bytes on Linux,
// pre-parsed XPC dictionaries on OS X).
type Advertisement interface {
	LocalName() string
	ManufacturerData() []byte
	ServiceData() []ServiceData
	Services() []UUID
	SolicitedService() []UUID
	TxPowerLevel() int
	Connectable() bool
	RSSI() int
	Addr() Addr

	ToMap() (map[string]interface{}, error)
}

// AdvertisementMapKeys are the keys used by Advertisement.ToMap.
var AdvertisementMapKeys = struct {
	MAC         string
	RSSI        string
	Name        string
	MFG         string
	Services    string
	ServiceData string
	Connectable string
	Solicited   string
	Flags       string
	TxPower     string
	EventType   string
}{
	MAC:         "mac",
	RSSI:        "rssi",
	Name:        "name",
	MFG:         "mfg",
	Services:    "services",
	ServiceData: "serviceData",
	Connectable: "connectable",
	Solicited:   "solicited",
	Flags:       "flags",
	TxPower:     "txPower",
	EventType:   "eventType",
}

// ServiceData is a service data AD element: payload bytes keyed by the
// service UUID they belong to.
type ServiceData struct {
	UUID UUID
	Data []byte
}
