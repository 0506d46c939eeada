//go:build darwin

package darwin

import (
	"github.com/raff/goble/xpc"

	"github.com/bryanperris/btle"
)

// adv adapts a CoreBluetooth discovery message to btle.Advertisement.
// Darwin never exposes the raw AD blob, only the pre-parsed kCBAdvData
// dictionary, so decoding happens key by key.
type adv struct {
	args xpc.Dict
	ad   xpc.Dict
}

// NewAdvertisement wraps a CoreBluetooth peripheral-discovered message.
func NewAdvertisement(args xpc.Dict) btle.Advertisement {
	ad, _ := args["kCBMsgArgAdvertisementData"].(xpc.Dict)
	return &adv{args: args, ad: ad}
}

func (a *adv) LocalName() string {
	return a.ad.GetString("kCBAdvDataLocalName", a.args.GetString("kCBMsgArgName", ""))
}

func (a *adv) ManufacturerData() []byte {
	return a.ad.GetBytes("kCBAdvDataManufacturerData", nil)
}

func (a *adv) ServiceData() []btle.ServiceData {
	xSDs, ok := a.ad["kCBAdvDataServiceData"]
	if !ok {
		return nil
	}

	// The array alternates UUID bytes and data bytes.
	xSD := xSDs.(xpc.Array)
	var sd []btle.ServiceData
	for i := 0; i+1 < len(xSD); i += 2 {
		sd = append(sd, btle.ServiceData{
			UUID: btle.UUID(xSD[i].([]byte)),
			Data: xSD[i+1].([]byte),
		})
	}
	return sd
}

func (a *adv) Services() []btle.UUID {
	return a.uuids("kCBAdvDataServiceUUIDs")
}

func (a *adv) SolicitedService() []btle.UUID {
	return a.uuids("kCBAdvDataSolicitedServiceUUIDs")
}

func (a *adv) uuids(key string) []btle.UUID {
	xUUIDs, ok := a.ad[key]
	if !ok {
		return nil
	}
	var uuids []btle.UUID
	for _, xUUID := range xUUIDs.(xpc.Array) {
		uuids = append(uuids, btle.UUID(btle.Reverse(xUUID.([]byte))))
	}
	return uuids
}

func (a *adv) TxPowerLevel() int {
	return a.ad.GetInt("kCBAdvDataTxPowerLevel", 0)
}

func (a *adv) Connectable() bool {
	return a.ad.GetInt("kCBAdvDataIsConnectable", 0) > 0
}

func (a *adv) RSSI() int {
	return a.args.GetInt("kCBMsgArgRssi", 0)
}

func (a *adv) Addr() btle.Addr {
	u := a.args.MustGetUUID("kCBMsgArgDeviceUUID")
	return btle.NewAddr(u.String())
}

func (a *adv) ToMap() (map[string]interface{}, error) {
	keys := btle.AdvertisementMapKeys
	m := map[string]interface{}{
		keys.MAC:         a.Addr().String(),
		keys.RSSI:        a.RSSI(),
		keys.Connectable: a.Connectable(),
	}
	if n := a.LocalName(); n != "" {
		m[keys.Name] = n
	}
	if md := a.ManufacturerData(); md != nil {
		m[keys.MFG] = md
	}
	if ss := a.Services(); ss != nil {
		strs := make([]string, 0, len(ss))
		for _, u := range ss {
			strs = append(strs, u.String())
		}
		m[keys.Services] = strs
	}
	if sds := a.ServiceData(); sds != nil {
		sd := make(map[string]interface{}, len(sds))
		for _, d := range sds {
			sd[d.UUID.String()] = d.Data
		}
		m[keys.ServiceData] = sd
	}
	return m, nil
}
