package cmd

// Reset [Vol 2, Part E, 7.3.2]
type Reset struct{}

func (c *Reset) OpCode() int { return 0x0C03 }
func (c *Reset) Len() int { return 0 }
func (c *Reset) Marshal(b []byte) error { return marshal(c, b) }

// ResetRP returns the status of the Reset command.
type ResetRP struct {
	Status uint8
}

func (c *ResetRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// SetEventMask [Vol 2, Part E, 7.3.1]
type SetEventMask struct {
	EventMask uint64
}

func (c *SetEventMask) OpCode() int { return 0x0C01 }
func (c *SetEventMask) Len() int { return 8 }
func (c *SetEventMask) Marshal(b []byte) error { return marshal(c, b) }

// SetEventMaskRP ...
type SetEventMaskRP struct {
	Status uint8
}

func (c *SetEventMaskRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// ReadBDADDR [Vol 2, Part E, 7.4.6]
type ReadBDADDR struct{}

func (c *ReadBDADDR) OpCode() int { return 0x1009 }
func (c *ReadBDADDR) Len() int { return 0 }
func (c *ReadBDADDR) Marshal(b []byte) error { return marshal(c, b) }

// ReadBDADDRRP ...
type ReadBDADDRRP struct {
	Status uint8
	BDADDR [6]byte
}

func (c *ReadBDADDRRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// ReadBufferSize [Vol 2, Part E, 7.4.5]
type ReadBufferSize struct{}

func (c *ReadBufferSize) OpCode() int { return 0x1005 }
func (c *ReadBufferSize) Len() int { return 0 }
func (c *ReadBufferSize) Marshal(b []byte) error { return marshal(c, b) }

// ReadBufferSizeRP ...
type ReadBufferSizeRP struct {
	Status                           uint8
	HCACLDataPacketLength            uint16
	HCSynchronousDataPacketLength    uint8
	HCTotalNumACLDataPackets         uint16
	HCTotalNumSynchronousDataPackets uint16
}

func (c *ReadBufferSizeRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetEventMask [Vol 2, Part E, 7.8.1]
type LESetEventMask struct {
	LEEventMask uint64
}

func (c *LESetEventMask) OpCode() int { return 0x2001 }
func (c *LESetEventMask) Len() int { return 8 }
func (c *LESetEventMask) Marshal(b []byte) error { return marshal(c, b) }

// LESetEventMaskRP ...
type LESetEventMaskRP struct {
	Status uint8
}

func (c *LESetEventMaskRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LEReadBufferSize [Vol 2, Part E, 7.8.2]
type LEReadBufferSize struct{}

func (c *LEReadBufferSize) OpCode() int { return 0x2002 }
func (c *LEReadBufferSize) Len() int { return 0 }
func (c *LEReadBufferSize) Marshal(b []byte) error { return marshal(c, b) }

// LEReadBufferSizeRP ...
type LEReadBufferSizeRP struct {
	Status                  uint8
	HCLEDataPacketLength    uint16
	HCTotalNumLEDataPackets uint8
}

func (c *LEReadBufferSizeRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertisingParameters [Vol 2, Part E, 7.8.5]
type LESetAdvertisingParameters struct {
	AdvertisingIntervalMin  uint16
	AdvertisingIntervalMax  uint16
	AdvertisingType         uint8
	OwnAddressType          uint8
	DirectAddressType       uint8
	DirectAddress           [6]byte
	AdvertisingChannelMap   uint8
	AdvertisingFilterPolicy uint8
}

func (c *LESetAdvertisingParameters) OpCode() int { return 0x2006 }
func (c *LESetAdvertisingParameters) Len() int { return 15 }
func (c *LESetAdvertisingParameters) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertisingParametersRP ...
type LESetAdvertisingParametersRP struct {
	Status uint8
}

func (c *LESetAdvertisingParametersRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LEReadAdvertisingChannelTxPower [Vol 2, Part E, 7.8.6]
type LEReadAdvertisingChannelTxPower struct{}

func (c *LEReadAdvertisingChannelTxPower) OpCode() int { return 0x2007 }
func (c *LEReadAdvertisingChannelTxPower) Len() int { return 0 }
func (c *LEReadAdvertisingChannelTxPower) Marshal(b []byte) error { return marshal(c, b) }

// LEReadAdvertisingChannelTxPowerRP ...
type LEReadAdvertisingChannelTxPowerRP struct {
	Status             uint8
	TransmitPowerLevel int8
}

func (c *LEReadAdvertisingChannelTxPowerRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertisingData [Vol 2, Part E, 7.8.7]
type LESetAdvertisingData struct {
	AdvertisingDataLength uint8
	AdvertisingData       [31]byte
}

func (c *LESetAdvertisingData) OpCode() int { return 0x2008 }
func (c *LESetAdvertisingData) Len() int { return 32 }
func (c *LESetAdvertisingData) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertisingDataRP ...
type LESetAdvertisingDataRP struct {
	Status uint8
}

func (c *LESetAdvertisingDataRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanResponseData [Vol 2, Part E, 7.8.8]
type LESetScanResponseData struct {
	ScanResponseDataLength uint8
	ScanResponseData       [31]byte
}

func (c *LESetScanResponseData) OpCode() int { return 0x2009 }
func (c *LESetScanResponseData) Len() int { return 32 }
func (c *LESetScanResponseData) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanResponseDataRP ...
type LESetScanResponseDataRP struct {
	Status uint8
}

func (c *LESetScanResponseDataRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertiseEnable [Vol 2, Part E, 7.8.9]
type LESetAdvertiseEnable struct {
	AdvertisingEnable uint8
}

func (c *LESetAdvertiseEnable) OpCode() int { return 0x200A }
func (c *LESetAdvertiseEnable) Len() int { return 1 }
func (c *LESetAdvertiseEnable) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertiseEnableRP ...
type LESetAdvertiseEnableRP struct {
	Status uint8
}

func (c *LESetAdvertiseEnableRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanParameters [Vol 2, Part E, 7.8.10]
type LESetScanParameters struct {
	LEScanType           uint8
	LEScanInterval       uint16
	LEScanWindow         uint16
	OwnAddressType       uint8
	ScanningFilterPolicy uint8
}

func (c *LESetScanParameters) OpCode() int { return 0x200B }
func (c *LESetScanParameters) Len() int { return 7 }
func (c *LESetScanParameters) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanParametersRP ...
type LESetScanParametersRP struct {
	Status uint8
}

func (c *LESetScanParametersRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanEnable [Vol 2, Part E, 7.8.11]
type LESetScanEnable struct {
	LEScanEnable     uint8
	FilterDuplicates uint8
}

func (c *LESetScanEnable) OpCode() int { return 0x200C }
func (c *LESetScanEnable) Len() int { return 2 }
func (c *LESetScanEnable) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanEnableRP ...
type LESetScanEnableRP struct {
	Status uint8
}

func (c *LESetScanEnableRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LERand [Vol 2, Part E, 7.8.23]
type LERand struct{}

func (c *LERand) OpCode() int { return 0x2018 }
func (c *LERand) Len() int { return 0 }
func (c *LERand) Marshal(b []byte) error { return marshal(c, b) }

// LERandRP returns 8 bytes of controller-generated randomness.
type LERandRP struct {
	Status       uint8
	RandomNumber uint64
}

func (c *LERandRP) Unmarshal(b []byte) error { return unmarshal(c, b) }
