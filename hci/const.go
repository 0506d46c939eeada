package hci

import "time"

// HCI packet indicator bytes [Vol 4, Part A, 2].
const (
	pktTypeCommand uint8 = 0x01
	pktTypeACLData uint8 = 0x02
	pktTypeSCOData uint8 = 0x03
	pktTypeEvent   uint8 = 0x04
	pktTypeVendor  uint8 = 0xFF
)

// maxParamLen is the longest parameter block a Command or Event packet can
// declare; the length field is a single byte.
const maxParamLen = 255

const (
	// defaultCommandTimeout bounds a command for which the caller gave no
	// explicit deadline. Responses are normally fast; expiry indicates a
	// major problem with the controller.
	defaultCommandTimeout = 3 * time.Second

	// initialCredit is the number of commands the host may have in flight
	// before the controller has reported its own limit [Vol 2, Part E, 4.4].
	initialCredit = 1

	sktRxQueueSize = 16
)
