// Package dataunit defines the DataUnit envelope moved between endpoints by
// the router: a payload buffer plus the origin it arrived from (or is bound
// for) and optional source/destination addresses.
package dataunit

import "github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"

// Kind distinguishes the four DataUnit variants the router dispatches on.
// Kind doubles as the router's dispatch key (the original's Networking::Origin
// enum, SERIAL / XBEE_ENCODER / XBEE_NET / TCP) — an encoded outbound frame
// and a decoded inbound one travel through different router actions even
// though both relate to the XBee link, so they get distinct kinds.
type Kind int

const (
	// Serial carries raw inbound bytes from the serial port, unframed.
	Serial Kind = iota
	// XBee carries a decoded inbound XBee frame payload.
	XBee
	// XBeeEncoder carries an encoded, escaped outbound byte stream ready
	// for the serial port.
	XBeeEncoder
	// TCP carries an inbound TCP payload.
	TCP
)

func (k Kind) String() string {
	switch k {
	case Serial:
		return "SERIAL"
	case XBee:
		return "XBEE"
	case XBeeEncoder:
		return "XBEE_ENCODER"
	case TCP:
		return "TCP"
	}
	return "UNKNOWN"
}

// Unit is a payload in transit between components. It has exactly one
// owner at a time; PopData transfers that ownership to the caller and
// leaves the unit's data empty.
type Unit struct {
	kind Kind
	data []byte
	src  *netaddr.Address
	dst  *netaddr.Address
}

// NewSerial wraps raw inbound serial bytes.
func NewSerial(data []byte) *Unit {
	return &Unit{kind: Serial, data: data}
}

// NewXBee wraps a decoded inbound XBee frame payload, tagged with the
// remote device's 64-bit address as its source.
func NewXBee(data []byte, src netaddr.Address) *Unit {
	return &Unit{kind: XBee, data: data, src: &src}
}

// NewXBeeEncoder wraps an encoded, escaped outbound byte stream bound for
// the given remote device.
func NewXBeeEncoder(data []byte, dst netaddr.Address) *Unit {
	return &Unit{kind: XBeeEncoder, data: data, dst: &dst}
}

// NewTCP wraps an inbound TCP payload.
func NewTCP(data []byte, src, dst netaddr.Address) *Unit {
	return &Unit{kind: TCP, data: data, src: &src, dst: &dst}
}

// Kind reports which variant this unit is.
func (u *Unit) Kind() Kind { return u.kind }

// Source returns the unit's source address, if any.
func (u *Unit) Source() (netaddr.Address, bool) {
	if u.src == nil {
		return netaddr.Address{}, false
	}
	return *u.src, true
}

// Destination returns the unit's destination address, if any.
func (u *Unit) Destination() (netaddr.Address, bool) {
	if u.dst == nil {
		return netaddr.Address{}, false
	}
	return *u.dst, true
}

// PopData transfers ownership of the payload to the caller. After PopData
// the unit no longer holds a reference to the data.
func (u *Unit) PopData() []byte {
	d := u.data
	u.data = nil
	return d
}
