// Package xbeeframe implements the XBee API-mode-2 wire format: byte-stream
// reassembly with escape handling (Decoder), and the frame parser/builder
// with checksum validation (Parse/BuildZBTxReq) plus the escape pass
// applied to anything headed for the wire.
package xbeeframe

import (
	"encoding/binary"
	"fmt"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// Byte constants from the XBee API-mode-2 wire format.
const (
	StartDelimiter byte = 0x7E
	Escape         byte = 0x7D
	XON            byte = 0x11
	XOFF           byte = 0x13

	escapeXOR byte = 0x20
)

// API frame type identifiers this gateway understands. Anything else is
// still segmented and checksum-validated, just not decoded past its
// header.
const (
	APIZBTxReq byte = 0x10
	APIZBRx    byte = 0x90
)

// ZBTxReq is the per-field layout of a ZB_TX_REQ (0x10) frame.
type ZBTxReq struct {
	FrameID   byte
	Addr64Dst uint64
	Addr16Dst uint16
	Radius    byte
	Options   byte
	Data      []byte
}

// ZBRx is the per-field layout of a ZB_RX (0x90) frame.
type ZBRx struct {
	Addr64Src uint64
	Addr16Src uint16
	Options   byte
	Data      []byte
}

// Frame is the result of parsing a de-escaped, checksum-verified buffer.
// TxReq and Rx are populated only when APIID matches; for unrecognized
// api_ids Data holds the bytes following the api_id byte and TxReq/Rx stay
// nil.
type Frame struct {
	APIID byte
	TxReq *ZBTxReq
	Rx    *ZBRx
	Data  []byte
}

// NO_RSP and the "unknown" 16-bit address, used when building outbound
// transmit-request frames (spec: frame_id=NO_RSP, addr16_dst=unknown,
// radius=0, options=0).
const (
	FrameIDNoResponse byte   = 0x00
	Addr16Unknown     uint16 = 0xFFFE
	RadiusMax         byte   = 0x00
)

// Parse validates and decodes a complete, de-escaped frame buffer
// (delimiter + length + payload + checksum, as produced by Decoder).
func Parse(buf []byte) (*Frame, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: frame too short (%d bytes)", xgwerr.ErrMalformedFrame, len(buf))
	}
	if buf[0] != StartDelimiter {
		return nil, fmt.Errorf("%w: bad start delimiter 0x%02x", xgwerr.ErrMalformedFrame, buf[0])
	}
	length := binary.BigEndian.Uint16(buf[1:3])
	if len(buf) != int(length)+4 {
		return nil, fmt.Errorf("%w: declared length %d does not match buffer size %d", xgwerr.ErrMalformedFrame, length, len(buf))
	}
	payload := buf[3 : 3+int(length)]
	checksum := buf[3+int(length)]
	if !validChecksum(payload, checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", xgwerr.ErrMalformedFrame)
	}

	apiID := payload[0]
	rest := payload[1:]
	f := &Frame{APIID: apiID}
	switch apiID {
	case APIZBTxReq:
		if len(rest) < 13 {
			return nil, fmt.Errorf("%w: short ZB_TX_REQ payload (%d bytes)", xgwerr.ErrMalformedFrame, len(rest))
		}
		f.TxReq = &ZBTxReq{
			FrameID:   rest[0],
			Addr64Dst: binary.BigEndian.Uint64(rest[1:9]),
			Addr16Dst: binary.BigEndian.Uint16(rest[9:11]),
			Radius:    rest[11],
			Options:   rest[12],
			Data:      rest[13:],
		}
	case APIZBRx:
		if len(rest) < 11 {
			return nil, fmt.Errorf("%w: short ZB_RX payload (%d bytes)", xgwerr.ErrMalformedFrame, len(rest))
		}
		f.Rx = &ZBRx{
			Addr64Src: binary.BigEndian.Uint64(rest[0:8]),
			Addr16Src: binary.BigEndian.Uint16(rest[8:10]),
			Options:   rest[10],
			Data:      rest[11:],
		}
	default:
		f.Data = rest
	}
	return f, nil
}

// BuildZBTxReq encodes a ZB_TX_REQ frame (unescaped) per spec: frame_id,
// addr64_dst, addr16_dst, radius, options, then data, followed by the
// checksum byte. The start delimiter is never escaped by this function —
// call Escape on the result before writing it to the wire.
func BuildZBTxReq(frameID byte, addr64Dst uint64, addr16Dst uint16, radius, options byte, data []byte) ([]byte, error) {
	payloadLen := 1 + 1 + 8 + 2 + 1 + 1 + len(data)
	if payloadLen > 0xFFFF {
		return nil, fmt.Errorf("%w: payload too large (%d bytes)", xgwerr.ErrMalformedFrame, payloadLen)
	}

	buf := make([]byte, 3, 4+payloadLen)
	buf[0] = StartDelimiter
	binary.BigEndian.PutUint16(buf[1:3], uint16(payloadLen))

	buf = append(buf, APIZBTxReq, frameID)
	buf = appendUint64(buf, addr64Dst)
	buf = appendUint16(buf, addr16Dst)
	buf = append(buf, radius, options)
	buf = append(buf, data...)

	checksum := computeChecksum(buf[3:])
	buf = append(buf, checksum)
	return buf, nil
}

// Escape applies the API-mode-2 byte-stuffing pass: every occurrence of
// StartDelimiter, Escape, XON, or XOFF at index > 0 is replaced by the two
// bytes Escape, byte^0x20. The start delimiter at index 0 is never escaped.
func Escape(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for i, b := range buf {
		if i > 0 && needsEscape(b) {
			out = append(out, Escape, b^escapeXOR)
			continue
		}
		out = append(out, b)
	}
	return out
}

func needsEscape(b byte) bool {
	switch b {
	case StartDelimiter, Escape, XON, XOFF:
		return true
	default:
		return false
	}
}

func validChecksum(payload []byte, checksum byte) bool {
	return computeChecksum(payload) == checksum
}

// computeChecksum returns 0xFF - (sum of payload bytes mod 256).
func computeChecksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return 0xFF - sum
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}
