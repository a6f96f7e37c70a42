package xbeeframe

import (
	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// escaped forms of the four bytes that get stuffed: byte^0x20.
const (
	escapedStartDelimiter = StartDelimiter ^ escapeXOR
	escapedEscape         = Escape ^ escapeXOR
	escapedXON            = XON ^ escapeXOR
	escapedXOFF           = XOFF ^ escapeXOR
)

// Decoder reassembles a byte stream into complete, de-escaped XBee frames.
// It holds no knowledge of frame semantics beyond the delimiter, 16-bit
// length, and trailing checksum byte; Parse does the rest. The zero value
// is ready to use.
type Decoder struct {
	log *zap.SugaredLogger

	buffer         []byte
	inEscape       bool
	declaredLength uint16
}

// NewDecoder returns a Decoder that logs dropped/malformed frames under log.
func NewDecoder(log *zap.SugaredLogger) *Decoder {
	return &Decoder{log: log}
}

// Push feeds an inbound chunk of bytes through the decoder. onFrame is
// called synchronously, once per complete frame found in chunk (there may
// be more than one, or none).
func (d *Decoder) Push(chunk []byte, onFrame func(frame []byte)) {
	for _, b := range chunk {
		d.pushByte(b, onFrame)
	}
}

// InProgress reports whether a frame is currently being assembled — it is
// the decoder's only notion of state, and is empty iff no frame is underway.
func (d *Decoder) InProgress() bool {
	return len(d.buffer) != 0
}

func (d *Decoder) pushByte(b byte, onFrame func([]byte)) {
	if len(d.buffer) == 0 {
		if b != StartDelimiter {
			return
		}
		d.append(b, onFrame)
		return
	}

	if d.inEscape {
		switch b {
		case escapedStartDelimiter, escapedEscape, escapedXON, escapedXOFF:
			d.inEscape = false
			d.append(b^escapeXOR, onFrame)
		default:
			if d.log != nil {
				d.log.Warnw("xbee decoder: dropping frame", "error", xgwerr.ErrBadEscape, "byte", b)
			}
			d.reset()
		}
		return
	}

	switch b {
	case Escape:
		d.inEscape = true
	case StartDelimiter:
		if d.log != nil {
			d.log.Warnw("xbee decoder: unexpected start of next frame, dropping in-progress frame")
		}
		d.reset()
		d.append(b, onFrame)
	default:
		d.append(b, onFrame)
	}
}

// append pushes b onto the in-progress buffer and runs the length/
// completion bookkeeping that must happen after every push, regardless of
// which rule produced it.
func (d *Decoder) append(b byte, onFrame func([]byte)) {
	d.buffer = append(d.buffer, b)

	if d.declaredLength == 0 && len(d.buffer) >= 3 {
		d.declaredLength = uint16(d.buffer[1])<<8 | uint16(d.buffer[2])
	}
	if d.declaredLength != 0 && len(d.buffer) == frameSize(d.declaredLength) {
		frame := d.buffer
		d.reset()
		onFrame(frame)
	}
}

func (d *Decoder) reset() {
	d.buffer = nil
	d.inEscape = false
	d.declaredLength = 0
}

func frameSize(declaredLength uint16) int {
	return 1 + 2 + int(declaredLength) + 1
}
