package xbeeframe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// zbRxFrame is a ZB_RX frame: addr64 0x0013A20040A1B2C3, addr16 0x7D84,
// options 0x01, data "hi".
var zbRxFrame = []byte{
	0x7E, 0x00, 0x0E,
	0x90,
	0x00, 0x13, 0xA2, 0x00, 0x40, 0xA1, 0xB2, 0xC3,
	0x7D, 0x84,
	0x01,
	'h', 'i',
	0x91,
}

func TestParseZBRx(t *testing.T) {
	f, err := Parse(zbRxFrame)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.APIID != APIZBRx {
		t.Fatalf("APIID = 0x%02x, want 0x%02x", f.APIID, APIZBRx)
	}
	if f.Rx == nil {
		t.Fatal("Rx is nil")
	}
	if f.Rx.Addr64Src != 0x0013A20040A1B2C3 {
		t.Errorf("Addr64Src = 0x%016x, want 0x0013a20040a1b2c3", f.Rx.Addr64Src)
	}
	if f.Rx.Addr16Src != 0x7D84 {
		t.Errorf("Addr16Src = 0x%04x, want 0x7d84", f.Rx.Addr16Src)
	}
	if !bytes.Equal(f.Rx.Data, []byte("hi")) {
		t.Errorf("Data = %q, want %q", f.Rx.Data, "hi")
	}
}

func TestParseRejectsBadDelimiter(t *testing.T) {
	buf := append([]byte(nil), zbRxFrame...)
	buf[0] = 0x00
	_, err := Parse(buf)
	if !errors.Is(err, xgwerr.ErrMalformedFrame) {
		t.Fatalf("Parse() error = %v, want ErrMalformedFrame", err)
	}
}

func TestParseRejectsLengthMismatch(t *testing.T) {
	buf := append([]byte(nil), zbRxFrame...)
	buf[2]++ // declare one byte too many
	_, err := Parse(buf)
	if !errors.Is(err, xgwerr.ErrMalformedFrame) {
		t.Fatalf("Parse() error = %v, want ErrMalformedFrame", err)
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	buf := append([]byte(nil), zbRxFrame...)
	buf[len(buf)-1] ^= 0xFF
	_, err := Parse(buf)
	if !errors.Is(err, xgwerr.ErrMalformedFrame) {
		t.Fatalf("Parse() error = %v, want ErrMalformedFrame", err)
	}
}

func TestParseTooShort(t *testing.T) {
	_, err := Parse([]byte{0x7E, 0x00})
	if !errors.Is(err, xgwerr.ErrMalformedFrame) {
		t.Fatalf("Parse() error = %v, want ErrMalformedFrame", err)
	}
}

func TestBuildZBTxReqRoundTrip(t *testing.T) {
	buf, err := BuildZBTxReq(FrameIDNoResponse, 0x0013A20040A1B2C3, Addr16Unknown, RadiusMax, 0, []byte("ping"))
	if err != nil {
		t.Fatalf("BuildZBTxReq() error = %v", err)
	}
	f, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse(built frame) error = %v", err)
	}
	if f.APIID != APIZBTxReq {
		t.Fatalf("APIID = 0x%02x, want 0x%02x", f.APIID, APIZBTxReq)
	}
	if f.TxReq.Addr64Dst != 0x0013A20040A1B2C3 {
		t.Errorf("Addr64Dst = 0x%016x, want 0x0013a20040a1b2c3", f.TxReq.Addr64Dst)
	}
	if f.TxReq.Addr16Dst != Addr16Unknown {
		t.Errorf("Addr16Dst = 0x%04x, want 0x%04x", f.TxReq.Addr16Dst, Addr16Unknown)
	}
	if !bytes.Equal(f.TxReq.Data, []byte("ping")) {
		t.Errorf("Data = %q, want %q", f.TxReq.Data, "ping")
	}
}

func TestEscapeLeavesStartDelimiterAlone(t *testing.T) {
	in := []byte{StartDelimiter, StartDelimiter, Escape, XON, XOFF, 0x41}
	got := Escape(in)
	want := []byte{
		StartDelimiter,
		Escape, StartDelimiter ^ escapeXOR,
		Escape, Escape ^ escapeXOR,
		Escape, XON ^ escapeXOR,
		Escape, XOFF ^ escapeXOR,
		0x41,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Escape() = %x, want %x", got, want)
	}
}

func TestEscapeNoOpWhenNothingToEscape(t *testing.T) {
	in := []byte{StartDelimiter, 0x01, 0x02, 0x03}
	got := Escape(in)
	if !bytes.Equal(got, in) {
		t.Errorf("Escape() = %x, want unchanged %x", got, in)
	}
}
