package packet

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriterReader(t *testing.T) {
	w := NewWriter(nil)
	w.PutUint8(0xAB)
	w.PutUint16(0xFEED)
	w.PutUint32(0x01234567)
	w.PutUint64(0x0123456789ABCDEF)

	want := []byte{
		0xAB,
		0xFE, 0xED,
		0x01, 0x23, 0x45, 0x67,
		0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("expected % X, got % X", want, w.Bytes())
	}

	r := NewReader(w.Bytes())
	u8, err := r.Uint8()
	if err != nil || u8 != 0xAB {
		t.Errorf("Uint8: got %#x, %v", u8, err)
	}
	u16, err := r.Uint16()
	if err != nil || u16 != 0xFEED {
		t.Errorf("Uint16: got %#x, %v", u16, err)
	}
	u32, err := r.Uint32()
	if err != nil || u32 != 0x01234567 {
		t.Errorf("Uint32: got %#x, %v", u32, err)
	}
	u64, err := r.Uint64()
	if err != nil || u64 != 0x0123456789ABCDEF {
		t.Errorf("Uint64: got %#x, %v", u64, err)
	}
	if err := r.Finish(); err != nil {
		t.Errorf("Finish: %v", err)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.Uint32(); !errors.Is(err, ErrTruncatedMessage) {
		t.Fatalf("expected ErrTruncatedMessage, got %v", err)
	}

	// a failed read does not move the cursor
	if r.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", r.Offset())
	}

	if err := r.Finish(); !errors.Is(err, ErrTrailingData) {
		t.Errorf("expected ErrTrailingData, got %v", err)
	}
}

func TestFrameUnframe(t *testing.T) {
	payload := []byte("payload bytes")
	raw := Frame(nil, 1201, payload)

	if len(raw) != HeaderSize+len(payload) {
		t.Fatalf("expected %d bytes, got %d", HeaderSize+len(payload), len(raw))
	}

	hdr, body, err := Unframe(raw)
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if hdr.Type != 1201 {
		t.Errorf("expected type 1201, got %d", hdr.Type)
	}
	if int(hdr.Length) != len(payload) {
		t.Errorf("expected length %d, got %d", len(payload), hdr.Length)
	}
	if !bytes.Equal(body, payload) {
		t.Errorf("payload mismatch: %q", body)
	}
}

func TestUnframeErrors(t *testing.T) {
	raw := Frame(nil, 7, []byte{1, 2, 3, 4})

	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"empty", nil, ErrTruncatedMessage},
		{"partial header", raw[:5], ErrTruncatedMessage},
		{"partial payload", raw[:len(raw)-1], ErrTruncatedMessage},
		{"extra bytes", append(append([]byte{}, raw...), 0), ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Unframe(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnframeExpect(t *testing.T) {
	raw := Frame(nil, 7, []byte{9})

	if _, err := UnframeExpect(raw, 8); !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("expected ErrHeaderMismatch, got %v", err)
	}

	payload, err := UnframeExpect(raw, 7)
	if err != nil {
		t.Fatalf("UnframeExpect: %v", err)
	}
	if !bytes.Equal(payload, []byte{9}) {
		t.Errorf("unexpected payload % X", payload)
	}
}

func TestBeginEndFrame(t *testing.T) {
	prefix := []byte{0xEE}
	w := NewWriter(prefix)
	w.BeginFrame(42)
	w.PutUint16(0xBEEF)
	w.PutUint8(1)
	w.EndFrame()

	want := Frame([]byte{0xEE}, 42, []byte{0xBE, 0xEF, 1})
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("expected % X, got % X", want, w.Bytes())
	}
}

func TestStripHeader(t *testing.T) {
	buf := Frame(nil, 3, []byte{4, 5, 6})

	payload, err := StripHeader(buf)
	if err != nil {
		t.Fatalf("StripHeader: %v", err)
	}
	if !bytes.Equal(payload, []byte{4, 5, 6}) {
		t.Errorf("unexpected payload % X", payload)
	}

	if _, err := StripHeader([]byte{0, 0, 0, 3, 0, 0, 0, 9}); !errors.Is(err, ErrTruncatedMessage) {
		t.Errorf("expected ErrTruncatedMessage, got %v", err)
	}
}

func TestReadFrame(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(Frame(nil, 1, []byte{1, 2}))
	stream.Write(Frame(nil, 2, nil))
	stream.Write(Frame(nil, 3, make([]byte, 100)))
	stream.Write(Frame(nil, 4, []byte{1, 2, 3})[:9])

	first, err := ReadFrame(&stream, 64)
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if hdr, _, err := Unframe(first); err != nil || hdr.Type != 1 {
		t.Errorf("first frame: %+v %v", hdr, err)
	}

	second, err := ReadFrame(&stream, 64)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if len(second) != HeaderSize {
		t.Errorf("expected empty payload, got %d bytes", len(second)-HeaderSize)
	}

	if _, err := ReadFrame(&stream, 64); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("expected ErrPacketTooLarge, got %v", err)
	}

	// drop the oversized payload the previous call refused to read
	stream.Next(100)

	if _, err := ReadFrame(&stream, 64); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}

	if _, err := ReadFrame(&stream, 64); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
