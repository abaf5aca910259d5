package packet

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the size of the envelope: type code (4 bytes) + payload length (4 bytes).
const HeaderSize = 8

type Header struct {
	Type   uint32
	Length uint32 // payload bytes only
}

// Frame appends header and payload to buf and returns the extended buffer.
func Frame(buf []byte, typeCode uint32, payload []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, typeCode)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

// DecodeHeader reads the envelope at the start of raw without looking at the payload.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, fmt.Errorf("header needs %d bytes, have %d: %w", HeaderSize, len(raw), ErrTruncatedMessage)
	}

	return Header{
		Type:   binary.BigEndian.Uint32(raw[0:4]),
		Length: binary.BigEndian.Uint32(raw[4:8]),
	}, nil
}

// Unframe validates the envelope of a single packet and returns its payload.
// The payload aliases raw.
func Unframe(raw []byte) (Header, []byte, error) {
	hdr, err := DecodeHeader(raw)
	if err != nil {
		return Header{}, nil, err
	}

	body := raw[HeaderSize:]
	if uint64(len(body)) < uint64(hdr.Length) {
		return Header{}, nil, fmt.Errorf("type %d declares %d payload bytes, have %d: %w", hdr.Type, hdr.Length, len(body), ErrTruncatedMessage)
	}
	if uint64(len(body)) > uint64(hdr.Length) {
		return Header{}, nil, fmt.Errorf("type %d declares %d payload bytes, have %d: %w", hdr.Type, hdr.Length, len(body), ErrTrailingData)
	}

	return hdr, body, nil
}

// UnframeExpect is Unframe for call sites that know which packet type must arrive.
func UnframeExpect(raw []byte, typeCode uint32) ([]byte, error) {
	hdr, payload, err := Unframe(raw)
	if err != nil {
		return nil, err
	}

	if hdr.Type != typeCode {
		return nil, fmt.Errorf("expected type %d, got %d: %w", typeCode, hdr.Type, ErrHeaderMismatch)
	}

	return payload, nil
}

// StripHeader removes the envelope in place, leaving only the payload in the
// returned slice. buf must not be used afterwards.
func StripHeader(buf []byte) ([]byte, error) {
	if _, _, err := Unframe(buf); err != nil {
		return nil, err
	}

	n := copy(buf, buf[HeaderSize:])
	return buf[:n], nil
}

// ReadHeader reads one envelope from a stream.
func ReadHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, err
	}

	return DecodeHeader(b[:])
}

// ReadFrame reads one complete packet (header included) from a stream.
// Payloads larger than maxPayload are rejected before anything is allocated.
func ReadFrame(r io.Reader, maxPayload uint32) ([]byte, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if hdr.Length > maxPayload {
		return nil, fmt.Errorf("type %d declares %d payload bytes, limit %d: %w", hdr.Type, hdr.Length, maxPayload, ErrPacketTooLarge)
	}

	buf := make([]byte, HeaderSize+int(hdr.Length))
	binary.BigEndian.PutUint32(buf[0:4], hdr.Type)
	binary.BigEndian.PutUint32(buf[4:8], hdr.Length)

	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading payload of type %d: %w", hdr.Type, err)
	}

	return buf, nil
}
