// Package packet implements the fixed-width primitives and the common
// (type, length, payload) envelope shared by every protocol message.
// All integers are big-endian.
package packet

import "encoding/binary"

// Writer appends wire values to a growable buffer. Appending never fails.
type Writer struct {
	buf []byte

	// offset of the header opened by BeginFrame, -1 when none is open
	frameStart int
}

// NewWriter returns a Writer appending to buf. buf may be nil.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf, frameStart: -1}
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutUint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

// BeginFrame writes a header for typeCode with a placeholder length.
// Everything appended until EndFrame becomes the payload.
func (w *Writer) BeginFrame(typeCode uint32) {
	w.frameStart = len(w.buf)
	w.PutUint32(typeCode)
	w.PutUint32(0)
}

// EndFrame patches the length of the header opened by BeginFrame.
func (w *Writer) EndFrame() {
	if w.frameStart < 0 {
		panic("packet: EndFrame without BeginFrame")
	}

	payloadLen := len(w.buf) - w.frameStart - HeaderSize
	binary.BigEndian.PutUint32(w.buf[w.frameStart+4:], uint32(payloadLen))
	w.frameStart = -1
}

// Len returns the number of bytes in the buffer.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the buffer, including anything that was in it before.
func (w *Writer) Bytes() []byte {
	return w.buf
}
