// Package cstocs is the chunkserver-to-chunkserver protocol: the catalog of
// messages peers exchange about the parts of a chunk they hold, and the
// functions that turn them into framed packets and back.
//
// Every message is sent as
//
//	[type code: uint32][payload length: uint32][payload]
//
// with a payload made of fixed-width fields in a fixed order. The codec is
// stateless and safe for concurrent use as long as buffers are not shared.
package cstocs

import (
	"errors"
	"fmt"

	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/lib/packet"
)

var (
	ErrUnknownTypeCode = errors.New("unknown type code")
)

// Message is implemented by every kind in the catalog.
type Message interface {
	TypeCode() TypeCode

	validate() error
	encode(w *packet.Writer)
	decode(r *packet.Reader) error
}

// Serialize appends m, framed under its type code, to buf.
func Serialize(buf []byte, m Message) ([]byte, error) {
	if err := m.validate(); err != nil {
		return buf, fmt.Errorf("serializing %s: %w", m.TypeCode(), err)
	}

	w := packet.NewWriter(buf)
	w.BeginFrame(uint32(m.TypeCode()))
	m.encode(w)
	w.EndFrame()

	return w.Bytes(), nil
}

// Deserialize decodes a payload with the header already removed into m.
// On error m is left untouched.
func Deserialize[M any, PM interface {
	*M
	Message
}](payload []byte, m PM) error {
	var out M
	if err := decodePayload(payload, PM(&out)); err != nil {
		return err
	}

	*m = out
	return nil
}

func decodePayload(payload []byte, m Message) error {
	r := packet.NewReader(payload)
	if err := m.decode(r); err != nil {
		return fmt.Errorf("deserializing %s: %w", m.TypeCode(), err)
	}
	if err := r.Finish(); err != nil {
		return fmt.Errorf("deserializing %s: %w", m.TypeCode(), err)
	}

	return nil
}

func putAddress(w *packet.Writer, chunkID uint64, version uint32, chunkType model.ChunkType) {
	w.PutUint64(chunkID)
	w.PutUint32(version)
	model.PutChunkType(w, chunkType)
}

func readAddress(r *packet.Reader) (chunkID uint64, version uint32, chunkType model.ChunkType, err error) {
	if chunkID, err = r.Uint64(); err != nil {
		return
	}
	if version, err = r.Uint32(); err != nil {
		return
	}
	chunkType, err = model.ReadChunkType(r)
	return
}

func readStatus(r *packet.Reader) (Status, error) {
	s, err := r.Uint8()
	return Status(s), err
}
