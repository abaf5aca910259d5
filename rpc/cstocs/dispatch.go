package cstocs

import (
	"context"
	"fmt"

	"github.com/pyropy/cstocs/lib/packet"
)

// Transport carries framed packets to and from a single peer.
type Transport interface {
	Send(ctx context.Context, packet []byte) error
	Receive(ctx context.Context) ([]byte, error)
}

// Receive decodes one framed packet into the message kind its type code names.
// Codes outside the catalog fail with ErrUnknownTypeCode before the payload
// is looked at.
func Receive(raw []byte) (Message, error) {
	hdr, payload, err := packet.Unframe(raw)
	if err != nil {
		return nil, err
	}

	m, err := New(TypeCode(hdr.Type))
	if err != nil {
		return nil, err
	}

	if err := decodePayload(payload, m); err != nil {
		return nil, err
	}

	return m, nil
}

// ReceiveExpect is Receive for call sites that know which kind must arrive.
// A different kind fails with packet.ErrHeaderMismatch.
func ReceiveExpect(raw []byte, code TypeCode) (Message, error) {
	hdr, err := packet.DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	if TypeCode(hdr.Type) != code {
		return nil, fmt.Errorf("expected %s, got %s: %w", code, TypeCode(hdr.Type), packet.ErrHeaderMismatch)
	}

	return Receive(raw)
}

// Send serializes m and hands the packet to t.
func Send(ctx context.Context, t Transport, m Message) error {
	buf, err := Serialize(nil, m)
	if err != nil {
		return err
	}

	return t.Send(ctx, buf)
}

// ReceiveFrom reads one packet from t and decodes it.
func ReceiveFrom(ctx context.Context, t Transport) (Message, error) {
	raw, err := t.Receive(ctx)
	if err != nil {
		return nil, err
	}

	return Receive(raw)
}
