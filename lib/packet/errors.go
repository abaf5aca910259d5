package packet

import "errors"

var (
	ErrTruncatedMessage = errors.New("truncated message")
	ErrTrailingData     = errors.New("trailing data after message")
	ErrHeaderMismatch   = errors.New("unexpected packet type")
	ErrPacketTooLarge   = errors.New("packet exceeds maximum size")
)
