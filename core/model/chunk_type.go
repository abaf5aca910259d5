package model

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pyropy/cstocs/lib/packet"
)

// ChunkKind is the wire discriminant of a ChunkType.
type ChunkKind uint8

const (
	KindStandard ChunkKind = iota
	KindXorData
	KindXorParity
)

const (
	MinXorLevel = 2
	MaxXorLevel = 10
)

var (
	ErrInvalidChunkGeometry = errors.New("invalid chunk geometry")
)

// ChunkType says which part of a chunk a copy holds: a whole replica, one
// numbered XOR data part, or the XOR parity part. The zero value is Standard.
type ChunkType struct {
	kind  ChunkKind
	level uint8
	part  uint8
}

func StandardChunkType() ChunkType {
	return ChunkType{}
}

// XorDataChunkType returns data part `part` (1-indexed) of a chunk split into `level` parts.
func XorDataChunkType(level, part uint8) (ChunkType, error) {
	return NewChunkType(KindXorData, level, part)
}

func XorParityChunkType(level uint8) (ChunkType, error) {
	return NewChunkType(KindXorParity, level, 0)
}

// NewChunkType builds a ChunkType from its raw fields. Fields a kind does not
// use must be zero.
func NewChunkType(kind ChunkKind, level, part uint8) (ChunkType, error) {
	t := ChunkType{kind: kind, level: level, part: part}
	if err := t.Validate(); err != nil {
		return ChunkType{}, err
	}

	return t, nil
}

// Validate checks the geometry invariants of t.
func (t ChunkType) Validate() error {
	switch t.kind {
	case KindStandard:
		if t.level != 0 || t.part != 0 {
			return fmt.Errorf("standard type with level %d part %d: %w", t.level, t.part, ErrInvalidChunkGeometry)
		}
	case KindXorData:
		if err := validateLevel(t.level); err != nil {
			return err
		}
		if t.part < 1 || t.part > t.level {
			return fmt.Errorf("xor part %d outside 1..%d: %w", t.part, t.level, ErrInvalidChunkGeometry)
		}
	case KindXorParity:
		if err := validateLevel(t.level); err != nil {
			return err
		}
		if t.part != 0 {
			return fmt.Errorf("xor parity with part %d: %w", t.part, ErrInvalidChunkGeometry)
		}
	default:
		return fmt.Errorf("unknown chunk kind %d: %w", t.kind, ErrInvalidChunkGeometry)
	}

	return nil
}

func validateLevel(level uint8) error {
	if level < MinXorLevel || level > MaxXorLevel {
		return fmt.Errorf("xor level %d outside %d..%d: %w", level, MinXorLevel, MaxXorLevel, ErrInvalidChunkGeometry)
	}

	return nil
}

func (t ChunkType) Kind() ChunkKind { return t.kind }

// Level is the number of data parts, 0 for Standard.
func (t ChunkType) Level() uint8 { return t.level }

// Part is the 1-indexed data part, 0 unless the type is XorData.
func (t ChunkType) Part() uint8 { return t.part }

func (t ChunkType) IsStandard() bool  { return t.kind == KindStandard }
func (t ChunkType) IsXor() bool       { return t.kind == KindXorData }
func (t ChunkType) IsXorParity() bool { return t.kind == KindXorParity }

// Compare orders by kind, then level, then part.
func (t ChunkType) Compare(other ChunkType) int {
	if c := cmp.Compare(t.kind, other.kind); c != 0 {
		return c
	}
	if c := cmp.Compare(t.level, other.level); c != 0 {
		return c
	}

	return cmp.Compare(t.part, other.part)
}

func (t ChunkType) String() string {
	switch t.kind {
	case KindStandard:
		return "standard"
	case KindXorData:
		return fmt.Sprintf("xor_%d_of_%d", t.part, t.level)
	case KindXorParity:
		return fmt.Sprintf("xor_parity_of_%d", t.level)
	}

	return fmt.Sprintf("invalid(%d,%d,%d)", t.kind, t.level, t.part)
}

// ParseChunkType is the inverse of String.
func ParseChunkType(s string) (ChunkType, error) {
	if s == "standard" {
		return StandardChunkType(), nil
	}

	if rest, ok := strings.CutPrefix(s, "xor_parity_of_"); ok {
		level, err := parseLevel(rest)
		if err != nil {
			return ChunkType{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		return XorParityChunkType(level)
	}

	if rest, ok := strings.CutPrefix(s, "xor_"); ok {
		partStr, levelStr, found := strings.Cut(rest, "_of_")
		if !found {
			return ChunkType{}, fmt.Errorf("parsing %q: %w", s, ErrInvalidChunkGeometry)
		}
		part, err := parseLevel(partStr)
		if err != nil {
			return ChunkType{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		level, err := parseLevel(levelStr)
		if err != nil {
			return ChunkType{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		return XorDataChunkType(level, part)
	}

	return ChunkType{}, fmt.Errorf("parsing %q: %w", s, ErrInvalidChunkGeometry)
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrInvalidChunkGeometry
	}

	return uint8(v), nil
}

// PutChunkType writes [kind][level unless Standard][part only for XorData].
func PutChunkType(w *packet.Writer, t ChunkType) {
	w.PutUint8(uint8(t.kind))

	switch t.kind {
	case KindXorData:
		w.PutUint8(t.level)
		w.PutUint8(t.part)
	case KindXorParity:
		w.PutUint8(t.level)
	}
}

// ReadChunkType decodes a ChunkType written by PutChunkType.
func ReadChunkType(r *packet.Reader) (ChunkType, error) {
	tag, err := r.Uint8()
	if err != nil {
		return ChunkType{}, err
	}

	kind := ChunkKind(tag)
	var level, part uint8

	switch kind {
	case KindStandard:
	case KindXorData:
		if level, err = r.Uint8(); err != nil {
			return ChunkType{}, err
		}
		if part, err = r.Uint8(); err != nil {
			return ChunkType{}, err
		}
	case KindXorParity:
		if level, err = r.Uint8(); err != nil {
			return ChunkType{}, err
		}
	default:
		return ChunkType{}, fmt.Errorf("unknown chunk kind tag %d: %w", tag, ErrInvalidChunkGeometry)
	}

	return NewChunkType(kind, level, part)
}
