package model

import (
	"errors"
	"slices"
	"testing"

	"github.com/pyropy/cstocs/lib/packet"
)

func mustXor(t *testing.T, level, part uint8) ChunkType {
	t.Helper()
	ct, err := XorDataChunkType(level, part)
	if err != nil {
		t.Fatalf("XorDataChunkType(%d, %d): %v", level, part, err)
	}
	return ct
}

func mustParity(t *testing.T, level uint8) ChunkType {
	t.Helper()
	ct, err := XorParityChunkType(level)
	if err != nil {
		t.Fatalf("XorParityChunkType(%d): %v", level, err)
	}
	return ct
}

// allChunkTypes returns every valid ChunkType.
func allChunkTypes(t *testing.T) []ChunkType {
	types := []ChunkType{StandardChunkType()}
	for level := uint8(MinXorLevel); level <= MaxXorLevel; level++ {
		types = append(types, mustParity(t, level))
		for part := uint8(1); part <= level; part++ {
			types = append(types, mustXor(t, level, part))
		}
	}
	return types
}

func TestChunkTypeGeometry(t *testing.T) {
	tests := []struct {
		name  string
		build func() (ChunkType, error)
	}{
		{"part zero", func() (ChunkType, error) { return XorDataChunkType(5, 0) }},
		{"part above level", func() (ChunkType, error) { return XorDataChunkType(5, 6) }},
		{"data level too low", func() (ChunkType, error) { return XorDataChunkType(1, 1) }},
		{"data level too high", func() (ChunkType, error) { return XorDataChunkType(MaxXorLevel+1, 1) }},
		{"parity level too low", func() (ChunkType, error) { return XorParityChunkType(1) }},
		{"parity level too high", func() (ChunkType, error) { return XorParityChunkType(MaxXorLevel + 1) }},
		{"parity with part", func() (ChunkType, error) { return NewChunkType(KindXorParity, 3, 1) }},
		{"standard with level", func() (ChunkType, error) { return NewChunkType(KindStandard, 3, 0) }},
		{"unknown kind", func() (ChunkType, error) { return NewChunkType(ChunkKind(9), 3, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := tt.build()
			if !errors.Is(err, ErrInvalidChunkGeometry) {
				t.Errorf("expected ErrInvalidChunkGeometry, got %v", err)
			}
			if ct != (ChunkType{}) {
				t.Errorf("expected zero value on error, got %v", ct)
			}
		})
	}

	t.Run("boundaries", func(t *testing.T) {
		mustXor(t, MinXorLevel, 1)
		mustXor(t, MinXorLevel, MinXorLevel)
		mustXor(t, MaxXorLevel, 1)
		mustXor(t, MaxXorLevel, MaxXorLevel)
		mustParity(t, MinXorLevel)
		mustParity(t, MaxXorLevel)
	})
}

func TestChunkTypeEquality(t *testing.T) {
	if mustXor(t, 5, 2) != mustXor(t, 5, 2) {
		t.Error("equal xor types compare unequal")
	}
	if mustXor(t, 5, 2) == mustXor(t, 5, 3) {
		t.Error("different parts compare equal")
	}
	if mustXor(t, 5, 2) == mustParity(t, 5) {
		t.Error("xor data equals xor parity")
	}
	if StandardChunkType() != (ChunkType{}) {
		t.Error("zero value is not standard")
	}
}

func TestChunkTypeCompare(t *testing.T) {
	want := []ChunkType{
		StandardChunkType(),
		mustXor(t, 2, 1),
		mustXor(t, 2, 2),
		mustXor(t, 3, 1),
		mustParity(t, 2),
		mustParity(t, 3),
	}

	got := []ChunkType{want[5], want[2], want[0], want[4], want[3], want[1]}
	slices.SortFunc(got, ChunkType.Compare)

	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestChunkTypeString(t *testing.T) {
	for _, ct := range allChunkTypes(t) {
		parsed, err := ParseChunkType(ct.String())
		if err != nil {
			t.Fatalf("ParseChunkType(%q): %v", ct, err)
		}
		if parsed != ct {
			t.Errorf("expected %v, got %v", ct, parsed)
		}
	}

	for _, s := range []string{"", "xor", "xor_6_of_5", "xor_1_of_x", "xor_parity_of_1", "replica"} {
		if _, err := ParseChunkType(s); !errors.Is(err, ErrInvalidChunkGeometry) {
			t.Errorf("ParseChunkType(%q): expected ErrInvalidChunkGeometry, got %v", s, err)
		}
	}
}

func TestChunkTypeWire(t *testing.T) {
	t.Run("layout", func(t *testing.T) {
		tests := []struct {
			ct   ChunkType
			want []byte
		}{
			{StandardChunkType(), []byte{0}},
			{mustXor(t, 5, 2), []byte{1, 5, 2}},
			{mustParity(t, 7), []byte{2, 7}},
		}
		for _, tt := range tests {
			w := packet.NewWriter(nil)
			PutChunkType(w, tt.ct)
			if !slices.Equal(w.Bytes(), tt.want) {
				t.Errorf("%v: expected % X, got % X", tt.ct, tt.want, w.Bytes())
			}
		}
	})

	t.Run("round trip", func(t *testing.T) {
		for _, ct := range allChunkTypes(t) {
			w := packet.NewWriter(nil)
			PutChunkType(w, ct)

			r := packet.NewReader(w.Bytes())
			got, err := ReadChunkType(r)
			if err != nil {
				t.Fatalf("%v: %v", ct, err)
			}
			if got != ct {
				t.Errorf("expected %v, got %v", ct, got)
			}
			if err := r.Finish(); err != nil {
				t.Errorf("%v: %v", ct, err)
			}
		}
	})

	t.Run("rejects", func(t *testing.T) {
		tests := []struct {
			name string
			raw  []byte
			want error
		}{
			{"empty", nil, packet.ErrTruncatedMessage},
			{"xor without part", []byte{1, 5}, packet.ErrTruncatedMessage},
			{"parity without level", []byte{2}, packet.ErrTruncatedMessage},
			{"unknown tag", []byte{3, 5, 2}, ErrInvalidChunkGeometry},
			{"part zero", []byte{1, 5, 0}, ErrInvalidChunkGeometry},
			{"part above level", []byte{1, 5, 6}, ErrInvalidChunkGeometry},
			{"level too high", []byte{2, MaxXorLevel + 1}, ErrInvalidChunkGeometry},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := ReadChunkType(packet.NewReader(tt.raw)); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}
