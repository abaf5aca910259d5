package chunkserver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pyropy/cstocs/core/model"
)

func newTestStore(t *testing.T) *ChunkStore {
	t.Helper()
	store, err := NewChunkStore(filepath.Join(t.TempDir(), "chunks"), 16)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func xorData(t *testing.T, level, part uint8) model.ChunkType {
	t.Helper()
	ct, err := model.XorDataChunkType(level, part)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func xorParity(t *testing.T, level uint8) model.ChunkType {
	t.Helper()
	ct, err := model.XorParityChunkType(level)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func record(id uint64, version uint32, ct model.ChunkType, blocks uint16) ChunkRecord {
	return ChunkRecord{
		Chunk:    model.Chunk{ID: id, Version: version, Type: ct},
		Blocks:   blocks,
		Checksum: uint32(id) ^ version,
	}
}

func TestChunkStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := record(0x0123456789ABCDEF, 7, xorData(t, 5, 2), 1024)
	rec.DamagedBlocks = 2
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, rec.ID, rec.Type)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}

	// bypass the cache to exercise the stored encoding
	store.LRU.Remove(chunkKey(rec.ID, rec.Type))
	got, err = store.Get(ctx, rec.ID, rec.Type)
	if err != nil {
		t.Fatalf("Get uncached: %v", err)
	}
	if got != rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}

	if _, err := store.Get(ctx, rec.ID, xorParity(t, 5)); !errors.Is(err, ErrChunkDoesNotExist) {
		t.Errorf("expected ErrChunkDoesNotExist, got %v", err)
	}

	has, err := store.Has(ctx, rec.ID, rec.Type)
	if err != nil || !has {
		t.Errorf("expected Has true, got %v %v", has, err)
	}
}

func TestChunkStoreSetVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := record(1, 3, model.StandardChunkType(), 10)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := store.SetVersion(ctx, 1, rec.Type, 2, 4); !errors.Is(err, ErrChunkVersionMismatch) {
		t.Errorf("expected ErrChunkVersionMismatch, got %v", err)
	}
	if err := store.SetVersion(ctx, 2, rec.Type, 3, 4); !errors.Is(err, ErrChunkDoesNotExist) {
		t.Errorf("expected ErrChunkDoesNotExist, got %v", err)
	}
	if err := store.SetVersion(ctx, 1, rec.Type, 3, 4); err != nil {
		t.Fatalf("SetVersion: %v", err)
	}

	got, err := store.Get(ctx, 1, rec.Type)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 4 || got.Blocks != 10 {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestChunkStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := record(9, 1, xorParity(t, 3), 5)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, 9, 2, rec.Type); !errors.Is(err, ErrChunkVersionMismatch) {
		t.Errorf("expected ErrChunkVersionMismatch, got %v", err)
	}
	if err := store.Delete(ctx, 9, 1, rec.Type); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, 9, rec.Type); !errors.Is(err, ErrChunkDoesNotExist) {
		t.Errorf("expected ErrChunkDoesNotExist, got %v", err)
	}
	if err := store.Delete(ctx, 9, 1, rec.Type); !errors.Is(err, ErrChunkDoesNotExist) {
		t.Errorf("expected ErrChunkDoesNotExist, got %v", err)
	}
}

func TestChunkStoreAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	want := []ChunkRecord{
		record(1, 1, model.StandardChunkType(), 1),
		record(2, 1, xorData(t, 3, 1), 1),
		record(2, 1, xorData(t, 3, 3), 1),
		record(2, 1, xorParity(t, 3), 1),
		record(300, 9, model.StandardChunkType(), 1),
	}
	for _, i := range []int{4, 2, 0, 3, 1} {
		if err := store.Put(ctx, want[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
