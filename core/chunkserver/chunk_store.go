package chunkserver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/fxamacker/cbor/v2"
	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	dslvl "github.com/ipfs/go-ds-leveldb"

	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/lib/cache"
)

var (
	ErrChunkDoesNotExist    = errors.New("chunk does not exist")
	ErrChunkVersionMismatch = errors.New("chunk version mismatch")
)

const chunksPrefix = "/chunks"

// ChunkRecord is what a chunkserver knows about one chunk part it holds.
type ChunkRecord struct {
	model.Chunk
	Blocks        uint16
	DamagedBlocks uint16
	Checksum      uint32
}

type storedRecord struct {
	ChunkID       uint64 `cbor:"1,keyasint"`
	Version       uint32 `cbor:"2,keyasint"`
	Kind          uint8  `cbor:"3,keyasint"`
	Level         uint8  `cbor:"4,keyasint,omitempty"`
	Part          uint8  `cbor:"5,keyasint,omitempty"`
	Blocks        uint16 `cbor:"6,keyasint"`
	DamagedBlocks uint16 `cbor:"7,keyasint,omitempty"`
	Checksum      uint32 `cbor:"8,keyasint"`
}

// ChunkStore keeps chunk records in a leveldb datastore with a read-through
// LRU in front of it.
type ChunkStore struct {
	// writers hold it exclusively so a reader never caches a stale record
	mu sync.RWMutex

	Chunks *dslvl.Datastore
	LRU    *cache.LRU[ds.Key, ChunkRecord]
}

func NewChunkStore(path string, cacheSize int) (*ChunkStore, error) {
	store, err := dslvl.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening chunk store %s: %w", path, err)
	}

	return &ChunkStore{
		Chunks: store,
		LRU:    cache.NewLRU[ds.Key, ChunkRecord](cacheSize),
	}, nil
}

func chunkKey(chunkID uint64, chunkType model.ChunkType) ds.Key {
	return ds.NewKey(fmt.Sprintf("%s/%016X/%s", chunksPrefix, chunkID, chunkType))
}

func encodeRecord(rec ChunkRecord) ([]byte, error) {
	return cbor.Marshal(storedRecord{
		ChunkID:       rec.ID,
		Version:       rec.Version,
		Kind:          uint8(rec.Type.Kind()),
		Level:         rec.Type.Level(),
		Part:          rec.Type.Part(),
		Blocks:        rec.Blocks,
		DamagedBlocks: rec.DamagedBlocks,
		Checksum:      rec.Checksum,
	})
}

func decodeRecord(b []byte) (ChunkRecord, error) {
	var s storedRecord
	if err := cbor.Unmarshal(b, &s); err != nil {
		return ChunkRecord{}, fmt.Errorf("decoding chunk record: %w", err)
	}

	chunkType, err := model.NewChunkType(model.ChunkKind(s.Kind), s.Level, s.Part)
	if err != nil {
		return ChunkRecord{}, fmt.Errorf("decoding chunk record %016X: %w", s.ChunkID, err)
	}

	return ChunkRecord{
		Chunk: model.Chunk{
			ID:      s.ChunkID,
			Version: s.Version,
			Type:    chunkType,
		},
		Blocks:        s.Blocks,
		DamagedBlocks: s.DamagedBlocks,
		Checksum:      s.Checksum,
	}, nil
}

// Put creates or replaces the record for rec's chunk part.
func (cs *ChunkStore) Put(ctx context.Context, rec ChunkRecord) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.put(ctx, rec)
}

func (cs *ChunkStore) put(ctx context.Context, rec ChunkRecord) error {
	if err := rec.Type.Validate(); err != nil {
		return err
	}

	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	k := chunkKey(rec.ID, rec.Type)
	if err := cs.Chunks.Put(ctx, k, b); err != nil {
		cs.LRU.Remove(k)
		return err
	}

	cs.LRU.Put(k, rec)
	return nil
}

func (cs *ChunkStore) Get(ctx context.Context, chunkID uint64, chunkType model.ChunkType) (ChunkRecord, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return cs.get(ctx, chunkID, chunkType)
}

func (cs *ChunkStore) get(ctx context.Context, chunkID uint64, chunkType model.ChunkType) (ChunkRecord, error) {
	k := chunkKey(chunkID, chunkType)
	if rec, ok := cs.LRU.Get(k); ok {
		return rec, nil
	}

	b, err := cs.Chunks.Get(ctx, k)
	if errors.Is(err, ds.ErrNotFound) {
		return ChunkRecord{}, ErrChunkDoesNotExist
	}
	if err != nil {
		return ChunkRecord{}, err
	}

	rec, err := decodeRecord(b)
	if err != nil {
		return ChunkRecord{}, err
	}

	cs.LRU.Put(k, rec)
	return rec, nil
}

func (cs *ChunkStore) Has(ctx context.Context, chunkID uint64, chunkType model.ChunkType) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	k := chunkKey(chunkID, chunkType)
	if _, ok := cs.LRU.Get(k); ok {
		return true, nil
	}

	return cs.Chunks.Has(ctx, k)
}

// Delete removes a chunk part held at version.
func (cs *ChunkStore) Delete(ctx context.Context, chunkID uint64, version uint32, chunkType model.ChunkType) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rec, err := cs.get(ctx, chunkID, chunkType)
	if err != nil {
		return err
	}

	if rec.Version != version {
		return ErrChunkVersionMismatch
	}

	k := chunkKey(chunkID, chunkType)
	cs.LRU.Remove(k)
	return cs.Chunks.Delete(ctx, k)
}

// SetVersion moves a chunk part from version to newVersion.
func (cs *ChunkStore) SetVersion(ctx context.Context, chunkID uint64, chunkType model.ChunkType, version, newVersion uint32) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rec, err := cs.get(ctx, chunkID, chunkType)
	if err != nil {
		return err
	}

	if rec.Version != version {
		return ErrChunkVersionMismatch
	}

	rec.Version = newVersion
	return cs.put(ctx, rec)
}

// All returns every record ordered by chunk id, then chunk type.
func (cs *ChunkStore) All(ctx context.Context) ([]ChunkRecord, error) {
	q := dsq.Query{Prefix: chunksPrefix}
	records := make([]ChunkRecord, 0)

	res, err := cs.Chunks.Query(ctx, q)
	if err != nil {
		return records, err
	}
	defer res.Close()

	for {
		r, hasNext := res.NextSync()
		if !hasNext {
			break
		}
		if r.Error != nil {
			return records, r.Error
		}

		rec, err := decodeRecord(r.Value)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b ChunkRecord) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return a.Type.Compare(b.Type)
	})

	return records, nil
}

func (cs *ChunkStore) Close() error {
	return cs.Chunks.Close()
}
