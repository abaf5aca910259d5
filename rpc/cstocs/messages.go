package cstocs

import (
	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/lib/packet"
)

// GetChunkBlocks asks a peer how many blocks of a chunk part it holds.
type GetChunkBlocks struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
}

func (m *GetChunkBlocks) TypeCode() TypeCode { return TypeGetChunkBlocks }

func (m *GetChunkBlocks) validate() error { return m.ChunkType.Validate() }

func (m *GetChunkBlocks) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
}

func (m *GetChunkBlocks) decode(r *packet.Reader) (err error) {
	m.ChunkID, m.Version, m.ChunkType, err = readAddress(r)
	return err
}

// GetChunkBlocksStatus answers GetChunkBlocks.
type GetChunkBlocksStatus struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
	Blocks    uint16
	Status    Status
}

func (m *GetChunkBlocksStatus) TypeCode() TypeCode { return TypeGetChunkBlocksStatus }

func (m *GetChunkBlocksStatus) validate() error { return m.ChunkType.Validate() }

func (m *GetChunkBlocksStatus) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
	w.PutUint16(m.Blocks)
	w.PutUint8(uint8(m.Status))
}

func (m *GetChunkBlocksStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, m.Version, m.ChunkType, err = readAddress(r); err != nil {
		return err
	}
	if m.Blocks, err = r.Uint16(); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}

// GetChunkChecksum asks for the checksum a peer keeps for a chunk part.
type GetChunkChecksum struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
}

func (m *GetChunkChecksum) TypeCode() TypeCode { return TypeGetChunkChecksum }

func (m *GetChunkChecksum) validate() error { return m.ChunkType.Validate() }

func (m *GetChunkChecksum) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
}

func (m *GetChunkChecksum) decode(r *packet.Reader) (err error) {
	m.ChunkID, m.Version, m.ChunkType, err = readAddress(r)
	return err
}

type GetChunkChecksumStatus struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
	Checksum  uint32
	Status    Status
}

func (m *GetChunkChecksumStatus) TypeCode() TypeCode { return TypeGetChunkChecksumStatus }

func (m *GetChunkChecksumStatus) validate() error { return m.ChunkType.Validate() }

func (m *GetChunkChecksumStatus) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
	w.PutUint32(m.Checksum)
	w.PutUint8(uint8(m.Status))
}

func (m *GetChunkChecksumStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, m.Version, m.ChunkType, err = readAddress(r); err != nil {
		return err
	}
	if m.Checksum, err = r.Uint32(); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}

// TestChunk asks a peer to verify its copy of a chunk part.
type TestChunk struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
}

func (m *TestChunk) TypeCode() TypeCode { return TypeTestChunk }

func (m *TestChunk) validate() error { return m.ChunkType.Validate() }

func (m *TestChunk) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
}

func (m *TestChunk) decode(r *packet.Reader) (err error) {
	m.ChunkID, m.Version, m.ChunkType, err = readAddress(r)
	return err
}

// TestChunkStatus reports how many blocks failed verification.
type TestChunkStatus struct {
	ChunkID       uint64
	Version       uint32
	ChunkType     model.ChunkType
	DamagedBlocks uint16
	Status        Status
}

func (m *TestChunkStatus) TypeCode() TypeCode { return TypeTestChunkStatus }

func (m *TestChunkStatus) validate() error { return m.ChunkType.Validate() }

func (m *TestChunkStatus) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
	w.PutUint16(m.DamagedBlocks)
	w.PutUint8(uint8(m.Status))
}

func (m *TestChunkStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, m.Version, m.ChunkType, err = readAddress(r); err != nil {
		return err
	}
	if m.DamagedBlocks, err = r.Uint16(); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}

// SetChunkVersion moves a chunk part from Version to NewVersion.
type SetChunkVersion struct {
	ChunkID    uint64
	Version    uint32
	NewVersion uint32
	ChunkType  model.ChunkType
}

func (m *SetChunkVersion) TypeCode() TypeCode { return TypeSetChunkVersion }

func (m *SetChunkVersion) validate() error { return m.ChunkType.Validate() }

func (m *SetChunkVersion) encode(w *packet.Writer) {
	w.PutUint64(m.ChunkID)
	w.PutUint32(m.Version)
	w.PutUint32(m.NewVersion)
	model.PutChunkType(w, m.ChunkType)
}

func (m *SetChunkVersion) decode(r *packet.Reader) (err error) {
	if m.ChunkID, err = r.Uint64(); err != nil {
		return err
	}
	if m.Version, err = r.Uint32(); err != nil {
		return err
	}
	if m.NewVersion, err = r.Uint32(); err != nil {
		return err
	}
	m.ChunkType, err = model.ReadChunkType(r)
	return err
}

type SetChunkVersionStatus struct {
	ChunkID   uint64
	ChunkType model.ChunkType
	Status    Status
}

func (m *SetChunkVersionStatus) TypeCode() TypeCode { return TypeSetChunkVersionStatus }

func (m *SetChunkVersionStatus) validate() error { return m.ChunkType.Validate() }

func (m *SetChunkVersionStatus) encode(w *packet.Writer) {
	w.PutUint64(m.ChunkID)
	model.PutChunkType(w, m.ChunkType)
	w.PutUint8(uint8(m.Status))
}

func (m *SetChunkVersionStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, err = r.Uint64(); err != nil {
		return err
	}
	if m.ChunkType, err = model.ReadChunkType(r); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}

type DeleteChunk struct {
	ChunkID   uint64
	Version   uint32
	ChunkType model.ChunkType
}

func (m *DeleteChunk) TypeCode() TypeCode { return TypeDeleteChunk }

func (m *DeleteChunk) validate() error { return m.ChunkType.Validate() }

func (m *DeleteChunk) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
}

func (m *DeleteChunk) decode(r *packet.Reader) (err error) {
	m.ChunkID, m.Version, m.ChunkType, err = readAddress(r)
	return err
}

type DeleteChunkStatus struct {
	ChunkID   uint64
	ChunkType model.ChunkType
	Status    Status
}

func (m *DeleteChunkStatus) TypeCode() TypeCode { return TypeDeleteChunkStatus }

func (m *DeleteChunkStatus) validate() error { return m.ChunkType.Validate() }

func (m *DeleteChunkStatus) encode(w *packet.Writer) {
	w.PutUint64(m.ChunkID)
	model.PutChunkType(w, m.ChunkType)
	w.PutUint8(uint8(m.Status))
}

func (m *DeleteChunkStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, err = r.Uint64(); err != nil {
		return err
	}
	if m.ChunkType, err = model.ReadChunkType(r); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}

// ReplicateChunk asks a peer to fetch a chunk part from the chunkserver at
// SourceIP:SourcePort.
type ReplicateChunk struct {
	ChunkID    uint64
	Version    uint32
	ChunkType  model.ChunkType
	SourceIP   uint32
	SourcePort uint16
}

func (m *ReplicateChunk) TypeCode() TypeCode { return TypeReplicateChunk }

func (m *ReplicateChunk) validate() error { return m.ChunkType.Validate() }

func (m *ReplicateChunk) encode(w *packet.Writer) {
	putAddress(w, m.ChunkID, m.Version, m.ChunkType)
	w.PutUint32(m.SourceIP)
	w.PutUint16(m.SourcePort)
}

func (m *ReplicateChunk) decode(r *packet.Reader) (err error) {
	if m.ChunkID, m.Version, m.ChunkType, err = readAddress(r); err != nil {
		return err
	}
	if m.SourceIP, err = r.Uint32(); err != nil {
		return err
	}
	m.SourcePort, err = r.Uint16()
	return err
}

type ReplicateChunkStatus struct {
	ChunkID   uint64
	ChunkType model.ChunkType
	Status    Status
}

func (m *ReplicateChunkStatus) TypeCode() TypeCode { return TypeReplicateChunkStatus }

func (m *ReplicateChunkStatus) validate() error { return m.ChunkType.Validate() }

func (m *ReplicateChunkStatus) encode(w *packet.Writer) {
	w.PutUint64(m.ChunkID)
	model.PutChunkType(w, m.ChunkType)
	w.PutUint8(uint8(m.Status))
}

func (m *ReplicateChunkStatus) decode(r *packet.Reader) (err error) {
	if m.ChunkID, err = r.Uint64(); err != nil {
		return err
	}
	if m.ChunkType, err = model.ReadChunkType(r); err != nil {
		return err
	}
	m.Status, err = readStatus(r)
	return err
}
