package cstocs

import "fmt"

// TypeCode identifies a message kind on the wire.
type TypeCode uint32

// Type codes are cluster-wide constants. Append new kinds at the end, never
// renumber or reuse a code.
const (
	TypeGetChunkBlocks         TypeCode = 1200
	TypeGetChunkBlocksStatus   TypeCode = 1201
	TypeGetChunkChecksum       TypeCode = 1202
	TypeGetChunkChecksumStatus TypeCode = 1203
	TypeTestChunk              TypeCode = 1204
	TypeTestChunkStatus        TypeCode = 1205
	TypeSetChunkVersion        TypeCode = 1206
	TypeSetChunkVersionStatus  TypeCode = 1207
	TypeDeleteChunk            TypeCode = 1208
	TypeDeleteChunkStatus      TypeCode = 1209
	TypeReplicateChunk         TypeCode = 1210
	TypeReplicateChunkStatus   TypeCode = 1211
)

type kind struct {
	name     string
	new      func() Message
	response TypeCode // zero for response kinds
}

// registry is the only place a type code is bound to a message kind. Both
// Serialize (through Message.TypeCode) and Receive resolve codes here.
var registry = map[TypeCode]kind{
	TypeGetChunkBlocks: {
		name:     "GET_CHUNK_BLOCKS",
		new:      func() Message { return &GetChunkBlocks{} },
		response: TypeGetChunkBlocksStatus,
	},
	TypeGetChunkBlocksStatus: {
		name: "GET_CHUNK_BLOCKS_STATUS",
		new:  func() Message { return &GetChunkBlocksStatus{} },
	},
	TypeGetChunkChecksum: {
		name:     "GET_CHUNK_CHECKSUM",
		new:      func() Message { return &GetChunkChecksum{} },
		response: TypeGetChunkChecksumStatus,
	},
	TypeGetChunkChecksumStatus: {
		name: "GET_CHUNK_CHECKSUM_STATUS",
		new:  func() Message { return &GetChunkChecksumStatus{} },
	},
	TypeTestChunk: {
		name:     "TEST_CHUNK",
		new:      func() Message { return &TestChunk{} },
		response: TypeTestChunkStatus,
	},
	TypeTestChunkStatus: {
		name: "TEST_CHUNK_STATUS",
		new:  func() Message { return &TestChunkStatus{} },
	},
	TypeSetChunkVersion: {
		name:     "SET_CHUNK_VERSION",
		new:      func() Message { return &SetChunkVersion{} },
		response: TypeSetChunkVersionStatus,
	},
	TypeSetChunkVersionStatus: {
		name: "SET_CHUNK_VERSION_STATUS",
		new:  func() Message { return &SetChunkVersionStatus{} },
	},
	TypeDeleteChunk: {
		name:     "DELETE_CHUNK",
		new:      func() Message { return &DeleteChunk{} },
		response: TypeDeleteChunkStatus,
	},
	TypeDeleteChunkStatus: {
		name: "DELETE_CHUNK_STATUS",
		new:  func() Message { return &DeleteChunkStatus{} },
	},
	TypeReplicateChunk: {
		name:     "REPLICATE_CHUNK",
		new:      func() Message { return &ReplicateChunk{} },
		response: TypeReplicateChunkStatus,
	},
	TypeReplicateChunkStatus: {
		name: "REPLICATE_CHUNK_STATUS",
		new:  func() Message { return &ReplicateChunkStatus{} },
	},
}

// Known reports whether code belongs to the catalog.
func Known(code TypeCode) bool {
	_, ok := registry[code]
	return ok
}

// New returns an empty message of the given kind.
func New(code TypeCode) (Message, error) {
	k, ok := registry[code]
	if !ok {
		return nil, fmt.Errorf("type code %d: %w", uint32(code), ErrUnknownTypeCode)
	}

	return k.new(), nil
}

// ResponseCode returns the code a peer answers a request of kind code with.
// ok is false for response kinds and unknown codes.
func ResponseCode(code TypeCode) (TypeCode, bool) {
	k, ok := registry[code]
	if !ok || k.response == 0 {
		return 0, false
	}

	return k.response, true
}

func (c TypeCode) String() string {
	if k, ok := registry[c]; ok {
		return k.name
	}

	return fmt.Sprintf("UNKNOWN(%d)", uint32(c))
}
