package model

import "fmt"

// Chunk addresses one stored copy of a chunk: which chunk, which version of
// its content, and which part of it.
type Chunk struct {
	ID      uint64
	Version uint32
	Type    ChunkType
}

func (c Chunk) String() string {
	return fmt.Sprintf("%016X:%08X:%s", c.ID, c.Version, c.Type)
}
