package chunkserver

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/core/transport"
	"github.com/pyropy/cstocs/rpc/cstocs"
)

var (
	ErrUnexpectedResponse = errors.New("response does not match request")
	ErrPeerBroken         = errors.New("peer connection broken")
)

// PeerClient issues cstocs requests to another chunkserver. One request is in
// flight at a time. After a failed send or receive the stream position is
// unknown, so the connection is closed and every later call fails with
// ErrPeerBroken.
type PeerClient struct {
	mu     sync.Mutex
	conn   *transport.Conn
	broken error
}

func DialPeer(ctx context.Context, addr string, opts transport.Options) (*PeerClient, error) {
	conn, err := transport.Dial(ctx, addr, opts)
	if err != nil {
		return nil, err
	}

	return NewPeerClient(conn), nil
}

func NewPeerClient(conn *transport.Conn) *PeerClient {
	return &PeerClient{conn: conn}
}

func (c *PeerClient) call(ctx context.Context, req cstocs.Message) (cstocs.Message, error) {
	code, ok := cstocs.ResponseCode(req.TypeCode())
	if !ok {
		return nil, fmt.Errorf("%s is not a request", req.TypeCode())
	}

	buf, err := cstocs.Serialize(nil, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("%w: %w", ErrPeerBroken, c.broken)
	}

	if err := c.conn.Send(ctx, buf); err != nil {
		return nil, c.fail(fmt.Errorf("sending %s: %w", req.TypeCode(), err))
	}

	raw, err := c.conn.Receive(ctx)
	if err != nil {
		return nil, c.fail(fmt.Errorf("receiving %s: %w", code, err))
	}

	return cstocs.ReceiveExpect(raw, code)
}

// fail must be called with mu held.
func (c *PeerClient) fail(err error) error {
	c.broken = err
	c.conn.Close()
	return err
}

func checkAnswer(chunk model.Chunk, chunkID uint64, chunkType model.ChunkType) error {
	if chunkID != chunk.ID || chunkType != chunk.Type {
		return fmt.Errorf("asked for %016X/%s, got %016X/%s: %w", chunk.ID, chunk.Type, chunkID, chunkType, ErrUnexpectedResponse)
	}

	return nil
}

func (c *PeerClient) GetChunkBlocks(ctx context.Context, chunk model.Chunk) (*cstocs.GetChunkBlocksStatus, error) {
	m, err := c.call(ctx, &cstocs.GetChunkBlocks{ChunkID: chunk.ID, Version: chunk.Version, ChunkType: chunk.Type})
	if err != nil {
		return nil, err
	}

	resp := m.(*cstocs.GetChunkBlocksStatus)
	return resp, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

func (c *PeerClient) GetChunkChecksum(ctx context.Context, chunk model.Chunk) (*cstocs.GetChunkChecksumStatus, error) {
	m, err := c.call(ctx, &cstocs.GetChunkChecksum{ChunkID: chunk.ID, Version: chunk.Version, ChunkType: chunk.Type})
	if err != nil {
		return nil, err
	}

	resp := m.(*cstocs.GetChunkChecksumStatus)
	return resp, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

func (c *PeerClient) TestChunk(ctx context.Context, chunk model.Chunk) (*cstocs.TestChunkStatus, error) {
	m, err := c.call(ctx, &cstocs.TestChunk{ChunkID: chunk.ID, Version: chunk.Version, ChunkType: chunk.Type})
	if err != nil {
		return nil, err
	}

	resp := m.(*cstocs.TestChunkStatus)
	return resp, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

func (c *PeerClient) SetChunkVersion(ctx context.Context, chunk model.Chunk, newVersion uint32) (cstocs.Status, error) {
	m, err := c.call(ctx, &cstocs.SetChunkVersion{
		ChunkID:    chunk.ID,
		Version:    chunk.Version,
		NewVersion: newVersion,
		ChunkType:  chunk.Type,
	})
	if err != nil {
		return 0, err
	}

	resp := m.(*cstocs.SetChunkVersionStatus)
	return resp.Status, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

func (c *PeerClient) DeleteChunk(ctx context.Context, chunk model.Chunk) (cstocs.Status, error) {
	m, err := c.call(ctx, &cstocs.DeleteChunk{ChunkID: chunk.ID, Version: chunk.Version, ChunkType: chunk.Type})
	if err != nil {
		return 0, err
	}

	resp := m.(*cstocs.DeleteChunkStatus)
	return resp.Status, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

// ReplicateChunk asks the peer to copy chunk from the chunkserver at source.
func (c *PeerClient) ReplicateChunk(ctx context.Context, chunk model.Chunk, source netip.AddrPort) (cstocs.Status, error) {
	ip, port, err := PackAddr(source)
	if err != nil {
		return 0, err
	}

	m, err := c.call(ctx, &cstocs.ReplicateChunk{
		ChunkID:    chunk.ID,
		Version:    chunk.Version,
		ChunkType:  chunk.Type,
		SourceIP:   ip,
		SourcePort: port,
	})
	if err != nil {
		return 0, err
	}

	resp := m.(*cstocs.ReplicateChunkStatus)
	return resp.Status, checkAnswer(chunk, resp.ChunkID, resp.ChunkType)
}

func (c *PeerClient) Close() error {
	return c.conn.Close()
}
