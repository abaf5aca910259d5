package chunkserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/core/transport"
	"github.com/pyropy/cstocs/lib/concurrent_map"
	"github.com/pyropy/cstocs/rpc/cstocs"
)

// Server answers cstocs requests from peers out of a ChunkStore.
type Server struct {
	Store *ChunkStore

	log         *zap.SugaredLogger
	opts        transport.Options
	dialTimeout time.Duration

	conns *concurrent_map.Map[uuid.UUID, *transport.Conn]
	wg    sync.WaitGroup
}

func NewServer(store *ChunkStore, log *zap.SugaredLogger, cfg *Config) *Server {
	return &Server{
		Store: store,
		log:   log,
		opts: transport.Options{
			MaxPacketSize: cfg.Peer.MaxPacketSize,
			IOTimeout:     cfg.Peer.IOTimeout,
		},
		dialTimeout: cfg.Peer.DialTimeout,
		conns:       concurrent_map.NewMap[uuid.UUID, *transport.Conn](),
	}
}

// Serve accepts peers on l until ctx is done or accepting fails. Open
// connections are closed and their handlers waited for before it returns.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()

	err := s.accept(ctx, l)

	cancel()
	s.conns.Range(func(_ uuid.UUID, conn *transport.Conn) bool {
		conn.Close()
		return true
	})
	s.wg.Wait()

	return err
}

func (s *Server) accept(ctx context.Context, l net.Listener) error {
	for {
		nc, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		id := uuid.New()
		conn := transport.NewConn(nc, s.opts)
		s.conns.Set(id, conn)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.Delete(id)
			defer conn.Close()

			s.handleConn(ctx, id, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, id uuid.UUID, conn *transport.Conn) {
	log := s.log.With("conn", id, "peer", conn.RemoteAddr())
	log.Infow("conn", "status", "peer connected")

	for {
		raw, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, transport.ErrConnClosed) {
				log.Infow("conn", "status", "peer disconnected")
			} else {
				log.Warnw("conn", "status", "closing connection", "error", err)
			}
			return
		}

		req, err := cstocs.Receive(raw)
		if errors.Is(err, cstocs.ErrUnknownTypeCode) {
			log.Warnw("conn", "status", "skipping packet", "error", err)
			continue
		}
		if err != nil {
			log.Warnw("conn", "status", "closing connection", "error", err)
			return
		}

		resp := s.Handle(ctx, req)
		if resp == nil {
			log.Warnw("conn", "status", "skipping packet", "type", req.TypeCode())
			continue
		}

		log.Infow("rpc", "event", req.TypeCode().String(), "req", req, "resp", resp)

		if err := cstocs.Send(ctx, conn, resp); err != nil {
			log.Warnw("conn", "status", "closing connection", "error", err)
			return
		}
	}
}

// Handle answers one request. It returns nil for response kinds, which a
// server never answers.
func (s *Server) Handle(ctx context.Context, req cstocs.Message) cstocs.Message {
	switch m := req.(type) {
	case *cstocs.GetChunkBlocks:
		resp := &cstocs.GetChunkBlocksStatus{ChunkID: m.ChunkID, Version: m.Version, ChunkType: m.ChunkType}
		rec, status := s.lookup(ctx, m.ChunkID, m.Version, m.ChunkType)
		resp.Blocks, resp.Status = rec.Blocks, status
		return resp

	case *cstocs.GetChunkChecksum:
		resp := &cstocs.GetChunkChecksumStatus{ChunkID: m.ChunkID, Version: m.Version, ChunkType: m.ChunkType}
		rec, status := s.lookup(ctx, m.ChunkID, m.Version, m.ChunkType)
		resp.Checksum, resp.Status = rec.Checksum, status
		return resp

	case *cstocs.TestChunk:
		resp := &cstocs.TestChunkStatus{ChunkID: m.ChunkID, Version: m.Version, ChunkType: m.ChunkType}
		rec, status := s.lookup(ctx, m.ChunkID, m.Version, m.ChunkType)
		resp.DamagedBlocks, resp.Status = rec.DamagedBlocks, status
		if status == cstocs.StatusOK && rec.DamagedBlocks > 0 {
			resp.Status = cstocs.StatusCRC
		}
		return resp

	case *cstocs.SetChunkVersion:
		err := s.Store.SetVersion(ctx, m.ChunkID, m.ChunkType, m.Version, m.NewVersion)
		return &cstocs.SetChunkVersionStatus{ChunkID: m.ChunkID, ChunkType: m.ChunkType, Status: s.status(err)}

	case *cstocs.DeleteChunk:
		err := s.Store.Delete(ctx, m.ChunkID, m.Version, m.ChunkType)
		return &cstocs.DeleteChunkStatus{ChunkID: m.ChunkID, ChunkType: m.ChunkType, Status: s.status(err)}

	case *cstocs.ReplicateChunk:
		status := s.replicate(ctx, model.Chunk{ID: m.ChunkID, Version: m.Version, Type: m.ChunkType}, m.SourceIP, m.SourcePort)
		return &cstocs.ReplicateChunkStatus{ChunkID: m.ChunkID, ChunkType: m.ChunkType, Status: status}
	}

	return nil
}

func (s *Server) lookup(ctx context.Context, chunkID uint64, version uint32, chunkType model.ChunkType) (ChunkRecord, cstocs.Status) {
	rec, err := s.Store.Get(ctx, chunkID, chunkType)
	if err != nil {
		return ChunkRecord{}, s.status(err)
	}
	if rec.Version != version {
		return ChunkRecord{}, cstocs.StatusWrongVersion
	}

	return rec, cstocs.StatusOK
}

func (s *Server) status(err error) cstocs.Status {
	switch {
	case err == nil:
		return cstocs.StatusOK
	case errors.Is(err, ErrChunkDoesNotExist):
		return cstocs.StatusNoChunk
	case errors.Is(err, ErrChunkVersionMismatch):
		return cstocs.StatusWrongVersion
	}

	s.log.Errorw("store", "error", err)
	return cstocs.StatusIO
}

func (s *Server) replicate(ctx context.Context, chunk model.Chunk, ip uint32, port uint16) cstocs.Status {
	has, err := s.Store.Has(ctx, chunk.ID, chunk.Type)
	if err != nil {
		return s.status(err)
	}
	if has {
		return cstocs.StatusChunkExist
	}

	source := UnpackAddr(ip, port).String()
	log := s.log.With("chunk", chunk, "source", source)

	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	defer cancel()

	peer, err := DialPeer(dialCtx, source, s.opts)
	if err != nil {
		log.Warnw("replicate", "error", err)
		return cstocs.StatusCantConnect
	}
	defer peer.Close()

	blocks, err := peer.GetChunkBlocks(ctx, chunk)
	if err != nil {
		log.Warnw("replicate", "error", err)
		return cstocs.StatusDisconnected
	}
	if blocks.Status != cstocs.StatusOK {
		return blocks.Status
	}

	sum, err := peer.GetChunkChecksum(ctx, chunk)
	if err != nil {
		log.Warnw("replicate", "error", err)
		return cstocs.StatusDisconnected
	}
	if sum.Status != cstocs.StatusOK {
		return sum.Status
	}

	err = s.Store.Put(ctx, ChunkRecord{
		Chunk:    chunk,
		Blocks:   blocks.Blocks,
		Checksum: sum.Checksum,
	})
	if err != nil {
		return s.status(err)
	}

	log.Infow("replicate", "status", "chunk replicated", "blocks", blocks.Blocks)
	return cstocs.StatusOK
}
