package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pyropy/cstocs/core/chunkserver"
	"github.com/pyropy/cstocs/core/model"
	"github.com/pyropy/cstocs/core/transport"
	"github.com/pyropy/cstocs/lib/checksum"
	"github.com/pyropy/cstocs/rpc/cstocs"
)

// blockSize is the unit chunk parts are counted in.
const blockSize = 64 * 1024

var chunkFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "id",
		Required: true,
		Usage:    "Chunk id, decimal or 0x-prefixed hex",
	},
	&cli.UintFlag{
		Name:  "version",
		Value: 1,
		Usage: "Chunk version",
	},
	&cli.StringFlag{
		Name:  "type",
		Value: "standard",
		Usage: "Chunk part: standard, xor_<part>_of_<level> or xor_parity_of_<level>",
	},
}

func chunkFromFlags(ctx *cli.Context) (model.Chunk, error) {
	id, err := strconv.ParseUint(ctx.String("id"), 0, 64)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("invalid chunk id: %w", err)
	}

	chunkType, err := model.ParseChunkType(ctx.String("type"))
	if err != nil {
		return model.Chunk{}, err
	}

	version, err := toUint32("version", uint64(ctx.Uint("version")))
	if err != nil {
		return model.Chunk{}, err
	}

	return model.Chunk{
		ID:      id,
		Version: version,
		Type:    chunkType,
	}, nil
}

func toUint32(name string, v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("--%s %d does not fit in 32 bits", name, v)
	}

	return uint32(v), nil
}

func toUint16(name string, v uint64) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("--%s %d does not fit in 16 bits", name, v)
	}

	return uint16(v), nil
}

// withPeer dials --peer and runs fn with a context bounded by --timeout.
func withPeer(ctx *cli.Context, fn func(context.Context, *chunkserver.PeerClient, model.Chunk) error) error {
	chunk, err := chunkFromFlags(ctx)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx.Context, ctx.Duration("timeout"))
	defer cancel()

	peer, err := chunkserver.DialPeer(cctx, ctx.String("peer"), transport.Options{})
	if err != nil {
		return err
	}
	defer peer.Close()

	return fn(cctx, peer, chunk)
}

var blocksCmd = &cli.Command{
	Name:  "blocks",
	Usage: "Ask a chunkserver how many blocks of a chunk part it holds",
	Flags: chunkFlags,
	Action: func(ctx *cli.Context) error {
		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			resp, err := peer.GetChunkBlocks(cctx, chunk)
			if err != nil {
				return err
			}

			fmt.Println(chunk, "blocks", resp.Blocks, "status", resp.Status)
			return nil
		})
	},
}

var checksumCmd = &cli.Command{
	Name:  "checksum",
	Usage: "Ask a chunkserver for the checksum of a chunk part",
	Flags: chunkFlags,
	Action: func(ctx *cli.Context) error {
		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			resp, err := peer.GetChunkChecksum(cctx, chunk)
			if err != nil {
				return err
			}

			fmt.Printf("%s checksum %08X status %s\n", chunk, resp.Checksum, resp.Status)
			return nil
		})
	},
}

var testCmd = &cli.Command{
	Name:  "test",
	Usage: "Ask a chunkserver to verify a chunk part",
	Flags: chunkFlags,
	Action: func(ctx *cli.Context) error {
		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			resp, err := peer.TestChunk(cctx, chunk)
			if err != nil {
				return err
			}

			fmt.Println(chunk, "damaged blocks", resp.DamagedBlocks, "status", resp.Status)
			return nil
		})
	},
}

var setVersionCmd = &cli.Command{
	Name:  "set-version",
	Usage: "Move a chunk part to a new version",
	Flags: append([]cli.Flag{
		&cli.UintFlag{
			Name:     "new-version",
			Required: true,
			Usage:    "Version to move the chunk part to",
		},
	}, chunkFlags...),
	Action: func(ctx *cli.Context) error {
		newVersion, err := toUint32("new-version", uint64(ctx.Uint("new-version")))
		if err != nil {
			return err
		}

		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			status, err := peer.SetChunkVersion(cctx, chunk, newVersion)
			if err != nil {
				return err
			}

			fmt.Println(chunk, "status", status)
			return nil
		})
	},
}

var deleteCmd = &cli.Command{
	Name:  "delete",
	Usage: "Delete a chunk part from a chunkserver",
	Flags: chunkFlags,
	Action: func(ctx *cli.Context) error {
		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			status, err := peer.DeleteChunk(cctx, chunk)
			if err != nil {
				return err
			}

			fmt.Println(chunk, "status", status)
			return nil
		})
	},
}

var replicateCmd = &cli.Command{
	Name:  "replicate",
	Usage: "Ask a chunkserver to copy a chunk part from another chunkserver",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Required: true,
			Usage:    "IPv4 address and port of the chunkserver holding the part",
		},
	}, chunkFlags...),
	Action: func(ctx *cli.Context) error {
		source, err := netip.ParseAddrPort(ctx.String("source"))
		if err != nil {
			return err
		}

		return withPeer(ctx, func(cctx context.Context, peer *chunkserver.PeerClient, chunk model.Chunk) error {
			status, err := peer.ReplicateChunk(cctx, chunk, source)
			if err != nil {
				return err
			}

			fmt.Println(chunk, "from", source, "status", status)
			return nil
		})
	},
}

var decodeCmd = &cli.Command{
	Name:      "decode",
	Usage:     "Decode a hex encoded packet, header included",
	ArgsUsage: "<hex>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("expected one hex argument")
		}

		raw, err := hex.DecodeString(strings.Join(strings.Fields(ctx.Args().First()), ""))
		if err != nil {
			return err
		}

		m, err := cstocs.Receive(raw)
		if err != nil {
			return err
		}

		fmt.Printf("%s %+v\n", m.TypeCode(), m)
		return nil
	},
}

var chunkCmd = &cli.Command{
	Name:  "chunk",
	Usage: "Manage the chunk records of a stopped chunkserver",
	Subcommands: []*cli.Command{
		chunkAddCmd,
		chunkListCmd,
	},
}

var chunkAddCmd = &cli.Command{
	Name:  "add",
	Usage: "Add a chunk part record",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "File holding the part data, used to derive blocks and checksum",
		},
		&cli.UintFlag{
			Name:  "blocks",
			Usage: "Number of blocks, when --file is not given",
		},
		&cli.StringFlag{
			Name:  "checksum",
			Value: "0",
			Usage: "Checksum, when --file is not given",
		},
	}, chunkFlags...),
	Action: func(ctx *cli.Context) error {
		chunk, err := chunkFromFlags(ctx)
		if err != nil {
			return err
		}

		rec := chunkserver.ChunkRecord{Chunk: chunk}
		if path := ctx.String("file"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			blocks := (len(data) + blockSize - 1) / blockSize
			if blocks > math.MaxUint16 {
				return fmt.Errorf("%s holds %d blocks, more than a chunk part can", path, blocks)
			}

			rec.Blocks = uint16(blocks)
			rec.Checksum = checksum.CalculateCheckSum(data)
		} else {
			sum, err := strconv.ParseUint(ctx.String("checksum"), 0, 32)
			if err != nil {
				return fmt.Errorf("invalid checksum: %w", err)
			}

			if rec.Blocks, err = toUint16("blocks", uint64(ctx.Uint("blocks"))); err != nil {
				return err
			}
			rec.Checksum = uint32(sum)
		}

		store, err := chunkserver.NewChunkStore(ctx.String("store"), 1)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Put(ctx.Context, rec); err != nil {
			return err
		}

		log.Infow("chunk", "status", "chunk added", "chunk", chunk, "blocks", rec.Blocks)
		return nil
	},
}

var chunkListCmd = &cli.Command{
	Name:  "list",
	Usage: "List all chunk part records",
	Action: func(ctx *cli.Context) error {
		store, err := chunkserver.NewChunkStore(ctx.String("store"), 1)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.All(ctx.Context)
		if err != nil {
			return err
		}

		for _, rec := range records {
			fmt.Printf("%s blocks %d damaged %d checksum %08X\n", rec.Chunk, rec.Blocks, rec.DamagedBlocks, rec.Checksum)
		}

		return nil
	},
}
