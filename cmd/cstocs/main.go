package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pyropy/cstocs/lib/logger"
)

var log, _ = logger.New("cstocs")

func main() {
	app := &cli.App{
		Name:  "cstocs",
		Usage: "talk to a chunkserver over the chunkserver-to-chunkserver protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "peer",
				Value:   "127.0.0.1:9422",
				Usage:   "Address of the chunkserver to query",
				EnvVars: []string{"CSTOCS_PEER"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Timeout for a single request",
			},
			&cli.StringFlag{
				Name:  "store",
				Value: "chunks",
				Usage: "Path of a local chunk store, for the chunk commands",
			},
		},
		Commands: []*cli.Command{
			blocksCmd,
			checksumCmd,
			testCmd,
			setVersionCmd,
			deleteCmd,
			replicateCmd,
			decodeCmd,
			chunkCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorw("cstocs", "error", err)
		os.Exit(1)
	}
}
