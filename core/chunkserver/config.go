package chunkserver

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
		Port int    `envconfig:"SERVER_PORT" default:"9422"`
	}
	Chunks struct {
		Path      string `envconfig:"CHUNK_PATH" default:"chunks"`
		CacheSize int    `envconfig:"CHUNK_CACHE_SIZE" default:"1024"`
	}
	Peer struct {
		DialTimeout   time.Duration `envconfig:"PEER_DIAL_TIMEOUT" default:"5s"`
		IOTimeout     time.Duration `envconfig:"PEER_IO_TIMEOUT" default:"30s"`
		MaxPacketSize uint32        `envconfig:"PEER_MAX_PACKET_SIZE" default:"65536"`
	}
	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
	}
}

func GetConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
