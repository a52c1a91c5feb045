// Package config centralizes the Viper-backed configuration every
// cmd/ entrypoint reads, the way the teacher's
// sharedlog/scalog.NewScalogSystem reads "data-replication-factor",
// "disc-ip", etc. directly off a shared Viper instance.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the bootstrap configuration for one replica process.
type Config struct {
	// PID is this replica's network identity, advertised to the
	// naming service and used to seed its Paxos ballot NodeID.
	PID string

	// Quorum is the minimum number of replicas (including self)
	// required to commit an action.
	Quorum int

	// Peers are the other replicas' net/rpc addresses.
	Peers []string

	// ReplicaBackend selects which replica.Writer implementation to
	// construct: "memory" (default) or "scalog".
	ReplicaBackend string

	// ElectionTimeout bounds each Writer election round trip.
	ElectionTimeout time.Duration
	// WriterRetries is how many times the election loop retries a
	// timed-out or lost election before giving up.
	WriterRetries int

	// ListenAddr is where this replica's Acceptor/QueryService listen
	// for peer RPCs.
	ListenAddr string
}

// Load reads configuration from path (if non-empty) and the
// "PAXOSLOG_"-prefixed environment, the same two sources the teacher
// wires through Viper, falling back to the SetDefault values below for
// anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("paxoslog")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("quorum", 1)
	v.SetDefault("replica-backend", "memory")
	v.SetDefault("election-timeout", "2s")
	v.SetDefault("writer-retries", 3)
	v.SetDefault("listen-addr", ":7070")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	electionTimeout, err := time.ParseDuration(v.GetString("election-timeout"))
	if err != nil {
		return nil, fmt.Errorf("config: parsing election-timeout: %w", err)
	}

	return &Config{
		PID:              v.GetString("pid"),
		Quorum:           v.GetInt("quorum"),
		Peers:            v.GetStringSlice("peers"),
		ReplicaBackend:   v.GetString("replica-backend"),
		ElectionTimeout:  electionTimeout,
		WriterRetries:    v.GetInt("writer-retries"),
		ListenAddr:       v.GetString("listen-addr"),
	}, nil
}
