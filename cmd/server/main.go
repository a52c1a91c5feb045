// Command server hosts one replica of a paxoslog cluster: it exposes
// the Acceptor and QueryService over net/rpc for peers to reach, the
// way the teacher's cmd/server hosted a StorageServer over gRPC.
package main

import (
	"flag"
	"net"
	"net/rpc"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/config"
	"github.com/chn0318/paxoslog/coordinator"
	"github.com/chn0318/paxoslog/replica"
)

func main() {
	configPath := flag.String("config", "", "path to a paxoslog config file (env PAXOSLOG_* overrides)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "paxoslog-server",
		Level: hclog.Info,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PID == "" {
		cfg.PID = cfg.ListenAddr
	}

	var rep replica.Writer
	switch cfg.ReplicaBackend {
	case "scalog":
		rep, err = replica.NewScalog(cfg.PID)
	default:
		rep = replica.NewMemory(cfg.PID)
	}
	if err != nil {
		logger.Error("failed to construct replica backend", "error", err, "backend", cfg.ReplicaBackend)
		os.Exit(1)
	}

	acceptor := coordinator.NewAcceptor(rep)
	query := replica.NewQueryService(rep)

	server := rpc.NewServer()
	if err := server.RegisterName("Acceptor", acceptor); err != nil {
		logger.Error("failed to register Acceptor", "error", err)
		os.Exit(1)
	}
	if err := server.RegisterName("QueryService", query); err != nil {
		logger.Error("failed to register QueryService", "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.ListenAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("replica listening", "pid", cfg.PID, "addr", cfg.ListenAddr, "quorum", cfg.Quorum, "peers", cfg.Peers)
	server.Accept(listener)
}
