// Command client opens a Writer and Reader against a running
// paxoslog cluster and exercises elect/append/read, the way the
// teacher's cmd/client exercised MultiPut/MultiGet against a running
// StorageServer.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/rpc"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/config"
	"github.com/chn0318/paxoslog/coordinator"
	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/replica"
	"github.com/chn0318/paxoslog/rlog"
)

func main() {
	configPath := flag.String("config", "", "path to a paxoslog config file (env PAXOSLOG_* overrides)")
	message := flag.String("message", "hello", "bytes to append")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{Name: "paxoslog-client", Level: hclog.Info})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PID == "" {
		cfg.PID = cfg.ListenAddr
	}

	rep := replica.NewMemory(cfg.PID)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.ListenAddr, "error", err)
		os.Exit(1)
	}
	server := rpc.NewServer()
	_ = server.RegisterName("Acceptor", coordinator.NewAcceptor(rep))
	_ = server.RegisterName("QueryService", replica.NewQueryService(rep))
	go server.Accept(listener)

	transport := network.NewStatic(cfg.Peers)
	log := rlog.Open(rlog.Options{
		Quorum:  cfg.Quorum,
		Replica: rep,
		Network: transport,
		Logger:  logger,
	})
	defer log.Close()

	writer := rlog.NewWriter(log, cfg.ElectionTimeout, cfg.WriterRetries)
	defer writer.Close()

	result := writer.Append([]byte(*message), cfg.ElectionTimeout)
	switch {
	case result.IsOk():
		pos, _ := result.Value()
		fmt.Printf("appended at position %d\n", pos)
	case result.IsNone():
		fmt.Println("append timed out")
	default:
		fmt.Printf("append failed: %v\n", result.Err())
	}

	reader := rlog.NewReader(log)
	defer reader.Close()

	end := reader.Ending()
	if end.IsErr() {
		fmt.Printf("ending failed: %v\n", end.Err())
		return
	}
	ending, _ := end.Value()

	entries := reader.Read(1, ending, 2*time.Second)
	switch {
	case entries.IsOk():
		es, _ := entries.Value()
		for _, e := range es {
			fmt.Printf("%d: %s\n", e.Position, string(e.Bytes))
		}
	case entries.IsNone():
		fmt.Println("read timed out")
	default:
		fmt.Printf("read failed: %v\n", entries.Err())
	}
}
