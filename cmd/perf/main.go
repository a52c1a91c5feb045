// Command perf load-generates concurrent appends through a single
// Writer and reports throughput, the same shape as the teacher's
// cmd/perf MultiPut benchmark loop.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/rpc"
	"os"
	"sync"
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
	totalReq := flag.Int("total-requests", 10000, "total number of append requests")
	concurrency := flag.Int("concurrency", 32, "number of concurrent writer goroutines")
	valueSize := flag.Int("value-bytes", 256, "payload size in bytes")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{Name: "paxoslog-perf", Level: hclog.Warn})

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.PID == "" {
		cfg.PID = cfg.ListenAddr
	}

	rep := replica.NewMemory(cfg.PID)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}
	server := rpc.NewServer()
	_ = server.RegisterName("Acceptor", coordinator.NewAcceptor(rep))
	_ = server.RegisterName("QueryService", replica.NewQueryService(rep))
	go server.Accept(listener)

	transport := network.NewStatic(cfg.Peers)
	log := rlog.Open(rlog.Options{Quorum: cfg.Quorum, Replica: rep, Network: transport, Logger: logger})
	defer log.Close()

	writer := rlog.NewWriter(log, cfg.ElectionTimeout, cfg.WriterRetries)
	defer writer.Close()

	value := make([]byte, *valueSize)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Read(value)

	jobs := make(chan struct{}, *totalReq)
	for i := 0; i < *totalReq; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errCount int

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				result := writer.Append(value, cfg.ElectionTimeout)
				if !result.IsOk() {
					mu.Lock()
					errCount++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start).Seconds()

	successes := *totalReq - errCount
	fmt.Printf("total=%d success=%d failed=%d elapsed=%.3fs throughput=%.1f req/s\n",
		*totalReq, successes, errCount, elapsed, float64(successes)/elapsed)
}
