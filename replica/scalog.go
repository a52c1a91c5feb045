package replica

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chn0318/paxoslog/action"
	"github.com/chn0318/scalog/client"
	"github.com/chn0318/scalog/pkg/address"
	"github.com/spf13/viper"
)

// wireAction is the on-the-wire encoding of an action.Action appended
// to the underlying Scalog log. Scalog assigns and durably replicates
// the (gsn, shard) pair itself, so Performed/Learned are implicit:
// once AppendOne returns without error the record is quorum-committed.
type wireAction struct {
	Type        action.Type
	AppendBytes []byte
	TruncateTo  uint64
}

// Scalog is a Writer backed by a github.com/chn0318/scalog cluster,
// generalized from the teacher's sharedlog/scalog.ScalogSystem: instead
// of marshalling sharedlog.DataRecord/CommitRecord, it marshals
// action.Action, and instead of a (GSN, ShardID) sharedlog.RecordRef it
// exposes the single linear Position space the log façade requires by
// treating Scalog's global sequence number directly as Position
// (shard 0 only, matching the teacher's own single-shard deployment).
type Scalog struct {
	pid string

	clients []*client.Client
	mu      sync.Mutex
	next    int

	local sync.RWMutex
	// beginning mirrors the latest learned Truncate action; Scalog has
	// no native truncation so we track it here.
	beginning uint64
}

// NewScalog constructs a Scalog-backed replica, reading cluster
// topology from Viper the same way the teacher's NewScalogSystem does.
func NewScalog(pid string) (*Scalog, error) {
	numReplica := int32(viper.GetInt("data-replication-factor"))
	discPort := uint16(viper.GetInt("disc-port"))
	discIP := viper.GetString("disc-ip")
	discAddr := address.NewGeneralDiscAddr(discIP, discPort)
	dataPort := uint16(viper.GetInt("data-port"))
	dataAddr := address.NewGeneralDataAddr("data-%v-%v-ip", numReplica, dataPort)

	numClients := viper.GetInt("scalog-num-clients")
	if numClients <= 0 {
		numClients = 4
	}

	clients := make([]*client.Client, 0, numClients)
	for i := 0; i < numClients; i++ {
		c, err := client.NewClient(dataAddr, discAddr, numReplica)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return &Scalog{
		pid:       pid,
		clients:   clients,
		beginning: 1,
	}, nil
}

func (s *Scalog) pickClient() *client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.clients[s.next]
	s.next = (s.next + 1) % len(s.clients)
	return c
}

func (s *Scalog) PID() string { return s.pid }

func (s *Scalog) Beginning(ctx context.Context) (uint64, error) {
	s.local.RLock()
	defer s.local.RUnlock()
	return s.beginning, nil
}

// Ending observes the log's current tail. The scalog client exposes no
// dedicated metadata/tail query, and probing with a throwaway append
// would permanently write a phantom record on every call — Ending is
// documented as a read, so it must not mutate the log it's reading.
// Until the client offers a real read-only tail query, this backend
// surfaces that gap instead of papering over it with a write.
func (s *Scalog) Ending(ctx context.Context) (uint64, error) {
	return 0, ErrNoTailQuery
}

func (s *Scalog) Read(ctx context.Context, from, to uint64) ([]action.Action, error) {
	if to < from {
		return nil, nil
	}

	s.local.RLock()
	beginning := s.beginning
	s.local.RUnlock()

	out := make([]action.Action, 0, to-from+1)
	for p := from; p <= to; p++ {
		if p < beginning {
			out = append(out, action.Missing(p))
			continue
		}
		a, err := s.readOne(p)
		if err != nil {
			out = append(out, action.Missing(p))
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Scalog) readOne(pos uint64) (action.Action, error) {
	c := s.pickClient()
	data, err := c.Read(int64(pos), 0, 0)
	if err != nil {
		return action.Action{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var w wireAction
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return action.Action{}, err
	}
	return action.Action{
		Position:    pos,
		Type:        w.Type,
		AppendBytes: w.AppendBytes,
		TruncateTo:  w.TruncateTo,
		Performed:   true,
		Learned:     true,
	}, nil
}

func (s *Scalog) Append(ctx context.Context, bytes []byte) (action.Action, error) {
	return s.appendWire(wireAction{Type: action.Append, AppendBytes: bytes})
}

func (s *Scalog) Truncate(ctx context.Context, to uint64) (action.Action, error) {
	a, err := s.appendWire(wireAction{Type: action.Truncate, TruncateTo: to})
	if err != nil {
		return action.Action{}, err
	}
	s.local.Lock()
	if to+1 > s.beginning {
		s.beginning = to + 1
	}
	s.local.Unlock()
	return a, nil
}

func (s *Scalog) appendWire(w wireAction) (action.Action, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return action.Action{}, err
	}

	c := s.pickClient()
	gsn, _, err := c.AppendOne(string(data))
	if err != nil {
		return action.Action{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return action.Action{
		Position:    uint64(gsn),
		Type:        w.Type,
		AppendBytes: w.AppendBytes,
		TruncateTo:  w.TruncateTo,
		Performed:   true,
		Learned:     true,
	}, nil
}

// Learn is a no-op: Scalog's AppendOne only returns once the record is
// quorum-committed, so every action this backend produces is already
// learned.
func (s *Scalog) Learn(ctx context.Context, pos uint64) error {
	return nil
}

// Install is a no-op that stores nothing and returns nil: Scalog owns
// position assignment end to end, so Recovery has nothing to backfill
// locally when this backend is in use (the cluster itself is already
// the single source of truth).
func (s *Scalog) Install(ctx context.Context, a action.Action) error {
	return nil
}
