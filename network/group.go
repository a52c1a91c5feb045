package network

import (
	"context"
	"sync"
)

// StaticGroup is an in-memory Group, standing in for a real naming
// service (the distilled spec's ZooKeeperNetwork) for tests and single-
// process demos. No external client library for a strongly-consistent
// membership service is available in this module's dependency surface
// (see DESIGN.md), so this is the only bundled Group implementation;
// production deployments supply their own via the Group interface.
type StaticGroup struct {
	mu      sync.Mutex
	members []Membership
	nextID  int64
	watchCh chan struct{}
}

// NewStaticGroup returns an empty membership group.
func NewStaticGroup() *StaticGroup {
	return &StaticGroup{watchCh: make(chan struct{})}
}

func (g *StaticGroup) Join(ctx context.Context, identity string) (Membership, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	m := Membership{PID: identity, ID: g.nextID}
	g.members = append(g.members, m)
	g.notifyLocked()
	return m, nil
}

// Leave removes a membership previously returned by Join, simulating a
// peer departing the cluster so the LogActor's watch/rejoin loop has
// something to react to in tests.
func (g *StaticGroup) Leave(m Membership) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := g.members[:0]
	for _, existing := range g.members {
		if existing.ID != m.ID {
			out = append(out, existing)
		}
	}
	g.members = out
	g.notifyLocked()
}

func (g *StaticGroup) notifyLocked() {
	close(g.watchCh)
	g.watchCh = make(chan struct{})
}

// Watch blocks until the membership set differs from prior, then
// returns the new set. The comparison is by ID set, not slice order.
func (g *StaticGroup) Watch(ctx context.Context, prior []Membership) ([]Membership, error) {
	for {
		g.mu.Lock()
		current := make([]Membership, len(g.members))
		copy(current, g.members)
		changed := !sameMembership(prior, current)
		ch := g.watchCh
		g.mu.Unlock()

		if changed {
			return current, nil
		}

		select {
		case <-ch:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func sameMembership(a, b []Membership) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[int64]struct{}, len(a))
	for _, m := range a {
		ids[m.ID] = struct{}{}
	}
	for _, m := range b {
		if _, ok := ids[m.ID]; !ok {
			return false
		}
	}
	return true
}
