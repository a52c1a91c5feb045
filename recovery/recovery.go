// Package recovery brings a newly opened replica up to the quorum-
// learned prefix visible to the cluster before the LogActor will let
// any reader or writer touch it. It is an external collaborator per
// the design; this package is the reference implementation LogActor
// drives.
package recovery

import (
	"context"

	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/replica"
)

// Recover queries every reachable peer's QueryService for its
// boundaries, takes the highest Ending observed among a quorum of
// responses (including self) as the recovery target, and installs any
// locally-missing learned actions up to that target by copying the
// byte-identical value a quorum of peers already agree on — the same
// "majority wins, then backfill the gap" shape as chitsimran-nomos's
// RunPrepare recovering log entries carried in Prepare promises, but
// driven by direct reads instead of piggybacking on an election.
func Recover(ctx context.Context, quorum int, rep replica.Writer, net network.Network) (replica.Writer, error) {
	selfEnding, err := rep.Ending(ctx)
	if err != nil {
		return nil, err
	}

	args := &replica.QueryArgs{From: 1, To: 0} // boundaries only on the first round
	responses := 1
	target := selfEnding

	replies, err := net.Call(ctx, "QueryService.Query", args, &replica.QueryReply{})
	if err != nil {
		return nil, err
	}
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		reply, ok := r.Value.(*replica.QueryReply)
		if !ok || reply == nil {
			continue
		}
		responses++
		if reply.Ending > target {
			target = reply.Ending
		}
	}

	if responses < quorum {
		return nil, ErrNoQuorum
	}

	if target <= selfEnding {
		return rep, nil
	}

	return rep, backfill(ctx, rep, net, selfEnding+1, target)
}

// backfill copies every position in [from, to] missing locally from
// whichever peer can supply it, enforcing invariant I1 (prefix
// consistency) by only ever installing an action a quorum has already
// settled on, never re-deciding it locally.
func backfill(ctx context.Context, rep replica.Writer, net network.Network, from, to uint64) error {
	args := &replica.QueryArgs{From: from, To: to}
	replies, err := net.Call(ctx, "QueryService.Query", args, &replica.QueryReply{})
	if err != nil {
		return err
	}

	for pos := from; pos <= to; pos++ {
		installed := false
		for _, r := range replies {
			if r.Err != nil {
				continue
			}
			reply, ok := r.Value.(*replica.QueryReply)
			if !ok || reply == nil {
				continue
			}
			for _, a := range reply.Actions {
				if a.Position != pos || !a.Performed || !a.Learned {
					continue
				}
				if err := rep.Install(ctx, a); err != nil {
					return err
				}
				installed = true
				break
			}
			if installed {
				break
			}
		}
		if !installed {
			return ErrIncompletePrefix
		}
	}
	return nil
}
