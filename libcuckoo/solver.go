package libcuckoo

import (
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

// SolveOpts controls a solve attempt.
type SolveOpts struct {
	ProofSize  int         // target cycle length; 0 means gocuckoo.ProofSize
	CollectAll bool        // keep scanning after the first solution closes
	Quit       func() bool // cooperative cancel, polled once per edge
}

// Solver holds the forest state for solve attempts.
//
// A Solver is single-threaded by contract: the forest is owned exclusively by
// the running solve call and is never shared across goroutines.
type Solver struct {
	forest []uint32 // node -> next node toward its forest root, 0 = none
	us     []uint32
	vs     []uint32
}

func NewSolver() *Solver {
	return &Solver{
		us: make([]uint32, gocuckoo.MaxPathLen),
		vs: make([]uint32, gocuckoo.MaxPathLen),
	}
}

// Solve scans edges 0..easiness-1 of the given map, growing a forest one edge
// at a time and emitting a Solution for every target-length cycle that closes.
//
// An empty result set means no cycle closed -- a normal outcome.  A returned
// error means the forest state became untrustworthy (see ErrPathLimit) and the
// attempt was abandoned.
func (sv *Solver) Solve(em gocuckoo.EdgeMap, easiness uint32, opts SolveOpts) ([]gocuckoo.Solution, error) {
	numNodes := em.NumNodes()
	if easiness > numNodes {
		return nil, errors.Wrapf(gocuckoo.ErrBadEasiness, "easiness %d exceeds node space %d", easiness, numNodes)
	}

	proofSize := opts.ProofSize
	if proofSize <= 0 {
		proofSize = gocuckoo.ProofSize
	}

	if uint32(len(sv.forest)) < numNodes {
		sv.forest = make([]uint32, numNodes)
	} else {
		clear(sv.forest[:numNodes])
	}
	forest := sv.forest[:numNodes]

	var sols []gocuckoo.Solution

	for nonce := uint32(0); nonce < easiness; nonce++ {
		if opts.Quit != nil && opts.Quit() {
			break
		}

		u0, v0 := em.Endpoints(nonce)
		if u0 == 0 {
			continue // 0 is reserved as the nil sentinel
		}
		if u0 == v0 {
			continue // a self edge can never close a cycle
		}

		sv.us[0], sv.vs[0] = u0, v0
		nu, err := sv.path(forest, forest[u0], sv.us)
		if err != nil {
			return nil, errors.Wrapf(err, "tracing u side of edge %d", nonce)
		}
		nv, err := sv.path(forest, forest[v0], sv.vs)
		if err != nil {
			return nil, errors.Wrapf(err, "tracing v side of edge %d", nonce)
		}

		if sv.us[nu] == sv.vs[nv] {
			// Both paths reached the same root: a cycle has closed.
			// Trim the common suffix to find where the two arms diverge.
			iu, iv := nu, nv
			min := iu
			if iv < min {
				min = iv
			}
			for iu, iv = iu-min, iv-min; sv.us[iu] != sv.vs[iv]; {
				iu++
				iv++
			}
			cycleLen := iu + iv + 1
			klog.V(1).Infof("% 4d-cycle found at %d%%", cycleLen, uint64(nonce)*100/uint64(easiness))
			if cycleLen == proofSize {
				sol := sv.recoverSolution(em, easiness, sv.us[:iu+1], sv.vs[:iv+1])
				sols = append(sols, sol)
				if !opts.CollectAll {
					break
				}
			}
			// A same-component edge that doesn't close the target-length
			// cycle is not added to the forest.
			continue
		}

		// Union: redirect the shorter arm into the longer one so amortized
		// path length stays low.
		if nu < nv {
			for i := nu; i > 0; i-- {
				forest[sv.us[i]] = sv.us[i-1]
			}
			forest[u0] = v0
		} else {
			for i := nv; i > 0; i-- {
				forest[sv.vs[i]] = sv.vs[i-1]
			}
			forest[v0] = u0
		}
	}

	return sols, nil
}

// path follows forest pointers from u until the root (0), recording each node.
// side[0] holds the start node; the returned index is the root's position.
func (sv *Solver) path(forest []uint32, u uint32, side []uint32) (int, error) {
	n := 0
	for ; u != 0; u = forest[u] {
		n++
		if n >= gocuckoo.MaxPathLen {
			return 0, gocuckoo.ErrPathLimit
		}
		side[n] = u
	}
	return n, nil
}

func packEdge(u, v uint32) uint64 {
	return uint64(u)<<32 | uint64(v)
}

// recoverSolution re-scans the edge range against the edge set implied by the
// closing cycle's two arms, yielding the proof in increasing nonce order.
//
// Arm parity decides endpoint sides: us holds u-side nodes at even positions,
// vs holds them at odd positions.  Matched edges are removed from the set as
// found, guarding against duplicate edges in the multigraph.
func (sv *Solver) recoverSolution(em gocuckoo.EdgeMap, easiness uint32, us, vs []uint32) gocuckoo.Solution {
	cycle := redblacktree.NewWith(utils.UInt64Comparator)
	cycle.Put(packEdge(us[0], vs[0]), nil)

	for nu := len(us) - 1; nu > 0; {
		nu--
		cycle.Put(packEdge(us[(nu+1)&^1], us[nu|1]), nil)
	}
	for nv := len(vs) - 1; nv > 0; {
		nv--
		cycle.Put(packEdge(vs[nv|1], vs[(nv+1)&^1]), nil)
	}

	sol := make(gocuckoo.Solution, 0, cycle.Size())
	for nonce := uint32(0); nonce < easiness && cycle.Size() > 0; nonce++ {
		u, v := em.Endpoints(nonce)
		key := packEdge(u, v)
		if _, found := cycle.Get(key); found {
			sol = append(sol, nonce)
			cycle.Remove(key)
		}
	}
	return sol
}
