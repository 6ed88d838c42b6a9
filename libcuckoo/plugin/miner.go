package plugin

import (
	"sync/atomic"

	"github.com/plan-systems/klog"
	"golang.org/x/crypto/blake2b"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
	"github.com/cuckoo-systems/gocuckoo/libcuckoo"
)

// MinerOpts configures the built-in solver plugin.
type MinerOpts struct {
	EdgeBits    uint32              // graph size exponent
	EasinessPct uint32              // fraction of the edge space scanned, 0..100
	ProofSize   int                 // 0 means gocuckoo.ProofSize
	Ledger      gocuckoo.ProofAdder // optional archival of found proofs
}

// Miner is the built-in single-shot solver plugin: ready whenever it is not
// already working, it runs one solve per job on the dispatcher's worker and
// publishes the first solution found (or a zero-result record) to the output
// queue.
type Miner struct {
	opts    MinerOpts
	d       *Dispatcher
	solver  *libcuckoo.Solver
	working atomic.Bool
}

func NewMiner(opts MinerOpts) *Miner {
	return &Miner{
		opts:   opts,
		solver: libcuckoo.NewSolver(),
	}
}

// NewEngine wires a Miner and its Dispatcher together.
func NewEngine(opts MinerOpts) (*Dispatcher, *Miner) {
	m := NewMiner(opts)
	d := NewDispatcher(m)
	m.d = d
	return d, m
}

func (m *Miner) ReadyForData() bool {
	return !m.working.Load()
}

// Stopped reports that no solve is in flight.  Combined with the dispatcher's
// own finished flag this forms the HasStopped contract.
func (m *Miner) Stopped() bool {
	return !m.working.Load()
}

func (m *Miner) ProcessData(job gocuckoo.QueueInput) {
	m.working.Store(true)
	defer m.working.Store(false)

	sm := libcuckoo.NewSipMap(job.Data, m.opts.EdgeBits)
	easiness := sm.Easiness(m.opts.EasinessPct)

	sols, err := m.solver.Solve(sm, easiness, libcuckoo.SolveOpts{
		ProofSize: m.opts.ProofSize,
		Quit:      m.d.ShouldQuit,
	})
	if err != nil {
		// Unrecoverable for this job; the dispatcher has no error channel,
		// so the job is dropped and the fault recorded here.
		klog.Errorf("job %d abandoned: %v", job.ID, err)
		return
	}

	out := gocuckoo.QueueOutput{
		ID:         job.ID,
		Nonce:      job.Nonce,
		CuckooSize: sm.CuckooSize(),
	}
	if len(sols) > 0 {
		out = sols[0].Output(job.ID, job.Nonce, sm.CuckooSize())
	}

	if m.opts.Ledger != nil && out.NumResults > 0 {
		digest := blake2b.Sum256(job.Data)
		m.opts.Ledger.TryAdd(digest[:], out)
	}

	m.d.PushOutput(out)
}
