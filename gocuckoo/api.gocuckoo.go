package gocuckoo

const (
	// ProofSize is the cycle length constituting a valid proof.
	ProofSize = 42

	// MaxPathLen bounds the length of any path traced through the cuckoo forest.
	// A trace exceeding this bound means the forest state is corrupt or the
	// input is pathological, and the solve attempt is not continuable.
	MaxPathLen = 8192

	// MaxDataLen is the max byte length of a submitted header payload.
	MaxDataLen = 2048

	// MaxQueueSize is the soft capacity of a dispatcher's input queue.
	MaxQueueSize = 20
)

// SubmitStatus is the result code of a job submission.
type SubmitStatus uint32

const (
	SubmitOK           SubmitStatus = 0
	SubmitQueueFull    SubmitStatus = 1
	SubmitTooLarge     SubmitStatus = 2
	SubmitShuttingDown SubmitStatus = 4
)

func (status SubmitStatus) String() string {
	switch status {
	case SubmitOK:
		return "OK"
	case SubmitQueueFull:
		return "queue full"
	case SubmitTooLarge:
		return "payload too large"
	case SubmitShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// QueueInput is a submitted solve job.
//
// Data is an owned copy made at submission; producer and consumer share
// nothing beyond the copy.
type QueueInput struct {
	ID    uint32
	Nonce [8]byte
	Data  []byte // len <= MaxDataLen
}

// QueueOutput is a completed solve result.
//
// NumResults is 0 when the solve exhausted its edge range without closing a
// target-length cycle -- a normal outcome, not an error.
type QueueOutput struct {
	ID           uint32
	Nonce        [8]byte
	ResultNonces [ProofSize]uint32
	NumResults   uint32
	CuckooSize   uint32 // graph size exponent + 1
}

// Solution is an ordered sequence of edge indices ("nonces"), strictly
// increasing, whose edges form a single closed cycle of the target length.
type Solution []uint32

// EdgeMap maps an edge index to its two endpoint nodes in the bipartite
// node space.  Node 0 is reserved as the nil sentinel: a u endpoint of 0
// means the edge is skipped, and a v endpoint is never 0 by construction.
type EdgeMap interface {

	// NumNodes returns the size of the combined node space (both partitions).
	NumNodes() uint32

	// Endpoints returns the two endpoints of edge index nonce.
	// Must be deterministic and side-effect free.
	Endpoints(nonce uint32) (u, v uint32)
}

// SolverPlugin is the capability surface a Dispatcher requires from a solver.
type SolverPlugin interface {

	// ReadyForData reports whether the plugin can accept another job.
	// Non-blocking, no side effects, callable at any rate.
	ReadyForData() bool

	// ProcessData hands one dequeued job to the plugin, at most once per job.
	// The plugin eventually publishes a result with a matching ID to the
	// dispatcher's output queue, or drops the job silently on internal error.
	ProcessData(job QueueInput)

	// Stopped reports that the plugin has finished or halted all of its
	// processing after being told to stop.
	Stopped() bool
}

// Miner is the lifecycle surface a MinerContext manages.
type Miner interface {
	Stop()
	HasStopped() bool
}

// MinerContext is a container for attached Miner instances, owned explicitly
// by the caller so multiple independent engines can coexist in one process.
type MinerContext interface {

	// Attaches the given miner to this context.
	AttachMiner(m Miner)

	// Detaches the given miner from this context.
	DetachMiner(m Miner)

	// Stops all attached miners and closes once they report stopped.
	Close()

	// Signals when Close() completed and all attached miners have stopped.
	Done() <-chan struct{}
}

// ProofAdder accepts found proofs for archival.
type ProofAdder interface {

	// Tries to add the given proof under the given header digest.
	// If true is returned, the proof was not present and was added.
	TryAdd(headerDigest []byte, out QueueOutput) bool
}
