package gocuckoo

import (
	"sync"
	"time"
)

// NewMinerContext returns a MinerContext ready for miners to attach.
func NewMinerContext() MinerContext {
	ctx := &minerContext{
		attached: make(map[Miner]struct{}),
		closing:  make(chan struct{}),
		closed:   make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type minerContext struct {
	mu        sync.Mutex
	openCount sync.WaitGroup
	attached  map[Miner]struct{}
	closing   chan struct{}
	closed    chan struct{}
}

func (ctx *minerContext) AttachMiner(m Miner) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.attached[m] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *minerContext) DetachMiner(m Miner) {
	ctx.mu.Lock()
	if _, exists := ctx.attached[m]; exists {
		delete(ctx.attached, m)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *minerContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *minerContext) Close() {
	close(ctx.closing)
	ctx.mu.Lock()
	for m := range ctx.attached {
		go func(m Miner) {
			m.Stop()
			for !m.HasStopped() {
				time.Sleep(time.Millisecond)
			}
			ctx.DetachMiner(m)
		}(m)
	}
	ctx.mu.Unlock()
}

// AppendNonces appends a solution's nonces to the given buffer as a
// little-endian u32 sequence.
func (sol Solution) AppendNonces(out []byte) []byte {
	for _, nonce := range sol {
		out = append(out,
			byte(nonce),
			byte(nonce>>8),
			byte(nonce>>16),
			byte(nonce>>24))
	}
	return out
}

// IsOrdered returns true if the solution's nonces are strictly increasing.
func (sol Solution) IsOrdered() bool {
	for i := 1; i < len(sol); i++ {
		if sol[i] <= sol[i-1] {
			return false
		}
	}
	return true
}

// Output packs a solution into a fixed-size result record.
func (sol Solution) Output(id uint32, nonce [8]byte, cuckooSize uint32) QueueOutput {
	out := QueueOutput{
		ID:         id,
		Nonce:      nonce,
		CuckooSize: cuckooSize,
	}
	n := len(sol)
	if n > ProofSize {
		n = ProofSize
	}
	out.NumResults = uint32(n)
	copy(out.ResultNonces[:], sol[:n])
	return out
}
