// Package plugin implements the asynchronous job-dispatch layer between
// callers submitting block headers and a solver plugin producing proofs.
package plugin

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

// idleSleep bounds the worker's wait when no job is available or the plugin
// is busy.  Short enough that stop requests are observed promptly.
const idleSleep = time.Millisecond

// Dispatcher owns two bounded queues and a single background worker feeding a
// solver plugin.  Submit and Retrieve never block; lifecycle completion is
// observed by polling HasStopped.
//
// All state lives on the instance so independent dispatchers can coexist.
type Dispatcher struct {
	plugin gocuckoo.SolverPlugin

	input  chan gocuckoo.QueueInput
	output chan gocuckoo.QueueOutput

	shouldQuit atomic.Bool
	finished   atomic.Bool
	running    atomic.Bool
}

func NewDispatcher(plugin gocuckoo.SolverPlugin) *Dispatcher {
	d := &Dispatcher{
		plugin: plugin,
		input:  make(chan gocuckoo.QueueInput, gocuckoo.MaxQueueSize),
		output: make(chan gocuckoo.QueueOutput, gocuckoo.MaxQueueSize),
	}
	d.finished.Store(true)
	return d
}

// ShouldQuit is the shared stop signal; the plugin observes it cooperatively.
func (d *Dispatcher) ShouldQuit() bool {
	return d.shouldQuit.Load()
}

// Start spawns the worker.  Only valid from the Idle state.
func (d *Dispatcher) Start() error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.WithStack(gocuckoo.ErrNotIdle)
	}
	d.shouldQuit.Store(false)
	d.finished.Store(false)
	go d.processLoop()
	return nil
}

// Stop requests shutdown and returns immediately.  Idempotent.  The worker
// drains both queues best-effort on its way out; poll HasStopped before
// inspecting queues or calling Reset.
func (d *Dispatcher) Stop() {
	d.shouldQuit.Store(true)
}

// HasStopped reports that both the worker and the plugin have finished.
func (d *Dispatcher) HasStopped() bool {
	return d.finished.Load() && d.plugin.Stopped()
}

// WaitStopped polls HasStopped until it turns true or the wait elapses.
func (d *Dispatcher) WaitStopped(wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for !d.HasStopped() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(idleSleep)
	}
	return true
}

// Reset returns a stopped dispatcher to Idle, ready for a fresh Start.
func (d *Dispatcher) Reset() error {
	if !d.HasStopped() {
		return errors.WithStack(gocuckoo.ErrNotStopped)
	}
	d.shouldQuit.Store(false)
	d.running.Store(false)
	return nil
}

// IsUnderLimit reports whether a submission would likely be accepted.
// The input queue size is approximate under concurrent producers, so this is
// advisory backpressure, not a guarantee.
func (d *Dispatcher) IsUnderLimit() bool {
	if d.shouldQuit.Load() {
		return false
	}
	return len(d.input) < gocuckoo.MaxQueueSize
}

// Submit copies the payload into a job record and enqueues it.
func (d *Dispatcher) Submit(id uint32, data []byte, nonce [8]byte) gocuckoo.SubmitStatus {
	if d.shouldQuit.Load() {
		return gocuckoo.SubmitShuttingDown
	}
	if len(data) > gocuckoo.MaxDataLen {
		return gocuckoo.SubmitTooLarge
	}
	if len(d.input) >= gocuckoo.MaxQueueSize {
		return gocuckoo.SubmitQueueFull
	}
	job := gocuckoo.QueueInput{
		ID:    id,
		Nonce: nonce,
		Data:  append([]byte{}, data...),
	}
	select {
	case d.input <- job:
		return gocuckoo.SubmitOK
	default:
		return gocuckoo.SubmitQueueFull
	}
}

// Retrieve removes one completed result, if any.  Never blocks.
func (d *Dispatcher) Retrieve() (gocuckoo.QueueOutput, bool) {
	if d.shouldQuit.Load() {
		return gocuckoo.QueueOutput{}, false
	}
	select {
	case out := <-d.output:
		return out, true
	default:
		return gocuckoo.QueueOutput{}, false
	}
}

// PushOutput publishes a completed result.  Safe for any goroutine the plugin
// chooses to complete work on; drops the result if the output queue is full.
func (d *Dispatcher) PushOutput(out gocuckoo.QueueOutput) {
	select {
	case d.output <- out:
	default:
		klog.Warningf("output queue full, dropping result for job %d", out.ID)
	}
}

func (d *Dispatcher) processLoop() {
	for !d.shouldQuit.Load() {
		for d.plugin.ReadyForData() {
			var job gocuckoo.QueueInput
			found := false
			select {
			case job = <-d.input:
				found = true
			default:
			}
			if !found {
				break
			}
			d.plugin.ProcessData(job)
		}
		time.Sleep(idleSleep)
	}
	d.clearQueues()
	d.finished.Store(true)
}

// clearQueues empties both queues best-effort.  Bounded attempts: a concurrent
// producer racing shutdown may leave entries behind, which is accepted.
func (d *Dispatcher) clearQueues() {
	for i := 0; i < gocuckoo.MaxQueueSize; i++ {
		select {
		case <-d.input:
		default:
		}
		select {
		case <-d.output:
		default:
		}
	}
}
