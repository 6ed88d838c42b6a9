package gocuckoo

import (
	"fmt"
	"io"
)

// SolutionStream is a channel pipeline of completed solve results.
type SolutionStream struct {
	Outlet chan QueueOutput
}

func NewSolutionStream() *SolutionStream {
	stream := &SolutionStream{
		Outlet: make(chan QueueOutput, 1),
	}
	return stream
}

func (stream *SolutionStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *SolutionStream) Push(out QueueOutput) {
	stream.Outlet <- out
}

// PullAll drains the stream, returning the number of results that carried a
// full proof.
func (stream *SolutionStream) PullAll() int {
	count := 0
	for out := range stream.Outlet {
		if out.NumResults > 0 {
			count++
		}
	}
	return count
}

// Print writes each result as a line of hex nonces and passes it downstream.
func (stream *SolutionStream) Print(out io.Writer, label string) *SolutionStream {
	next := NewSolutionStream()

	go func() {
		for result := range stream.Outlet {
			if len(label) > 0 {
				fmt.Fprintf(out, "%s,", label)
			}
			fmt.Fprintf(out, "%06d,", result.ID)
			if result.NumResults == 0 {
				fmt.Fprint(out, "-")
			}
			for _, nonce := range result.ResultNonces[:result.NumResults] {
				fmt.Fprintf(out, " %x", nonce)
			}
			fmt.Fprint(out, "\n")
			next.Outlet <- result
		}
		next.Close()
	}()

	return next
}

// AddTo archives each proof-bearing result into target and passes along only
// the results that were newly added.
func (stream *SolutionStream) AddTo(target ProofAdder, headerDigest []byte) *SolutionStream {
	next := NewSolutionStream()

	go func() {
		for result := range stream.Outlet {
			if result.NumResults == 0 {
				continue
			}
			if wasAdded := target.TryAdd(headerDigest, result); wasAdded {
				next.Outlet <- result
			}
		}
		next.Close()
	}()

	return next
}
