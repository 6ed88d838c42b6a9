package gocuckoo_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

type captureAdder struct {
	added []gocuckoo.QueueOutput
}

func (ca *captureAdder) TryAdd(headerDigest []byte, out gocuckoo.QueueOutput) bool {
	for _, prev := range ca.added {
		if prev.ResultNonces == out.ResultNonces {
			return false
		}
	}
	ca.added = append(ca.added, out)
	return true
}

func proofOutput(id uint32, first uint32) gocuckoo.QueueOutput {
	out := gocuckoo.QueueOutput{
		ID:         id,
		NumResults: gocuckoo.ProofSize,
		CuckooSize: 20,
	}
	for i := range out.ResultNonces {
		out.ResultNonces[i] = first + uint32(i)
	}
	return out
}

func TestStreamAddTo(t *testing.T) {
	stream := gocuckoo.NewSolutionStream()
	adder := &captureAdder{}

	go func() {
		stream.Push(proofOutput(1, 100))
		stream.Push(proofOutput(2, 100)) // duplicate cycle
		stream.Push(proofOutput(3, 500))
		stream.Push(gocuckoo.QueueOutput{ID: 4}) // no proof, filtered
		stream.Close()
	}()

	count := stream.AddTo(adder, []byte("digest")).PullAll()
	if count != 2 {
		t.Fatalf("PullAll = %d, want 2 newly added proofs", count)
	}
	if len(adder.added) != 2 {
		t.Fatalf("adder holds %d proofs", len(adder.added))
	}
}

func TestStreamPrint(t *testing.T) {
	stream := gocuckoo.NewSolutionStream()

	go func() {
		stream.Push(proofOutput(1, 0))
		stream.Push(gocuckoo.QueueOutput{ID: 2})
		stream.Close()
	}()

	var buf bytes.Buffer
	total := 0
	for range stream.Print(&buf, "solve").Outlet {
		total++
	}
	if total != 2 {
		t.Fatalf("printed stream passed %d results", total)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "solve,000001,") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if !strings.HasSuffix(lines[1], "-") {
		t.Fatalf("empty result should print a dash, got %q", lines[1])
	}
}

func TestSolutionHelpers(t *testing.T) {
	sol := gocuckoo.Solution{1, 5, 9}
	if !sol.IsOrdered() {
		t.Fatal("ordered solution misreported")
	}
	if (gocuckoo.Solution{1, 5, 5}).IsOrdered() {
		t.Fatal("non-increasing solution misreported")
	}

	out := sol.Output(3, [8]byte{7}, 21)
	if out.ID != 3 || out.NumResults != 3 || out.CuckooSize != 21 {
		t.Fatalf("Output mangled fields: %+v", out)
	}
	if out.ResultNonces[0] != 1 || out.ResultNonces[2] != 9 {
		t.Fatalf("Output mangled nonces: %+v", out)
	}

	enc := sol.AppendNonces(nil)
	if len(enc) != 12 || enc[0] != 1 || enc[4] != 5 || enc[8] != 9 {
		t.Fatalf("AppendNonces: % x", enc)
	}
}
