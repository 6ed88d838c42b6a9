package ledger_test

import (
	"os"
	"path"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
	"github.com/cuckoo-systems/gocuckoo/libcuckoo/ledger"
)

func testProof(id uint32, seed uint32) gocuckoo.QueueOutput {
	out := gocuckoo.QueueOutput{
		ID:         id,
		Nonce:      [8]byte{byte(seed)},
		NumResults: gocuckoo.ProofSize,
		CuckooSize: 20,
	}
	for i := range out.ResultNonces {
		out.ResultNonces[i] = seed + uint32(i)*3
	}
	return out
}

func TestLedgerDedupe(t *testing.T) {
	ldg, err := ledger.OpenLedger(ledger.Opts{}) // in-memory
	if err != nil {
		t.Fatal(err)
	}
	defer ldg.Close()

	digest := blake2b.Sum256([]byte("header"))
	proof := testProof(1, 1000)

	if added := ldg.TryAdd(digest[:], proof); !added {
		t.Fatal("first add should succeed")
	}
	if added := ldg.TryAdd(digest[:], proof); added {
		t.Fatal("duplicate add should be rejected")
	}

	// Same cycle under a different header is a distinct proof.
	other := blake2b.Sum256([]byte("other header"))
	if added := ldg.TryAdd(other[:], proof); !added {
		t.Fatal("same proof under a new header should be added")
	}
	if ldg.NumProofs() != 2 {
		t.Fatalf("NumProofs = %d", ldg.NumProofs())
	}

	// Zero-result records are never archived.
	if added := ldg.TryAdd(digest[:], gocuckoo.QueueOutput{ID: 9}); added {
		t.Fatal("empty result should not be archived")
	}
}

func TestLedgerSelect(t *testing.T) {
	ldg, err := ledger.OpenLedger(ledger.Opts{})
	if err != nil {
		t.Fatal(err)
	}
	defer ldg.Close()

	digest := blake2b.Sum256([]byte("header"))
	ldg.TryAdd(digest[:], testProof(1, 100))
	ldg.TryAdd(digest[:], testProof(2, 200))

	other := blake2b.Sum256([]byte("unrelated"))
	ldg.TryAdd(other[:], testProof(3, 300))

	onHit := make(chan gocuckoo.QueueOutput)
	go func() {
		if err := ldg.SelectAll(digest[:], onHit); err != nil {
			t.Error(err)
		}
		close(onHit)
	}()

	total := 0
	for out := range onHit {
		if out.NumResults != gocuckoo.ProofSize || out.CuckooSize != 20 {
			t.Fatalf("proof came back mangled: %+v", out)
		}
		total++
	}
	if total != 2 {
		t.Fatalf("selected %d proofs for digest, want 2", total)
	}
}

func TestLedgerPersistence(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	opts := ledger.Opts{DbPathName: path.Join(dir, "TestPersist")}

	ldg, err := ledger.OpenLedger(opts)
	if err != nil {
		t.Fatal(err)
	}
	digest := blake2b.Sum256([]byte("header"))
	ldg.TryAdd(digest[:], testProof(1, 100))
	ldg.Close()

	ldg, err = ledger.OpenLedger(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer ldg.Close()

	if ldg.NumProofs() != 1 {
		t.Fatalf("NumProofs after reopen = %d", ldg.NumProofs())
	}
	if added := ldg.TryAdd(digest[:], testProof(1, 100)); added {
		t.Fatal("proof should persist across reopen")
	}
}
