// Package ledger archives found proofs in a badger-backed store, keyed by
// header digest so duplicate submissions of the same proof are detected.
package ledger

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

var gLedgerStateKey = []byte{0x00, 0x00, 0x01}

const kStateVers = 1

// Opts specifies params for opening a proof ledger.
type Opts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool
}

// Ledger wraps a db of proof records.
type Ledger struct {
	db         *badger.DB
	readOnly   bool
	stateDirty bool
	numProofs  uint64
}

func OpenLedger(opts Opts) (*Ledger, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single writer, disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.New("DbPathName must be specified for a read-only ledger")
		}
		dbOpts.InMemory = true
	}

	ldg := &Ledger{
		readOnly: opts.ReadOnly,
	}

	var err error
	ldg.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = ldg.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		ldg.stateDirty = true
	}
	if err != nil {
		ldg.db.Close()
		return nil, err
	}

	return ldg, nil
}

func (ldg *Ledger) loadState() error {
	return ldg.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gLedgerStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < 12 || binary.LittleEndian.Uint32(val) != kStateVers {
				return errors.New("ledger version is incompatible")
			}
			ldg.numProofs = binary.LittleEndian.Uint64(val[4:])
			return nil
		})
	})
}

func (ldg *Ledger) flushState() {
	if !ldg.stateDirty || ldg.readOnly {
		return
	}
	var stateBuf [12]byte
	binary.LittleEndian.PutUint32(stateBuf[:4], kStateVers)
	binary.LittleEndian.PutUint64(stateBuf[4:], ldg.numProofs)
	err := ldg.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gLedgerStateKey, stateBuf[:])
	})
	if err != nil {
		panic(err)
	}
	ldg.stateDirty = false
}

func (ldg *Ledger) Close() error {
	ldg.flushState()
	if ldg.db != nil {
		ldg.db.Close()
		ldg.db = nil
	}
	return nil
}

func (ldg *Ledger) IsReadOnly() bool {
	return ldg.readOnly
}

// NumProofs returns the number of distinct proofs added over the ledger's life.
func (ldg *Ledger) NumProofs() uint64 {
	return ldg.numProofs
}

// formProofKey keys a record by header digest plus the proof nonces, so the
// same cycle found twice for one header lands on the same entry.
func formProofKey(key []byte, headerDigest []byte, out *gocuckoo.QueueOutput) []byte {
	key = append(key, headerDigest...)
	for _, nonce := range out.ResultNonces[:out.NumResults] {
		key = binary.LittleEndian.AppendUint32(key, nonce)
	}
	return key
}

func appendProofRecord(val []byte, out *gocuckoo.QueueOutput) []byte {
	val = binary.LittleEndian.AppendUint32(val, out.ID)
	val = append(val, out.Nonce[:]...)
	val = binary.LittleEndian.AppendUint32(val, out.CuckooSize)
	val = binary.LittleEndian.AppendUint32(val, out.NumResults)
	for _, nonce := range out.ResultNonces[:out.NumResults] {
		val = binary.LittleEndian.AppendUint32(val, nonce)
	}
	return val
}

func readProofRecord(val []byte, out *gocuckoo.QueueOutput) error {
	if len(val) < 20 {
		return errors.WithStack(gocuckoo.ErrBadProofRecord)
	}
	out.ID = binary.LittleEndian.Uint32(val[0:4])
	copy(out.Nonce[:], val[4:12])
	out.CuckooSize = binary.LittleEndian.Uint32(val[12:16])
	out.NumResults = binary.LittleEndian.Uint32(val[16:20])
	if out.NumResults > gocuckoo.ProofSize || len(val) < 20+4*int(out.NumResults) {
		return errors.WithStack(gocuckoo.ErrBadProofRecord)
	}
	for i := uint32(0); i < out.NumResults; i++ {
		out.ResultNonces[i] = binary.LittleEndian.Uint32(val[20+4*i:])
	}
	return nil
}

// TryAdd stores the given proof if it isn't already present.
//
// If true is returned, the proof was not present and was added.
func (ldg *Ledger) TryAdd(headerDigest []byte, out gocuckoo.QueueOutput) bool {
	if ldg.readOnly || out.NumResults == 0 {
		return false
	}

	var keyBuf, valBuf [256]byte
	key := formProofKey(keyBuf[:0], headerDigest, &out)

	txn := ldg.db.NewTransaction(true)
	defer txn.Discard()

	_, err := txn.Get(key)
	if err != badger.ErrKeyNotFound {
		if err != nil {
			panic(err)
		}
		return false
	}

	// Alloc a commit buf since the stack scrap can't outlive this frame
	val := appendProofRecord(valBuf[:0], &out)
	commitVal := make([]byte, len(val))
	copy(commitVal, val)
	commitKey := make([]byte, len(key))
	copy(commitKey, key)

	if err = txn.Set(commitKey, commitVal); err != nil {
		panic(err)
	}
	if err = txn.Commit(); err != nil {
		panic(err)
	}

	ldg.numProofs++
	ldg.stateDirty = true
	return true
}

// SelectAll pushes every stored proof for the given header digest onto onHit.
// A nil digest selects the whole ledger.
func (ldg *Ledger) SelectAll(headerDigest []byte, onHit chan<- gocuckoo.QueueOutput) error {
	return ldg.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         headerDigest,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if len(item.Key()) < 32 {
				continue // state entry
			}
			var out gocuckoo.QueueOutput
			err := item.Value(func(val []byte) error {
				return readProofRecord(val, &out)
			})
			if err != nil {
				return err
			}
			onHit <- out
		}
		return nil
	})
}
