package libcuckoo

import (
	"encoding/binary"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"
)

// SipMap maps edge indices onto the bipartite node space of a cuckoo graph,
// keyed by the blake2b digest of a block header.
//
// Edge k maps to nodes (2*(sip(2k) mod N), 2*(sip(2k+1) mod N) + 1) where N is
// the partition size.  The u side can hash to 0 (the nil sentinel, callers
// skip such edges); the v side is always odd and so never 0.
type SipMap struct {
	k0, k1   uint64
	edgeBits uint32
	numEdges uint32 // nodes per partition
}

// NewSipMap derives sip keys from the given header.
// edgeBits must be below 31 so the node space fits in a uint32.
func NewSipMap(header []byte, edgeBits uint32) *SipMap {
	digest := blake2b.Sum256(header)
	return &SipMap{
		k0:       binary.LittleEndian.Uint64(digest[0:8]),
		k1:       binary.LittleEndian.Uint64(digest[8:16]),
		edgeBits: edgeBits,
		numEdges: 1 << edgeBits,
	}
}

// Keys exposes the derived sip keys, handy for diagnostics.
func (sm *SipMap) Keys() (k0, k1 uint64) {
	return sm.k0, sm.k1
}

// EdgeBits returns the graph size exponent this map was built with.
func (sm *SipMap) EdgeBits() uint32 {
	return sm.edgeBits
}

// CuckooSize is the conventional graph-size parameter reported in results.
func (sm *SipMap) CuckooSize() uint32 {
	return sm.edgeBits + 1
}

func (sm *SipMap) NumNodes() uint32 {
	return 2 * sm.numEdges
}

// Easiness converts a percentage of the node space into an edge count.
func (sm *SipMap) Easiness(pct uint32) uint32 {
	return uint32(uint64(pct) * uint64(sm.NumNodes()) / 100)
}

func (sm *SipMap) sipnode(nonce, uorv uint32) uint32 {
	var msg [8]byte
	binary.LittleEndian.PutUint64(msg[:], uint64(2*nonce+uorv))
	return uint32(siphash.Hash(sm.k0, sm.k1, msg[:])) % sm.numEdges
}

func (sm *SipMap) Endpoints(nonce uint32) (u, v uint32) {
	u = 2 * sm.sipnode(nonce, 0)
	v = 2*sm.sipnode(nonce, 1) + 1
	return
}
