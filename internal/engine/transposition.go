package engine

import (
	"github.com/hailam/chesssearch/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	}
	return "unknown"
}

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // full fingerprint, checked on probe
	BestMove board.Move // best move found at this depth
	Score    int16      // mate scores stored relative to this node
	Depth    int8
	Flag     TTFlag
	Age      uint32 // search generation that wrote the entry
}

// ttEntrySize is the in-memory size of TTEntry including padding.
const ttEntrySize = 24

// TranspositionTable is a fixed-size, fingerprint-indexed cache of search
// results. It is not safe for concurrent use; the engine serializes access.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint32

	hits   uint64
	probes uint64
	stores uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
// The entry count is rounded down to a power of two, with a floor of 1024.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / ttEntrySize)
	if numEntries < 1024 {
		numEntries = 1024
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position in the transposition table.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	entry := tt.entries[hash&tt.mask]
	if entry.Key == hash && entry.Depth > 0 {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// entryFor returns the entry for hash without counting a probe.
func (tt *TranspositionTable) entryFor(hash uint64) (TTEntry, bool) {
	entry := tt.entries[hash&tt.mask]
	return entry, entry.Key == hash && entry.Depth > 0
}

// Store saves a search result and reports whether the slot was written.
//
// The slot is overwritten when it is empty, was written by an older search,
// already holds the same position, or holds a result no deeper than this one.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) bool {
	entry := &tt.entries[hash&tt.mask]

	if entry.Depth > 0 && entry.Age == tt.age && entry.Key != hash && depth < int(entry.Depth) {
		return false
	}

	*entry = TTEntry{
		Key:      hash,
		BestMove: bestMove,
		Score:    int16(score),
		Depth:    int8(depth),
		Flag:     flag,
		Age:      tt.age,
	}
	tt.stores++
	return true
}

// NewSearch advances the generation used by the replacement policy. If the
// counter wraps, the table is emptied so no old entry passes for current.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
	if tt.age == 0 {
		clear(tt.entries)
	}
}

// Clear empties the table and resets its counters.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
	tt.stores = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Stats returns the lifetime probe, hit and store counts.
func (tt *TranspositionTable) Stats() (probes, hits, stores uint64) {
	return tt.probes, tt.hits, tt.stores
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a stored mate score back to distance from the root.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a mate score to distance from the current node
// before storing it.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
