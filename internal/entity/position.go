package entity

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// positionFormat is bumped whenever the canonical encoding changes, so hashes
// from different encodings never compare equal.
const positionFormat = 1

// PositionHash identifies a (board, color to move) pair for superko checks.
//
// Two positions are treated as identical when their hashes match. A 64-bit
// xxHash collision would wrongly reject a legal move; the risk is accepted.
type PositionHash uint64

func (h PositionHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// HashPosition digests the canonical encoding
// [format][N][toMove][N*N cells] of a position.
func HashPosition(board *Board, toMove Color) PositionHash {
	buf := make([]byte, 0, 3+len(board.Cells))
	buf = append(buf, positionFormat, byte(board.Size), byte(toMove))

	for _, c := range board.Cells {
		buf = append(buf, byte(c))
	}

	return PositionHash(xxhash.Sum64(buf))
}

// PositionSet is the set of positions a game has passed through.
type PositionSet map[PositionHash]struct{}

func NewPositionSet(hashes ...PositionHash) PositionSet {
	set := make(PositionSet, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}

	return set
}

func (that PositionSet) Has(h PositionHash) bool {
	_, ok := that[h]
	return ok
}

func (that PositionSet) Add(h PositionHash) {
	that[h] = struct{}{}
}

func (that PositionSet) Clone() PositionSet {
	out := make(PositionSet, len(that)+1)
	for h := range that {
		out[h] = struct{}{}
	}

	return out
}

// MarshalJSON writes a sorted array so the stored record is byte-stable,
// which the compare-and-swap in the memory store relies on.
func (that PositionSet) MarshalJSON() ([]byte, error) {
	hashes := make([]uint64, 0, len(that))
	for h := range that {
		hashes = append(hashes, uint64(h))
	}
	slices.Sort(hashes)

	return json.Marshal(hashes)
}

func (that *PositionSet) UnmarshalJSON(data []byte) error {
	var hashes []uint64
	if err := json.Unmarshal(data, &hashes); err != nil {
		return fmt.Errorf("failed to unmarshal position set: %w", err)
	}

	set := make(PositionSet, len(hashes))
	for _, h := range hashes {
		set[PositionHash(h)] = struct{}{}
	}
	*that = set

	return nil
}
