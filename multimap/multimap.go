// Package multimap relates lattice set ids to segment ids.
//
// A Multimap maps each key to a Roaring bitmap of values. The forward map
// (set id → segment ids) is built from the two parallel integer columns of a
// segmentation table; Invert yields the segment id → set ids direction.
package multimap

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrMalformedInput is returned when the source columns cannot form a multimap.
var ErrMalformedInput = errors.New("malformed input")

// ErrColumnLengthMismatch indicates that the set and segment columns differ in length.
type ErrColumnLengthMismatch struct {
	SetIDs     int
	SegmentIDs int
}

func (e *ErrColumnLengthMismatch) Error() string {
	return fmt.Sprintf("column length mismatch: %d set ids, %d segment ids", e.SetIDs, e.SegmentIDs)
}

// Unwrap makes errors.Is(err, ErrMalformedInput) hold.
func (e *ErrColumnLengthMismatch) Unwrap() error { return ErrMalformedInput }

// Multimap associates every key with a non-empty set of values.
// It is not safe for concurrent mutation; once built it is read-only.
type Multimap struct {
	m map[uint32]*roaring.Bitmap
}

// New builds the forward map setIDs[i] → segmentIDs[i].
//
// Both columns must be present, have the same length and hold ids in the uint32 range.
func New(setIDs, segmentIDs []int64) (*Multimap, error) {
	if setIDs == nil || segmentIDs == nil {
		return nil, fmt.Errorf("%w: missing set_id or segment_id column", ErrMalformedInput)
	}
	if len(setIDs) != len(segmentIDs) {
		return nil, &ErrColumnLengthMismatch{SetIDs: len(setIDs), SegmentIDs: len(segmentIDs)}
	}

	mm := &Multimap{m: make(map[uint32]*roaring.Bitmap)}
	for i := range setIDs {
		k, v := setIDs[i], segmentIDs[i]
		if !idInRange(k) {
			return nil, fmt.Errorf("%w: row %d set_id %d outside [0, %d]", ErrMalformedInput, i, k, uint32(math.MaxUint32))
		}
		if !idInRange(v) {
			return nil, fmt.Errorf("%w: row %d segment_id %d outside [0, %d]", ErrMalformedInput, i, v, uint32(math.MaxUint32))
		}
		mm.Add(uint32(k), uint32(v))
	}
	return mm, nil
}

func idInRange(id int64) bool {
	return id >= 0 && id <= math.MaxUint32
}

// FromPairs builds a multimap from key/value pairs.
func FromPairs(pairs [][2]uint32) *Multimap {
	mm := &Multimap{m: make(map[uint32]*roaring.Bitmap, len(pairs))}
	for _, p := range pairs {
		mm.Add(p[0], p[1])
	}
	return mm
}

// Add relates k to v.
func (mm *Multimap) Add(k, v uint32) {
	bm, ok := mm.m[k]
	if !ok {
		bm = roaring.New()
		mm.m[k] = bm
	}
	bm.Add(v)
}

// Invert returns the multimap with every (k, v) pair flipped to (v, k).
func (mm *Multimap) Invert() *Multimap {
	inv := &Multimap{m: make(map[uint32]*roaring.Bitmap)}
	for k, bm := range mm.m {
		it := bm.Iterator()
		for it.HasNext() {
			inv.Add(it.Next(), k)
		}
	}
	for _, bm := range inv.m {
		bm.RunOptimize()
	}
	return inv
}

// Len returns the number of distinct keys. A nil Multimap is empty.
func (mm *Multimap) Len() int {
	if mm == nil {
		return 0
	}
	return len(mm.m)
}

// Has reports whether k has at least one value.
func (mm *Multimap) Has(k uint32) bool {
	_, ok := mm.m[k]
	return ok
}

// Contains reports whether the pair (k, v) is present.
func (mm *Multimap) Contains(k, v uint32) bool {
	bm, ok := mm.m[k]
	return ok && bm.Contains(v)
}

// Values returns the values of k in ascending order, or nil if k is absent.
func (mm *Multimap) Values(k uint32) []uint32 {
	bm, ok := mm.m[k]
	if !ok {
		return nil
	}
	return bm.ToArray()
}

// Bitmap returns the value set of k. The bitmap must not be modified.
func (mm *Multimap) Bitmap(k uint32) (*roaring.Bitmap, bool) {
	bm, ok := mm.m[k]
	return bm, ok
}

// Keys returns all keys in ascending order.
func (mm *Multimap) Keys() []uint32 {
	keys := make([]uint32, 0, len(mm.m))
	for k := range mm.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// KeySet returns the keys as a bitmap.
func (mm *Multimap) KeySet() *roaring.Bitmap {
	bm := roaring.New()
	for k := range mm.m {
		bm.Add(k)
	}
	return bm
}

// ValueSet returns the union of all value sets.
func (mm *Multimap) ValueSet() *roaring.Bitmap {
	bm := roaring.New()
	for _, v := range mm.m {
		bm.Or(v)
	}
	return bm
}

// Pairs iterates over every (k, v) pair. Order is unspecified.
func (mm *Multimap) Pairs() iter.Seq2[uint32, uint32] {
	return func(yield func(uint32, uint32) bool) {
		for k, bm := range mm.m {
			it := bm.Iterator()
			for it.HasNext() {
				if !yield(k, it.Next()) {
					return
				}
			}
		}
	}
}

// PairCount returns the total number of (k, v) pairs.
func (mm *Multimap) PairCount() uint64 {
	var n uint64
	for _, bm := range mm.m {
		n += bm.GetCardinality()
	}
	return n
}
