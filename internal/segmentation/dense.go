package segmentation

// maxTableLen bounds the direct lookup table (64 MiB of int32).
const maxTableLen = 1 << 24

// denseIndex remaps sparse uint32 ids to the contiguous range [0, n).
//
// Compact id spaces use a direct lookup table; sparse or very large ones
// fall back to a hash map.
type denseIndex struct {
	ids    []uint32
	table  []int32
	lookup map[uint32]int32
}

// newDenseIndex indexes ids, which must be distinct and ascending.
func newDenseIndex(ids []uint32) *denseIndex {
	d := &denseIndex{ids: ids}
	if len(ids) == 0 {
		return d
	}

	maxID := int(ids[len(ids)-1])
	if maxID < maxTableLen && maxID <= 8*len(ids)+1024 {
		d.table = make([]int32, maxID+1)
		for i := range d.table {
			d.table[i] = -1
		}
		for i, id := range ids {
			d.table[id] = int32(i)
		}
		return d
	}

	d.lookup = make(map[uint32]int32, len(ids))
	for i, id := range ids {
		d.lookup[id] = int32(i)
	}
	return d
}

func (d *denseIndex) index(id uint32) (int32, bool) {
	if d.table != nil {
		if int(id) >= len(d.table) {
			return 0, false
		}
		i := d.table[id]
		return i, i >= 0
	}
	i, ok := d.lookup[id]
	return i, ok
}

func (d *denseIndex) len() int {
	return len(d.ids)
}

func (d *denseIndex) id(i int32) uint32 {
	return d.ids[i]
}
