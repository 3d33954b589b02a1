package bufferpool

// directorySlot is one bucket of the open-addressed table: empty until
// first written, then either live or a tombstone left by remove.
type directorySlot struct {
	key       PageId
	value     int
	live      bool
	tombstone bool
}

// Directory is a bounded associative map from PageId to frame index.
// It is a fixed-capacity hash table with linear probing — capacity is
// sized once, at construction, to the larger of minDirectoryCapacity
// and the frame count. The table never holds more live entries than
// there are frames, so it never overfills; the load factor stays low
// only while the frame count is well below minDirectoryCapacity.
//
// It is not safe for concurrent use; the pool is its only caller and
// the pool itself runs single-threaded per this package's concurrency
// model.
type Directory struct {
	slots []directorySlot
	count int
	order *orderedSet
}

func newDirectory(numFrames int) *Directory {
	capacity := numFrames
	if capacity < minDirectoryCapacity {
		capacity = minDirectoryCapacity
	}
	return &Directory{
		slots: make([]directorySlot, capacity),
		order: newOrderedSet(),
	}
}

// probe walks the linear-probe chain for key. found is the index of a
// live slot holding key, or -1 if key is absent. insertAt is where a
// fresh Set(key, ...) should land: the first reclaimable tombstone seen
// along the chain, falling back to the never-used slot that ends it.
// Tombstones left by Remove are reused this way — without it, a table
// that only ever holds at most numFrames live entries would still
// accumulate one permanently-consumed slot per distinct page ever
// loaded, eventually exhausting capacity under ordinary eviction churn.
func (d *Directory) probe(key PageId) (found int, insertAt int) {
	capacity := len(d.slots)
	h := hashPageId(key, capacity)
	insertAt = -1
	for i := 0; i < capacity; i++ {
		idx := (h + i) % capacity
		slot := &d.slots[idx]
		switch {
		case slot.live && slot.key == key:
			return idx, idx
		case slot.live:
			// occupied by a different key; keep probing
		case slot.tombstone:
			if insertAt == -1 {
				insertAt = idx
			}
		default:
			// never-used slot: the probe chain for key ends here
			if insertAt == -1 {
				insertAt = idx
			}
			return -1, insertAt
		}
	}
	return -1, insertAt
}

// Get looks up the frame index for key.
func (d *Directory) Get(key PageId) (int, bool) {
	found, _ := d.probe(key)
	if found == -1 {
		return 0, false
	}
	return d.slots[found].value, true
}

// Set installs or updates the mapping key -> frameIndex, reusing a
// tombstoned slot when key is not already present.
func (d *Directory) Set(key PageId, frameIndex int) {
	found, insertAt := d.probe(key)
	if found != -1 {
		d.slots[found].value = frameIndex
		d.order.touch(key)
		return
	}
	if insertAt == -1 {
		// Every slot live and none matching key: the directory holds
		// more distinct entries than capacity, which the pool never
		// causes since it tracks at most one entry per frame.
		panic("bufferpool: directory capacity exceeded")
	}
	slot := &d.slots[insertAt]
	slot.key = key
	slot.value = frameIndex
	slot.live = true
	slot.tombstone = false
	d.count++
	d.order.touch(key)
}

// Remove deletes key from the directory, if present, leaving a
// tombstone so Set can reclaim the slot later.
func (d *Directory) Remove(key PageId) {
	found, _ := d.probe(key)
	if found == -1 {
		return
	}
	d.slots[found].live = false
	d.slots[found].tombstone = true
	d.count--
	d.order.remove(key)
}

// Len reports the number of resident mappings.
func (d *Directory) Len() int {
	return d.count
}

// Keys returns the resident page ids in insertion/touch order — a
// deterministic enumeration for diagnostics, independent of bucket
// layout.
func (d *Directory) Keys() []PageId {
	return d.order.keys()
}

// ReleaseAll clears every mapping in bulk, used by Pool.Shutdown.
func (d *Directory) ReleaseAll() {
	d.slots = make([]directorySlot, len(d.slots))
	d.count = 0
	d.order.clear()
}

// hashPageId multiplies the key by Knuth's multiplicative constant and
// reduces the product modulo the table capacity; page ids are small
// non-negative integers so one multiply and one modulo give adequate
// bucket spread without pulling in a hashing library.
func hashPageId(key PageId, capacity int) int {
	h := uint64(key) * 2654435761
	return int(h % uint64(capacity))
}
