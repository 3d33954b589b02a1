package bufferpool

// orderedSet tracks the resident page ids of a Directory in
// touch order: the most recently set or re-set key is at the end.
// It exists so diagnostic enumeration (Directory.Keys, logged by
// Pool.Shutdown) is deterministic instead of depending on hash-bucket
// layout; it never participates in eviction decisions, which remain
// the replacement policy's job.
//
// Adapted from the teacher's UniqueStack: single-threaded (the pool
// owns its directory exclusively, per the single-threaded cooperative
// model this package assumes), so the mutex and Top/Bottom/Pop
// accessors the original stack needed for LRU bookkeeping are dropped —
// only the push-to-end-or-reprioritize and delete operations survive,
// repurposed for page ids instead of a generic comparable key.
type orderedSet struct {
	present map[PageId]bool
	order   []PageId
}

func newOrderedSet() *orderedSet {
	return &orderedSet{
		present: map[PageId]bool{},
		order:   []PageId{},
	}
}

// touch records k as the most recently inserted/updated key, moving it
// to the end of the order if already present.
func (o *orderedSet) touch(k PageId) {
	if o.present[k] {
		o.removeFromOrder(k)
	}
	o.order = append(o.order, k)
	o.present[k] = true
}

// remove drops k from the set. Removing an absent key is a no-op.
func (o *orderedSet) remove(k PageId) {
	if !o.present[k] {
		return
	}
	delete(o.present, k)
	o.removeFromOrder(k)
}

func (o *orderedSet) removeFromOrder(k PageId) {
	for i, e := range o.order {
		if e == k {
			o.order = append(o.order[:i], o.order[i+1:]...)
			return
		}
	}
}

// keys returns a fresh copy of the tracked keys in touch order.
func (o *orderedSet) keys() []PageId {
	out := make([]PageId, len(o.order))
	copy(out, o.order)
	return out
}

func (o *orderedSet) len() int {
	return len(o.order)
}

// clear empties the set, used by Directory's bulk release on shutdown.
func (o *orderedSet) clear() {
	o.present = map[PageId]bool{}
	o.order = o.order[:0]
}
