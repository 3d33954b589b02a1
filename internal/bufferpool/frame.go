package bufferpool

// Frame is a single slot in the pool's frame table: a page-sized
// buffer plus the per-frame metadata the pool mutates on every
// pin/unpin/mark_dirty/force/eviction. It is a plain data container —
// every state transition is driven by Pool, never by Frame itself.
type Frame struct {
	Buffer     []byte
	PageID     PageId
	FrameIndex int
	PinCount   int
	Dirty      bool
	Occupied   bool
	Timestamp  uint64
}

func newFrame(index int, ts uint64) *Frame {
	return &Frame{
		Buffer:     make([]byte, PageSize),
		FrameIndex: index,
		Timestamp:  ts,
	}
}

// newFrameTable allocates a fixed-length array of empty frames, each
// assigned a timestamp from the supplied clock function.
func newFrameTable(numFrames int, tick func() uint64) []*Frame {
	frames := make([]*Frame, numFrames)
	for i := range frames {
		frames[i] = newFrame(i, tick())
	}
	return frames
}
