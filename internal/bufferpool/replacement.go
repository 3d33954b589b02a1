package bufferpool

import "math"

// ReplacementStrategy selects which replacement policy a Pool uses.
type ReplacementStrategy int

const (
	StrategyFIFO ReplacementStrategy = iota
	StrategyLRU
)

func (s ReplacementStrategy) String() string {
	switch s {
	case StrategyFIFO:
		return "fifo"
	case StrategyLRU:
		return "lru"
	default:
		return "unknown"
	}
}

// ParseReplacementStrategy maps a config string ("fifo"/"lru") to a
// ReplacementStrategy, for use by the demo command's config loader.
func ParseReplacementStrategy(s string) (ReplacementStrategy, error) {
	switch s {
	case "fifo", "FIFO", "":
		return StrategyFIFO, nil
	case "lru", "LRU":
		return StrategyLRU, nil
	default:
		return 0, ErrConfigError
	}
}

// replacer is the pluggable capability C4 requires: given the frame
// table, choose an unpinned victim frame index, or report that none
// exists. Selection is pure — it never mutates frame or directory
// state. Pool performs the post-selection bookkeeping (timestamp
// refresh, directory removal, dirty writeback) uniformly for whichever
// policy is configured, since that bookkeeping is identical regardless
// of strategy.
type replacer interface {
	selectVictim(frames []*Frame) (int, bool)
}

// fifoReplacer advances a persistent cursor through the frame table,
// stopping at the first unpinned frame found, or giving up once the
// cursor returns to its starting point. The cursor is saved wherever
// the search stopped; a failed search has gone once round the table,
// so it leaves the cursor at its starting point.
type fifoReplacer struct {
	cursor int
}

func newFIFOReplacer(numFrames int) *fifoReplacer {
	return &fifoReplacer{cursor: numFrames - 1}
}

func (f *fifoReplacer) selectVictim(frames []*Frame) (int, bool) {
	n := len(frames)
	start := f.cursor
	cur := start
	for {
		cur = (cur + 1) % n
		if frames[cur].PinCount == 0 {
			break
		}
		if cur == start {
			break
		}
	}
	f.cursor = cur
	if frames[cur].PinCount == 0 {
		return cur, true
	}
	return -1, false
}

// lruReplacer scans the frame table for the unpinned frame with the
// lowest timestamp, breaking ties by lowest index for determinism.
type lruReplacer struct{}

func (lruReplacer) selectVictim(frames []*Frame) (int, bool) {
	minIdx := -1
	var minTS uint64 = math.MaxUint64
	for i, f := range frames {
		if f.PinCount == 0 && f.Timestamp < minTS {
			minTS = f.Timestamp
			minIdx = i
		}
	}
	if minIdx == -1 {
		return -1, false
	}
	return minIdx, true
}

func newReplacer(strategy ReplacementStrategy, numFrames int) (replacer, error) {
	switch strategy {
	case StrategyFIFO:
		return newFIFOReplacer(numFrames), nil
	case StrategyLRU:
		return lruReplacer{}, nil
	default:
		return nil, ErrConfigError
	}
}
