package bufferpool

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PageHandle is the client-facing borrow of a pinned page: the page id
// plus a buffer that aliases the frame's underlying storage. The
// buffer is only valid while the pin it came from is held — the pool
// offers no protection against use after unpin, matching the
// single-threaded, no-latching model this package assumes.
type PageHandle struct {
	PageID PageId
	Buffer []byte
}

// Pool is the buffer pool coordinator: it owns the frame table, the
// directory, the backing page file, and the replacement policy, and
// enforces every invariant in SPEC_FULL.md §3 across pin/unpin/
// mark_dirty/force/flush.
//
// Pool is not safe for concurrent use. Per SPEC_FULL.md §5 it assumes
// a single cooperative client; operations never yield except to
// synchronous, run-to-completion file I/O.
type Pool struct {
	frames      []*Frame
	directory   *Directory
	file        *PageFile
	clock       uint64
	policy      replacer
	strategy    ReplacementStrategy
	numRead     int
	numWrite    int
	initialized bool
	log         *logrus.Logger
}

// NewPool opens fileName (which must already exist — NewPool never
// creates it) and constructs a pool of numFrames frames using the
// given replacement strategy. stratData is accepted, matching the
// public contract's strat_data parameter, but interpreted by neither
// built-in strategy.
func NewPool(fileName string, numFrames int, strategy ReplacementStrategy, stratData interface{}, logger *logrus.Logger) (*Pool, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if numFrames <= 0 {
		return nil, errors.Wrap(ErrConfigError, "num frames must be positive")
	}

	file, err := OpenPageFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "init buffer pool: open %q", fileName)
	}

	p := &Pool{
		file:     file,
		strategy: strategy,
		log:      logger,
	}
	p.frames = newFrameTable(numFrames, p.tick)
	p.directory = newDirectory(numFrames)
	policy, err := newReplacer(strategy, numFrames)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.policy = policy
	p.initialized = true

	p.log.WithFields(logrus.Fields{
		"file":      fileName,
		"numFrames": numFrames,
		"strategy":  strategy,
	}).Debug("buffer pool initialized")
	return p, nil
}

func (p *Pool) tick() uint64 {
	t := p.clock
	p.clock++
	return t
}

func (p *Pool) requireInit() error {
	if p == nil || !p.initialized {
		return ErrFileHandleNotInit
	}
	return nil
}

// Shutdown fails if any frame is still pinned, otherwise flushes every
// eligible dirty page, releases resources, and marks the pool unusable.
func (p *Pool) Shutdown() error {
	if err := p.requireInit(); err != nil {
		return err
	}
	for _, f := range p.frames {
		if f.PinCount > 0 {
			return errors.Wrapf(ErrWriteFailed, "shutdown: frame %d still pinned (page %d)", f.FrameIndex, f.PageID)
		}
	}
	p.log.WithField("resident", p.directory.Keys()).Debug("shutdown: flushing resident pages")
	if err := p.flushPool(); err != nil {
		return err
	}
	if err := p.file.Close(); err != nil {
		return err
	}
	p.directory.ReleaseAll()
	p.frames = nil
	p.initialized = false
	p.log.Debug("buffer pool shut down")
	return nil
}

// FlushPool writes back every occupied, dirty, unpinned page.
func (p *Pool) FlushPool() error {
	if err := p.requireInit(); err != nil {
		return err
	}
	return p.flushPool()
}

func (p *Pool) flushPool() error {
	for _, f := range p.frames {
		if f.Occupied && f.Dirty && f.PinCount == 0 {
			if err := p.file.WriteBlock(f.PageID, f.Buffer); err != nil {
				return errors.Wrapf(err, "flush page %d", f.PageID)
			}
			p.numWrite++
			f.Timestamp = p.tick()
			f.Dirty = false
			p.log.WithFields(logrus.Fields{"page": f.PageID, "frame": f.FrameIndex}).Debug("flushed page")
		}
	}
	return nil
}

// Pin returns a handle to pageID, loading it through the replacement
// policy on a miss. Negative page ids are rejected outright; a miss
// that finds every frame pinned fails without mutating any state.
func (p *Pool) Pin(pageID PageId) (*PageHandle, error) {
	if err := p.requireInit(); err != nil {
		return nil, err
	}
	if pageID < 0 {
		return nil, errors.Wrapf(ErrKeyNotFound, "negative page id %d", pageID)
	}

	if idx, ok := p.directory.Get(pageID); ok {
		f := p.frames[idx]
		f.Timestamp = p.tick()
		f.PinCount++
		p.log.WithFields(logrus.Fields{"page": pageID, "frame": idx, "pins": f.PinCount}).Debug("pin hit")
		return &PageHandle{PageID: pageID, Buffer: f.Buffer}, nil
	}

	victimIdx, ok := p.policy.selectVictim(p.frames)
	if !ok {
		p.log.WithField("page", pageID).Warn("pin miss: no unpinned victim available")
		return nil, errors.Wrapf(ErrWriteFailed, "pin page %d: all frames pinned", pageID)
	}

	victim := p.frames[victimIdx]
	victim.Timestamp = p.tick()
	if victim.Occupied {
		evictedPage := victim.PageID
		p.directory.Remove(evictedPage)
		if victim.Dirty {
			if err := p.file.WriteBlock(evictedPage, victim.Buffer); err != nil {
				return nil, errors.Wrapf(err, "evict page %d", evictedPage)
			}
			p.numWrite++
			victim.Dirty = false
		}
		victim.Occupied = false
		p.log.WithFields(logrus.Fields{"evicted": evictedPage, "frame": victimIdx}).Debug("evicted page")
	}

	p.directory.Set(pageID, victimIdx)
	if err := p.file.EnsureCapacity(pageID + 1); err != nil {
		p.directory.Remove(pageID)
		return nil, errors.Wrapf(err, "grow file for page %d", pageID)
	}
	if err := p.file.ReadBlock(pageID, victim.Buffer); err != nil {
		// Roll back: the frame never becomes Occupied and the
		// directory entry is removed, per SPEC_FULL.md §4.5's
		// resolution of the pin-miss rollback open question.
		p.directory.Remove(pageID)
		return nil, errors.Wrapf(err, "read page %d", pageID)
	}
	p.numRead++
	victim.Dirty = false
	victim.PinCount = 1
	victim.Occupied = true
	victim.PageID = pageID

	p.log.WithFields(logrus.Fields{"page": pageID, "frame": victimIdx}).Debug("pin miss loaded page")
	return &PageHandle{PageID: pageID, Buffer: victim.Buffer}, nil
}

func (p *Pool) frameFor(h *PageHandle) (*Frame, error) {
	idx, ok := p.directory.Get(h.PageID)
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "page %d not resident", h.PageID)
	}
	return p.frames[idx], nil
}

// Unpin releases one hold on h's page. An unpin below zero is clamped,
// not an error — a deliberate robustness choice per SPEC_FULL.md §4.5.
func (p *Pool) Unpin(h *PageHandle) error {
	if err := p.requireInit(); err != nil {
		return err
	}
	f, err := p.frameFor(h)
	if err != nil {
		return err
	}
	f.Timestamp = p.tick()
	if f.PinCount > 0 {
		f.PinCount--
	}
	return nil
}

// MarkDirty flags h's page as modified since last write/load.
func (p *Pool) MarkDirty(h *PageHandle) error {
	if err := p.requireInit(); err != nil {
		return err
	}
	f, err := p.frameFor(h)
	if err != nil {
		return err
	}
	f.Timestamp = p.tick()
	f.Dirty = true
	return nil
}

// ForcePage writes h's page back immediately. It fails if the page is
// still pinned — a force requires the page to be quiescent.
func (p *Pool) ForcePage(h *PageHandle) error {
	if err := p.requireInit(); err != nil {
		return err
	}
	f, err := p.frameFor(h)
	if err != nil {
		return err
	}
	f.Timestamp = p.tick()
	if f.PinCount != 0 {
		return errors.Wrapf(ErrWriteFailed, "force page %d: still pinned", h.PageID)
	}
	if err := p.file.WriteBlock(f.PageID, f.Buffer); err != nil {
		return errors.Wrapf(err, "force page %d", f.PageID)
	}
	p.numWrite++
	f.Dirty = false
	return nil
}

// FrameContents returns, per frame, the resident page id or NoPage.
func (p *Pool) FrameContents() []PageId {
	out := make([]PageId, len(p.frames))
	for i, f := range p.frames {
		if f.Occupied {
			out[i] = f.PageID
		} else {
			out[i] = NoPage
		}
	}
	return out
}

// DirtyFlags returns, per frame, whether it is occupied and dirty.
func (p *Pool) DirtyFlags() []bool {
	out := make([]bool, len(p.frames))
	for i, f := range p.frames {
		out[i] = f.Occupied && f.Dirty
	}
	return out
}

// FixCounts returns, per frame, its pin count (0 if not occupied).
func (p *Pool) FixCounts() []int {
	out := make([]int, len(p.frames))
	for i, f := range p.frames {
		if f.Occupied {
			out[i] = f.PinCount
		}
	}
	return out
}

// NumReadIO reports the number of disk reads performed since creation.
func (p *Pool) NumReadIO() int { return p.numRead }

// NumWriteIO reports the number of disk writes performed since creation.
func (p *Pool) NumWriteIO() int { return p.numWrite }
