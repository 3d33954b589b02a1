package bufferpool

import (
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// PageId indexes a page in a PageFile, zero-based.
type PageId = int

// PageFile is a durable, fixed-size page array persisted to a named
// location on disk. It is a port of the original C storage manager
// (create/open/close/destroy, random read/write by page
// index, capacity extension, positional convenience reads).
type PageFile struct {
	name       string
	f          *os.File
	totalPages int
	curPagePos int
}

// CreatePageFile creates a file containing exactly one zero-filled
// page. It fails if the path cannot be created or the initial page
// cannot be written in full.
func CreatePageFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(ErrFileNotFound, "create %q: %v", name, err)
	}
	defer f.Close()

	empty := make([]byte, PageSize)
	n, err := f.Write(empty)
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "create %q: %v", name, err)
	}
	if n != PageSize {
		return errors.Wrapf(ErrWriteFailed, "create %q: short write (%d/%d bytes)", name, n, PageSize)
	}
	return nil
}

// OpenPageFile opens an existing page file for read+write and computes
// its page count from the file size (assumed a multiple of PageSize).
func OpenPageFile(name string) (*PageFile, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(ErrFileNotFound, "open %q: %v", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(ErrFileNotFound, "stat %q: %v", name, err)
	}
	return &PageFile{
		name:       name,
		f:          f,
		totalPages: int(info.Size() / PageSize),
		curPagePos: 0,
	}, nil
}

// DestroyPageFile removes the named page file.
func DestroyPageFile(name string) error {
	if err := os.Remove(name); err != nil {
		return errors.Wrapf(ErrFileNotFound, "destroy %q: %v", name, err)
	}
	return nil
}

// Close releases the OS file handle. Closing an already-closed file is
// reported, not silently accepted, matching the teacher's idempotent
// failure semantics.
func (pf *PageFile) Close() error {
	if pf.f == nil {
		return ErrFileNotFound
	}
	err := pf.f.Close()
	pf.f = nil
	if err != nil {
		return errors.Wrapf(ErrFileNotFound, "close %q: %v", pf.name, err)
	}
	return nil
}

// TotalPages reports the file's current page count.
func (pf *PageFile) TotalPages() int { return pf.totalPages }

// CurPagePos reports the position tracked by the positional read/write
// convenience operations.
func (pf *PageFile) CurPagePos() int { return pf.curPagePos }

func (pf *PageFile) requireOpen() error {
	if pf == nil || pf.f == nil {
		return ErrFileHandleNotInit
	}
	return nil
}

// ReadBlock reads page p into dst, which must be exactly PageSize bytes.
func (pf *PageFile) ReadBlock(p PageId, dst []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	if p < 0 || p >= pf.totalPages {
		return errors.Wrapf(ErrReadNonExistingPage, "page %d (total %d)", p, pf.totalPages)
	}
	if _, err := pf.f.Seek(int64(p)*PageSize, io.SeekStart); err != nil {
		return errors.Wrapf(ErrSeekFailed, "seek to page %d: %v", p, err)
	}
	n, err := io.ReadFull(pf.f, dst[:PageSize])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrReadNonExistingPage, "page %d: short read at eof", p)
	}
	if err != nil {
		return errors.Wrapf(ErrReadFailed, "page %d: %v", p, err)
	}
	if n != PageSize {
		return errors.Wrapf(ErrReadFailed, "page %d: short read (%d/%d bytes)", p, n, PageSize)
	}
	return nil
}

// WriteBlock writes src (exactly PageSize bytes) to page p and flushes
// so a subsequent read observes the data.
func (pf *PageFile) WriteBlock(p PageId, src []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	if p < 0 || p >= pf.totalPages {
		return errors.Wrapf(ErrPageOutOfRange, "page %d (total %d)", p, pf.totalPages)
	}
	if _, err := pf.f.Seek(int64(p)*PageSize, io.SeekStart); err != nil {
		return errors.Wrapf(ErrSeekFailed, "seek to page %d: %v", p, err)
	}
	n, err := pf.f.Write(src[:PageSize])
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "page %d: %v", p, err)
	}
	if n != PageSize {
		return errors.Wrapf(ErrWriteFailed, "page %d: short write (%d/%d bytes)", p, n, PageSize)
	}
	if err := pf.f.Sync(); err != nil {
		return errors.Wrapf(ErrWriteFailed, "page %d: sync: %v", p, err)
	}
	return nil
}

// AppendEmptyBlock grows the file by one zero-filled page. A failure to
// allocate the new page's space (disk full, or a short write stopping
// short of a full page) reports ErrAllocationFailed rather than the
// generic write failure, matching the storage manager's allocation
// error surface.
func (pf *PageFile) AppendEmptyBlock() error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	if _, err := pf.f.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrapf(ErrSeekFailed, "append: %v", err)
	}
	empty := make([]byte, PageSize)
	n, err := pf.f.Write(empty)
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return errors.Wrapf(ErrAllocationFailed, "append: %v", err)
		}
		return errors.Wrapf(ErrWriteFailed, "append: %v", err)
	}
	if n != PageSize {
		return errors.Wrapf(ErrAllocationFailed, "append: short write (%d/%d bytes)", n, PageSize)
	}
	if err := pf.f.Sync(); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return errors.Wrapf(ErrAllocationFailed, "append: sync: %v", err)
		}
		return errors.Wrapf(ErrWriteFailed, "append: sync: %v", err)
	}
	pf.totalPages++
	return nil
}

// EnsureCapacity grows the file until it has at least n pages.
func (pf *PageFile) EnsureCapacity(n int) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	for pf.totalPages < n {
		if err := pf.AppendEmptyBlock(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFirst reads page 0 and, on success, repositions cur_page_pos there.
func (pf *PageFile) ReadFirst(dst []byte) error {
	return pf.readPositional(0, dst)
}

// ReadPrevious reads the page before cur_page_pos.
func (pf *PageFile) ReadPrevious(dst []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	p := pf.curPagePos - 1
	if p < 0 {
		return errors.Wrapf(ErrReadNonExistingPage, "no page before %d", pf.curPagePos)
	}
	return pf.readPositional(p, dst)
}

// ReadCurrent re-reads the page at cur_page_pos.
func (pf *PageFile) ReadCurrent(dst []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	if pf.curPagePos < 0 || pf.curPagePos >= pf.totalPages {
		return errors.Wrapf(ErrReadNonExistingPage, "current position %d out of range", pf.curPagePos)
	}
	return pf.readPositional(pf.curPagePos, dst)
}

// ReadNext reads the page after cur_page_pos.
func (pf *PageFile) ReadNext(dst []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	return pf.readPositional(pf.curPagePos+1, dst)
}

// ReadLast reads the final page in the file.
func (pf *PageFile) ReadLast(dst []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	if pf.totalPages == 0 {
		return errors.Wrap(ErrReadNonExistingPage, "file is empty")
	}
	return pf.readPositional(pf.totalPages-1, dst)
}

// WriteCurrent writes src to cur_page_pos.
func (pf *PageFile) WriteCurrent(src []byte) error {
	if err := pf.requireOpen(); err != nil {
		return err
	}
	return pf.WriteBlock(pf.curPagePos, src)
}

// readPositional reads page p and updates cur_page_pos only on success,
// leaving it untouched on failure.
func (pf *PageFile) readPositional(p PageId, dst []byte) error {
	if err := pf.ReadBlock(p, dst); err != nil {
		return err
	}
	pf.curPagePos = p
	return nil
}
