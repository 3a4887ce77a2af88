package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// File is the on-disk collaborator the buffer manager reads and writes
// through. Implementations own page allocation and physical placement;
// the buffer layer only ever addresses whole pages by number.
type File interface {
	// ReadPage reads page pageNo into dst (exactly PageSize bytes).
	ReadPage(pageNo uint32, dst []byte) error
	// WritePage writes p back to disk at the position recovered from the
	// page number embedded in its bytes.
	WritePage(p *Page) error
	// AllocatePage extends the file (or reuses a previously deleted slot)
	// and returns a fresh page with its number assigned.
	AllocatePage() (*Page, error)
	// DeletePage physically removes page pageNo.
	DeletePage(pageNo uint32) error
	// Filename reports the file's identity; used in diagnostics.
	Filename() string
}

var _ File = (*DiskFile)(nil)

// DiskFile is a File backed by a single OS file: page N lives at byte offset
// N*PageSize. Deleted page numbers are kept on an in-memory free list and
// handed out again by AllocatePage; the list is not persisted, so slots freed
// in a previous process run are not reused until deleted again.
type DiskFile struct {
	mu        sync.Mutex
	f         *os.File
	name      string
	pageCount uint32
	freeList  []uint32
}

// OpenDiskFile opens or creates the file at path.
func OpenDiskFile(path string) (*DiskFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat db file: %w", err)
	}

	return &DiskFile{
		f:         f,
		name:      filepath.Base(path),
		pageCount: uint32(info.Size() / PageSize),
	}, nil
}

func (df *DiskFile) Filename() string {
	return df.name
}

// PageCount returns the number of pages currently materialized in the file.
func (df *DiskFile) PageCount() uint32 {
	df.mu.Lock()
	defer df.mu.Unlock()
	return df.pageCount
}

func (df *DiskFile) ReadPage(pageNo uint32, dst []byte) error {
	if len(dst) != PageSize {
		return ErrWrongPageSize
	}

	df.mu.Lock()
	defer df.mu.Unlock()

	if df.f == nil {
		return ErrFileClosed
	}
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %q (have %d)", ErrPageOutOfRange, pageNo, df.name, df.pageCount)
	}

	n, err := df.f.ReadAt(dst, int64(pageNo)*PageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read page %d of %q: %w", pageNo, df.name, err)
	}
	// Zero-fill the rest of the page on a short read.
	for i := n; i < PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

func (df *DiskFile) WritePage(p *Page) error {
	if len(p.Buf) != PageSize {
		return ErrWrongPageSize
	}
	pageNo := p.PageNumber()

	df.mu.Lock()
	defer df.mu.Unlock()

	if df.f == nil {
		return ErrFileClosed
	}
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %q (have %d)", ErrPageOutOfRange, pageNo, df.name, df.pageCount)
	}
	return df.writeAtLocked(pageNo, p.Buf)
}

func (df *DiskFile) AllocatePage() (*Page, error) {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.f == nil {
		return nil, ErrFileClosed
	}

	var pageNo uint32
	if n := len(df.freeList); n > 0 {
		pageNo = df.freeList[n-1]
		df.freeList = df.freeList[:n-1]
	} else {
		pageNo = df.pageCount
	}

	p, err := NewPage(make([]byte, PageSize), pageNo)
	if err != nil {
		return nil, err
	}

	// Materialize the page on disk immediately so it is in range for
	// subsequent reads and write-backs.
	if err := df.writeAtLocked(pageNo, p.Buf); err != nil {
		return nil, err
	}
	if pageNo >= df.pageCount {
		df.pageCount = pageNo + 1
	}
	return p, nil
}

func (df *DiskFile) DeletePage(pageNo uint32) error {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.f == nil {
		return ErrFileClosed
	}
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %q (have %d)", ErrPageOutOfRange, pageNo, df.name, df.pageCount)
	}

	// Zero the slot on disk; an all-zero header marks the page unused.
	if err := df.writeAtLocked(pageNo, make([]byte, PageSize)); err != nil {
		return err
	}
	df.freeList = append(df.freeList, pageNo)
	return nil
}

func (df *DiskFile) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.f == nil {
		return nil
	}
	err := df.f.Close()
	df.f = nil
	if err != nil {
		return fmt.Errorf("close db file %q: %w", df.name, err)
	}
	return nil
}

func (df *DiskFile) writeAtLocked(pageNo uint32, src []byte) error {
	n, err := df.f.WriteAt(src, int64(pageNo)*PageSize)
	if err != nil {
		return fmt.Errorf("write page %d of %q: %w", pageNo, df.name, err)
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}
