package buffer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/haibtran/swandb/internal/storage"
)

var (
	DefaultNumFrames = 128

	// ErrPoolExhausted means a full clock sweep found every frame pinned.
	// Fatal to the request, not to the pool; the caller may retry once it
	// has unpinned something.
	ErrPoolExhausted = errors.New("buffer: no evictable frame (all pinned)")

	// ErrPageNotPinned means unpin was called on a resident page whose pin
	// count is already zero. Caller protocol violation.
	ErrPageNotPinned = errors.New("buffer: page is not pinned")

	// ErrPagePinned means a file-scoped flush found one of the file's pages
	// still in use.
	ErrPagePinned = errors.New("buffer: page is pinned")

	// ErrBadBuffer means a frame was found invalid but still tagged with a
	// file during a flush scan. Internal consistency defect; not expected
	// in correct operation.
	ErrBadBuffer = errors.New("buffer: invalid frame still owned by file")
)

// Manager is the buffer pool: a fixed set of page-sized frames, an identity
// index from (file, page number) to frame, and a clock (second-chance)
// replacement policy. All disk access of its callers goes through it; pages
// are pinned while in use and written back lazily on eviction or flush.
//
// Every public operation runs to completion under one pool-wide mutex.
// Physical page I/O is a blocking call made while the pool is held. Pin
// counts are what allow many holders to use an already-resident page at
// once; mutating a pinned page's bytes is caller discipline.
type Manager struct {
	mu sync.Mutex

	numFrames int
	clockHand FrameID

	descs []frameDesc     // frame metadata, indexed by FrameID
	pool  []*storage.Page // frame store; pool[i] backs descs[i]
	table frameTable
}

// NewManager builds a pool with numFrames frames, all invalid. The frame
// count is fixed for the pool's lifetime. The clock hand starts on the last
// frame so its first advance lands on frame 0.
func NewManager(numFrames int) *Manager {
	if numFrames <= 0 {
		numFrames = DefaultNumFrames
	}

	m := &Manager{
		numFrames: numFrames,
		clockHand: FrameID(numFrames - 1),
		descs:     make([]frameDesc, numFrames),
		pool:      make([]*storage.Page, numFrames),
		table:     newFrameTable(),
	}
	for i := 0; i < numFrames; i++ {
		m.descs[i].frameID = FrameID(i)
		m.pool[i] = &storage.Page{Buf: make([]byte, storage.PageSize)}
	}
	return m
}

// NumFrames returns the pool's fixed capacity.
func (m *Manager) NumFrames() int {
	return m.numFrames
}

// FetchPage returns the requested page, pinned once for the caller. A hit
// costs no I/O; a miss evicts a victim frame and reads the page from f.
// The caller owes a matching UnpinPage.
func (m *Manager) FetchPage(f storage.File, pageNo uint32) (*storage.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.table.lookup(tagOf(f, pageNo)); ok {
		d := &m.descs[id]
		d.refBit = true
		d.pinCount++
		return m.pool[id], nil
	}

	id, err := m.allocFrame()
	if err != nil {
		return nil, err
	}
	if err := f.ReadPage(pageNo, m.pool[id].Buf); err != nil {
		return nil, err
	}
	m.table.insert(tagOf(f, pageNo), id)
	m.descs[id].set(f, pageNo)
	return m.pool[id], nil
}

// UnpinPage releases one pin on (f, pageNo). Unpinning a page that is not
// resident is a no-op: callers may unpin pages whose residency they are not
// certain of. markDirty is monotonic; only write-back clears the dirty bit.
func (m *Manager) UnpinPage(f storage.File, pageNo uint32, markDirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.table.lookup(tagOf(f, pageNo))
	if !ok {
		return nil
	}
	d := &m.descs[id]
	if d.pinCount == 0 {
		return fmt.Errorf("%w: page %d of %q (frame %d)", ErrPageNotPinned, pageNo, f.Filename(), id)
	}
	if markDirty {
		d.dirty = true
	}
	d.pinCount--
	return nil
}

// AllocatePage materializes a brand-new page in f and brings it into the
// pool, pinned once. If no frame can be freed the new on-disk page is not
// rolled back; that is the file's concern.
func (m *Manager) AllocatePage(f storage.File) (uint32, *storage.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := f.AllocatePage()
	if err != nil {
		return 0, nil, err
	}
	pageNo := p.PageNumber()

	id, err := m.allocFrame()
	if err != nil {
		return 0, nil, err
	}
	copy(m.pool[id].Buf, p.Buf)
	m.table.insert(tagOf(f, pageNo), id)
	m.descs[id].set(f, pageNo)
	return pageNo, m.pool[id], nil
}

// DisposePage deletes (f, pageNo) from the file, freeing its frame first if
// resident. Disposal is authoritative: it does not consult pin count or
// dirty state, so the caller must guarantee no other holder still references
// the page.
func (m *Manager) DisposePage(f storage.File, pageNo uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := tagOf(f, pageNo)
	if id, ok := m.table.lookup(k); ok {
		m.descs[id].clear()
		m.table.remove(k)
	}
	return f.DeletePage(pageNo)
}

// FlushFile writes back every dirty page of f and drops all of f's pages
// from the pool. It fails with ErrPagePinned if any of f's pages is still in
// use and ErrBadBuffer on an invalid frame still tagged with f. The scan is
// per-frame, not transactional: a failure on frame k leaves earlier frames
// already flushed and cleared, and the write-back of a dirty frame happens
// before its pin check.
func (m *Manager) FlushFile(f storage.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushFileLocked(f)
}

func (m *Manager) flushFileLocked(f storage.File) error {
	name := f.Filename()
	for i := range m.descs {
		d := &m.descs[i]
		if d.file != f {
			continue
		}
		if !d.valid {
			return fmt.Errorf("%w: frame %d (page=%d dirty=%v ref=%v)", ErrBadBuffer, d.frameID, d.pageNo, d.dirty, d.refBit)
		}
		if d.dirty {
			if err := d.file.WritePage(m.pool[i]); err != nil {
				return err
			}
			d.dirty = false
		}
		if d.pinCount != 0 {
			return fmt.Errorf("%w: page %d of %q (frame %d, pin=%d)", ErrPagePinned, d.pageNo, name, d.frameID, d.pinCount)
		}
		m.table.remove(tagOf(d.file, d.pageNo))
		d.clear()
	}
	return nil
}

// Close flushes the owning file of every dirty frame, then releases the
// frame table, frame store and index as a unit. The pool must not be used
// afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.descs {
		d := &m.descs[i]
		if d.valid && d.dirty {
			if err := m.flushFileLocked(d.file); err != nil {
				return err
			}
		}
	}
	m.descs = nil
	m.pool = nil
	m.table = nil
	return nil
}

// allocFrame runs the clock sweep and returns a frame reset to its invalid
// baseline, ready to be repopulated by the caller.
//
// Per step the hand advances one frame (wrapping) and examines it: a free
// frame wins outright; a set ref bit is cleared and the frame skipped (the
// second chance, which does not count against the exhaustion budget); a
// pinned frame counts toward the budget and is skipped; anything else is the
// victim, whose dirty contents are written back before its index entry
// disappears. The budget counts distinct pinned frames, so revisiting the
// same pinned frame across wraps cannot exhaust a pool that still holds an
// evictable frame; only when all numFrames frames have been seen pinned does
// the sweep fail with ErrPoolExhausted.
func (m *Manager) allocFrame() (FrameID, error) {
	counted := make([]bool, m.numFrames)
	pinned := 0
	for pinned < m.numFrames {
		m.advanceClock()
		d := &m.descs[m.clockHand]

		if !d.valid {
			return d.frameID, nil
		}
		if d.refBit {
			d.refBit = false
			continue
		}
		if d.pinCount > 0 {
			if !counted[d.frameID] {
				counted[d.frameID] = true
				pinned++
			}
			continue
		}

		if d.dirty {
			slog.Debug("buffer: writing back evicted page",
				"file", d.file.Filename(), "page", d.pageNo, "frame", d.frameID)
			if err := d.file.WritePage(m.pool[d.frameID]); err != nil {
				return 0, err
			}
			d.dirty = false
		}
		m.table.remove(tagOf(d.file, d.pageNo))
		d.clear()
		return d.frameID, nil
	}
	return 0, ErrPoolExhausted
}

func (m *Manager) advanceClock() {
	m.clockHand = (m.clockHand + 1) % FrameID(m.numFrames)
}

// Dump writes a human-readable snapshot of every frame plus the count of
// valid frames. Diagnostic only; no behavioral contract.
func (m *Manager) Dump(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := 0
	for i := range m.descs {
		fmt.Fprintln(w, m.descs[i].String())
		if m.descs[i].valid {
			valid++
		}
	}
	fmt.Fprintf(w, "valid frames: %d/%d\n", valid, m.numFrames)
}

func (m *Manager) String() string {
	var b strings.Builder
	m.Dump(&b)
	return b.String()
}
