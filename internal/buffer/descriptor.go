package buffer

import (
	"fmt"

	"github.com/haibtran/swandb/internal/storage"
)

// FrameID identifies one slot of the buffer pool. It is the only handle that
// crosses the package boundary; it is an index, never a memory address.
type FrameID int

// frameDesc is the bookkeeping record for one pool slot. Descriptors and
// page buffers are parallel arrays co-indexed by FrameID.
type frameDesc struct {
	frameID FrameID

	file   storage.File
	pageNo uint32

	valid    bool
	pinCount uint32
	dirty    bool
	refBit   bool
}

// set populates the descriptor for a freshly loaded page. The caller that
// triggered the load holds the first pin, and the page gets one pass through
// the clock before it becomes eviction-eligible.
func (d *frameDesc) set(f storage.File, pageNo uint32) {
	d.file = f
	d.pageNo = pageNo
	d.valid = true
	d.pinCount = 1
	d.dirty = false
	d.refBit = true
}

// clear resets the descriptor to its invalid baseline. Only the frame id
// survives.
func (d *frameDesc) clear() {
	*d = frameDesc{frameID: d.frameID}
}

func (d *frameDesc) String() string {
	if !d.valid {
		return fmt.Sprintf("frame %d: empty", d.frameID)
	}
	return fmt.Sprintf("frame %d: file=%s page=%d pin=%d dirty=%v ref=%v",
		d.frameID, d.file.Filename(), d.pageNo, d.pinCount, d.dirty, d.refBit)
}
