package buffer

import "github.com/haibtran/swandb/internal/storage"

// tag uniquely identifies a page across every file the pool serves. File
// identity is the File value itself, so two handles are the same file only
// if they are the same handle; the engine registry hands out one handle per
// name. Filenames are for diagnostics, never identity.
type tag struct {
	file   storage.File
	pageNo uint32
}

func tagOf(f storage.File, pageNo uint32) tag {
	return tag{file: f, pageNo: pageNo}
}

// frameTable is the page-identity index: it maps a resident page to the
// frame holding it. An entry exists iff the frame is valid. Lookup miss is
// an expected outcome, not an error.
type frameTable map[tag]FrameID

func newFrameTable() frameTable {
	return make(frameTable)
}

func (t frameTable) lookup(k tag) (FrameID, bool) {
	id, ok := t[k]
	return id, ok
}

func (t frameTable) insert(k tag, id FrameID) {
	t[k] = id
}

// remove deletes the mapping and reports whether it existed. Eviction and
// dispose tolerate a missing entry: a frame can be torn down without ever
// having been indexed.
func (t frameTable) remove(k tag) bool {
	_, ok := t[k]
	if ok {
		delete(t, k)
	}
	return ok
}
