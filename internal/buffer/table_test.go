package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haibtran/swandb/internal/storage"
)

func TestFrameTable_LookupMissIsNotAnError(t *testing.T) {
	tbl := newFrameTable()

	_, ok := tbl.lookup(tag{file: &storage.DiskFile{}, pageNo: 1})
	require.False(t, ok)
}

func TestFrameTable_InsertLookupRemove(t *testing.T) {
	tbl := newFrameTable()
	f := &storage.DiskFile{}
	k := tagOf(f, 7)

	tbl.insert(k, 3)
	id, ok := tbl.lookup(k)
	require.True(t, ok)
	require.Equal(t, FrameID(3), id)

	// The same page number under another file handle is a distinct key.
	_, ok = tbl.lookup(tagOf(&storage.DiskFile{}, 7))
	require.False(t, ok)

	require.True(t, tbl.remove(k))
	_, ok = tbl.lookup(k)
	require.False(t, ok)

	// Removing an absent key reports false; callers tolerate it.
	require.False(t, tbl.remove(k))
}
