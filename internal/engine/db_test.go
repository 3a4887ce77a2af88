package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haibtran/swandb/internal/buffer"
	"github.com/haibtran/swandb/internal/storage"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "data"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDatabase_OpenFile_SharedHandle(t *testing.T) {
	db := newTestDatabase(t)

	f1, err := db.OpenFile("users.db")
	require.NoError(t, err)
	f2, err := db.OpenFile("users.db")
	require.NoError(t, err)
	require.Same(t, f1, f2)
}

func TestDatabase_FlushFile(t *testing.T) {
	db := newTestDatabase(t)

	f, err := db.OpenFile("users.db")
	require.NoError(t, err)

	pageNo, p, err := db.Pool.AllocatePage(f)
	require.NoError(t, err)
	copy(p.Data(), []byte("row data"))
	require.NoError(t, db.Pool.UnpinPage(f, pageNo, true))

	require.NoError(t, db.FlushFile("users.db"))

	dst := make([]byte, storage.PageSize)
	require.NoError(t, f.ReadPage(pageNo, dst))
	require.Equal(t, []byte("row data"), dst[storage.HeaderSize:storage.HeaderSize+8])

	// Flushing a never-opened file is a no-op.
	require.NoError(t, db.FlushFile("missing.db"))
}

func TestDatabase_RemoveFile(t *testing.T) {
	db := newTestDatabase(t)

	f, err := db.OpenFile("temp.db")
	require.NoError(t, err)
	pageNo, _, err := db.Pool.AllocatePage(f)
	require.NoError(t, err)

	// Pinned page blocks removal.
	require.ErrorIs(t, db.RemoveFile("temp.db"), buffer.ErrPagePinned)

	require.NoError(t, db.Pool.UnpinPage(f, pageNo, false))
	require.NoError(t, db.RemoveFile("temp.db"))

	_, err = os.Stat(filepath.Join(db.DataDir, "temp.db"))
	require.True(t, os.IsNotExist(err))

	// Removal is idempotent once the file is unregistered.
	require.NoError(t, db.RemoveFile("temp.db"))
}

// Close racing OpenFile must stay well-defined: every open either returns a
// handle or ErrDatabaseClosed, never anything else.
func TestDatabase_Close_ConcurrentOpen(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "data"), 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var bad atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f, err := db.OpenFile("spin.db")
				if err != nil {
					if !errors.Is(err, ErrDatabaseClosed) {
						bad.Add(1)
					}
					return
				}
				if f == nil {
					bad.Add(1)
					return
				}
			}
		}()
	}

	require.NoError(t, db.Close())
	wg.Wait()
	require.Equal(t, int32(0), bad.Load())

	// Close is idempotent and the database stays closed.
	require.NoError(t, db.Close())
	_, err = db.OpenFile("spin.db")
	require.ErrorIs(t, err, ErrDatabaseClosed)
}

func TestDatabase_Close_FlushesDirtyPages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	db, err := NewDatabase(dir, 4)
	require.NoError(t, err)

	f, err := db.OpenFile("users.db")
	require.NoError(t, err)
	pageNo, p, err := db.Pool.AllocatePage(f)
	require.NoError(t, err)
	copy(p.Data(), []byte("durable"))
	require.NoError(t, db.Pool.UnpinPage(f, pageNo, true))

	require.NoError(t, db.Close())

	// Reopen from scratch and verify the bytes.
	df, err := storage.OpenDiskFile(filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	defer df.Close()

	dst := make([]byte, storage.PageSize)
	require.NoError(t, df.ReadPage(pageNo, dst))
	require.Equal(t, []byte("durable"), dst[storage.HeaderSize:storage.HeaderSize+7])

	// Operations after close fail cleanly.
	_, err = db.OpenFile("users.db")
	require.ErrorIs(t, err, ErrDatabaseClosed)
}
