package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/haibtran/swandb/internal/buffer"
	"github.com/haibtran/swandb/internal/storage"
)

var ErrDatabaseClosed = errors.New("swandb: database is closed")

// Database wires one shared buffer pool over a set of on-disk files. Files
// are opened lazily and registered by name; every open handle goes through
// the same pool, so residency and eviction pressure are global.
type Database struct {
	DataDir string
	Pool    *buffer.Manager

	files  *xsync.MapOf[string, *storage.DiskFile]
	closed atomic.Bool
}

// NewDatabase creates the data directory if needed and sizes the pool to
// poolSize frames.
func NewDatabase(dataDir string, poolSize int) (*Database, error) {
	if err := os.MkdirAll(dataDir, storage.FileMode0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Database{
		DataDir: dataDir,
		Pool:    buffer.NewManager(poolSize),
		files:   xsync.NewMapOf[string, *storage.DiskFile](),
	}, nil
}

// OpenFile opens (or creates) the named file and registers it. Repeated
// opens return the same handle, so page identity stays stable across callers.
func (db *Database) OpenFile(name string) (*storage.DiskFile, error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	if f, ok := db.files.Load(name); ok {
		return f, nil
	}

	f, err := storage.OpenDiskFile(filepath.Join(db.DataDir, name))
	if err != nil {
		return nil, err
	}
	actual, loaded := db.files.LoadOrStore(name, f)
	if loaded {
		// Lost the race; keep the registered handle.
		_ = f.Close()
	}
	return actual, nil
}

// FlushFile writes back and drops every resident page of the named file.
func (db *Database) FlushFile(name string) error {
	if db.closed.Load() {
		return ErrDatabaseClosed
	}
	f, ok := db.files.Load(name)
	if !ok {
		return nil
	}
	return db.Pool.FlushFile(f)
}

// RemoveFile drops the file's pages from the pool, closes the handle and
// unlinks the file. Fails with buffer.ErrPagePinned while any of its pages
// is in use.
func (db *Database) RemoveFile(name string) error {
	if db.closed.Load() {
		return ErrDatabaseClosed
	}
	f, ok := db.files.Load(name)
	if !ok {
		return nil
	}
	if err := db.Pool.FlushFile(f); err != nil {
		return err
	}
	db.files.Delete(name)
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(filepath.Join(db.DataDir, name))
}

// Close flushes the pool and closes every registered file.
func (db *Database) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := db.Pool.Close()

	db.files.Range(func(name string, f *storage.DiskFile) bool {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("close file", "file", name, "err", cerr)
		}
		return true
	})
	db.files.Clear()
	return err
}
