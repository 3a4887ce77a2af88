package storage

import "errors"

const (
	OneKB = 1 << 10
	OneMB = 1 << 20

	// PageSize is the fixed size of every on-disk and in-memory page.
	PageSize = 1 << 13 // 8,192 (8 KiB)
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrWrongPageSize  = errors.New("storage: buffer size != PageSize")
	ErrPageOutOfRange = errors.New("storage: page number beyond end of file")
	ErrFileClosed     = errors.New("storage: file is closed")
)
