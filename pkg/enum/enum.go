package enum

import (
	"context"
	"io"
	"time"
)

// Entry describes one file yielded by an enumerator.
type Entry struct {
	// Path is the file path as reachable from the working directory.
	Path string

	// RelPath is Path relative to the enumeration root, slash separated.
	RelPath string

	// Size is the file size in bytes at walk time.
	Size int64

	// ModTime is the modification time at walk time.
	ModTime time.Time
}

// Callback receives each enumerated file. The reader is only valid until the
// callback returns.
type Callback func(ctx context.Context, entry Entry, r io.Reader) error

// Enumerator discovers content to sniff from a source.
type Enumerator interface {
	// Enumerate yields files from the source.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links to regular files.
	FollowSymlinks bool

	// Workers is the number of files read in parallel (0 = number of CPUs).
	Workers int

	// Skip, when set, drops entries during the walk before they are opened.
	Skip func(Entry) bool
}
