package enum

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate walks the filesystem and yields open files.
// Phase 1: Walk directory tree and collect eligible entries (fast, sequential).
// Phase 2: Open files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	files, err := e.walk(ctx)
	if err != nil {
		return err
	}

	numReaders := e.config.Workers
	if numReaders < 1 {
		numReaders = runtime.NumCPU()
	}
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	entriesCh := make(chan Entry, numReaders*2)

	// Feed entries to readers
	g.Go(func() error {
		defer close(entriesCh)
		for _, f := range files {
			select {
			case entriesCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range entriesCh {
				if err := processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

// walk collects the entries that pass the configured filters.
func (e *FilesystemEnumerator) walk(ctx context.Context) ([]Entry, error) {
	root := e.config.Root

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		entry := Entry{Path: root, RelPath: filepath.Base(root), Size: info.Size(), ModTime: info.ModTime()}
		if e.skip(entry) {
			return nil, nil
		}
		return []Entry{entry}, nil
	}

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !e.config.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !e.config.IncludeHidden && isHidden(d.Name()) {
			return nil
		}

		if ignore != nil && ignore.MatchesPath(relPath) {
			return nil
		}

		info, err := e.fileInfo(path, d)
		if err != nil {
			return err
		}
		if info == nil {
			return nil
		}

		entry := Entry{Path: path, RelPath: relPath, Size: info.Size(), ModTime: info.ModTime()}
		if e.skip(entry) {
			return nil
		}
		files = append(files, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// fileInfo returns the info of a regular file, resolving symlinks when
// configured. It returns nil for anything that should not be read.
func (e *FilesystemEnumerator) fileInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !e.config.FollowSymlinks {
			return nil, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			// Dangling link
			return nil, nil
		}
		if !info.Mode().IsRegular() {
			return nil, nil
		}
		return info, nil
	}

	if !d.Type().IsRegular() {
		return nil, nil
	}
	return d.Info()
}

func (e *FilesystemEnumerator) skip(entry Entry) bool {
	if e.config.MaxFileSize > 0 && entry.Size > e.config.MaxFileSize {
		return true
	}
	return e.config.Skip != nil && e.config.Skip(entry)
}

// processFile opens a single file and invokes the callback.
func processFile(ctx context.Context, entry Entry, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, err := os.Open(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", entry.Path, err)
	}
	defer f.Close()

	return callback(ctx, entry, f)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
