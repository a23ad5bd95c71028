package resources

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ResourceIO provides filesystem-like access without hard-coding the storage
// medium. Paths are the slash-separated path section of a ResourcePath,
// relative to the source root. Implementations must never panic on a missing
// file; LoadFile reports it as a *FileLoadError wrapping ErrFileNotFound.
//
// All operations take a context because alternate implementations (archives,
// network sources) may suspend while waiting on storage.
type ResourceIO interface {
	Exists(ctx context.Context, path string) bool
	IsFile(ctx context.Context, path string) bool
	IsDir(ctx context.Context, path string) bool
	LoadFile(ctx context.Context, path string) ([]byte, error)
}

// FsResourceIO maps virtual paths directly onto the local filesystem below a
// root directory. It is the manager's default source.
type FsResourceIO struct {
	root string
}

func NewFsResourceIO(root string) *FsResourceIO {
	return &FsResourceIO{root: root}
}

func (f *FsResourceIO) Root() string { return f.root }

func (f *FsResourceIO) fullPath(path string) string {
	return filepath.Join(f.root, filepath.FromSlash(path))
}

func (f *FsResourceIO) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(f.fullPath(path))
	return err == nil
}

func (f *FsResourceIO) IsFile(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(f.fullPath(path))
	return err == nil && info.Mode().IsRegular()
}

func (f *FsResourceIO) IsDir(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(f.fullPath(path))
	return err == nil && info.IsDir()
}

func (f *FsResourceIO) LoadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FileLoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(f.fullPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileLoadError{Path: path, Err: ErrFileNotFound}
		}
		return nil, &FileLoadError{Path: path, Err: err}
	}
	return data, nil
}
