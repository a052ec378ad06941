// Copyright 2025 Sqlpath Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package billyfs adapts a store to the go-billy filesystem interface, so
// anything speaking billy (git worktrees, test harnesses) can run on top of
// a store file. Payloads are whole-file: a handle buffers the entire content
// in memory and flushes on Close.
package billyfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"sqlpath/internal/common"
	"sqlpath/internal/vfs"
)

// Adapter exposes a vfs.FS as a billy.Filesystem.
type Adapter struct {
	fs *vfs.FS
}

// New creates a billy adapter over the given filesystem.
func New(fs *vfs.FS) *Adapter {
	return &Adapter{fs: fs}
}

// resolve converts a billy path (slash-separated, possibly absolute) to a
// store path. Billy treats "/" as the filesystem root, which maps onto the
// store's root directory.
func (a *Adapter) resolve(filename string) (*vfs.Path, error) {
	cleaned := path.Clean("/" + filename)
	return a.fs.Path(strings.TrimPrefix(cleaned, "/"))
}

func toOSError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return os.ErrNotExist
	case errors.Is(err, common.ErrExists):
		return os.ErrExist
	default:
		return err
	}
}

func (a *Adapter) Create(filename string) (billy.File, error) {
	return a.OpenFile(filename, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
}

func (a *Adapter) Open(filename string) (billy.File, error) {
	return a.OpenFile(filename, os.O_RDONLY, 0)
}

func (a *Adapter) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	p, err := a.resolve(filename)
	if err != nil {
		return nil, toOSError(err)
	}
	ctx := context.Background()

	var data []byte
	exists, err := p.IsFile(ctx)
	if err != nil {
		return nil, toOSError(err)
	}
	switch {
	case exists && flag&os.O_TRUNC == 0:
		if data, err = p.ReadBytes(ctx); err != nil {
			return nil, toOSError(err)
		}
	case !exists && flag&os.O_CREATE == 0:
		return nil, os.ErrNotExist
	}

	handle := &file{
		adapter: a,
		path:    p,
		name:    filename,
		flags:   flag,
		data:    data,
	}
	if flag&os.O_APPEND != 0 {
		handle.offset = int64(len(data))
	}
	// Create/truncate materializes the entry immediately so a Stat between
	// open and close observes it.
	if handle.writable() && (!exists || flag&os.O_TRUNC != 0) {
		if err := p.WriteBytes(ctx, data); err != nil {
			return nil, toOSError(err)
		}
	}
	return handle, nil
}

func (a *Adapter) Stat(filename string) (os.FileInfo, error) {
	p, err := a.resolve(filename)
	if err != nil {
		return nil, toOSError(err)
	}
	info, err := p.Stat(context.Background())
	if err != nil {
		return nil, toOSError(err)
	}
	return &fileInfo{name: path.Base("/" + filename), size: info.Size, isDir: info.IsDir}, nil
}

// Lstat is identical to Stat: the store has no symlinks.
func (a *Adapter) Lstat(filename string) (os.FileInfo, error) {
	return a.Stat(filename)
}

// Rename moves a file by rewriting its bytes under the new name. Directory
// renames are not supported.
func (a *Adapter) Rename(oldpath, newpath string) error {
	ctx := context.Background()
	from, err := a.resolve(oldpath)
	if err != nil {
		return toOSError(err)
	}
	to, err := a.resolve(newpath)
	if err != nil {
		return toOSError(err)
	}
	data, err := from.ReadBytes(ctx)
	if err != nil {
		return toOSError(err)
	}
	if err := to.WriteBytes(ctx, data); err != nil {
		return toOSError(err)
	}
	return toOSError(from.Unlink(ctx, false))
}

// Remove deletes a file or an empty directory.
func (a *Adapter) Remove(filename string) error {
	ctx := context.Background()
	p, err := a.resolve(filename)
	if err != nil {
		return toOSError(err)
	}
	isDir, err := p.IsDir(ctx)
	if err != nil {
		return toOSError(err)
	}
	if isDir {
		return toOSError(p.Rmdir(ctx))
	}
	return toOSError(p.Unlink(ctx, false))
}

func (a *Adapter) Join(elem ...string) string {
	return path.Join(elem...)
}

func (a *Adapter) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

func (a *Adapter) ReadDir(dirname string) ([]os.FileInfo, error) {
	p, err := a.resolve(dirname)
	if err != nil {
		return nil, toOSError(err)
	}
	ctx := context.Background()
	children, err := p.Iterdir(ctx)
	if err != nil {
		return nil, toOSError(err)
	}
	infos := make([]os.FileInfo, 0, len(children))
	for _, child := range children {
		info, err := child.Stat(ctx)
		if err != nil {
			return nil, toOSError(err)
		}
		infos = append(infos, &fileInfo{name: child.Name(), size: info.Size, isDir: info.IsDir})
	}
	return infos, nil
}

func (a *Adapter) MkdirAll(filename string, perm os.FileMode) error {
	p, err := a.resolve(filename)
	if err != nil {
		return toOSError(err)
	}
	if len(p.Segments()) == 0 {
		return nil // root always exists
	}
	return toOSError(p.Mkdir(context.Background(), true, true))
}

func (a *Adapter) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (a *Adapter) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

func (a *Adapter) Chroot(path string) (billy.Filesystem, error) {
	return nil, billy.ErrNotSupported
}

func (a *Adapter) Root() string {
	return "/"
}

func (a *Adapter) Capabilities() billy.Capability {
	return billy.WriteCapability | billy.ReadCapability |
		billy.ReadAndWriteCapability | billy.SeekCapability | billy.TruncateCapability
}

// file is a whole-file handle: content is buffered in memory and flushed to
// the store when the handle closes (writable handles only).
type file struct {
	adapter *Adapter
	path    *vfs.Path
	name    string
	flags   int
	data    []byte
	offset  int64
	closed  bool
}

func (f *file) writable() bool {
	return f.flags&(os.O_WRONLY|os.O_RDWR) != 0
}

func (f *file) Name() string {
	return f.name
}

func (f *file) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if !f.writable() {
		return 0, os.ErrPermission
	}
	end := f.offset + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[f.offset:end], p)
	f.offset = end
	return len(p), nil
}

func (f *file) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	switch whence {
	case io.SeekStart:
		f.offset = offset
	case io.SeekCurrent:
		f.offset += offset
	case io.SeekEnd:
		f.offset = int64(len(f.data)) + offset
	}
	return f.offset, nil
}

func (f *file) Truncate(size int64) error {
	if f.closed {
		return os.ErrClosed
	}
	if !f.writable() {
		return os.ErrPermission
	}
	if size <= int64(len(f.data)) {
		f.data = f.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.data)
		f.data = grown
	}
	return nil
}

func (f *file) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true
	if !f.writable() {
		return nil
	}
	return toOSError(f.path.WriteBytes(context.Background(), f.data))
}

func (f *file) Lock() error   { return nil }
func (f *file) Unlock() error { return nil }

type fileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (fi *fileInfo) Name() string { return fi.name }
func (fi *fileInfo) Size() int64  { return fi.size }

func (fi *fileInfo) Mode() os.FileMode {
	if fi.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}

// ModTime returns the zero time: the store keeps no timestamps.
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return fi.isDir }
func (fi *fileInfo) Sys() interface{}   { return nil }

var (
	_ billy.Filesystem = (*Adapter)(nil)
	_ billy.Capable    = (*Adapter)(nil)
	_ billy.File       = (*file)(nil)
)
