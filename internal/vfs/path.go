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

// Package vfs exposes the store as a filesystem-path-style API: paths are
// ordered segment sequences resolved against the tree relation, with
// stat/mkdir/read/write/link/unlink semantics modeled on a POSIX tree.
package vfs

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"sqlpath/internal/common"
	"sqlpath/internal/storage"
)

// FS binds the path API to an open store.
type FS struct {
	store *storage.Store
}

// New creates a path filesystem over the given store.
func New(store *storage.Store) *FS {
	return &FS{store: store}
}

// Store returns the underlying store.
func (f *FS) Store() *storage.Store {
	return f.store
}

// Path constructs a path from raw components. Components may contain "/"
// separators; empty components are dropped; a leading "/" is rejected. An
// empty component list addresses the root directory.
func (f *FS) Path(parts ...string) (*Path, error) {
	segments, err := common.SplitSegments(parts...)
	if err != nil {
		return nil, err
	}
	return &Path{fs: f, segments: segments}, nil
}

// Root returns the path of the root directory.
func (f *FS) Root() *Path {
	return &Path{fs: f}
}

// Path is one location in the store's tree. The zero segment list is the
// root. A Path may cache its resolved node id and content reference after a
// successful resolution (children returned by Iterdir come pre-annotated);
// mutations through the same Path invalidate the cache.
type Path struct {
	fs       *FS
	segments []string

	metaKnown bool
	nodeID    int64
	contentID *int64
}

// withMeta constructs a child path annotated with its already-resolved node
// state, saving the caller a second resolution round-trip.
func (f *FS) withMeta(segments []string, nodeID int64, contentID *int64) *Path {
	return &Path{
		fs:        f,
		segments:  segments,
		metaKnown: true,
		nodeID:    nodeID,
		contentID: contentID,
	}
}

// getMeta resolves and caches the path's node id and content reference.
func (p *Path) getMeta(ctx context.Context) (int64, *int64, error) {
	if !p.metaKnown {
		nodeID, contentID, err := p.fs.resolveNode(ctx, p.segments)
		if err != nil {
			return 0, nil, err
		}
		p.nodeID = nodeID
		p.contentID = contentID
		p.metaKnown = true
	}
	return p.nodeID, p.contentID, nil
}

// invalidate drops cached resolution state after a mutation.
func (p *Path) invalidate() {
	p.metaKnown = false
	p.nodeID = 0
	p.contentID = nil
}

// Mkdir creates the directory at p. With recursive set, missing ancestors
// are created along the way and persist even if the leaf step fails (mkdir
// -p semantics); otherwise a missing ancestor fails with ErrNotFound. With
// existOK set, a pre-existing directory at the leaf is tolerated; a file
// occupying the leaf name still fails with ErrNotDir.
func (p *Path) Mkdir(ctx context.Context, recursive, existOK bool) error {
	log.Debugf("[vfs] Mkdir %q recursive=%v existOK=%v", p, recursive, existOK)
	if len(p.segments) == 0 {
		return fmt.Errorf("mkdir on root: %w", common.ErrInvalidPath)
	}

	parentID := int64(storage.RootID)
	var err error
	ancestors := p.segments[:len(p.segments)-1]
	if recursive {
		for _, segment := range ancestors {
			if parentID, err = p.fs.ensureDirectory(ctx, parentID, segment); err != nil {
				return err
			}
		}
	} else {
		if parentID, err = p.fs.resolveDirectory(ctx, ancestors); err != nil {
			return err
		}
	}

	leaf := p.segments[len(p.segments)-1]
	if existOK {
		_, err = p.fs.ensureDirectory(ctx, parentID, leaf)
	} else {
		if _, err = p.fs.store.MakeDirectory(ctx, parentID, leaf); err != nil {
			err = fmt.Errorf("%s: %w", leaf, err)
		}
	}
	if err != nil {
		return err
	}
	p.invalidate()
	return nil
}

// ReadBytes returns the file's payload. Reading a directory fails with
// ErrIsDir; a missing entry or ancestor fails with ErrNotFound.
func (p *Path) ReadBytes(ctx context.Context) ([]byte, error) {
	log.Tracef("[vfs] ReadBytes %q", p)
	_, contentID, err := p.getMeta(ctx)
	if err != nil {
		return nil, err
	}
	if contentID == nil {
		return nil, fmt.Errorf("%s: %w", p, common.ErrIsDir)
	}
	return p.fs.store.ReadContent(ctx, *contentID)
}

// WriteBytes writes data to the file at p, creating it if absent and
// overwriting in place otherwise. Overwrite preserves content identity, so
// all hardlinked names observe the new bytes. Missing ancestors are never
// auto-created; writing over a directory fails with ErrIsDir.
func (p *Path) WriteBytes(ctx context.Context, data []byte) error {
	log.Tracef("[vfs] WriteBytes %q len=%d", p, len(data))
	if len(p.segments) == 0 {
		return fmt.Errorf("write to root: %w", common.ErrIsDir)
	}
	parentID, err := p.fs.resolveDirectory(ctx, p.segments[:len(p.segments)-1])
	if err != nil {
		return err
	}
	leaf := p.segments[len(p.segments)-1]
	if _, err := p.fs.store.WriteFile(ctx, parentID, leaf, data); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	p.invalidate()
	return nil
}

// HardlinkTo creates p as an additional name for target's content. The
// target must exist and be a file; p's ancestors must exist; p's leaf name
// must be free. The new tree row and the link-count increment commit
// together or not at all.
func (p *Path) HardlinkTo(ctx context.Context, target *Path) error {
	log.Debugf("[vfs] HardlinkTo %q -> %q", p, target)
	if len(p.segments) == 0 {
		return fmt.Errorf("link at root: %w", common.ErrInvalidPath)
	}
	parentID, err := p.fs.resolveDirectory(ctx, p.segments[:len(p.segments)-1])
	if err != nil {
		return err
	}
	_, targetContentID, err := target.getMeta(ctx)
	if err != nil {
		return err
	}
	if targetContentID == nil {
		return fmt.Errorf("%s: %w", target, common.ErrIsDir)
	}
	leaf := p.segments[len(p.segments)-1]
	nodeID, err := p.fs.store.CreateHardlink(ctx, parentID, leaf, *targetContentID)
	if err != nil {
		return fmt.Errorf("%s: %w", leaf, err)
	}
	p.nodeID = nodeID
	p.contentID = targetContentID
	p.metaKnown = true
	return nil
}

// Unlink removes the file at p, decrementing its content's link count and
// deleting the content when the last name goes away. With missingOK set, a
// missing entry (or ancestor) is a successful no-op. Unlinking a directory
// fails with ErrIsDir; use Rmdir.
func (p *Path) Unlink(ctx context.Context, missingOK bool) error {
	log.Debugf("[vfs] Unlink %q missingOK=%v", p, missingOK)
	if len(p.segments) == 0 {
		return fmt.Errorf("unlink root: %w", common.ErrIsDir)
	}
	parentID, err := p.fs.resolveDirectory(ctx, p.segments[:len(p.segments)-1])
	if err != nil {
		if missingOK && errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	leaf := p.segments[len(p.segments)-1]
	node, err := p.fs.store.Lookup(ctx, parentID, leaf)
	if err != nil {
		if missingOK && errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", leaf, err)
	}
	if node.IsDir() {
		return fmt.Errorf("%s: %w", p, common.ErrIsDir)
	}
	if err := p.fs.store.RemoveFile(ctx, node.ID, *node.ContentID); err != nil {
		return err
	}
	p.invalidate()
	return nil
}

// Rmdir removes the empty directory at p. A non-empty directory fails with
// ErrNotEmpty; a file fails with ErrNotDir.
func (p *Path) Rmdir(ctx context.Context) error {
	log.Debugf("[vfs] Rmdir %q", p)
	if len(p.segments) == 0 {
		return fmt.Errorf("rmdir root: %w", common.ErrInvalidPath)
	}
	parentID, err := p.fs.resolveDirectory(ctx, p.segments[:len(p.segments)-1])
	if err != nil {
		return err
	}
	leaf := p.segments[len(p.segments)-1]
	node, err := p.fs.store.Lookup(ctx, parentID, leaf)
	if err != nil {
		return fmt.Errorf("%s: %w", leaf, err)
	}
	if node.IsFile() {
		return fmt.Errorf("%s: %w", p, common.ErrNotDir)
	}
	if err := p.fs.store.RemoveDirectory(ctx, node.ID); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	p.invalidate()
	return nil
}

// Iterdir enumerates the directory's immediate children in creation order.
// Each returned Path carries its resolved node state, so type checks and
// stat need no second resolution. The listing is a snapshot; calling Iterdir
// again re-reads the directory.
func (p *Path) Iterdir(ctx context.Context) ([]*Path, error) {
	log.Tracef("[vfs] Iterdir %q", p)
	dirID, err := p.fs.resolveDirectory(ctx, p.segments)
	if err != nil {
		return nil, err
	}
	children, err := p.fs.store.Children(ctx, dirID)
	if err != nil {
		return nil, err
	}
	paths := make([]*Path, 0, len(children))
	for _, child := range children {
		segments := make([]string, 0, len(p.segments)+1)
		segments = append(segments, p.segments...)
		segments = append(segments, child.Name)
		paths = append(paths, p.fs.withMeta(segments, child.ID, child.ContentID))
	}
	return paths, nil
}

// Stat synthesizes metadata for the entry at p: type, payload size (files
// only) and link count (always 1 for directories; a directory has exactly
// one name).
func (p *Path) Stat(ctx context.Context) (*storage.FileInfo, error) {
	nodeID, contentID, err := p.getMeta(ctx)
	if err != nil {
		return nil, err
	}
	if contentID == nil {
		return &storage.FileInfo{NodeID: nodeID, IsDir: true, LinkCount: 1}, nil
	}
	size, linkCount, err := p.fs.store.ContentMeta(ctx, *contentID)
	if err != nil {
		return nil, err
	}
	return &storage.FileInfo{NodeID: nodeID, Size: size, LinkCount: linkCount}, nil
}

// Exists reports whether the entry at p exists.
func (p *Path) Exists(ctx context.Context) (bool, error) {
	_, _, err := p.getMeta(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFile reports whether p exists and is a regular file.
func (p *Path) IsFile(ctx context.Context) (bool, error) {
	_, contentID, err := p.getMeta(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return contentID != nil, nil
}

// IsDir reports whether p exists and is a directory.
func (p *Path) IsDir(ctx context.Context) (bool, error) {
	_, contentID, err := p.getMeta(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return contentID == nil, nil
}
