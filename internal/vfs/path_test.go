package vfs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpath/internal/common"
	"sqlpath/internal/storage"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	store, err := storage.Create(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store)
}

func mustPath(t *testing.T, f *FS, parts ...string) *Path {
	t.Helper()
	p, err := f.Path(parts...)
	require.NoError(t, err)
	return p
}

func TestMkdirAndStat(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "projects")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	info, err := dir.Stat(ctx)
	require.NoError(t, err)
	assert.True(t, info.IsDir)
	assert.EqualValues(t, 1, info.LinkCount)

	isDir, err := dir.IsDir(ctx)
	require.NoError(t, err)
	assert.True(t, isDir)
	isFile, err := dir.IsFile(ctx)
	require.NoError(t, err)
	assert.False(t, isFile)
}

func TestMkdirExisting(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "projects")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	err := dir.Mkdir(ctx, false, false)
	assert.ErrorIs(t, err, common.ErrExists)

	// existOK tolerates the existing directory.
	require.NoError(t, dir.Mkdir(ctx, false, true))
}

func TestMkdirMissingParent(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	nested := mustPath(t, f, "a/b/c")
	err := nested.Mkdir(ctx, false, false)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Recursive creates the whole chain.
	require.NoError(t, nested.Mkdir(ctx, true, false))
	for _, path := range []string{"a", "a/b", "a/b/c"} {
		isDir, err := mustPath(t, f, path).IsDir(ctx)
		require.NoError(t, err)
		assert.True(t, isDir, path)
	}
}

func TestMkdirRecursiveIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	nested := mustPath(t, f, "a/b/c")
	require.NoError(t, nested.Mkdir(ctx, true, true))
	require.NoError(t, nested.Mkdir(ctx, true, true))

	// Without existOK the leaf conflicts even with recursive set.
	err := nested.Mkdir(ctx, true, false)
	assert.ErrorIs(t, err, common.ErrExists)
}

func TestMkdirRecursiveThroughFile(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	require.NoError(t, mustPath(t, f, "a").Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "a/file").WriteBytes(ctx, []byte("x")))

	// A file on the ancestor chain fails even in recursive mode, and the
	// leaf collision does too when the leaf is a file.
	err := mustPath(t, f, "a/file/sub").Mkdir(ctx, true, false)
	assert.ErrorIs(t, err, common.ErrNotDir)
	err = mustPath(t, f, "a/file").Mkdir(ctx, true, true)
	assert.ErrorIs(t, err, common.ErrNotDir)
}

func TestMkdirOverFile(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	file := mustPath(t, f, "notes.txt")
	require.NoError(t, file.WriteBytes(ctx, []byte("hi")))

	err := file.Mkdir(ctx, false, false)
	assert.ErrorIs(t, err, common.ErrExists)
	// existOK does not excuse a file occupying the name.
	err = file.Mkdir(ctx, false, true)
	assert.ErrorIs(t, err, common.ErrNotDir)
	err = file.Mkdir(ctx, true, true)
	assert.ErrorIs(t, err, common.ErrNotDir)
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	file := mustPath(t, f, "data.bin")
	payload := []byte{0x00, 0x01, 0xff, 0xfe, 0x00}
	require.NoError(t, file.WriteBytes(ctx, payload))

	got, err := file.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	info, err := file.Stat(ctx)
	require.NoError(t, err)
	assert.False(t, info.IsDir)
	assert.EqualValues(t, len(payload), info.Size)
	assert.EqualValues(t, 1, info.LinkCount)
}

func TestWriteEmptyFile(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	file := mustPath(t, f, "empty")
	require.NoError(t, file.WriteBytes(ctx, nil))

	got, err := file.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	info, err := file.Stat(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.Size)
}

func TestWriteOverwrite(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	file := mustPath(t, f, "log.txt")
	require.NoError(t, file.WriteBytes(ctx, []byte("first version")))
	require.NoError(t, file.WriteBytes(ctx, []byte("v2")))

	got, err := file.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestWriteMissingParent(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	err := mustPath(t, f, "no/such/dir/file").WriteBytes(ctx, []byte("x"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestWriteOverDirectory(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "stuff")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	err := dir.WriteBytes(ctx, []byte("x"))
	assert.ErrorIs(t, err, common.ErrIsDir)
}

func TestReadDirectory(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "stuff")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	_, err := dir.ReadBytes(ctx)
	assert.ErrorIs(t, err, common.ErrIsDir)
}

func TestReadMissing(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	_, err := mustPath(t, f, "ghost").ReadBytes(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHardlinkSharesContent(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	original := mustPath(t, f, "original")
	require.NoError(t, original.WriteBytes(ctx, []byte("shared")))

	link := mustPath(t, f, "link")
	require.NoError(t, link.HardlinkTo(ctx, original))

	got, err := link.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("shared"), got)

	for _, p := range []*Path{original, link} {
		info, err := p.Stat(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, info.LinkCount)
	}

	// Overwriting through either name updates both.
	require.NoError(t, original.WriteBytes(ctx, []byte("updated")))
	got, err = link.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)
}

func TestHardlinkErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	file := mustPath(t, f, "file")
	require.NoError(t, file.WriteBytes(ctx, []byte("x")))
	dir := mustPath(t, f, "dir")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	// Target must exist and be a file.
	err := mustPath(t, f, "l1").HardlinkTo(ctx, mustPath(t, f, "missing"))
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = mustPath(t, f, "l2").HardlinkTo(ctx, dir)
	assert.ErrorIs(t, err, common.ErrIsDir)

	// The new name must be free.
	err = dir.HardlinkTo(ctx, file)
	assert.ErrorIs(t, err, common.ErrExists)
	err = file.HardlinkTo(ctx, file)
	assert.ErrorIs(t, err, common.ErrExists)

	// The new name's parent must exist.
	err = mustPath(t, f, "no/such/link").HardlinkTo(ctx, file)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUnlinkDecrementsLinkCount(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	original := mustPath(t, f, "original")
	require.NoError(t, original.WriteBytes(ctx, []byte("data")))
	link := mustPath(t, f, "link")
	require.NoError(t, link.HardlinkTo(ctx, original))

	require.NoError(t, original.Unlink(ctx, false))

	exists, err := original.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	// The surviving name still reads, now with a single link.
	got, err := link.ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
	info, err := link.Stat(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.LinkCount)

	// Removing the last name drops the content.
	require.NoError(t, link.Unlink(ctx, false))
	count, err := f.Store().Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestUnlinkMissing(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	ghost := mustPath(t, f, "ghost")
	err := ghost.Unlink(ctx, false)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// missingOK turns the miss into a no-op, including missing ancestors.
	require.NoError(t, ghost.Unlink(ctx, true))
	require.NoError(t, mustPath(t, f, "no/such/file").Unlink(ctx, true))
}

func TestUnlinkDirectory(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "dir")
	require.NoError(t, dir.Mkdir(ctx, false, false))

	err := dir.Unlink(ctx, false)
	assert.ErrorIs(t, err, common.ErrIsDir)
}

func TestRmdir(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "dir")
	require.NoError(t, dir.Mkdir(ctx, false, false))
	require.NoError(t, dir.Rmdir(ctx))

	exists, err := dir.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRmdirNotEmpty(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "dir")
	require.NoError(t, dir.Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "dir/child").WriteBytes(ctx, []byte("x")))

	err := dir.Rmdir(ctx)
	assert.ErrorIs(t, err, common.ErrNotEmpty)

	// Emptying the directory unblocks removal.
	require.NoError(t, mustPath(t, f, "dir/child").Unlink(ctx, false))
	require.NoError(t, dir.Rmdir(ctx))
}

func TestRmdirErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	err := mustPath(t, f, "missing").Rmdir(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	file := mustPath(t, f, "file")
	require.NoError(t, file.WriteBytes(ctx, []byte("x")))
	err = file.Rmdir(ctx)
	assert.ErrorIs(t, err, common.ErrNotDir)

	err = f.Root().Rmdir(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestIterdirCreationOrder(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	dir := mustPath(t, f, "home")
	require.NoError(t, dir.Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "home/zeta").WriteBytes(ctx, []byte("1")))
	require.NoError(t, mustPath(t, f, "home/alpha").Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "home/mid").WriteBytes(ctx, []byte("2")))

	children, err := dir.Iterdir(ctx)
	require.NoError(t, err)
	require.Len(t, children, 3)

	names := make([]string, len(children))
	for i, child := range children {
		names[i] = child.Name()
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)

	// Children come annotated; type checks need no extra resolution.
	isFile, err := children[0].IsFile(ctx)
	require.NoError(t, err)
	assert.True(t, isFile)
	isDir, err := children[1].IsDir(ctx)
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestIterdirRoot(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	children, err := f.Root().Iterdir(ctx)
	require.NoError(t, err)
	assert.Empty(t, children)

	require.NoError(t, mustPath(t, f, "only").Mkdir(ctx, false, false))
	children, err = f.Root().Iterdir(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "only", children[0].String())
}

func TestIterdirErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	_, err := mustPath(t, f, "missing").Iterdir(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	file := mustPath(t, f, "file")
	require.NoError(t, file.WriteBytes(ctx, []byte("x")))
	_, err = file.Iterdir(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExistsVariants(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	require.NoError(t, mustPath(t, f, "d").Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "d/f").WriteBytes(ctx, []byte("x")))

	tests := []struct {
		path   string
		exists bool
		isFile bool
		isDir  bool
	}{
		{"", true, false, true},
		{"d", true, false, true},
		{"d/f", true, true, false},
		{"d/missing", false, false, false},
		{"d/f/below", false, false, false},
	}
	for _, tt := range tests {
		t.Run("path "+tt.path, func(t *testing.T) {
			p := mustPath(t, f, tt.path)
			exists, err := p.Exists(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, exists)
			isFile, err := p.IsFile(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.isFile, isFile)
			isDir, err := p.IsDir(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.isDir, isDir)
		})
	}
}

func TestSameNameDifferentDirectories(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	require.NoError(t, mustPath(t, f, "a").Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "b").Mkdir(ctx, false, false))
	require.NoError(t, mustPath(t, f, "a/same").WriteBytes(ctx, []byte("in a")))
	require.NoError(t, mustPath(t, f, "b/same").WriteBytes(ctx, []byte("in b")))

	got, err := mustPath(t, f, "a/same").ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("in a"), got)
	got, err = mustPath(t, f, "b/same").ReadBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("in b"), got)
}

func TestStatMissing(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)

	_, err := mustPath(t, f, "missing").Stat(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRootOperations(t *testing.T) {
	ctx := context.Background()
	f := newTestFS(t)
	root := f.Root()

	assert.ErrorIs(t, root.Mkdir(ctx, false, false), common.ErrInvalidPath)
	assert.ErrorIs(t, root.WriteBytes(ctx, []byte("x")), common.ErrIsDir)
	assert.ErrorIs(t, root.Unlink(ctx, false), common.ErrIsDir)
	_, err := root.ReadBytes(ctx)
	assert.ErrorIs(t, err, common.ErrIsDir)

	info, err := root.Stat(ctx)
	require.NoError(t, err)
	assert.True(t, info.IsDir)
}
