package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpath/internal/common"
)

func newLexicalFS() *FS {
	// Lexical operations never touch the store.
	return New(nil)
}

func TestPathString(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"root", nil, ""},
		{"single", []string{"etc"}, "etc"},
		{"nested", []string{"etc", "ssh", "config"}, "etc/ssh/config"},
		{"embedded separators", []string{"etc/ssh", "config"}, "etc/ssh/config"},
		{"empty components dropped", []string{"etc", "", "config"}, "etc/config"},
		{"duplicate separators collapsed", []string{"etc//ssh"}, "etc/ssh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.Path(tt.parts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestPathRejectsAbsolute(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	_, err := f.Path("/etc/ssh")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestPathNameSuffixStem(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	tests := []struct {
		path   string
		name   string
		suffix string
		stem   string
	}{
		{"docs/report.txt", "report.txt", ".txt", "report"},
		{"docs/archive.tar.gz", "archive.tar.gz", ".gz", "archive.tar"},
		{"docs/README", "README", "", "README"},
		{"home/.bashrc", ".bashrc", "", ".bashrc"},
		{"docs/trailing.", "trailing.", "", "trailing."},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := f.Path(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.suffix, p.Suffix())
			assert.Equal(t, tt.stem, p.Stem())
		})
	}
}

func TestPathSuffixes(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	tests := []struct {
		path string
		want []string
	}{
		{"a/archive.tar.gz", []string{".tar", ".gz"}},
		{"a/report.txt", []string{".txt"}},
		{"a/README", nil},
		{"a/.bashrc", nil},
		{"a/.config.yaml", []string{".yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := f.Path(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Suffixes())
		})
	}
}

func TestPathParent(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	p, err := f.Path("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a/b", p.Parent().String())
	assert.Equal(t, "a", p.Parent().Parent().String())
	assert.Equal(t, "", p.Parent().Parent().Parent().String())

	// Root is its own parent.
	root := f.Root()
	assert.True(t, root.Equal(root.Parent()))
}

func TestPathJoin(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	base, err := f.Path("srv")
	require.NoError(t, err)

	joined, err := base.Join("data", "blobs/2024")
	require.NoError(t, err)
	assert.Equal(t, "srv/data/blobs/2024", joined.String())

	// Join does not mutate the receiver.
	assert.Equal(t, "srv", base.String())

	_, err = base.Join("/absolute")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestPathWithName(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	p, err := f.Path("docs/report.txt")
	require.NoError(t, err)

	renamed, err := p.WithName("summary.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/summary.md", renamed.String())

	_, err = p.WithName("")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
	_, err = p.WithName("a/b")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
	_, err = f.Root().WithName("x")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestPathWithSuffix(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()

	p, err := f.Path("docs/report.txt")
	require.NoError(t, err)

	md, err := p.WithSuffix(".md")
	require.NoError(t, err)
	assert.Equal(t, "docs/report.md", md.String())

	stripped, err := p.WithSuffix("")
	require.NoError(t, err)
	assert.Equal(t, "docs/report", stripped.String())
}

func TestPathEqual(t *testing.T) {
	t.Parallel()
	f := newLexicalFS()
	other := newLexicalFS()

	a, err := f.Path("x/y")
	require.NoError(t, err)
	b, err := f.Path("x", "y")
	require.NoError(t, err)
	c, err := f.Path("x/y/")
	require.NoError(t, err)
	d, err := f.Path("x/z")
	require.NoError(t, err)
	foreign, err := other.Path("x/y")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(foreign))
	assert.False(t, a.Equal(nil))
}
