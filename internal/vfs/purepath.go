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

package vfs

import (
	"fmt"
	"strings"

	"sqlpath/internal/common"
)

// Lexical operations on Path. These are purely syntactic: they derive new
// paths or name components from the segment list without touching the store.

// String returns the "/"-joined segment form. The root path renders as "".
func (p *Path) String() string {
	return common.JoinSegments(p.segments)
}

// Segments returns a copy of the path's name components.
func (p *Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Name returns the final component, or "" for the root path.
func (p *Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Suffix returns the final component's extension including the leading dot.
// A name with no dot, a leading-dot name like ".bashrc", and a name ending
// in a dot all have an empty suffix.
func (p *Path) Suffix() string {
	name := p.Name()
	if strings.HasSuffix(name, ".") {
		return ""
	}
	pos := strings.LastIndex(name, ".")
	if pos <= 0 {
		return ""
	}
	return name[pos:]
}

// Suffixes returns all extensions of the final component, e.g.
// "a.tar.gz" → [".tar", ".gz"].
func (p *Path) Suffixes() []string {
	parts := strings.Split(p.Name(), ".")
	if len(parts) == 1 || parts[len(parts)-1] == "" {
		return nil
	}
	if parts[0] == "" {
		parts = parts[1:] // leading dot is part of the stem, not a suffix
	}
	var suffixes []string
	for _, part := range parts[1:] {
		suffixes = append(suffixes, "."+part)
	}
	return suffixes
}

// Stem returns the final component without its suffix.
func (p *Path) Stem() string {
	name := p.Name()
	if strings.HasSuffix(name, ".") {
		return name
	}
	pos := strings.LastIndex(name, ".")
	if pos <= 0 {
		return name
	}
	return name[:pos]
}

// Parent returns the containing directory's path. The root is its own
// parent.
func (p *Path) Parent() *Path {
	if len(p.segments) == 0 {
		return p
	}
	return &Path{fs: p.fs, segments: p.segments[:len(p.segments)-1]}
}

// Join returns a new path with the given raw components appended. Each
// component may itself contain "/" separators.
func (p *Path) Join(parts ...string) (*Path, error) {
	extra, err := common.SplitSegments(parts...)
	if err != nil {
		return nil, err
	}
	segments := make([]string, 0, len(p.segments)+len(extra))
	segments = append(segments, p.segments...)
	segments = append(segments, extra...)
	return &Path{fs: p.fs, segments: segments}, nil
}

// WithName returns a new path with the final component replaced.
func (p *Path) WithName(name string) (*Path, error) {
	if len(p.segments) == 0 {
		return nil, fmt.Errorf("path has an empty name: %w", common.ErrInvalidPath)
	}
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%q: %w", name, common.ErrInvalidPath)
	}
	segments := make([]string, len(p.segments))
	copy(segments, p.segments)
	segments[len(segments)-1] = name
	return &Path{fs: p.fs, segments: segments}, nil
}

// WithSuffix returns a new path with the final component's suffix replaced.
func (p *Path) WithSuffix(suffix string) (*Path, error) {
	return p.WithName(p.Stem() + suffix)
}

// Equal reports whether two paths address the same entry: same store and
// same segment sequence. String form differences (extra separators, split
// components) do not matter because segments are already normalized.
func (p *Path) Equal(other *Path) bool {
	if other == nil || p.fs != other.fs {
		return false
	}
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}
