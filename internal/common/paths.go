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

package common

import (
	"fmt"
	"strings"
)

// SplitSegments parses raw path strings into an ordered list of name
// components. Each raw string may contain multiple components separated by
// "/"; empty components are dropped. A raw string with a leading "/" is
// rejected: the store has a single implicit root and absolute paths have no
// meaning in it.
func SplitSegments(parts ...string) ([]string, error) {
	var segments []string
	for _, part := range parts {
		if strings.HasPrefix(part, "/") {
			return nil, fmt.Errorf("%q: leading separator: %w", part, ErrInvalidPath)
		}
		for _, seg := range strings.Split(part, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return segments, nil
}

// JoinSegments renders a segment list back into its "/"-joined string form.
func JoinSegments(segments []string) string {
	return strings.Join(segments, "/")
}
