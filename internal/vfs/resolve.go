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
	"context"
	"fmt"

	"sqlpath/internal/storage"
)

// Path resolution: iterative per-segment lookup from the root. The tree is
// never held resident, so each segment costs one indexed query. Failures
// name the offending segment, never internal row ids.

// resolveNode strictly resolves every segment, returning the final node's id
// and content reference (nil for a directory).
func (f *FS) resolveNode(ctx context.Context, segments []string) (int64, *int64, error) {
	current := int64(storage.RootID)
	var contentID *int64
	for _, segment := range segments {
		node, err := f.store.Lookup(ctx, current, segment)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: %w", segment, err)
		}
		current = node.ID
		contentID = node.ContentID
	}
	return current, contentID, nil
}

// resolveDirectory strictly resolves every segment, requiring each to be a
// directory. A file occupying an intermediate position reports not-found,
// same as a missing entry.
func (f *FS) resolveDirectory(ctx context.Context, segments []string) (int64, error) {
	current := int64(storage.RootID)
	for _, segment := range segments {
		id, err := f.store.LookupDirectory(ctx, current, segment)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", segment, err)
		}
		current = id
	}
	return current, nil
}

// ensureDirectory gets or creates one directory segment under parentID.
// The underlying conditional insert is a single atomic statement, so two
// concurrent creators of the same name cannot both insert; the loser joins
// the winner's row.
func (f *FS) ensureDirectory(ctx context.Context, parentID int64, segment string) (int64, error) {
	id, err := f.store.EnsureDirectory(ctx, parentID, segment)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", segment, err)
	}
	return id, nil
}
