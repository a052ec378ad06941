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

package storage

import "github.com/uptrace/bun"

// Bun ORM models for sqlpath store tables.

// SchemaInfoModel represents the schema_info table
type SchemaInfoModel struct {
	bun.BaseModel `bun:"table:schema_info"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

// NodeModel represents one row of the tree table: a named entry under a
// parent directory. ContentID is the type discriminant: nil for a
// directory, non-nil for a file referencing a ContentModel row.
type NodeModel struct {
	bun.BaseModel `bun:"table:tree"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Name      string `bun:"name,notnull"`
	ParentID  *int64 `bun:"parent_id"` // nil for the root row only
	ContentID *int64 `bun:"content_id"`
}

// IsDir returns true if the node is a directory
func (m *NodeModel) IsDir() bool {
	return m.ContentID == nil
}

// IsFile returns true if the node is a regular file
func (m *NodeModel) IsFile() bool {
	return m.ContentID != nil
}

// ContentModel represents the content table: a file payload addressed
// independently of any name, shared by all hardlinked tree rows.
type ContentModel struct {
	bun.BaseModel `bun:"table:content"`

	ContentID int64  `bun:"content_id,pk,autoincrement"`
	LinkCount int64  `bun:"link_count,notnull"`
	Data      []byte `bun:"data"`
}

// FileInfo is the metadata synthesized for stat: entry type, payload size
// (files only) and hardlink count (always 1 for directories; a directory
// has exactly one name by construction).
type FileInfo struct {
	NodeID    int64
	IsDir     bool
	Size      int64
	LinkCount int64
}
