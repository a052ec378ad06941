package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"sqlpath/internal/common"
)

// BunDB wraps a Bun database instance for type-safe queries.
//
// Methods with a ...With suffix take a bun.IDB so they can run inside a
// transaction; the plain variants run against the database directly.
type BunDB struct {
	*bun.DB
}

// NewBunDB wraps an existing *sql.DB with Bun's type-safe query builder.
func NewBunDB(sqlDB *sql.DB) *BunDB {
	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	return &BunDB{DB: bunDB}
}

// isUniqueViolation returns true if the error is a UNIQUE constraint
// failure. libsql surfaces constraint errors as plain strings, so match on
// the message like the lock detection does.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Schema Info Operations ---

// GetSchemaInfo retrieves a schema info value by key.
func (db *BunDB) GetSchemaInfo(ctx context.Context, key string) (string, error) {
	var info SchemaInfoModel
	err := db.NewSelect().
		Model(&info).
		Where("key = ?", key).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return info.Value, nil
}

// SetSchemaInfo sets a schema info value (upserts).
func (db *BunDB) SetSchemaInfo(ctx context.Context, key, value string) error {
	_, err := db.NewInsert().
		Model(&SchemaInfoModel{Key: key, Value: value}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

// --- Node Operations ---

// GetNode retrieves the tree row named name under parentID.
// Returns common.ErrNotFound if no such entry exists.
func (db *BunDB) GetNode(ctx context.Context, parentID int64, name string) (*NodeModel, error) {
	return db.getNodeWith(db.DB, ctx, parentID, name)
}

// GetNodeWith is like GetNode but uses the provided bun.IDB (for transaction support).
func (db *BunDB) GetNodeWith(idb bun.IDB, ctx context.Context, parentID int64, name string) (*NodeModel, error) {
	return db.getNodeWith(idb, ctx, parentID, name)
}

func (db *BunDB) getNodeWith(idb bun.IDB, ctx context.Context, parentID int64, name string) (*NodeModel, error) {
	var node NodeModel
	err := idb.NewSelect().
		Model(&node).
		Where("parent_id = ?", parentID).
		Where("name = ?", name).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// GetDirectory retrieves the id of the directory named name under parentID.
// A missing entry and a file occupying the name both return
// common.ErrNotFound: for path traversal a file in a directory position is
// indistinguishable from an absent directory.
func (db *BunDB) GetDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	var id int64
	err := db.NewSelect().
		Model((*NodeModel)(nil)).
		Column("id").
		Where("parent_id = ?", parentID).
		Where("name = ?", name).
		Where("content_id IS NULL").
		Scan(ctx, &id)
	if err == sql.ErrNoRows {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertDirectory inserts a new directory node and returns its id.
// Returns common.ErrExists if (name, parentID) is already taken.
func (db *BunDB) InsertDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	node := &NodeModel{Name: name, ParentID: &parentID}
	_, err := db.NewInsert().
		Model(node).
		Returning("id").
		Exec(ctx)
	if isUniqueViolation(err) {
		return 0, common.ErrExists
	}
	if err != nil {
		return 0, err
	}
	return node.ID, nil
}

// EnsureDirectory atomically gets or creates a directory node named name
// under parentID, returning its id. The conditional insert is a single
// statement, so two concurrent creators cannot race between the existence
// check and the insert: the unique constraint picks one winner and the other
// silently joins the existing row. If the existing row is a file, returns
// common.ErrNotDir.
func (db *BunDB) EnsureDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	node := &NodeModel{Name: name, ParentID: &parentID}
	// "content_id = content_id" keeps the existing row untouched while
	// still firing RETURNING, which reports the pre-existing type.
	_, err := db.NewInsert().
		Model(node).
		On("CONFLICT (name, parent_id) DO UPDATE").
		Set("content_id = content_id").
		Returning("id, content_id").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	if node.ContentID != nil {
		return 0, common.ErrNotDir
	}
	return node.ID, nil
}

// InsertNode inserts a tree row referencing contentID (a new hardlink name,
// or the first name of a fresh file). Returns common.ErrExists if the name
// is taken.
func (db *BunDB) InsertNode(ctx context.Context, parentID int64, name string, contentID int64) (int64, error) {
	return db.insertNodeWith(db.DB, ctx, parentID, name, contentID)
}

// InsertNodeWith is like InsertNode but uses the provided bun.IDB.
func (db *BunDB) InsertNodeWith(idb bun.IDB, ctx context.Context, parentID int64, name string, contentID int64) (int64, error) {
	return db.insertNodeWith(idb, ctx, parentID, name, contentID)
}

func (db *BunDB) insertNodeWith(idb bun.IDB, ctx context.Context, parentID int64, name string, contentID int64) (int64, error) {
	node := &NodeModel{Name: name, ParentID: &parentID, ContentID: &contentID}
	_, err := idb.NewInsert().
		Model(node).
		Returning("id").
		Exec(ctx)
	if isUniqueViolation(err) {
		return 0, common.ErrExists
	}
	if err != nil {
		return 0, err
	}
	return node.ID, nil
}

// DeleteNodeWith deletes a tree row by id.
func (db *BunDB) DeleteNodeWith(idb bun.IDB, ctx context.Context, nodeID int64) error {
	_, err := idb.NewDelete().
		Model((*NodeModel)(nil)).
		Where("id = ?", nodeID).
		Exec(ctx)
	return err
}

// ListChildren retrieves the immediate children of a directory, ordered by
// node id ascending. Ids are assigned monotonically on insertion, so this is
// creation order; the relation itself has no intrinsic order, and mandating
// one keeps enumeration deterministic.
func (db *BunDB) ListChildren(ctx context.Context, parentID int64) ([]NodeModel, error) {
	var children []NodeModel
	err := db.NewSelect().
		Model(&children).
		Where("parent_id = ?", parentID).
		Order("id ASC").
		Scan(ctx)
	return children, err
}

// HasChildren checks whether a directory has any entries.
func (db *BunDB) HasChildren(ctx context.Context, nodeID int64) (bool, error) {
	return db.hasChildrenWith(db.DB, ctx, nodeID)
}

// HasChildrenWith is like HasChildren but uses the provided bun.IDB.
func (db *BunDB) HasChildrenWith(idb bun.IDB, ctx context.Context, nodeID int64) (bool, error) {
	return db.hasChildrenWith(idb, ctx, nodeID)
}

func (db *BunDB) hasChildrenWith(idb bun.IDB, ctx context.Context, nodeID int64) (bool, error) {
	return idb.NewSelect().
		Model((*NodeModel)(nil)).
		Where("parent_id = ?", nodeID).
		Exists(ctx)
}

// CountNodes returns the number of tree rows excluding the root.
func (db *BunDB) CountNodes(ctx context.Context) (int64, error) {
	count, err := db.NewSelect().
		Model((*NodeModel)(nil)).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count) - 1, nil
}

// --- Content Operations ---

// InsertContentWith inserts a new content row with link_count=1 and returns
// its content_id.
func (db *BunDB) InsertContentWith(idb bun.IDB, ctx context.Context, data []byte) (int64, error) {
	if data == nil {
		data = []byte{} // zero-length payloads stay non-NULL
	}
	content := &ContentModel{LinkCount: 1, Data: data}
	_, err := idb.NewInsert().
		Model(content).
		Returning("content_id").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return content.ContentID, nil
}

// UpdateContentWith overwrites the payload of an existing content row in
// place. Content identity and link_count are untouched, so every hardlinked
// name observes the new bytes.
func (db *BunDB) UpdateContentWith(idb bun.IDB, ctx context.Context, contentID int64, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := idb.NewUpdate().
		Model((*ContentModel)(nil)).
		Set("data = ?", data).
		Where("content_id = ?", contentID).
		Exec(ctx)
	return err
}

// ReadContent retrieves the payload of a content row.
func (db *BunDB) ReadContent(ctx context.Context, contentID int64) ([]byte, error) {
	var content ContentModel
	err := db.NewSelect().
		Model(&content).
		Where("content_id = ?", contentID).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if content.Data == nil {
		return []byte{}, nil
	}
	return content.Data, nil
}

// GetContentMeta retrieves payload size and link count without loading the
// payload itself.
func (db *BunDB) GetContentMeta(ctx context.Context, contentID int64) (size int64, linkCount int64, err error) {
	var sizeNull sql.NullInt64
	err = db.NewRaw(
		`SELECT COALESCE(length(data), 0), link_count FROM content WHERE content_id = ?`,
		contentID,
	).Scan(ctx, &sizeNull, &linkCount)
	if err == sql.ErrNoRows {
		return 0, 0, common.ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	return sizeNull.Int64, linkCount, nil
}

// IncrementLinkCountWith bumps a content row's link_count and returns the
// new value.
func (db *BunDB) IncrementLinkCountWith(idb bun.IDB, ctx context.Context, contentID int64) (int64, error) {
	var linkCount int64
	err := idb.NewRaw(
		`UPDATE content SET link_count = link_count + 1 WHERE content_id = ? RETURNING link_count`,
		contentID,
	).Scan(ctx, &linkCount)
	if err != nil {
		return 0, err
	}
	return linkCount, nil
}

// DecrementLinkCountWith drops a content row's link_count and returns the
// new value. The caller must delete the row in the same transaction when the
// result reaches zero.
func (db *BunDB) DecrementLinkCountWith(idb bun.IDB, ctx context.Context, contentID int64) (int64, error) {
	var linkCount int64
	err := idb.NewRaw(
		`UPDATE content SET link_count = link_count - 1 WHERE content_id = ? RETURNING link_count`,
		contentID,
	).Scan(ctx, &linkCount)
	if err != nil {
		return 0, err
	}
	return linkCount, nil
}

// DeleteContentWith deletes a content row by id.
func (db *BunDB) DeleteContentWith(idb bun.IDB, ctx context.Context, contentID int64) error {
	_, err := idb.NewDelete().
		Model((*ContentModel)(nil)).
		Where("content_id = ?", contentID).
		Exec(ctx)
	return err
}
