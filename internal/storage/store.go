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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"

	"sqlpath/internal/common"
	"sqlpath/internal/util"
)

// Store represents a SQLite-backed sqlpath store file. All tree and content
// state lives in the single database file; an advisory flock next to it
// guards against a second process opening the same store for writing.
type Store struct {
	path  string
	db    *sql.DB
	bunDB *BunDB
	lock  *flock.Flock
}

// execPragma runs a PRAGMA statement using Query (not Exec) because libsql
// returns rows for PRAGMA statements. The result rows are drained and closed.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	rows.Close()
	return nil
}

// applyPragmas sets essential PRAGMAs after opening a libsql connection.
// libsql ignores DSN-based _pragma=value parameters, so all PRAGMAs must be
// set explicitly via SQL statements after the connection is opened.
func applyPragmas(db *sql.DB) error {
	// Busy timeout MUST be set first: all subsequent PRAGMAs (especially
	// journal_mode=WAL which needs exclusive access) will wait for locks
	// instead of failing immediately with "database is locked".
	if err := execPragma(db, fmt.Sprintf("PRAGMA busy_timeout = %d", GetBusyTimeout())); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	// WAL mode: enables concurrent readers during writes.
	if err := execPragma(db, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal_mode=WAL: %w", err)
	}

	// synchronous=NORMAL: safe against process crashes in WAL mode, avoids
	// fsync on every commit.
	if err := execPragma(db, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous=NORMAL: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return nil
}

// acquireLock takes the advisory lock file next to the store file.
func acquireLock(path string) (*flock.Flock, error) {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store is in use by another process: %s", path)
	}
	return fl, nil
}

// Create creates a new store file, initializing the schema and the single
// root directory row, and stamps a fresh UUID store identity.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, common.ErrExists)
	}

	fl, err := acquireLock(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		fl.Unlock()
		os.Remove(path)
		return nil, err
	}

	// Create schema (execute statements individually for libsql compatibility)
	if err := execStatements(db, storeSchema); err != nil {
		db.Close()
		fl.Unlock()
		os.Remove(path)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	storeID := uuid.New().String()
	if err := execStatements(db, initStoreRows, SchemaVersion, StoreType, storeID); err != nil {
		db.Close()
		fl.Unlock()
		os.Remove(path)
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}

	log.Debugf("[store] created %s (id=%s)", path, storeID)

	return &Store{
		path:  path,
		db:    db,
		bunDB: NewBunDB(db),
		lock:  fl,
	}, nil
}

// Open opens an existing store file and verifies its type.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNotFound)
	}

	fl, err := acquireLock(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		fl.Unlock()
		return nil, err
	}

	bunDB := NewBunDB(db)

	fileType, err := bunDB.GetSchemaInfo(context.Background(), "type")
	if err != nil {
		db.Close()
		fl.Unlock()
		return nil, fmt.Errorf("failed to read schema info: %w", err)
	}
	if fileType != StoreType {
		db.Close()
		fl.Unlock()
		return nil, fmt.Errorf("not a sqlpath store (type=%s)", fileType)
	}

	return &Store{
		path:  path,
		db:    db,
		bunDB: bunDB,
		lock:  fl,
	}, nil
}

// Close closes the database connection and cleans up WAL files.
// It performs a TRUNCATE checkpoint to merge WAL data into the main database,
// then removes the -wal and -shm files and releases the advisory lock.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns rows, so use Query() not Exec()
	rows, err := s.db.Query("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		log.Warnf("[store] WAL checkpoint failed: %v", err)
	} else {
		rows.Close()
	}

	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil

	os.Remove(s.path + "-wal") // files may not exist
	os.Remove(s.path + "-shm")

	if s.lock != nil {
		s.lock.Unlock()
	}
	return nil
}

// Path returns the store file path
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying database connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Bun returns the Bun query wrapper
func (s *Store) Bun() *BunDB {
	return s.bunDB
}

// ID returns the UUID stamped into the store at creation.
func (s *Store) ID(ctx context.Context) (string, error) {
	return s.bunDB.GetSchemaInfo(ctx, "store_id")
}

// Len returns the number of entries in the store, excluding the root.
func (s *Store) Len(ctx context.Context) (int64, error) {
	return s.bunDB.CountNodes(ctx)
}

// Clear wipes both relations and re-seeds the root row.
func (s *Store) Clear(ctx context.Context) error {
	return s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*ContentModel)(nil)).Where("1=1").Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*NodeModel)(nil)).Where("1=1").Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewRaw(
			`INSERT INTO tree (id, name, parent_id, content_id) VALUES (?, 'root', NULL, NULL)`,
			RootID,
		).Exec(ctx)
		return err
	})
}

// --- Lookup operations (single-statement, no transaction needed) ---

// Lookup retrieves the entry named name under parentID.
func (s *Store) Lookup(ctx context.Context, parentID int64, name string) (*NodeModel, error) {
	return s.bunDB.GetNode(ctx, parentID, name)
}

// LookupDirectory retrieves the id of the directory named name under
// parentID; a file occupying the name reports ErrNotFound like an absent
// entry.
func (s *Store) LookupDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	return s.bunDB.GetDirectory(ctx, parentID, name)
}

// Children enumerates a directory's immediate entries in creation order.
func (s *Store) Children(ctx context.Context, parentID int64) ([]NodeModel, error) {
	return s.bunDB.ListChildren(ctx, parentID)
}

// ReadContent retrieves a file payload by content id.
func (s *Store) ReadContent(ctx context.Context, contentID int64) ([]byte, error) {
	return s.bunDB.ReadContent(ctx, contentID)
}

// ContentMeta retrieves payload size and link count by content id.
func (s *Store) ContentMeta(ctx context.Context, contentID int64) (size int64, linkCount int64, err error) {
	return s.bunDB.GetContentMeta(ctx, contentID)
}

// --- Mutations ---
//
// Every multi-statement mutation runs inside a single transaction: either
// all statements commit or none do. A tree row and its content link_count
// must never drift apart. Mutations are retried on transient lock errors.

// MakeDirectory inserts a new directory node, failing with ErrExists if the
// name is taken. Single statement; the unique constraint arbitrates races.
func (s *Store) MakeDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	return util.RetryWithResult(ctx, func() (int64, error) {
		return s.bunDB.InsertDirectory(ctx, parentID, name)
	})
}

// EnsureDirectory atomically gets or creates a directory node, failing with
// ErrNotDir if a file occupies the name.
func (s *Store) EnsureDirectory(ctx context.Context, parentID int64, name string) (int64, error) {
	return util.RetryWithResult(ctx, func() (int64, error) {
		return s.bunDB.EnsureDirectory(ctx, parentID, name)
	})
}

// WriteFile writes data to the entry named name under parentID. A fresh name
// creates the content row (link_count=1) and the tree row together; an
// existing file is overwritten in place, leaving content identity and link
// count untouched. A directory under that name fails with ErrIsDir.
func (s *Store) WriteFile(ctx context.Context, parentID int64, name string, data []byte) (int64, error) {
	return util.RetryWithResult(ctx, func() (int64, error) {
		var nodeID int64
		err := s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			node, err := s.bunDB.GetNodeWith(tx, ctx, parentID, name)
			if errors.Is(err, common.ErrNotFound) {
				contentID, err := s.bunDB.InsertContentWith(tx, ctx, data)
				if err != nil {
					return err
				}
				nodeID, err = s.bunDB.InsertNodeWith(tx, ctx, parentID, name, contentID)
				return err
			}
			if err != nil {
				return err
			}
			if node.IsDir() {
				return common.ErrIsDir
			}
			nodeID = node.ID
			return s.bunDB.UpdateContentWith(tx, ctx, *node.ContentID, data)
		})
		return nodeID, err
	})
}

// CreateHardlink inserts a new tree row referencing contentID and bumps the
// content's link_count, in one transaction. Fails with ErrExists if the name
// is already occupied.
func (s *Store) CreateHardlink(ctx context.Context, parentID int64, name string, contentID int64) (int64, error) {
	return util.RetryWithResult(ctx, func() (int64, error) {
		var nodeID int64
		err := s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			nodeID, err = s.bunDB.InsertNodeWith(tx, ctx, parentID, name, contentID)
			if err != nil {
				return err
			}
			_, err = s.bunDB.IncrementLinkCountWith(tx, ctx, contentID)
			return err
		})
		return nodeID, err
	})
}

// RemoveFile deletes a file's tree row and decrements its content
// link_count; the content row is deleted in the same transaction when the
// count reaches zero.
func (s *Store) RemoveFile(ctx context.Context, nodeID, contentID int64) error {
	return util.Retry(ctx, func() error {
		return s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := s.bunDB.DeleteNodeWith(tx, ctx, nodeID); err != nil {
				return err
			}
			linkCount, err := s.bunDB.DecrementLinkCountWith(tx, ctx, contentID)
			if err != nil {
				return err
			}
			if linkCount <= 0 {
				return s.bunDB.DeleteContentWith(tx, ctx, contentID)
			}
			return nil
		})
	})
}

// RemoveDirectory deletes an empty directory node, failing with ErrNotEmpty
// if it has any children. The emptiness check and the delete share one
// transaction so a concurrent create cannot slip between them.
func (s *Store) RemoveDirectory(ctx context.Context, nodeID int64) error {
	return util.Retry(ctx, func() error {
		return s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			hasChildren, err := s.bunDB.HasChildrenWith(tx, ctx, nodeID)
			if err != nil {
				return err
			}
			if hasChildren {
				return common.ErrNotEmpty
			}
			return s.bunDB.DeleteNodeWith(tx, ctx, nodeID)
		})
	})
}
