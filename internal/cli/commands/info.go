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

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sqlpath/internal/storage"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show store information",
	Long: `Show the store's identity, schema version and entry count.

Example:
  sqlpath -s data.sqlpath info`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	fs, err := openFS()
	if err != nil {
		return err
	}
	store := fs.Store()
	defer store.Close()

	ctx := context.Background()
	id, err := store.ID(ctx)
	if err != nil {
		return err
	}
	schemaVersion, err := store.Bun().GetSchemaInfo(ctx, "version")
	if err != nil {
		return err
	}
	createdAt, err := store.Bun().GetSchemaInfo(ctx, "created_at")
	if err != nil {
		return err
	}
	count, err := store.Len(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Store: %s\n", store.Path())
	fmt.Printf("Id: %s\n", id)
	fmt.Printf("Schema: %s (%s)\n", schemaVersion, storage.StoreType)
	fmt.Printf("Created: %s\n", createdAt)
	fmt.Printf("Entries: %d\n", count)
	return nil
}
