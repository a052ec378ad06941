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

var initCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Create a new store file",
	Long: `Create a new sqlpath store file with an empty root directory.

The file must not already exist.

Examples:
  sqlpath init data.sqlpath
  sqlpath init /var/lib/app/tree.db`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	store, err := storage.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	id, err := store.ID(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Initialized empty store in %s (id: %s)\n", args[0], id)
	return nil
}
