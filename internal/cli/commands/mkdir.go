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

	"github.com/spf13/cobra"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>...",
	Short: "Create directories in the store",
	Long: `Create one or more directories.

With -p, missing parent directories are created as needed and existing
directories are not an error, like mkdir -p.

Examples:
  sqlpath -s data.sqlpath mkdir docs
  sqlpath -s data.sqlpath mkdir -p a/b/c x/y`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMkdir,
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "create parent directories as needed; no error if existing")
	rootCmd.AddCommand(mkdirCmd)
}

func runMkdir(cmd *cobra.Command, args []string) error {
	fs, err := openFS()
	if err != nil {
		return err
	}
	defer fs.Store().Close()

	ctx := context.Background()
	for _, arg := range args {
		p, err := fs.Path(arg)
		if err != nil {
			return err
		}
		if err := p.Mkdir(ctx, mkdirParents, mkdirParents); err != nil {
			return err
		}
	}
	return nil
}
