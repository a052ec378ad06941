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

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove files from the store",
	Long: `Remove one or more files, decrementing their content's link count.
Content is deleted when its last name goes away. Directories are refused;
use rmdir.

With -f, missing paths are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "ignore missing paths")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
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
		if err := p.Unlink(ctx, rmForce); err != nil {
			return err
		}
	}
	return nil
}
