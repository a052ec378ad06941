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

var rmdirCmd = &cobra.Command{
	Use:   "rmdir <path>...",
	Short: "Remove empty directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRmdir,
}

func init() {
	rootCmd.AddCommand(rmdirCmd)
}

func runRmdir(cmd *cobra.Command, args []string) error {
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
		if err := p.Rmdir(ctx); err != nil {
			return err
		}
	}
	return nil
}
