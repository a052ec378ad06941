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

var lnCmd = &cobra.Command{
	Use:   "ln <target> <link>",
	Short: "Create a hardlink to a file",
	Long: `Create an additional name for an existing file's content.

Both names share the same bytes: overwriting through either name is visible
through the other. The content survives until its last name is removed.

Example:
  sqlpath -s data.sqlpath ln docs/report.txt backup/report.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runLn,
}

func init() {
	rootCmd.AddCommand(lnCmd)
}

func runLn(cmd *cobra.Command, args []string) error {
	fs, err := openFS()
	if err != nil {
		return err
	}
	defer fs.Store().Close()

	target, err := fs.Path(args[0])
	if err != nil {
		return err
	}
	link, err := fs.Path(args[1])
	if err != nil {
		return err
	}
	return link.HardlinkTo(context.Background(), target)
}
