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
	"io"
	"os"

	"github.com/spf13/cobra"
)

var writeFrom string

var writeCmd = &cobra.Command{
	Use:   "write <path> [data]",
	Short: "Write a file into the store",
	Long: `Write bytes to a file, creating it or overwriting it in place.

Data comes from the argument, from --from FILE, or from stdin when neither
is given. Overwriting preserves hardlinks: every name sharing the content
observes the new bytes.

Examples:
  sqlpath -s data.sqlpath write notes/hello.txt "hello world"
  sqlpath -s data.sqlpath write blob.bin --from ./local.bin
  cat report.pdf | sqlpath -s data.sqlpath write docs/report.pdf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeFrom, "from", "", "read data from a local file instead of the argument or stdin")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	var data []byte
	switch {
	case writeFrom != "":
		var err error
		if data, err = os.ReadFile(writeFrom); err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
	case len(args) == 2:
		data = []byte(args[1])
	default:
		var err error
		if data, err = io.ReadAll(os.Stdin); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	fs, err := openFS()
	if err != nil {
		return err
	}
	defer fs.Store().Close()

	p, err := fs.Path(args[0])
	if err != nil {
		return err
	}
	return p.WriteBytes(context.Background(), data)
}
