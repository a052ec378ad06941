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
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List directory entries",
	Long: `List the immediate entries of a directory in creation order.

Without a path, lists the root directory. With -l, shows the entry type,
payload size and link count.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "long listing: type, size, link count")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	fs, err := openFS()
	if err != nil {
		return err
	}
	defer fs.Store().Close()

	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	p, err := fs.Path(target)
	if err != nil {
		return err
	}

	ctx := context.Background()
	children, err := p.Iterdir(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if !lsLong {
			fmt.Println(child.Name())
			continue
		}
		info, err := child.Stat(ctx)
		if err != nil {
			return err
		}
		kind := "f"
		if info.IsDir {
			kind = "d"
		}
		fmt.Printf("%s %8d %2d %s\n", kind, info.Size, info.LinkCount, child.Name())
	}
	return nil
}
