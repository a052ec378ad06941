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

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show metadata for an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	fs, err := openFS()
	if err != nil {
		return err
	}
	defer fs.Store().Close()

	p, err := fs.Path(args[0])
	if err != nil {
		return err
	}
	info, err := p.Stat(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Path: %s\n", p)
	if info.IsDir {
		fmt.Println("Type: directory")
	} else {
		fmt.Println("Type: file")
		fmt.Printf("Size: %d\n", info.Size)
	}
	fmt.Printf("Links: %d\n", info.LinkCount)
	return nil
}
