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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sqlpath/internal/storage"
	"sqlpath/internal/vfs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

// getVersionString returns the version string with build info
func getVersionString() string {
	buildDate := formatBuildDate(date)
	if strings.HasSuffix(version, "-dev") {
		// Dev build: include epoch and commit for troubleshooting
		return fmt.Sprintf("%s (%s, epoch: %s, commit: %s)", version, buildDate, date, commit)
	}
	return fmt.Sprintf("%s (%s)", version, buildDate)
}

// formatBuildDate converts epoch timestamp to readable date
func formatBuildDate(epoch string) string {
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

// storePath is the --store flag value, shared by all subcommands.
// settingsStore is the settings-file fallback loaded in PersistentPreRunE.
var (
	storePath     string
	settingsStore string
)

var rootCmd = &cobra.Command{
	Use:   "sqlpath",
	Short: "Hierarchical file tree in a single SQLite file",
	Long: `sqlpath keeps a directory tree of directories, files and hardlinks inside
a single SQLite store file and exposes pathlib-style operations on it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		if err := InitConfigDir(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		if settings, err := LoadGlobalSettings(); err == nil {
			storage.SetConfigBusyTimeout(settings.BusyTimeout)
			applyLogLevel(settings.LogLevel)
			settingsStore = settings.Store
		}

		return nil
	},
}

func applyLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("sqlpath version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "store file (or SQLPATH_STORE env var)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// resolveStorePath returns the store file path: the --store flag wins, then
// the SQLPATH_STORE environment variable, then the settings file.
func resolveStorePath() string {
	if storePath != "" {
		return storePath
	}
	if env := os.Getenv("SQLPATH_STORE"); env != "" {
		return env
	}
	return settingsStore
}

// openFS opens the store named by --store (or SQLPATH_STORE) and wraps it in
// the path API. Callers must Close the returned store.
func openFS() (*vfs.FS, error) {
	path := resolveStorePath()
	if path == "" {
		return nil, fmt.Errorf("no store file given (use --store or SQLPATH_STORE)")
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return vfs.New(store), nil
}
