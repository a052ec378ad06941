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
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sqlpath/internal/artifacts"
)

// getConfigDir returns the config directory path.
// Uses SQLPATH_CONFIG_DIR env var if set, otherwise defaults to ~/.sqlpath.
// This is computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("SQLPATH_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sqlpath")
}

// GlobalSettingsPath returns the global settings file path.
func GlobalSettingsPath() string {
	return filepath.Join(getConfigDir(), "settings.yaml")
}

// InitConfigDir creates the config directory and a default settings file if
// either is missing.
func InitConfigDir() error {
	if err := os.MkdirAll(getConfigDir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	settingsPath := GlobalSettingsPath()
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, artifacts.GlobalSettings, 0600); err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	}
	return nil
}

// GlobalSettings represents global CLI settings.
type GlobalSettings struct {
	LogLevel    string `yaml:"log_level"`    // Log level: trace, debug, info, warn, off (default: off)
	BusyTimeout int    `yaml:"busy_timeout"` // SQLite busy_timeout (ms), 0 = use default
	Store       string `yaml:"store"`        // Default store file when --store and SQLPATH_STORE are unset
}

// loadDefaultGlobalSettings parses default settings from the embedded artifact.
func loadDefaultGlobalSettings() GlobalSettings {
	var settings GlobalSettings
	if err := yaml.Unmarshal(artifacts.GlobalSettings, &settings); err != nil {
		panic("failed to parse embedded global settings: " + err.Error())
	}
	return settings
}

// LoadGlobalSettings loads the settings file, falling back to embedded
// defaults if it does not exist. Always reads from file to get latest config.
func LoadGlobalSettings() (*GlobalSettings, error) {
	data, err := os.ReadFile(GlobalSettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			settings := loadDefaultGlobalSettings()
			return &settings, nil
		}
		return nil, err
	}

	var settings GlobalSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
