// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user configuration directory
const AppName = "metaview"

// GetConfigDir returns the metaview configuration directory.
// METAVIEW_CONFIG_DIR wins, then $XDG_CONFIG_HOME/metaview, then the
// platform user config directory.
func GetConfigDir() string {
	if dir := os.Getenv("METAVIEW_CONFIG_DIR"); dir != "" {
		return NormalizePath(dir)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(".", "."+AppName)
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetHomeConfigFile returns ~/.metaview.yaml, or "" when the home
// directory is unknown
func GetHomeConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+AppName+".yaml")
}

// GetTempDir returns the directory for staged uploads
func GetTempDir() string {
	if dir := os.Getenv("METAVIEW_TEMP_DIR"); dir != "" {
		return NormalizePath(dir)
	}
	return os.TempDir()
}

// NormalizePath expands a leading ~ and cleans the path
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// ValidatePath rejects paths the OS cannot represent
func ValidatePath(path string) error {
	if path == "" {
		return nil // Empty path is valid
	}
	if strings.ContainsRune(path, 0) {
		return &PathValidationError{
			Path:   path,
			Reason: "contains null byte",
		}
	}
	return nil
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}
