// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"metaview/internal/geo"
	"metaview/internal/paths"
	"metaview/internal/preprocessors"

	"gopkg.in/yaml.v3"
)

// SupportedFormats lists the output formats a config may select
var SupportedFormats = []string{"text", "json", "yaml", "csv", "msgpack"}

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults Defaults `yaml:"defaults"`

	// Web UI settings
	Web WebConfig `yaml:"web"`

	// Map link and embed settings
	Map MapConfig `yaml:"map"`

	// Named overrides of Defaults
	Profiles map[string]Profile `yaml:"profiles"`
}

// Defaults holds the settings shared by the CLI and the web UI
type Defaults struct {
	Format             string        `yaml:"format"`
	NoColor            bool          `yaml:"no_color"`
	Debug              bool          `yaml:"debug"`
	ShowMap            bool          `yaml:"show_map"`
	AllowedExtensions  []string      `yaml:"allowed_extensions"`
	MaxFileSizeMB      int64         `yaml:"max_file_size_mb"`
	StrictContentCheck bool          `yaml:"strict_content_check"`
	ProcessingTimeout  time.Duration `yaml:"processing_timeout"`
}

// WebConfig configures the upload server
type WebConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	TempDir        string        `yaml:"temp_dir"`
	RequestLogging bool          `yaml:"request_logging"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxPreviewKB   int64         `yaml:"max_preview_kb"`
}

// MapConfig configures location rendering
type MapConfig struct {
	MapsURLTemplate string  `yaml:"maps_url_template"`
	EmbedProvider   string  `yaml:"embed_provider"`
	Span            float64 `yaml:"span"`
}

// Profile overrides Defaults for a named scenario. Unset fields keep the
// default value.
type Profile struct {
	Description        string        `yaml:"description"`
	Format             string        `yaml:"format"`
	NoColor            *bool         `yaml:"no_color"`
	Debug              *bool         `yaml:"debug"`
	ShowMap            *bool         `yaml:"show_map"`
	AllowedExtensions  []string      `yaml:"allowed_extensions"`
	MaxFileSizeMB      int64         `yaml:"max_file_size_mb"`
	StrictContentCheck *bool         `yaml:"strict_content_check"`
	ProcessingTimeout  time.Duration `yaml:"processing_timeout"`
}

// defaultConfig returns the built-in configuration
func defaultConfig() *Config {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.Defaults.Format = "text"
	config.Defaults.ShowMap = true
	config.Defaults.AllowedExtensions = append([]string(nil), preprocessors.DefaultAllowedExtensions...)
	config.Defaults.MaxFileSizeMB = 50
	config.Defaults.ProcessingTimeout = 30 * time.Second

	config.Web.Host = ""
	config.Web.Port = 8080
	config.Web.RequestLogging = true
	config.Web.ReadTimeout = 60 * time.Second
	config.Web.WriteTimeout = 60 * time.Second
	config.Web.MaxPreviewKB = 5 * 1024

	config.Map.MapsURLTemplate = geo.DefaultMapsURLTemplate
	config.Map.EmbedProvider = "openstreetmap"
	config.Map.Span = 0.01

	// Built-in profile for scripting: machine output, no map links
	noMap, noColor := false, true
	config.Profiles["script"] = Profile{
		Description: "Compact JSON for pipelines, without map links",
		Format:      "json",
		NoColor:     &noColor,
		ShowMap:     &noMap,
	}

	return config
}

// LoadConfig loads configuration from the specified file path. An empty
// path returns the built-in defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(paths.NormalizePath(configPath))
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Store default values before unmarshaling
	defaultShowMap := config.Defaults.ShowMap
	defaultRequestLogging := config.Web.RequestLogging

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]Profile)
	}

	// Restore true-by-default bools the file did not mention
	if !containsField(data, "defaults", "show_map") {
		config.Defaults.ShowMap = defaultShowMap
	}
	if !containsField(data, "web", "request_logging") {
		config.Web.RequestLogging = defaultRequestLogging
	}

	config.Web.TempDir = paths.NormalizePath(config.Web.TempDir)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// CandidateConfigFiles returns the lookup order used when no explicit
// config file is given
func CandidateConfigFiles() []string {
	candidates := []string{
		"metaview.yaml",
		".metaview.yaml",
		paths.GetConfigFile(),
	}
	if home := paths.GetHomeConfigFile(); home != "" {
		candidates = append(candidates, home)
	}
	return candidates
}

// FindConfigFile returns the first existing candidate config file, or ""
func FindConfigFile() string {
	for _, candidate := range CandidateConfigFiles() {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the sorted profile names
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ErrUnknownProfile is returned by Effective for a missing profile name
var ErrUnknownProfile = errors.New("unknown profile")

// Effective returns Defaults with the named profile applied. An empty name
// returns Defaults unchanged.
func (c *Config) Effective(profileName string) (Defaults, error) {
	d := c.Defaults
	d.AllowedExtensions = append([]string(nil), c.Defaults.AllowedExtensions...)
	if profileName == "" {
		return d, nil
	}

	p := c.GetProfile(profileName)
	if p == nil {
		return d, fmt.Errorf("%w '%s'. Available profiles: %s",
			ErrUnknownProfile, profileName, strings.Join(c.ListProfiles(), ", "))
	}

	if p.Format != "" {
		d.Format = p.Format
	}
	if p.NoColor != nil {
		d.NoColor = *p.NoColor
	}
	if p.Debug != nil {
		d.Debug = *p.Debug
	}
	if p.ShowMap != nil {
		d.ShowMap = *p.ShowMap
	}
	if len(p.AllowedExtensions) > 0 {
		d.AllowedExtensions = append([]string(nil), p.AllowedExtensions...)
	}
	if p.MaxFileSizeMB > 0 {
		d.MaxFileSizeMB = p.MaxFileSizeMB
	}
	if p.StrictContentCheck != nil {
		d.StrictContentCheck = *p.StrictContentCheck
	}
	if p.ProcessingTimeout > 0 {
		d.ProcessingTimeout = p.ProcessingTimeout
	}
	return d, nil
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes
func (d Defaults) MaxFileSizeBytes() int64 {
	return d.MaxFileSizeMB * 1024 * 1024
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	err := yaml.Unmarshal(data, &yamlData)
	if err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			// Last key - check if it exists
			_, exists := current[key]
			return exists
		}
		// Intermediate key - navigate deeper
		if next, ok := current[key].(map[string]interface{}); ok {
			current = next
		} else {
			return false
		}
	}
	return false
}

// ValidateConfig rejects unknown formats and extensions, non-positive sizes
// and out-of-range ports
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := validateSettings("defaults", config.Defaults.Format, config.Defaults.AllowedExtensions); err != nil {
		return err
	}
	if config.Defaults.MaxFileSizeMB <= 0 {
		return fmt.Errorf("defaults: max_file_size_mb must be positive, got %d", config.Defaults.MaxFileSizeMB)
	}
	if len(config.Defaults.AllowedExtensions) == 0 {
		return fmt.Errorf("defaults: allowed_extensions cannot be empty")
	}
	if config.Defaults.ProcessingTimeout < 0 {
		return fmt.Errorf("defaults: processing_timeout cannot be negative")
	}

	for name, profile := range config.Profiles {
		if profile.MaxFileSizeMB < 0 {
			return fmt.Errorf("profile '%s': max_file_size_mb must be positive, got %d", name, profile.MaxFileSizeMB)
		}
		if err := validateSettings("profile '"+name+"'", profile.Format, profile.AllowedExtensions); err != nil {
			return err
		}
	}

	if config.Web.Port < 0 || config.Web.Port > 65535 {
		return fmt.Errorf("web: port %d out of range", config.Web.Port)
	}
	if err := paths.ValidatePath(config.Web.TempDir); err != nil {
		return fmt.Errorf("web: invalid temp_dir: %w", err)
	}

	switch config.Map.EmbedProvider {
	case "", "openstreetmap", "none":
	default:
		return fmt.Errorf("map: unknown embed_provider '%s' (expected openstreetmap or none)", config.Map.EmbedProvider)
	}
	if config.Map.MapsURLTemplate != "" && strings.Count(config.Map.MapsURLTemplate, "%s") != 2 {
		return fmt.Errorf("map: maps_url_template must contain two %%s verbs")
	}

	return nil
}

// validateSettings checks fields shared by Defaults and Profile. Empty
// values mean "not set" and pass.
func validateSettings(scope, format string, extensions []string) error {
	if format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%s: unsupported format '%s'. Available formats: %s",
			scope, format, strings.Join(SupportedFormats, ", "))
	}

	supported := preprocessors.NewFileExtensionValidator(preprocessors.DefaultAllowedExtensions...)
	for _, ext := range extensions {
		norm := preprocessors.NormalizeExtension(ext)
		if norm == "" || !supported.Allows("file"+norm) {
			return fmt.Errorf("%s: unsupported extension '%s'. Supported: %s",
				scope, ext, strings.Join(supported.Extensions(), ", "))
		}
	}
	return nil
}

func isSupportedFormat(format string) bool {
	for _, f := range SupportedFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration.
// This is the shared helper used by both the CLI and the web server.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// Callers should not crash on a missing or bad config file.
		cfg = defaultConfig()
	}
	return cfg
}
