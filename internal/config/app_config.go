// Package config loads spp defaults from global and local configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/spp/internal/engine"
	"github.com/temirov/spp/internal/linebuffer"
	"github.com/temirov/spp/internal/utils"
)

const invalidMaxIncludeDepthFormat = "max_include_depth: max include depth must be at least 1, got %d"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds preprocessing defaults. Nil pointers mean "not set".
type ApplicationConfiguration struct {
	MaxIncludeDepth  *int                    `mapstructure:"max_include_depth"`
	WorkingDirectory string                  `mapstructure:"working_directory"`
	Copy             *bool                   `mapstructure:"copy"`
	LineBuffer       LineBufferConfiguration `mapstructure:"line_buffer"`
}

// LineBufferConfiguration tunes the per-line buffer.
type LineBufferConfiguration struct {
	InitialCapacity *int     `mapstructure:"initial_capacity"`
	GrowthFactor    *float64 `mapstructure:"growth_factor"`
	MaxLineBytes    *int     `mapstructure:"max_line_bytes"`
	ShrinkThreshold *int     `mapstructure:"shrink_threshold"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local or explicit file.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if validationError := merged.Validate(); validationError != nil {
		return ApplicationConfiguration{}, validationError
	}
	return merged, nil
}

// Validate rejects values that would otherwise be mistaken for "not set". A configured include
// depth of zero or less is an error rather than a request for the default.
func (config ApplicationConfiguration) Validate() error {
	if config.MaxIncludeDepth != nil && *config.MaxIncludeDepth < 1 {
		return fmt.Errorf(invalidMaxIncludeDepthFormat, *config.MaxIncludeDepth)
	}
	return config.LineBuffer.options().Validate()
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		reader.SetConfigType("yaml")
	}
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.MaxIncludeDepth != nil {
		result.MaxIncludeDepth = cloneInt(override.MaxIncludeDepth)
	}
	if override.WorkingDirectory != "" {
		result.WorkingDirectory = override.WorkingDirectory
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	result.LineBuffer = result.LineBuffer.merge(override.LineBuffer)
	return result
}

func (config LineBufferConfiguration) merge(override LineBufferConfiguration) LineBufferConfiguration {
	result := config
	if override.InitialCapacity != nil {
		result.InitialCapacity = cloneInt(override.InitialCapacity)
	}
	if override.GrowthFactor != nil {
		cloned := *override.GrowthFactor
		result.GrowthFactor = &cloned
	}
	if override.MaxLineBytes != nil {
		result.MaxLineBytes = cloneInt(override.MaxLineBytes)
	}
	if override.ShrinkThreshold != nil {
		result.ShrinkThreshold = cloneInt(override.ShrinkThreshold)
	}
	return result
}

// EngineOptions converts the configuration into engine options. Unset values keep engine defaults.
func (config ApplicationConfiguration) EngineOptions() engine.Options {
	options := engine.Options{
		WorkingDirectory: config.WorkingDirectory,
	}
	if config.MaxIncludeDepth != nil {
		options.MaxIncludeDepth = *config.MaxIncludeDepth
	}
	options.LineBuffer = config.LineBuffer.options()
	return options
}

func (config LineBufferConfiguration) options() linebuffer.Options {
	var options linebuffer.Options
	if config.InitialCapacity != nil {
		options.InitialCapacity = *config.InitialCapacity
	}
	if config.GrowthFactor != nil {
		options.GrowthFactor = *config.GrowthFactor
	}
	if config.MaxLineBytes != nil {
		options.MaxLength = *config.MaxLineBytes
	}
	if config.ShrinkThreshold != nil {
		options.ShrinkThreshold = *config.ShrinkThreshold
	}
	return options
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
