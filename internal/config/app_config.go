// Package config loads snapsource settings from the global and local YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/snapsource/internal/types"
	"github.com/temirov/snapsource/internal/utils"
)

const (
	errorWorkingDirectoryFormat   = "determine working directory: %w"
	errorResolveConfigPathFormat  = "resolve configuration path %s: %w"
	errorStatConfigurationFormat  = "stat configuration %s: %w"
	errorConfigurationIsDirectory = "configuration path %s is a directory"
	errorReadConfigurationFormat  = "read configuration from %s: %w"
	errorDecodeConfigurationFmt   = "decode configuration from %s: %w"
	errorNegativeMaxDepthFormat   = "max_depth must not be negative, got %d"
	errorMaxFileSizeFormat        = "max_file_size must be positive, got %d"
	errorNegativeMaxTokensFormat  = "tokens.max_tokens must not be negative, got %d"
)

var errMissingExplicitConfiguration = errors.New("configuration file not found")

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	// ExplicitFilePath replaces the local configuration file when set. It must exist.
	ExplicitFilePath string
}

// ApplicationConfiguration mirrors the YAML configuration file. Pointer fields distinguish
// "unset" from zero values so that later files only override what they specify.
type ApplicationConfiguration struct {
	Format         string               `mapstructure:"format"`
	IncludeTree    *bool                `mapstructure:"include_tree"`
	MaxDepth       *int                 `mapstructure:"max_depth"`
	MaxFileSize    *int64               `mapstructure:"max_file_size"`
	UseGitignore   *bool                `mapstructure:"use_gitignore"`
	HideDotFiles   *bool                `mapstructure:"hide_dot_files"`
	RemoveComments *bool                `mapstructure:"remove_comments"`
	Compress       *bool                `mapstructure:"compress"`
	Exclude        ExcludeConfiguration `mapstructure:"exclude"`
	Tokens         TokenConfiguration   `mapstructure:"tokens"`
	Clipboard      *bool                `mapstructure:"clipboard"`
	Progress       *bool                `mapstructure:"progress"`

	// LegacyExcludePaths and LegacyExcludePatterns are the flat keys used by older files.
	// They apply only when the exclude block does not set the same list.
	LegacyExcludePaths    *[]string `mapstructure:"exclude_paths"`
	LegacyExcludePatterns *[]string `mapstructure:"exclude_patterns"`
}

// ExcludeConfiguration is the structured exclusion block.
type ExcludeConfiguration struct {
	Paths    *[]string `mapstructure:"paths"`
	Patterns *[]string `mapstructure:"patterns"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled   *bool  `mapstructure:"enabled"`
	Model     string `mapstructure:"model"`
	MaxTokens *int   `mapstructure:"max_tokens"`
	Warning   *bool  `mapstructure:"warning"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local
// or explicit file, with later files overriding earlier ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, err)
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

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(errorResolveConfigPathFormat, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			if required {
				return ApplicationConfiguration{}, fmt.Errorf("%w: %s", errMissingExplicitConfiguration, path)
			}
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatConfigurationFormat, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorConfigurationIsDirectory, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadConfigurationFormat, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeConfigurationFmt, path, decodeErr)
	}
	return config.withLegacyExclusions(), nil
}

// withLegacyExclusions fills the exclusion block from the flat keys only when the file sets
// neither structured list; a partially set block is taken as a whole.
func (config ApplicationConfiguration) withLegacyExclusions() ApplicationConfiguration {
	result := config
	if result.Exclude.Paths == nil && result.Exclude.Patterns == nil {
		if result.LegacyExcludePaths != nil {
			result.Exclude.Paths = cloneStrings(result.LegacyExcludePaths)
		}
		if result.LegacyExcludePatterns != nil {
			result.Exclude.Patterns = cloneStrings(result.LegacyExcludePatterns)
		}
	}
	result.LegacyExcludePaths = nil
	result.LegacyExcludePatterns = nil
	return result
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.IncludeTree != nil {
		result.IncludeTree = cloneBool(override.IncludeTree)
	}
	if override.MaxDepth != nil {
		result.MaxDepth = cloneInt(override.MaxDepth)
	}
	if override.MaxFileSize != nil {
		maxFileSize := *override.MaxFileSize
		result.MaxFileSize = &maxFileSize
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.HideDotFiles != nil {
		result.HideDotFiles = cloneBool(override.HideDotFiles)
	}
	if override.RemoveComments != nil {
		result.RemoveComments = cloneBool(override.RemoveComments)
	}
	if override.Compress != nil {
		result.Compress = cloneBool(override.Compress)
	}
	result.Exclude = result.Exclude.merge(override.Exclude)
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Progress != nil {
		result.Progress = cloneBool(override.Progress)
	}
	return result
}

func (config ExcludeConfiguration) merge(override ExcludeConfiguration) ExcludeConfiguration {
	result := config
	if override.Paths != nil {
		result.Paths = cloneStrings(override.Paths)
	}
	if override.Patterns != nil {
		result.Patterns = cloneStrings(override.Patterns)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.MaxTokens != nil {
		result.MaxTokens = cloneInt(override.MaxTokens)
	}
	if override.Warning != nil {
		result.Warning = cloneBool(override.Warning)
	}
	return result
}

// Resolve applies the configuration on top of the built-in defaults and validates the result.
func (config ApplicationConfiguration) Resolve() (types.RunConfiguration, error) {
	resolved := types.DefaultRunConfiguration()
	if config.Format != "" {
		format, err := types.ParseOutputFormat(config.Format)
		if err != nil {
			return types.RunConfiguration{}, err
		}
		resolved.Format = format
	}
	applyBool(&resolved.IncludeTree, config.IncludeTree)
	applyBool(&resolved.UseGitignore, config.UseGitignore)
	applyBool(&resolved.HideDotFiles, config.HideDotFiles)
	applyBool(&resolved.RemoveComments, config.RemoveComments)
	applyBool(&resolved.CompressCode, config.Compress)
	applyBool(&resolved.TokenCounting, config.Tokens.Enabled)
	applyBool(&resolved.TokenWarning, config.Tokens.Warning)
	applyBool(&resolved.UseClipboard, config.Clipboard)
	applyBool(&resolved.ProgressIndicators, config.Progress)

	if config.MaxDepth != nil {
		if *config.MaxDepth < 0 {
			return types.RunConfiguration{}, fmt.Errorf(errorNegativeMaxDepthFormat, *config.MaxDepth)
		}
		resolved.MaxDepth = *config.MaxDepth
	}
	if config.MaxFileSize != nil {
		if *config.MaxFileSize <= 0 {
			return types.RunConfiguration{}, fmt.Errorf(errorMaxFileSizeFormat, *config.MaxFileSize)
		}
		resolved.MaxFileSize = *config.MaxFileSize
	}
	if config.Tokens.Model != "" {
		resolved.TokenModel = config.Tokens.Model
	}
	if config.Tokens.MaxTokens != nil {
		if *config.Tokens.MaxTokens < 0 {
			return types.RunConfiguration{}, fmt.Errorf(errorNegativeMaxTokensFormat, *config.Tokens.MaxTokens)
		}
		resolved.MaxTokens = *config.Tokens.MaxTokens
	}
	if config.Exclude.Paths != nil {
		resolved.Exclude.Paths = utils.DeduplicatePatterns(*config.Exclude.Paths)
	}
	if config.Exclude.Patterns != nil {
		resolved.Exclude.Patterns = utils.DeduplicatePatterns(*config.Exclude.Patterns)
	}
	return resolved, nil
}

func applyBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
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

func cloneStrings(values *[]string) *[]string {
	if values == nil {
		return nil
	}
	cloned := append([]string{}, (*values)...)
	return &cloned
}
