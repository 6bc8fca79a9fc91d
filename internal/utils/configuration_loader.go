package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// LoaderSettings describes how configuration files and overrides are located.
type LoaderSettings struct {
	ConfigurationName     string
	ConfigurationType     string
	EnvironmentPrefix     string
	SearchPaths           []string
	EmbeddedConfiguration []byte
}

// ConfigurationLoader resolves configuration from embedded defaults, files, and
// environment variables, in ascending precedence.
type ConfigurationLoader struct {
	settings               LoaderSettings
	environmentKeyReplacer *strings.Replacer
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader constructs a loader from the provided settings.
func NewConfigurationLoader(settings LoaderSettings) *ConfigurationLoader {
	duplicatedSearchPaths := make([]string, len(settings.SearchPaths))
	copy(duplicatedSearchPaths, settings.SearchPaths)
	settings.SearchPaths = duplicatedSearchPaths

	if len(settings.EmbeddedConfiguration) > 0 {
		duplicatedEmbeddedConfiguration := make([]byte, len(settings.EmbeddedConfiguration))
		copy(duplicatedEmbeddedConfiguration, settings.EmbeddedConfiguration)
		settings.EmbeddedConfiguration = duplicatedEmbeddedConfiguration
	}

	return &ConfigurationLoader{
		settings:               settings,
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// Load populates targetConfiguration from embedded defaults, an optional
// explicit configuration file, discovered configuration files, programmatic
// defaults, and environment variables.
func (loader *ConfigurationLoader) Load(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.settings.ConfigurationName)
	viperInstance.SetConfigType(loader.settings.ConfigurationType)

	if len(loader.settings.EmbeddedConfiguration) > 0 {
		mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.settings.EmbeddedConfiguration))
		if mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}
	}

	for _, searchPath := range loader.settings.SearchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.settings.EnvironmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		if _, isNotFound := readError.(viper.ConfigFileNotFoundError); !isNotFound {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	unmarshalError := viperInstance.Unmarshal(targetConfiguration)
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
