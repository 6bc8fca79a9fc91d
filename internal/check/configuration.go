package check

import (
	"fmt"
	"strings"

	pathutils "github.com/temirov/repocheck/internal/utils/path"
)

const (
	defaultRepositoryPathConstant    = "."
	defaultGitExecutableConstant     = "git"
	repositoryPathConfigKeyConstant  = "repository_path"
	gitExecutableConfigKeyConstant   = "git_executable"
	debugConfigKeyConstant           = "debug"
	failFastConfigKeyConstant        = "fail_fast"
	ignoreUntrackedConfigKeyConstant = "ignore_untracked"
	fetchRemoteConfigKeyConstant     = "fetch_remote"
	useElevationConfigKeyConstant    = "use_elevation"
	configurationKeyTemplateConstant = "%s.%s"
)

// CommandConfiguration captures persistent settings for the check command.
type CommandConfiguration struct {
	RepositoryPath  string `mapstructure:"repository_path"`
	GitExecutable   string `mapstructure:"git_executable"`
	Debug           bool   `mapstructure:"debug"`
	FailFast        bool   `mapstructure:"fail_fast"`
	IgnoreUntracked bool   `mapstructure:"ignore_untracked"`
	FetchRemote     bool   `mapstructure:"fetch_remote"`
	UseElevation    bool   `mapstructure:"use_elevation"`
}

// DefaultCommandConfiguration provides baseline configuration values for the check command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:  defaultRepositoryPathConstant,
		GitExecutable:   defaultGitExecutableConstant,
		Debug:           false,
		FailFast:        true,
		IgnoreUntracked: false,
		FetchRemote:     true,
		UseElevation:    false,
	}
}

// DefaultConfigurationValues exposes the baseline values keyed for the configuration loader.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefixedConfigurationKey(configurationPrefix, repositoryPathConfigKeyConstant):  defaults.RepositoryPath,
		prefixedConfigurationKey(configurationPrefix, gitExecutableConfigKeyConstant):   defaults.GitExecutable,
		prefixedConfigurationKey(configurationPrefix, debugConfigKeyConstant):           defaults.Debug,
		prefixedConfigurationKey(configurationPrefix, failFastConfigKeyConstant):        defaults.FailFast,
		prefixedConfigurationKey(configurationPrefix, ignoreUntrackedConfigKeyConstant): defaults.IgnoreUntracked,
		prefixedConfigurationKey(configurationPrefix, fetchRemoteConfigKeyConstant):     defaults.FetchRemote,
		prefixedConfigurationKey(configurationPrefix, useElevationConfigKeyConstant):    defaults.UseElevation,
	}
}

// Sanitize trims textual values, expands home shortcuts, and applies defaults to unset values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaultRepositoryPathConstant
	}
	sanitized.RepositoryPath = pathutils.NewHomeExpander().Expand(sanitized.RepositoryPath)

	sanitized.GitExecutable = strings.TrimSpace(configuration.GitExecutable)
	if len(sanitized.GitExecutable) == 0 {
		sanitized.GitExecutable = defaultGitExecutableConstant
	}

	return sanitized
}

func prefixedConfigurationKey(configurationPrefix string, configurationKey string) string {
	if len(strings.TrimSpace(configurationPrefix)) == 0 {
		return configurationKey
	}
	return fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, configurationKey)
}
