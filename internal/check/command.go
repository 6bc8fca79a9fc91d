package check

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repocheck/internal/gitrepo"
	"github.com/temirov/repocheck/internal/utils"
)

const (
	commandUseConstant              = "check"
	commandShortDescriptionConstant = "Check repository status and remote synchronization"
	commandLongDescriptionConstant  = "check verifies working-tree cleanliness, identifies the tracked upstream branch, fetches remote updates, and reports history divergence."

	repositoryFlagNameConstant         = "repository"
	repositoryFlagUsageConstant        = "Path to the repository working directory"
	gitExecutableFlagNameConstant      = "git-executable"
	gitExecutableFlagUsageConstant     = "Path to the git binary to invoke"
	debugFlagNameConstant              = "debug"
	debugFlagUsageConstant             = "Echo command lifecycle events to the error stream"
	failFastFlagNameConstant           = "fail-fast"
	failFastFlagUsageConstant          = "Stop on the first detected issue rather than attempting all checks"
	ignoreUntrackedFlagNameConstant    = "ignore-untracked"
	ignoreUntrackedFlagUsageConstant   = "Exclude untracked files from the cleanliness check"
	fetchFlagNameConstant              = "fetch"
	fetchFlagUsageConstant             = "Fetch remote updates and compare histories"
	elevateFlagNameConstant            = "elevate"
	elevateFlagUsageConstant           = "Run the fetch as the repository-owning user via sudo"

	cleanSummaryTemplateConstant  = "OK: %s\n"
	issueSummaryTemplateConstant  = "ISSUES: %s (%d)\n"
	issueLineTemplateConstant     = "ISSUE [%s/%s]: %s\n"
	issueOutputLineTemplateConst  = "  %s\n"
	configurationFileLogMessage   = "configuration file applied"
	configurationFileLogFieldName = "config_file"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the check command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	GitExecutor                  gitrepo.GitExecutor
	RepositoryManager            RepositoryManager
	OwnerResolver                OwnerResolver
}

// Build constructs the check command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repositoryFlagNameConstant, defaults.RepositoryPath, repositoryFlagUsageConstant)
	command.Flags().String(gitExecutableFlagNameConstant, defaults.GitExecutable, gitExecutableFlagUsageConstant)
	command.Flags().Bool(debugFlagNameConstant, defaults.Debug, debugFlagUsageConstant)
	command.Flags().Bool(failFastFlagNameConstant, defaults.FailFast, failFastFlagUsageConstant)
	command.Flags().Bool(ignoreUntrackedFlagNameConstant, defaults.IgnoreUntracked, ignoreUntrackedFlagUsageConstant)
	command.Flags().Bool(fetchFlagNameConstant, defaults.FetchRemote, fetchFlagUsageConstant)
	command.Flags().Bool(elevateFlagNameConstant, defaults.UseElevation, elevateFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()

	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFilePath, available := contextAccessor.ConfigurationFilePath(command.Context()); available {
		logger.Debug(configurationFileLogMessage, zap.String(configurationFileLogFieldName, configurationFilePath))
	}

	humanReadableLogging := configuration.Debug
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		humanReadableLogging = true
	}

	gitExecutor, executorError := ResolveGitExecutor(builder.GitExecutor, logger, ExecutorSettings{
		GitExecutablePath:    configuration.GitExecutable,
		HumanReadableLogging: humanReadableLogging,
	})
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := ResolveRepositoryManager(builder.RepositoryManager, gitExecutor)
	if managerError != nil {
		return managerError
	}

	ownerResolver, resolverError := ResolveOwnerResolver(builder.OwnerResolver, gitExecutor)
	if resolverError != nil {
		return resolverError
	}

	service, serviceCreationError := NewService(Dependencies{
		RepositoryManager: repositoryManager,
		OwnerResolver:     ownerResolver,
		Logger:            logger,
	})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	report, runError := service.Run(command.Context(), Options{
		RepositoryPath:  configuration.RepositoryPath,
		FailFast:        configuration.FailFast,
		IgnoreUntracked: configuration.IgnoreUntracked,
		FetchEnabled:    configuration.FetchRemote,
		UseElevation:    configuration.UseElevation,
	})
	if runError != nil {
		return runError
	}

	builder.writeSummary(utils.NewFlushingWriter(command.OutOrStdout()), report)

	// Detected issues are observational: the scheduled invocation completes
	// normally and the diagnostics live in the log output.
	return nil
}

func (builder *CommandBuilder) writeSummary(outputWriter io.Writer, report Report) {
	for _, issue := range report.Issues {
		fmt.Fprintf(outputWriter, issueLineTemplateConstant, issue.Step, issue.Kind, issue.Message)
		for _, outputLine := range issue.OutputLines {
			fmt.Fprintf(outputWriter, issueOutputLineTemplateConst, outputLine)
		}
	}

	if report.HasIssues() {
		fmt.Fprintf(outputWriter, issueSummaryTemplateConstant, report.RepositoryPath, len(report.Issues))
		return
	}

	fmt.Fprintf(outputWriter, cleanSummaryTemplateConstant, report.RepositoryPath)
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagOverrides := []struct {
		name  string
		apply func() error
	}{
		{name: repositoryFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetString(repositoryFlagNameConstant)
			configuration.RepositoryPath = value
			return flagError
		}},
		{name: gitExecutableFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetString(gitExecutableFlagNameConstant)
			configuration.GitExecutable = value
			return flagError
		}},
		{name: debugFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetBool(debugFlagNameConstant)
			configuration.Debug = value
			return flagError
		}},
		{name: failFastFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetBool(failFastFlagNameConstant)
			configuration.FailFast = value
			return flagError
		}},
		{name: ignoreUntrackedFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetBool(ignoreUntrackedFlagNameConstant)
			configuration.IgnoreUntracked = value
			return flagError
		}},
		{name: fetchFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetBool(fetchFlagNameConstant)
			configuration.FetchRemote = value
			return flagError
		}},
		{name: elevateFlagNameConstant, apply: func() error {
			value, flagError := command.Flags().GetBool(elevateFlagNameConstant)
			configuration.UseElevation = value
			return flagError
		}},
	}

	for _, override := range flagOverrides {
		if !command.Flags().Changed(override.name) {
			continue
		}
		if applyError := override.apply(); applyError != nil {
			return CommandConfiguration{}, applyError
		}
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
