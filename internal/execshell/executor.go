package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	gitCommandNameConstant           = "git"
	directoryListCommandNameConstant = "ls"
	sudoCommandNameConstant          = "sudo"

	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandNameMissingMessageConstant         = "command name not provided"

	commandFailedTemplateConstant            = "%s failed with exit code %d%s"
	commandExecutionFailureTemplateConstant  = "%s failed: %s"
	commandLabelJoinSeparatorConstant        = " "
	standardErrorSuffixTemplateConstant      = ": %s"
	commandStartedLogMessageConstant         = "starting command"
	commandCompletedLogMessageConstant       = "command completed"
	commandFailedLogMessageConstant          = "command failed"
	commandExecutionFailedLogMessageConstant = "command execution failed"
	logFieldCommandConstant                  = "command"
	logFieldArgumentsConstant                = "arguments"
	logFieldWorkingDirectoryConstant         = "working_directory"
	logFieldExitCodeConstant                 = "exit_code"
	logFieldStandardErrorConstant            = "standard_error"
)

// ErrLoggerNotConfigured indicates the executor was created without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was created without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// ErrCommandNameMissing indicates an execution request omitted the tool name.
var ErrCommandNameMissing = errors.New(commandNameMissingMessageConstant)

// CommandName identifies a supported external tool.
type CommandName string

// Supported tool enumerations.
const (
	CommandGit           CommandName = CommandName(gitCommandNameConstant)
	CommandDirectoryList CommandName = CommandName(directoryListCommandNameConstant)
	CommandSudo          CommandName = CommandName(sudoCommandNameConstant)
)

// CommandDetails describes a single tool invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details. ExecutablePath
// overrides the binary resolved from Name when a configured path is present.
type ShellCommand struct {
	Name           CommandName
	ExecutablePath string
	Details        CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// OutputLines splits the captured standard output into trimmed, non-empty lines.
func (result ExecutionResult) OutputLines() []string {
	rawLines := strings.Split(result.StandardOutput, "\n")
	outputLines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		trimmedLine := strings.TrimRight(rawLine, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		outputLines = append(outputLines, trimmedLine)
	}
	return outputLines
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including exit code and captured stderr.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, formatCommandLabel(failure.Command), failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailureTemplateConstant, formatCommandLabel(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ExecutorConfiguration customizes ShellExecutor behavior.
type ExecutorConfiguration struct {
	GitExecutablePath string
	EventObserver     CommandEventObserver
}

// ShellExecutor coordinates command construction, logging, and execution.
type ShellExecutor struct {
	logger            *zap.Logger
	commandRunner     CommandRunner
	gitExecutablePath string
	eventObserver     CommandEventObserver
}

// NewShellExecutor constructs an executor with default configuration.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	return NewConfiguredShellExecutor(logger, commandRunner, ExecutorConfiguration{})
}

// NewConfiguredShellExecutor constructs an executor honoring the provided configuration.
func NewConfiguredShellExecutor(logger *zap.Logger, commandRunner CommandRunner, configuration ExecutorConfiguration) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	eventObserver := configuration.EventObserver
	if eventObserver == nil {
		eventObserver = noopCommandEventObserver{}
	}

	return &ShellExecutor{
		logger:            logger,
		commandRunner:     commandRunner,
		gitExecutablePath: strings.TrimSpace(configuration.GitExecutablePath),
		eventObserver:     eventObserver,
	}, nil
}

// ExecuteGit runs the configured git binary with the provided options.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteDirectoryListing runs the directory listing utility with the provided options.
func (executor *ShellExecutor) ExecuteDirectoryListing(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandDirectoryList, Details: details})
}

// ExecuteSudo runs a command under sudo with the provided options.
func (executor *ShellExecutor) ExecuteSudo(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandSudo, Details: details})
}

// GitExecutablePath reports the binary invoked for git commands.
func (executor *ShellExecutor) GitExecutablePath() string {
	if len(executor.gitExecutablePath) > 0 {
		return executor.gitExecutablePath
	}
	return gitCommandNameConstant
}

// Execute runs an arbitrary command using the configured runner.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(string(command.Name))) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}

	if command.Name == CommandGit && len(executor.gitExecutablePath) > 0 {
		command.ExecutablePath = executor.gitExecutablePath
	}

	executor.eventObserver.CommandStarted(command)
	executor.logger.Debug(
		commandStartedLogMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.eventObserver.CommandExecutionFailed(command, runError)
		executor.logger.Error(
			commandExecutionFailedLogMessageConstant,
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Error(runError),
		)
		return ExecutionResult{}, executionFailure
	}

	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedLogMessageConstant,
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
		)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}

func formatCommandLabel(command ShellCommand) string {
	labelParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		labelParts = append(labelParts, command.Details.Arguments...)
	}
	return strings.Join(labelParts, commandLabelJoinSeparatorConstant)
}
