package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/repocheck/internal/execshell"
)

const (
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitStatusBranchFlagConstant                 = "--branch"
	gitStatusNoUntrackedFlagConstant            = "--untracked-files=no"
	gitFetchSubcommandConstant                  = "fetch"
	gitLogSubcommandConstant                    = "log"
	gitLogOnelineFlagConstant                   = "--oneline"
	sudoNonInteractiveFlagConstant              = "-n"
	sudoUserFlagConstant                        = "-u"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"

	executorMissingMessageConstant           = "git executor not configured"
	statusQueryFailureTemplateConstant       = "failed to query worktree status: %w"
	branchStatusFailureTemplateConstant      = "failed to query branch status: %w"
	branchHeaderMissingMessageConstant       = "branch status output contains no header line"
	fetchFailureTemplateConstant             = "failed to fetch from remote %q: %w"
	elevatedFetchFailureTemplateConstant     = "failed to fetch from remote %q as user %q: %w"
	logQueryFailureTemplateConstant          = "failed to list commits for range %q: %w"
	unexpectedOutputErrorTemplateConstant    = "%s produced unexpected output: %s"
	unexpectedOutputLinesJoinConstant        = "; "
	fetchOperationLabelConstant              = "fetch"
	elevatedFetchOperationLabelTemplateConst = "fetch as %s"
)

// ErrGitExecutorNotConfigured indicates the repository manager was created without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrBranchHeaderMissing indicates branch status output held no header line.
var ErrBranchHeaderMissing = errors.New(branchHeaderMissingMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteDirectoryListing(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteSudo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	GitExecutablePath() string
}

// UnexpectedOutputError reports output from a command that was expected to stay silent.
type UnexpectedOutputError struct {
	Operation   string
	OutputLines []string
}

// Error describes the unexpected output.
func (failure UnexpectedOutputError) Error() string {
	return fmt.Sprintf(unexpectedOutputErrorTemplateConstant, failure.Operation, strings.Join(failure.OutputLines, unexpectedOutputLinesJoinConstant))
}

// WorktreeStatus captures the outcome of a porcelain status query.
type WorktreeStatus struct {
	Clean       bool
	ExitCode    int
	StatusLines []string
}

// RepositoryManager performs repository-level git operations through a GitExecutor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager from the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree runs a porcelain status query. A non-zero exit code or any
// output line reports a not-clean worktree together with the captured lines.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string, ignoreUntracked bool) (WorktreeStatus, error) {
	statusArguments := []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant}
	if ignoreUntracked {
		statusArguments = append(statusArguments, gitStatusNoUntrackedFlagConstant)
	}

	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        statusArguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return WorktreeStatus{
				Clean:       false,
				ExitCode:    commandFailure.Result.ExitCode,
				StatusLines: commandFailure.Result.OutputLines(),
			}, nil
		}
		return WorktreeStatus{}, fmt.Errorf(statusQueryFailureTemplateConstant, executionError)
	}

	statusLines := executionResult.OutputLines()
	return WorktreeStatus{
		Clean:       len(statusLines) == 0,
		ExitCode:    executionResult.ExitCode,
		StatusLines: statusLines,
	}, nil
}

// ResolveBranchStatus runs a branch-aware porcelain status query and parses the
// header line into the local branch and its upstream remote and branch.
func (manager *RepositoryManager) ResolveBranchStatus(executionContext context.Context, repositoryPath string) (BranchStatusHeader, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant, gitStatusBranchFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return BranchStatusHeader{}, fmt.Errorf(branchStatusFailureTemplateConstant, executionError)
	}

	outputLines := executionResult.OutputLines()
	if len(outputLines) == 0 {
		return BranchStatusHeader{}, ErrBranchHeaderMissing
	}

	return ParseBranchStatusHeader(outputLines[0])
}

// FetchRemote fetches updates from the named remote. Any non-zero exit code or
// unexpected standard output is reported as a failure.
func (manager *RepositoryManager) FetchRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, remoteName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return fmt.Errorf(fetchFailureTemplateConstant, remoteName, executionError)
	}

	if outputLines := executionResult.OutputLines(); len(outputLines) > 0 {
		return fmt.Errorf(fetchFailureTemplateConstant, remoteName, UnexpectedOutputError{Operation: fetchOperationLabelConstant, OutputLines: outputLines})
	}

	return nil
}

// FetchRemoteAsUser fetches updates from the named remote under the identity of
// the provided user via passwordless sudo.
func (manager *RepositoryManager) FetchRemoteAsUser(executionContext context.Context, repositoryPath string, remoteName string, userName string) error {
	sudoArguments := []string{
		sudoNonInteractiveFlagConstant,
		sudoUserFlagConstant,
		userName,
		manager.executor.GitExecutablePath(),
		gitFetchSubcommandConstant,
		remoteName,
	}

	executionResult, executionError := manager.executor.ExecuteSudo(executionContext, execshell.CommandDetails{
		Arguments:        sudoArguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	})
	if executionError != nil {
		return fmt.Errorf(elevatedFetchFailureTemplateConstant, remoteName, userName, executionError)
	}

	if outputLines := executionResult.OutputLines(); len(outputLines) > 0 {
		operationLabel := fmt.Sprintf(elevatedFetchOperationLabelTemplateConst, userName)
		return fmt.Errorf(elevatedFetchFailureTemplateConstant, remoteName, userName, UnexpectedOutputError{Operation: operationLabel, OutputLines: outputLines})
	}

	return nil
}

// ListDivergingCommits returns one line per commit contained in the provided
// history range. An empty result means the range holds no commits.
func (manager *RepositoryManager) ListDivergingCommits(executionContext context.Context, repositoryPath string, revisionRange string) ([]string, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandConstant, gitLogOnelineFlagConstant, revisionRange},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, fmt.Errorf(logQueryFailureTemplateConstant, revisionRange, executionError)
	}

	return executionResult.OutputLines(), nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant
	return manager.executor.ExecuteGit(executionContext, details)
}
