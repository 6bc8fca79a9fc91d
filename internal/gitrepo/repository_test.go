package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repocheck/internal/execshell"
	"github.com/temirov/repocheck/internal/gitrepo"
)

const (
	testRepositoryPathConstant    = "/srv/checkout"
	testRemoteNameConstant        = "origin"
	testOwnerUserNameConstant     = "deploy"
	testGitExecutablePathConstant = "/usr/bin/git"
)

type scriptedExecution struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	gitExecutions     []scriptedExecution
	listingExecution  scriptedExecution
	sudoExecution     scriptedExecution
	recordedGit       []execshell.CommandDetails
	recordedListings  []execshell.CommandDetails
	recordedSudo      []execshell.CommandDetails
	gitExecutablePath string
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedGit = append(executor.recordedGit, details)
	if len(executor.gitExecutions) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	execution := executor.gitExecutions[0]
	executor.gitExecutions = executor.gitExecutions[1:]
	return execution.result, execution.err
}

func (executor *scriptedGitExecutor) ExecuteDirectoryListing(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedListings = append(executor.recordedListings, details)
	return executor.listingExecution.result, executor.listingExecution.err
}

func (executor *scriptedGitExecutor) ExecuteSudo(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedSudo = append(executor.recordedSudo, details)
	return executor.sudoExecution.result, executor.sudoExecution.err
}

func (executor *scriptedGitExecutor) GitExecutablePath() string {
	if len(executor.gitExecutablePath) > 0 {
		return executor.gitExecutablePath
	}
	return "git"
}

func TestNewRepositoryManagerValidatesExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name            string
		ignoreUntracked bool
		execution       scriptedExecution
		expectedStatus  gitrepo.WorktreeStatus
		expectError     bool
		expectedFlags   []string
	}{
		{
			name:           "clean_worktree",
			execution:      scriptedExecution{result: execshell.ExecutionResult{}},
			expectedStatus: gitrepo.WorktreeStatus{Clean: true, StatusLines: []string{}},
			expectedFlags:  []string{"status", "--porcelain"},
		},
		{
			name: "dirty_worktree",
			execution: scriptedExecution{result: execshell.ExecutionResult{
				StandardOutput: " M internal/service.go\n?? scratch.txt\n",
			}},
			expectedStatus: gitrepo.WorktreeStatus{
				Clean:       false,
				StatusLines: []string{" M internal/service.go", "?? scratch.txt"},
			},
			expectedFlags: []string{"status", "--porcelain"},
		},
		{
			name:            "ignore_untracked_flag_forwarded",
			ignoreUntracked: true,
			execution:       scriptedExecution{result: execshell.ExecutionResult{}},
			expectedStatus:  gitrepo.WorktreeStatus{Clean: true, StatusLines: []string{}},
			expectedFlags:   []string{"status", "--porcelain", "--untracked-files=no"},
		},
		{
			name: "non_zero_exit_reports_not_clean",
			execution: scriptedExecution{err: execshell.CommandFailedError{
				Result: execshell.ExecutionResult{ExitCode: 128, StandardOutput: "fatal: not a git repository\n"},
			}},
			expectedStatus: gitrepo.WorktreeStatus{
				Clean:       false,
				ExitCode:    128,
				StatusLines: []string{"fatal: not a git repository"},
			},
			expectedFlags: []string{"status", "--porcelain"},
		},
		{
			name:        "runner_error_propagates",
			execution:   scriptedExecution{err: execshell.CommandExecutionError{Cause: errors.New("binary missing")}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{gitExecutions: []scriptedExecution{testCase.execution}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			worktreeStatus, statusError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant, testCase.ignoreUntracked)
			if testCase.expectError {
				require.Error(testInstance, statusError)
				return
			}
			require.NoError(testInstance, statusError)
			require.Equal(testInstance, testCase.expectedStatus, worktreeStatus)
			require.Len(testInstance, executor.recordedGit, 1)
			require.Equal(testInstance, testCase.expectedFlags, executor.recordedGit[0].Arguments)
			require.Equal(testInstance, testRepositoryPathConstant, executor.recordedGit[0].WorkingDirectory)
			require.Equal(testInstance, "0", executor.recordedGit[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
		})
	}
}

func TestResolveBranchStatus(testInstance *testing.T) {
	testCases := []struct {
		name           string
		execution      scriptedExecution
		expectedHeader gitrepo.BranchStatusHeader
		expectedError  error
		expectParseErr bool
	}{
		{
			name: "header_parsed",
			execution: scriptedExecution{result: execshell.ExecutionResult{
				StandardOutput: "## main...origin/main [ahead 1]\n M cmd/cli/application.go\n",
			}},
			expectedHeader: gitrepo.BranchStatusHeader{LocalBranch: "main", RemoteName: "origin", RemoteBranch: "main"},
		},
		{
			name:          "empty_output",
			execution:     scriptedExecution{result: execshell.ExecutionResult{}},
			expectedError: gitrepo.ErrBranchHeaderMissing,
		},
		{
			name: "unparsable_header",
			execution: scriptedExecution{result: execshell.ExecutionResult{
				StandardOutput: "## main\n",
			}},
			expectParseErr: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{gitExecutions: []scriptedExecution{testCase.execution}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			branchHeader, resolveError := manager.ResolveBranchStatus(context.Background(), testRepositoryPathConstant)
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(testInstance, resolveError, testCase.expectedError)
			case testCase.expectParseErr:
				parseFailure := gitrepo.BranchHeaderParseError{}
				require.ErrorAs(testInstance, resolveError, &parseFailure)
			default:
				require.NoError(testInstance, resolveError)
				require.Equal(testInstance, testCase.expectedHeader, branchHeader)
			}

			require.Len(testInstance, executor.recordedGit, 1)
			require.Equal(testInstance, []string{"status", "--porcelain", "--branch"}, executor.recordedGit[0].Arguments)
		})
	}
}

func TestFetchRemote(testInstance *testing.T) {
	testCases := []struct {
		name             string
		execution        scriptedExecution
		expectedFragment string
	}{
		{
			name:      "silent_fetch_succeeds",
			execution: scriptedExecution{result: execshell.ExecutionResult{}},
		},
		{
			name: "non_zero_exit_fails",
			execution: scriptedExecution{err: execshell.CommandFailedError{
				Result: execshell.ExecutionResult{ExitCode: 1, StandardError: "could not resolve host"},
			}},
			expectedFragment: "failed to fetch from remote",
		},
		{
			name: "unexpected_output_fails",
			execution: scriptedExecution{result: execshell.ExecutionResult{
				StandardOutput: "something unexpected\n",
			}},
			expectedFragment: "unexpected output",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{gitExecutions: []scriptedExecution{testCase.execution}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			fetchError := manager.FetchRemote(context.Background(), testRepositoryPathConstant, testRemoteNameConstant)
			if len(testCase.expectedFragment) > 0 {
				require.ErrorContains(testInstance, fetchError, testCase.expectedFragment)
			} else {
				require.NoError(testInstance, fetchError)
			}

			require.Len(testInstance, executor.recordedGit, 1)
			require.Equal(testInstance, []string{"fetch", testRemoteNameConstant}, executor.recordedGit[0].Arguments)
		})
	}
}

func TestFetchRemoteAsUserBuildsElevatedCommand(testInstance *testing.T) {
	executor := &scriptedGitExecutor{gitExecutablePath: testGitExecutablePathConstant}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	fetchError := manager.FetchRemoteAsUser(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testOwnerUserNameConstant)
	require.NoError(testInstance, fetchError)
	require.Empty(testInstance, executor.recordedGit)
	require.Len(testInstance, executor.recordedSudo, 1)
	require.Equal(
		testInstance,
		[]string{"-n", "-u", testOwnerUserNameConstant, testGitExecutablePathConstant, "fetch", testRemoteNameConstant},
		executor.recordedSudo[0].Arguments,
	)
	require.Equal(testInstance, testRepositoryPathConstant, executor.recordedSudo[0].WorkingDirectory)
}

func TestFetchRemoteAsUserSurfacesFailures(testInstance *testing.T) {
	executor := &scriptedGitExecutor{sudoExecution: scriptedExecution{err: execshell.CommandFailedError{
		Result: execshell.ExecutionResult{ExitCode: 1, StandardError: "sudo: a password is required"},
	}}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	fetchError := manager.FetchRemoteAsUser(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testOwnerUserNameConstant)
	require.ErrorContains(testInstance, fetchError, testOwnerUserNameConstant)
	require.ErrorContains(testInstance, fetchError, "a password is required")
}

func TestListDivergingCommits(testInstance *testing.T) {
	testCases := []struct {
		name          string
		revisionRange string
		execution     scriptedExecution
		expectedLines []string
		expectError   bool
	}{
		{
			name:          "empty_range",
			revisionRange: "origin/main..",
			execution:     scriptedExecution{result: execshell.ExecutionResult{}},
			expectedLines: []string{},
		},
		{
			name:          "diverging_commits_listed",
			revisionRange: "..origin/main",
			execution: scriptedExecution{result: execshell.ExecutionResult{
				StandardOutput: "abc1234 fix parser\ndef5678 update docs\n",
			}},
			expectedLines: []string{"abc1234 fix parser", "def5678 update docs"},
		},
		{
			name:          "unknown_revision_fails",
			revisionRange: "origin/missing..",
			execution: scriptedExecution{err: execshell.CommandFailedError{
				Result: execshell.ExecutionResult{ExitCode: 128, StandardError: "unknown revision"},
			}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{gitExecutions: []scriptedExecution{testCase.execution}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			commitLines, listError := manager.ListDivergingCommits(context.Background(), testRepositoryPathConstant, testCase.revisionRange)
			if testCase.expectError {
				require.Error(testInstance, listError)
				return
			}
			require.NoError(testInstance, listError)
			require.Equal(testInstance, testCase.expectedLines, commitLines)
			require.Len(testInstance, executor.recordedGit, 1)
			require.Equal(testInstance, []string{"log", "--oneline", testCase.revisionRange}, executor.recordedGit[0].Arguments)
		})
	}
}
