package check

import (
	"context"

	"github.com/temirov/repocheck/internal/gitrepo"
)

// StepName identifies a stage of the status check workflow.
type StepName string

// Workflow stages in execution order.
const (
	StepStatusCheck          StepName = "status_check"
	StepBranchIdentification StepName = "branch_identification"
	StepFetch                StepName = "fetch"
	StepAheadCheck           StepName = "ahead_check"
	StepBehindCheck          StepName = "behind_check"
)

// IssueKind classifies a detected problem.
type IssueKind string

// Issue classifications.
const (
	IssueKindDirtyWorktree    IssueKind = "dirty_worktree"
	IssueKindCommandFailure   IssueKind = "command_failure"
	IssueKindUnexpectedOutput IssueKind = "unexpected_output"
	IssueKindParseFailure     IssueKind = "parse_failure"
	IssueKindDivergenceAhead  IssueKind = "divergence_ahead"
	IssueKindDivergenceBehind IssueKind = "divergence_behind"
)

// Issue captures a single detected problem together with its diagnostic context.
type Issue struct {
	Step        StepName
	Kind        IssueKind
	Message     string
	ExitCode    int
	OutputLines []string
}

// Report aggregates the observable outcomes of a single status check run.
type Report struct {
	RepositoryPath  string
	RepositoryOwner string
	BranchStatus    gitrepo.BranchStatusHeader
	CompletedSteps  []StepName
	Issues          []Issue
	AheadCommits    []string
	BehindCommits   []string
	FetchPerformed  bool
}

// HasIssues reports whether the run detected any problem.
func (report Report) HasIssues() bool {
	return len(report.Issues) > 0
}

// CompletedStep reports whether the named workflow stage finished successfully.
func (report Report) CompletedStep(step StepName) bool {
	for _, completedStep := range report.CompletedSteps {
		if completedStep == step {
			return true
		}
	}
	return false
}

// RepositoryManager exposes the repository-level git operations used by the checker.
type RepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string, ignoreUntracked bool) (gitrepo.WorktreeStatus, error)
	ResolveBranchStatus(executionContext context.Context, repositoryPath string) (gitrepo.BranchStatusHeader, error)
	FetchRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	FetchRemoteAsUser(executionContext context.Context, repositoryPath string, remoteName string, userName string) error
	ListDivergingCommits(executionContext context.Context, repositoryPath string, revisionRange string) ([]string, error)
}

// OwnerResolver determines the user owning a repository directory.
type OwnerResolver interface {
	ResolveDirectoryOwner(executionContext context.Context, directoryPath string) (string, error)
}
