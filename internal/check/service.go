package check

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repocheck/internal/execshell"
	"github.com/temirov/repocheck/internal/gitrepo"
)

const (
	repositoryPathRequiredMessageConstant   = "repository path must be provided"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	ownerResolverMissingMessageConstant     = "owner resolver not configured"

	upstreamReferenceTemplateConstant = "%s/%s"
	aheadRangeTemplateConstant        = "%s.."
	behindRangeTemplateConstant       = "..%s"

	dirtyWorktreeMessageConstant         = "repository worktree is not clean; local-only untracked files can be excluded with ignore_untracked"
	divergenceAheadMessageTemplateConst  = "local branch %s has commits missing from %s"
	divergenceBehindMessageTemplateConst = "local branch %s is missing commits present on %s"

	runStartedLogMessageConstant       = "repository status check starting"
	runCompletedLogMessageConstant     = "repository status check completed"
	branchIdentifiedLogMessageConstant = "tracked branch identified"
	ownerResolvedLogMessageConstant    = "repository owner resolved"
	issueDetectedLogMessageConstant    = "issue detected"
	logFieldRepositoryPathConstant     = "repository_path"
	logFieldFetchEnabledConstant       = "fetch_enabled"
	logFieldFailFastConstant           = "fail_fast"
	logFieldStepConstant               = "step"
	logFieldIssueKindConstant          = "issue_kind"
	logFieldMessageConstant            = "message"
	logFieldExitCodeConstant           = "exit_code"
	logFieldOutputLinesConstant        = "output_lines"
	logFieldIssueCountConstant         = "issue_count"
	logFieldBranchConstant             = "branch"
	logFieldUpstreamConstant           = "upstream"
	logFieldOwnerConstant              = "owner"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrOwnerResolverNotConfigured indicates the owner resolver dependency was missing.
var ErrOwnerResolverNotConfigured = errors.New(ownerResolverMissingMessageConstant)

// Dependencies enumerates the collaborators required by the checker.
type Dependencies struct {
	RepositoryManager RepositoryManager
	OwnerResolver     OwnerResolver
	Logger            *zap.Logger
}

// Options configures a single status check run.
type Options struct {
	RepositoryPath  string
	FailFast        bool
	IgnoreUntracked bool
	FetchEnabled    bool
	UseElevation    bool
}

// Service coordinates the status check workflow.
type Service struct {
	repositoryManager RepositoryManager
	ownerResolver     OwnerResolver
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.OwnerResolver == nil {
		return nil, ErrOwnerResolverNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repositoryManager: dependencies.RepositoryManager,
		ownerResolver:     dependencies.OwnerResolver,
		logger:            logger,
	}, nil
}

// Run executes the status check workflow. Detected problems are recorded as
// issues on the returned Report rather than surfaced as errors; the error
// return covers invalid options only.
func (service *Service) Run(executionContext context.Context, options Options) (Report, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Report{}, ErrRepositoryPathRequired
	}

	report := Report{RepositoryPath: trimmedRepositoryPath}

	service.logger.Info(
		runStartedLogMessageConstant,
		zap.String(logFieldRepositoryPathConstant, trimmedRepositoryPath),
		zap.Bool(logFieldFetchEnabledConstant, options.FetchEnabled),
		zap.Bool(logFieldFailFastConstant, options.FailFast),
	)

	worktreeStatus, statusError := service.repositoryManager.CheckCleanWorktree(executionContext, trimmedRepositoryPath, options.IgnoreUntracked)
	if statusError != nil {
		service.recordIssue(&report, issueFromFailure(StepStatusCheck, statusError))
		return service.finishRun(report), nil
	}

	report.CompletedSteps = append(report.CompletedSteps, StepStatusCheck)

	if !worktreeStatus.Clean {
		service.recordIssue(&report, Issue{
			Step:        StepStatusCheck,
			Kind:        IssueKindDirtyWorktree,
			Message:     dirtyWorktreeMessageConstant,
			ExitCode:    worktreeStatus.ExitCode,
			OutputLines: worktreeStatus.StatusLines,
		})
		if options.FailFast {
			return service.finishRun(report), nil
		}
	}

	if !options.FetchEnabled {
		return service.finishRun(report), nil
	}

	branchStatus, branchError := service.repositoryManager.ResolveBranchStatus(executionContext, trimmedRepositoryPath)
	if branchError != nil {
		service.recordIssue(&report, issueFromFailure(StepBranchIdentification, branchError))
		return service.finishRun(report), nil
	}

	report.BranchStatus = branchStatus
	report.CompletedSteps = append(report.CompletedSteps, StepBranchIdentification)
	service.logger.Info(
		branchIdentifiedLogMessageConstant,
		zap.String(logFieldBranchConstant, branchStatus.LocalBranch),
		zap.String(logFieldUpstreamConstant, fmt.Sprintf(upstreamReferenceTemplateConstant, branchStatus.RemoteName, branchStatus.RemoteBranch)),
	)

	if fetchIssue := service.fetchRemote(executionContext, trimmedRepositoryPath, branchStatus.RemoteName, options, &report); fetchIssue != nil {
		service.recordIssue(&report, *fetchIssue)
		return service.finishRun(report), nil
	}

	report.FetchPerformed = true
	report.CompletedSteps = append(report.CompletedSteps, StepFetch)

	upstreamReference := fmt.Sprintf(upstreamReferenceTemplateConstant, branchStatus.RemoteName, branchStatus.RemoteBranch)

	aheadStopped := service.checkDivergence(
		executionContext,
		&report,
		options,
		StepAheadCheck,
		IssueKindDivergenceAhead,
		fmt.Sprintf(aheadRangeTemplateConstant, upstreamReference),
		fmt.Sprintf(divergenceAheadMessageTemplateConst, branchStatus.LocalBranch, upstreamReference),
	)
	if aheadStopped {
		return service.finishRun(report), nil
	}

	service.checkDivergence(
		executionContext,
		&report,
		options,
		StepBehindCheck,
		IssueKindDivergenceBehind,
		fmt.Sprintf(behindRangeTemplateConstant, upstreamReference),
		fmt.Sprintf(divergenceBehindMessageTemplateConst, branchStatus.LocalBranch, upstreamReference),
	)

	return service.finishRun(report), nil
}

// fetchRemote performs the fetch step, resolving the directory owner first when
// elevation is requested. A nil return means the fetch succeeded.
func (service *Service) fetchRemote(executionContext context.Context, repositoryPath string, remoteName string, options Options, report *Report) *Issue {
	if !options.UseElevation {
		if fetchError := service.repositoryManager.FetchRemote(executionContext, repositoryPath, remoteName); fetchError != nil {
			failureIssue := issueFromFailure(StepFetch, fetchError)
			return &failureIssue
		}
		return nil
	}

	ownerName, ownerError := service.ownerResolver.ResolveDirectoryOwner(executionContext, repositoryPath)
	if ownerError != nil {
		failureIssue := issueFromFailure(StepFetch, ownerError)
		return &failureIssue
	}

	report.RepositoryOwner = ownerName
	service.logger.Debug(ownerResolvedLogMessageConstant, zap.String(logFieldOwnerConstant, ownerName))

	if fetchError := service.repositoryManager.FetchRemoteAsUser(executionContext, repositoryPath, remoteName, ownerName); fetchError != nil {
		failureIssue := issueFromFailure(StepFetch, fetchError)
		return &failureIssue
	}

	return nil
}

// checkDivergence runs a single history-range query. The returned flag reports
// whether the run must stop because the query itself failed under fail-fast.
func (service *Service) checkDivergence(executionContext context.Context, report *Report, options Options, step StepName, divergenceKind IssueKind, revisionRange string, divergenceMessage string) bool {
	commitLines, listError := service.repositoryManager.ListDivergingCommits(executionContext, report.RepositoryPath, revisionRange)
	if listError != nil {
		service.recordIssue(report, issueFromFailure(step, listError))
		return options.FailFast
	}

	report.CompletedSteps = append(report.CompletedSteps, step)

	switch step {
	case StepAheadCheck:
		report.AheadCommits = commitLines
	case StepBehindCheck:
		report.BehindCommits = commitLines
	}

	if len(commitLines) > 0 {
		service.recordIssue(report, Issue{
			Step:        step,
			Kind:        divergenceKind,
			Message:     divergenceMessage,
			OutputLines: commitLines,
		})
	}

	return false
}

func (service *Service) recordIssue(report *Report, issue Issue) {
	report.Issues = append(report.Issues, issue)
	service.logger.Warn(
		issueDetectedLogMessageConstant,
		zap.String(logFieldStepConstant, string(issue.Step)),
		zap.String(logFieldIssueKindConstant, string(issue.Kind)),
		zap.String(logFieldMessageConstant, issue.Message),
		zap.Int(logFieldExitCodeConstant, issue.ExitCode),
		zap.Strings(logFieldOutputLinesConstant, issue.OutputLines),
	)
}

func (service *Service) finishRun(report Report) Report {
	service.logger.Info(
		runCompletedLogMessageConstant,
		zap.String(logFieldRepositoryPathConstant, report.RepositoryPath),
		zap.Int(logFieldIssueCountConstant, len(report.Issues)),
	)
	return report
}

// issueFromFailure classifies a step failure into the issue taxonomy, carrying
// the exit code and full captured output when available.
func issueFromFailure(step StepName, failure error) Issue {
	commandFailure := execshell.CommandFailedError{}
	if errors.As(failure, &commandFailure) {
		outputLines := commandFailure.Result.OutputLines()
		trimmedStandardError := strings.TrimSpace(commandFailure.Result.StandardError)
		if len(trimmedStandardError) > 0 {
			outputLines = append(outputLines, strings.Split(trimmedStandardError, "\n")...)
		}
		return Issue{
			Step:        step,
			Kind:        IssueKindCommandFailure,
			Message:     failure.Error(),
			ExitCode:    commandFailure.Result.ExitCode,
			OutputLines: outputLines,
		}
	}

	parseFailure := gitrepo.BranchHeaderParseError{}
	if errors.As(failure, &parseFailure) {
		return Issue{
			Step:        step,
			Kind:        IssueKindParseFailure,
			Message:     failure.Error(),
			OutputLines: []string{parseFailure.Input},
		}
	}

	unexpectedOutput := gitrepo.UnexpectedOutputError{}
	if errors.As(failure, &unexpectedOutput) {
		return Issue{
			Step:        step,
			Kind:        IssueKindUnexpectedOutput,
			Message:     failure.Error(),
			OutputLines: unexpectedOutput.OutputLines,
		}
	}

	if errors.Is(failure, gitrepo.ErrBranchHeaderMissing) {
		return Issue{Step: step, Kind: IssueKindUnexpectedOutput, Message: failure.Error()}
	}

	return Issue{Step: step, Kind: IssueKindCommandFailure, Message: failure.Error()}
}
