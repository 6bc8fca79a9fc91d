package check

import (
	"go.uber.org/zap"

	"github.com/temirov/repocheck/internal/execshell"
	"github.com/temirov/repocheck/internal/gitrepo"
	"github.com/temirov/repocheck/internal/ui"
)

// ExecutorSettings configures the shell executor constructed for a command run.
type ExecutorSettings struct {
	GitExecutablePath    string
	HumanReadableLogging bool
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, settings ExecutorSettings) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	executorConfiguration := execshell.ExecutorConfiguration{GitExecutablePath: settings.GitExecutablePath}
	if settings.HumanReadableLogging {
		executorConfiguration.EventObserver = ui.NewConsoleCommandEventLogger(logger)
	}

	return execshell.NewConfiguredShellExecutor(logger, execshell.NewOSCommandRunner(), executorConfiguration)
}

// ResolveRepositoryManager returns the provided manager or constructs one from the executor.
func ResolveRepositoryManager(existing RepositoryManager, executor gitrepo.GitExecutor) (RepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveOwnerResolver returns the provided resolver or constructs one from the executor.
func ResolveOwnerResolver(existing OwnerResolver, executor gitrepo.GitExecutor) (OwnerResolver, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewDirectoryOwnerResolver(executor)
}
