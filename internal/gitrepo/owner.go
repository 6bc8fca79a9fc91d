package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/repocheck/internal/execshell"
)

const (
	directoryListLongFormatFlagConstant   = "-ld"
	ownerFieldIndexConstant               = 2
	ownerListingFailureTemplateConstant   = "failed to list directory %q: %w"
	ownerListingEmptyMessageConstant      = "directory listing produced no output"
	ownerFieldMissingTemplateConstant     = "directory listing line %q holds no owner field"
	ownerResolverExecutorMissingConstant  = "directory listing executor not configured"
	ownerResolutionFailureTemplateConstat = "failed to resolve owner of %q: %w"
)

// ErrOwnerListingEmpty indicates the directory listing returned no lines.
var ErrOwnerListingEmpty = errors.New(ownerListingEmptyMessageConstant)

// ErrOwnerResolverExecutorNotConfigured indicates the resolver was created without an executor.
var ErrOwnerResolverExecutorNotConfigured = errors.New(ownerResolverExecutorMissingConstant)

// DirectoryOwnerResolver determines the owning user of a directory by parsing
// the long-format listing of the directory entry.
type DirectoryOwnerResolver struct {
	executor GitExecutor
}

// NewDirectoryOwnerResolver constructs a resolver from the provided executor.
func NewDirectoryOwnerResolver(executor GitExecutor) (*DirectoryOwnerResolver, error) {
	if executor == nil {
		return nil, ErrOwnerResolverExecutorNotConfigured
	}
	return &DirectoryOwnerResolver{executor: executor}, nil
}

// ResolveDirectoryOwner returns the user name owning the directory. The owner
// is the third whitespace-separated token of the first listing line.
func (resolver *DirectoryOwnerResolver) ResolveDirectoryOwner(executionContext context.Context, directoryPath string) (string, error) {
	executionResult, executionError := resolver.executor.ExecuteDirectoryListing(executionContext, execshell.CommandDetails{
		Arguments: []string{directoryListLongFormatFlagConstant, directoryPath},
	})
	if executionError != nil {
		return "", fmt.Errorf(ownerListingFailureTemplateConstant, directoryPath, executionError)
	}

	outputLines := executionResult.OutputLines()
	if len(outputLines) == 0 {
		return "", fmt.Errorf(ownerResolutionFailureTemplateConstat, directoryPath, ErrOwnerListingEmpty)
	}

	listingFields := strings.Fields(outputLines[0])
	if len(listingFields) <= ownerFieldIndexConstant {
		return "", fmt.Errorf(ownerResolutionFailureTemplateConstat, directoryPath, fmt.Errorf(ownerFieldMissingTemplateConstant, outputLines[0]))
	}

	return listingFields[ownerFieldIndexConstant], nil
}
