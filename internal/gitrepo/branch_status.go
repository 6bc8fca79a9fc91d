package gitrepo

import (
	"fmt"
	"strings"
)

const (
	branchHeaderPrefixConstant             = "## "
	branchUpstreamSeparatorConstant        = "..."
	branchRemoteSeparatorConstant          = "/"
	branchAnnotationPrefixConstant         = " ["
	branchHeaderParseErrorTemplateConstant = "%s: %q"
	missingHeaderPrefixMessageConstant     = "branch header line does not start with \"## \""
	missingUpstreamMessageConstant         = "branch has no upstream configured"
	missingBranchNameMessageConstant       = "branch header names no local branch"
	malformedUpstreamMessageConstant       = "upstream reference is not of the form remote/branch"
)

// BranchStatusHeader captures the values parsed from a porcelain branch header.
type BranchStatusHeader struct {
	LocalBranch  string
	RemoteName   string
	RemoteBranch string
}

// BranchHeaderParseError indicates a branch header line could not be parsed.
type BranchHeaderParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure including the offending input.
func (parseError BranchHeaderParseError) Error() string {
	return fmt.Sprintf(branchHeaderParseErrorTemplateConstant, parseError.Message, parseError.Input)
}

// ParseBranchStatusHeader parses the first line produced by
// `git status --porcelain --branch`. The accepted grammar is
//
//	"## " <branch> "..." <remote> "/" <remoteBranch> [ " [" <annotation> "]" ]
//
// Trailing ahead/behind annotations are ignored. Lines without an upstream
// reference, including detached HEAD headers, yield a BranchHeaderParseError.
func ParseBranchStatusHeader(headerLine string) (BranchStatusHeader, error) {
	if !strings.HasPrefix(headerLine, branchHeaderPrefixConstant) {
		return BranchStatusHeader{}, BranchHeaderParseError{Input: headerLine, Message: missingHeaderPrefixMessageConstant}
	}

	headerBody := strings.TrimPrefix(headerLine, branchHeaderPrefixConstant)

	separatorIndex := strings.Index(headerBody, branchUpstreamSeparatorConstant)
	if separatorIndex < 0 {
		return BranchStatusHeader{}, BranchHeaderParseError{Input: headerLine, Message: missingUpstreamMessageConstant}
	}

	localBranch := headerBody[:separatorIndex]
	if len(strings.TrimSpace(localBranch)) == 0 {
		return BranchStatusHeader{}, BranchHeaderParseError{Input: headerLine, Message: missingBranchNameMessageConstant}
	}

	upstreamReference := headerBody[separatorIndex+len(branchUpstreamSeparatorConstant):]
	if annotationIndex := strings.Index(upstreamReference, branchAnnotationPrefixConstant); annotationIndex >= 0 {
		upstreamReference = upstreamReference[:annotationIndex]
	}
	upstreamReference = strings.TrimSpace(upstreamReference)

	remoteSeparatorIndex := strings.Index(upstreamReference, branchRemoteSeparatorConstant)
	if remoteSeparatorIndex <= 0 || remoteSeparatorIndex == len(upstreamReference)-1 {
		return BranchStatusHeader{}, BranchHeaderParseError{Input: headerLine, Message: malformedUpstreamMessageConstant}
	}

	return BranchStatusHeader{
		LocalBranch:  localBranch,
		RemoteName:   upstreamReference[:remoteSeparatorIndex],
		RemoteBranch: upstreamReference[remoteSeparatorIndex+1:],
	}, nil
}
