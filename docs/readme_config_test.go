package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

type readmeApplicationConfiguration struct {
	Common readmeCommonConfiguration `yaml:"common"`
	Check  readmeCheckConfiguration  `yaml:"check"`
}

type readmeCommonConfiguration struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type readmeCheckConfiguration struct {
	RepositoryPath  string `yaml:"repository_path"`
	GitExecutable   string `yaml:"git_executable"`
	Debug           bool   `yaml:"debug"`
	FailFast        bool   `yaml:"fail_fast"`
	IgnoreUntracked bool   `yaml:"ignore_untracked"`
	FetchRemote     bool   `yaml:"fetch_remote"`
	UseElevation    bool   `yaml:"use_elevation"`
}

func TestReadmeConfigurationSnippetParses(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	parsedConfiguration := readmeApplicationConfiguration{}
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &parsedConfiguration))

	require.Equal(testInstance, "info", parsedConfiguration.Common.LogLevel)
	require.Equal(testInstance, "structured", parsedConfiguration.Common.LogFormat)
	require.Equal(testInstance, "/srv/repositories/project", parsedConfiguration.Check.RepositoryPath)
	require.Equal(testInstance, "git", parsedConfiguration.Check.GitExecutable)
	require.True(testInstance, parsedConfiguration.Check.FailFast)
	require.True(testInstance, parsedConfiguration.Check.FetchRemote)
	require.False(testInstance, parsedConfiguration.Check.Debug)
	require.False(testInstance, parsedConfiguration.Check.IgnoreUntracked)
	require.False(testInstance, parsedConfiguration.Check.UseElevation)
}
