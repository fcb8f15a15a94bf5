//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
	"github.com/fivetwenty-io/linode-client/pkg/lnclient"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	Token       string
	BinaryPath  string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint: os.Getenv("LINODE_API"),
		Token:       os.Getenv("LINODE_TOKEN"),
		BinaryPath:  getBinaryPath(),
		Verbose:     os.Getenv("LINODE_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the linode binary
func getBinaryPath() string {
	if path := os.Getenv("LINODE_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../linode", "./linode", "../linode"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "linode"
}

// SkipIfNoBinary skips the test when the CLI has not been built.
func (config *TestConfig) SkipIfNoBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("linode binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// SkipIfNoToken skips tests that need an account.
func (config *TestConfig) SkipIfNoToken(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("LINODE_TOKEN not set, skipping integration test")
	}
}

// Client builds a library client for the configured account.
func (config *TestConfig) Client(t *testing.T) *linode.Client {
	t.Helper()

	client, err := lnclient.NewWithToken(context.Background(), config.APIEndpoint, config.Token)
	require.NoError(t, err)

	return client
}

// CommandRunner provides utilities for running linode commands
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a linode command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "LINODE_TOKEN="+runner.config.Token)

	if runner.config.APIEndpoint != "" {
		cmd.Env = append(cmd.Env, "LINODE_API="+runner.config.APIEndpoint)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON runs a command with JSON output and decodes the result.
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), stdout)
}
