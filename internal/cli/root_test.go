package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvs-project/fcp/pkg/config"
	"github.com/jvs-project/fcp/pkg/logging"
	"github.com/jvs-project/fcp/pkg/model"
)

type cmdResult struct {
	stdout string
	stderr string
	code   int
}

// executeCommand runs fcp with a private config file and empty stdin.
func executeCommand(t *testing.T, args ...string) cmdResult {
	t.Helper()
	t.Cleanup(func() { logging.SetGlobal(logging.Discard()) })

	var stdout, stderr bytes.Buffer
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	args = append([]string{"--config", cfgPath}, args...)
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRootCommand_Help(t *testing.T) {
	res := executeCommand(t, "--help")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "controllable file copy")
	assert.Contains(t, res.stdout, "copy")
	assert.Contains(t, res.stdout, "config")
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	res := executeCommand(t, "snapshot")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestRootCommand_BadLogLevel(t *testing.T) {
	res := executeCommand(t, "--log-level", "loud", "config", "show")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "loud")
}

func TestRootCommand_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "chunk_size: -5\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", path, "config", "show"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "E_CONFIG_INVALID")
}

func TestConfigCommand_ShowDefaults(t *testing.T) {
	res := executeCommand(t, "config", "show")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "# fcp configuration")
	assert.Contains(t, res.stdout, "chunk_size: 1048576")
	assert.Contains(t, res.stdout, "on_conflict: ask")
}

func TestConfigCommand_ShowJSON(t *testing.T) {
	res := executeCommand(t, "--json", "config", "show")
	require.Equal(t, 0, res.code, res.stderr)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
	assert.EqualValues(t, 1<<20, cfg["chunk_size"])
}

func TestConfigCommand_InitSetGet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "fcp", "config.yaml")
	exec := func(args ...string) cmdResult {
		var stdout, stderr bytes.Buffer
		code := run(append([]string{"--config", cfgPath}, args...), strings.NewReader(""), &stdout, &stderr)
		return cmdResult{stdout.String(), stderr.String(), code}
	}
	t.Cleanup(func() { logging.SetGlobal(logging.Discard()) })

	res := exec("config", "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, cfgPath)

	res = exec("config", "init")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = exec("config", "init", "--force")
	require.Equal(t, 0, res.code, res.stderr)

	res = exec("config", "set", "on_conflict", "abandon")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Set on_conflict = abandon")

	res = exec("config", "get", "on_conflict")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "abandon\n", res.stdout)

	res = exec("config", "get", "tui")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "(not set)\n", res.stdout)

	res = exec("config", "set", "on_conflict", "merge")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "E_CONFIG_INVALID")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.ConflictAbandon, cfg.OnConflict)
}

func TestCompletionCommand(t *testing.T) {
	res := executeCommand(t, "completion", "bash")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "fcp")

	res = executeCommand(t, "completion", "tcsh")
	assert.Equal(t, 1, res.code)
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 130", (&exitError{code: 130}).Error())

	inner := assert.AnError
	e := &exitError{code: 1, err: inner}
	assert.Equal(t, inner.Error(), e.Error())
	assert.ErrorIs(t, e, inner)
}

func TestExitFor(t *testing.T) {
	assert.NoError(t, exitFor(model.Result{Status: model.StatusCompleted}))
	assert.NoError(t, exitFor(model.Result{Status: model.StatusAbandoned}))

	var exit *exitError
	require.ErrorAs(t, exitFor(model.Result{Status: model.StatusCanceled}), &exit)
	assert.Equal(t, exitCanceled, exit.code)

	require.ErrorAs(t, exitFor(model.Result{Status: model.StatusFailed, Err: assert.AnError}), &exit)
	assert.Equal(t, exitFailed, exit.code)
	assert.Equal(t, assert.AnError, exit.err)
}

func TestFmtErr_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	fmtErr(&buf, "bad %s", "thing")
	assert.Equal(t, "fcp: bad thing\n", buf.String())
}
