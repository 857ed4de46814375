package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bnema/hfmctl/internal/adapters/remote/httpbridge/bridgetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	bridge := bridgetest.NewHFM(t, bridgetest.HFMOptions{})

	stdout, stderr, code := runHFMCTL(t, binaryPath, home,
		"consolidate",
		"--server-url", bridge.URL,
		"-u", "admin", "-p", "secret", "-c", "HFMCluster",
		"-a", "APP1", "--pov", "S#Actual.Y#2025.P#Jan.E#E1",
	)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Equal(t, "OK", env["status"])
	assert.Equal(t, []any{float64(42)}, env["task_ids"])
}

func TestSmokeExitCodes(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	bridge := bridgetest.NewHFM(t, bridgetest.HFMOptions{RejectLogin: true})

	_, _, code := runHFMCTL(t, binaryPath, home, "pov", "validate", "S#Actual")
	assert.Equal(t, 1, code)

	_, _, code = runHFMCTL(t, binaryPath, home,
		"consolidate",
		"--server-url", bridge.URL,
		"-u", "admin", "-p", "wrong", "-c", "HFMCluster",
		"-a", "APP1", "--pov", "S#Actual.Y#2025.P#Jan.E#E1",
	)
	assert.Equal(t, 2, code)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "hfmctl-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/hfmctl")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build hfmctl binary: %s", string(output))
	return binaryPath
}

func runHFMCTL(t *testing.T, binaryPath, home string, args ...string) (string, string, int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+filepath.Join(home, ".config"))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return stdout.String(), stderr.String(), 0
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
