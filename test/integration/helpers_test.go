//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/jubilantx-labs/jubilantx/internal/config"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // JUBILANTX_HOME, contains config.yaml and extensions/
	ProjectDir string // working directory of the run
	JujuLog    string // every fake juju invocation, one per line
	HookLog    string // output of manifest hook commands
}

// setupTestEnv creates isolated temp directories, installs a fake juju
// binary and points the configuration at them. The working directory and
// env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	logDir := t.TempDir()
	env.JujuLog = filepath.Join(logDir, "juju.log")
	env.HookLog = filepath.Join(logDir, "hooks.log")

	binDir := t.TempDir()
	jujuBin := filepath.Join(binDir, "juju")
	writeFile(t, jujuBin, "#!/bin/sh\necho \"$*\" >> \"$FAKE_JUJU_LOG\"\n")
	if err := os.Chmod(jujuBin, 0755); err != nil {
		t.Fatalf("chmod %s: %v", jujuBin, err)
	}

	t.Setenv("JUBILANTX_HOME", env.HomeDir)
	t.Setenv("JUBILANTX_JUJU_BINARY", jujuBin)
	t.Setenv("FAKE_JUJU_LOG", env.JujuLog)
	t.Setenv("HOOK_LOG", env.HookLog)
	t.Chdir(env.ProjectDir)

	viper.Reset()
	t.Cleanup(viper.Reset)
	config.Load()

	return env
}

// writeExtension writes a manifest named after the extension into dir.
func writeExtension(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	writeFile(t, path, content)
	return path
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readLines returns the non-empty lines of path, or nil if it does not exist.
func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
