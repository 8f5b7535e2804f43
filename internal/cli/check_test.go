// Package cli — check_test.go exercises the check command's finding
// collection against fixture projects built in temp directories.
package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wannabeded/leech-bot/internal/model"
	"github.com/Wannabeded/leech-bot/internal/project"
)

// makeProject builds a launchable fixture project: a venv with an
// interpreter and pyvenv.cfg, a .env file, and a main.py entry point.
func makeProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	binName := "bin"
	pyName := "python"
	if runtime.GOOS == "windows" {
		binName = "Scripts"
		pyName = "python.exe"
	}
	binDir := filepath.Join(dir, ".venv", binName)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, pyName), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".venv", "pyvenv.cfg"),
		[]byte("home = /usr/bin\nversion = 3.11.9\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("# credentials\nBOT_TOKEN=abc123\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"),
		[]byte("print('bot')\n"), 0o644))

	return dir
}

// findingsFor resolves dir with defaults and collects findings.
func findingsFor(t *testing.T, dir string, opts project.Options) []model.Finding {
	t.Helper()
	res, err := project.Resolve(dir, opts)
	require.NoError(t, err)
	return collectFindings(res)
}

// subjectsBySeverity extracts the subjects of findings with the given severity.
func subjectsBySeverity(findings []model.Finding, sev model.Severity) []string {
	var subjects []string
	for _, f := range findings {
		if f.Severity == sev {
			subjects = append(subjects, f.Subject)
		}
	}
	return subjects
}

// TestCollectFindings_Launchable verifies a healthy project produces no
// fatal findings.
func TestCollectFindings_Launchable(t *testing.T) {
	dir := makeProject(t)

	findings := findingsFor(t, dir, project.Options{})
	assert.False(t, model.HasFatal(findings), "findings: %+v", findings)
	assert.Contains(t, subjectsBySeverity(findings, model.SeverityInfo), "venv")
	assert.Contains(t, subjectsBySeverity(findings, model.SeverityInfo), "entrypoint")
}

// TestCollectFindings_MissingVenv verifies the venv existence check is
// fatal with the exit-1 contract and that later checks still run.
func TestCollectFindings_MissingVenv(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, ".venv")))

	findings := findingsFor(t, dir, project.Options{})
	require.True(t, model.HasFatal(findings))

	fatal := model.FirstFatal(findings)
	assert.Equal(t, "venv", fatal.Subject)
	assert.Equal(t, model.ExitVenvNotFound, fatal.Code)

	// The entry point check still reported, despite the fatal venv.
	assert.Contains(t, subjectsBySeverity(findings, model.SeverityInfo), "entrypoint")
}

// TestCollectFindings_MissingEnvFile verifies a missing .env is only a
// warning.
func TestCollectFindings_MissingEnvFile(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, ".env")))

	findings := findingsFor(t, dir, project.Options{})
	assert.False(t, model.HasFatal(findings))
	assert.Contains(t, subjectsBySeverity(findings, model.SeverityWarning), "env-file")
}

// TestCollectFindings_MissingEntrypoint verifies the entry point check.
func TestCollectFindings_MissingEntrypoint(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "main.py")))

	findings := findingsFor(t, dir, project.Options{})
	fatal := model.FirstFatal(findings)
	require.NotNil(t, fatal)
	assert.Equal(t, "entrypoint", fatal.Subject)
	assert.Equal(t, model.ExitEntrypointNotFound, fatal.Code)
}

// TestCollectFindings_MissingRequiredEnv verifies that required keys from
// the manifest are fatal in check (unlike run, where they only warn).
func TestCollectFindings_MissingRequiredEnv(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "botrun.jsonc"),
		[]byte(`{"requiredEnv": ["BOT_TOKEN", "DUMP_CHANNEL_ID"]}`), 0o644))

	// BOT_TOKEN comes from .env; DUMP_CHANNEL_ID is nowhere.
	findings := findingsFor(t, dir, project.Options{})
	fatal := model.FirstFatal(findings)
	require.NotNil(t, fatal)
	assert.Equal(t, "required-env", fatal.Subject)
	assert.Contains(t, fatal.Message, "DUMP_CHANNEL_ID")
}

// TestCollectFindings_ManifestWarnings verifies advisory manifest
// validation surfaces as warnings.
func TestCollectFindings_ManifestWarnings(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "botrun.jsonc"),
		[]byte(`{"envFiles": [".env", ".env"]}`), 0o644))

	findings := findingsFor(t, dir, project.Options{})
	assert.Contains(t, subjectsBySeverity(findings, model.SeverityWarning), "manifest")
	assert.False(t, model.HasFatal(findings))
}
