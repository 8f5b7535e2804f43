package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile is a small fixture helper for dotenv files.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestRead_SingleFile verifies plain KEY=VALUE loading, including the
// comment-skipping behavior the launcher inherits from the shell original.
func TestRead_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", `
# Telegram credentials
BOT_TOKEN=abc123
DUMP_CHANNEL_ID=-1001234567890

# comment between entries
LOG_LEVEL=info
`)

	vars, statuses, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", vars["BOT_TOKEN"])
	assert.Equal(t, "-1001234567890", vars["DUMP_CHANNEL_ID"])
	assert.Equal(t, "info", vars["LOG_LEVEL"])
	assert.Len(t, vars, 3, "comment lines must not become variables")

	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Present)
	assert.Equal(t, []string{"BOT_TOKEN", "DUMP_CHANNEL_ID", "LOG_LEVEL"}, statuses[0].Keys)
}

// TestRead_MissingFile verifies that a missing env file is a recorded
// warning, not an error.
func TestRead_MissingFile(t *testing.T) {
	dir := t.TempDir()

	vars, statuses, err := Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Empty(t, vars)

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Present)
}

// TestRead_LaterFileOverrides verifies merge order across multiple files.
func TestRead_LaterFileOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, ".env", "BOT_TOKEN=base\nLOG_LEVEL=info\n")
	local := writeFile(t, dir, ".env.local", "BOT_TOKEN=local\n")

	vars, statuses, err := Read(base, local)
	require.NoError(t, err)

	assert.Equal(t, "local", vars["BOT_TOKEN"])
	assert.Equal(t, "info", vars["LOG_LEVEL"])
	assert.Len(t, statuses, 2)
}

// TestApply verifies export semantics: loaded values override inherited
// ones, and new keys are appended deterministically.
func TestApply(t *testing.T) {
	environ := []string{
		"HOME=/home/bot",
		"BOT_TOKEN=stale",
	}
	vars := map[string]string{
		"BOT_TOKEN":       "abc123",
		"DUMP_CHANNEL_ID": "-100",
		"ALERT_CHAT":      "42",
	}

	got := Apply(environ, vars)

	assert.Equal(t, []string{
		"HOME=/home/bot",
		"BOT_TOKEN=abc123",
		"ALERT_CHAT=42",
		"DUMP_CHANNEL_ID=-100",
	}, got)

	// Input untouched.
	assert.Equal(t, "BOT_TOKEN=stale", environ[1])
}

// TestApply_NoVars verifies that an empty var set copies the environ.
func TestApply_NoVars(t *testing.T) {
	environ := []string{"HOME=/home/bot"}
	got := Apply(environ, nil)
	assert.Equal(t, environ, got)
}

// TestMissingRequired verifies required-key reporting, including the
// empty-value-counts-as-missing rule.
func TestMissingRequired(t *testing.T) {
	environ := []string{
		"BOT_TOKEN=abc123",
		"DUMP_CHANNEL_ID=",
		"HOME=/home/bot",
	}

	missing := MissingRequired(environ, []string{"BOT_TOKEN", "DUMP_CHANNEL_ID", "API_HASH"})
	assert.Equal(t, []string{"DUMP_CHANNEL_ID", "API_HASH"}, missing)

	assert.Empty(t, MissingRequired(environ, nil))
}
