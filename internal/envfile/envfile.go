package envfile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Wannabeded/leech-bot/internal/model"
)

// Read parses the given dotenv files in order and returns the merged
// variables plus a per-file status. Later files override earlier ones.
//
// A missing file is recorded with Present=false and skipped — the launcher
// warns and proceeds, matching the shell original. A file that exists but
// cannot be parsed is an error with ExitEnvFileInvalid, because silently
// launching the bot with half its configuration would be worse than failing.
func Read(paths ...string) (map[string]string, []model.EnvFileStatus, error) {
	merged := make(map[string]string)
	statuses := make([]model.EnvFileStatus, 0, len(paths))

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				statuses = append(statuses, model.EnvFileStatus{Path: path, Present: false})
				continue
			}
			return nil, statuses, model.WrapCLIError(model.ExitEnvFileInvalid,
				fmt.Sprintf("cannot access env file %s", path), err)
		}

		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, statuses, model.WrapCLIError(model.ExitEnvFileInvalid,
				fmt.Sprintf("failed to parse env file %s", path), err)
		}

		keys := make([]string, 0, len(vars))
		for k, v := range vars {
			merged[k] = v
			keys = append(keys, k)
		}
		sort.Strings(keys)

		statuses = append(statuses, model.EnvFileStatus{Path: path, Present: true, Keys: keys})
	}

	return merged, statuses, nil
}

// Apply merges vars over a KEY=VALUE environ slice with override semantics
// and returns the result. Existing keys keep their position; new keys are
// appended in sorted order for deterministic output. The input slice is
// not modified.
func Apply(environ []string, vars map[string]string) []string {
	if len(vars) == 0 {
		return append([]string(nil), environ...)
	}

	used := make(map[string]bool, len(vars))
	result := make([]string, 0, len(environ)+len(vars))

	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			result = append(result, kv)
			continue
		}
		if value, exists := vars[key]; exists {
			result = append(result, key+"="+value)
			used[key] = true
			continue
		}
		result = append(result, kv)
	}

	remaining := make([]string, 0, len(vars))
	for key := range vars {
		if !used[key] {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		result = append(result, key+"="+vars[key])
	}

	return result
}

// MissingRequired returns the names from required that have no entry in
// the environ slice, preserving the order of required. An empty value
// counts as missing: BOT_TOKEN= would not get the bot anywhere.
func MissingRequired(environ []string, required []string) []string {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			values[key] = value
		}
	}

	var missing []string
	for _, key := range required {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
