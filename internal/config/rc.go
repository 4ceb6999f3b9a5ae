package config

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the rc-file schema version this build understands.
// Bumped whenever a breaking change is made to the default rc file's
// variable names or semantics.
const SchemaVersion = "1.0.0"

const schemaVersionVar = "BISH_RC_SCHEMA_VERSION"

// CheckSchemaVersion reads the schema version line (if present) out of an
// rc file's contents and reports whether this build can load it safely. A
// missing version is treated as schema 0.0.0, predating the check, and is
// always accepted; a version whose major component exceeds what this
// build understands is rejected.
func CheckSchemaVersion(rcContents string) error {
	declared := extractSchemaVersion(rcContents)
	if declared == "" {
		return nil
	}
	declaredVer, err := semver.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", schemaVersionVar, declared, err)
	}
	buildVer, err := semver.NewVersion(SchemaVersion)
	if err != nil {
		return fmt.Errorf("internal: invalid build schema version %q: %w", SchemaVersion, err)
	}
	if declaredVer.Major() > buildVer.Major() {
		return fmt.Errorf("rc file schema version %s is newer than this build supports (%s)", declared, SchemaVersion)
	}
	return nil
}

func extractSchemaVersion(rcContents string) string {
	const prefix = schemaVersionVar + "="
	start := 0
	for start < len(rcContents) {
		end := start
		for end < len(rcContents) && rcContents[end] != '\n' {
			end++
		}
		line := rcContents[start:end]
		if len(line) > len(prefix) && line[:len(prefix)] == prefix {
			return trimQuotes(line[len(prefix):])
		}
		start = end + 1
	}
	return ""
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// WithFileLock opens path (creating it if absent), acquires an exclusive
// flock for the duration of fn, and releases it before returning. Multiple
// shell processes writing the same rc file serialize through this lock
// instead of racing.
func WithFileLock(path string, fn func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := flockExclusive(f.Fd()); err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer flockUnlock(f.Fd())

	return fn(f)
}
