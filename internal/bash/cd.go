package bash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

// NewCdCommandHandler creates a new ExecHandler middleware for the cd command
func NewCdCommandHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}

			// Handle the 'bish_cd' command on all platforms
			// Handle the native 'cd' command on Windows only
			commandName := args[0]
			if runtime.GOOS == "windows" {
				if commandName != "bish_cd" && commandName != "cd" {
					return next(ctx, args)
				}
			} else {
				// On non-Windows platforms, only handle 'bish_cd'
				if commandName != "bish_cd" {
					return next(ctx, args)
				}
			}

			// Handle cd command
			return handleCdCommand(ctx, args)
		}
	}
}

func handleCdCommand(ctx context.Context, args []string) error {
	// Get environment from context
	hc := interp.HandlerCtx(ctx)
	env := hc.Env

	// Debug: Log the raw arguments received
	if runtime.GOOS == "windows" {
		fmt.Fprintf(os.Stderr, "DEBUG: handleCdCommand received args: %v\n", args)
	}

	// Determine the target directory
	var targetDir string
	if len(args) == 1 {
		// No argument provided, try HOME
		home := env.Get("HOME")
		if home.String() == "" {
			fmt.Fprintln(os.Stderr, "cd: HOME not set")
			return fmt.Errorf("no home directory")
		}
		targetDir = home.String()
	} else {
		targetDir = args[1]
		// Debug: Log the target directory before any processing
		if runtime.GOOS == "windows" {
			fmt.Fprintf(os.Stderr, "DEBUG: Raw targetDir: %s\n", targetDir)
		}

		// Windows path recovery: minimal generic fallback for malformed paths
		// This addresses cases where backslashes are stripped from Windows paths
		// The real fix should be in the command parsing/escaping layer
		if runtime.GOOS == "windows" && strings.Contains(targetDir, ":") && !strings.Contains(targetDir, `\`) {
			// Try a single safe substitution: replace first ":" with ":\\"
			reconstructed := strings.Replace(targetDir, ":", ":\\", 1)

			// Debug: Log the reconstruction attempt
			fmt.Fprintf(os.Stderr, "DEBUG: Attempting to reconstruct Windows path: %s -> %s\n", targetDir, reconstructed)

			// Validate the reconstructed path exists before using it
			if _, err := os.Stat(reconstructed); err == nil {
				targetDir = reconstructed
				fmt.Fprintf(os.Stderr, "DEBUG: Successfully reconstructed path: %s\n", targetDir)
			} else {
				// Log a warning about malformed path detection
				fmt.Fprintf(os.Stderr, "cd: warning: detected malformed Windows path: %s\n", targetDir)
			}
		}
	}

	// Expand any path variables and handle special cases
	switch targetDir {
	case "~":
		home := env.Get("HOME")
		if home.String() == "" {
			fmt.Fprintln(os.Stderr, "cd: HOME not set")
			return fmt.Errorf("no home directory")
		}
		targetDir = home.String()
	case "-":
		// Handle previous directory
		prevDir := env.Get("OLDPWD")
		if prevDir.String() == "" {
			fmt.Fprintln(os.Stderr, "cd: OLDPWD not set")
			return fmt.Errorf("no previous directory")
		}
		targetDir = prevDir.String()
	}

	// Determine if path is absolute - be extra careful on Windows
	isAbs := filepath.IsAbs(targetDir)

	// On Windows, also check for drive letter pattern as additional validation
	// This fixes cases where filepath.IsAbs() might not recognize Windows paths correctly
	if runtime.GOOS == "windows" && !isAbs {
		// Check if it looks like a Windows absolute path (e.g., C:\path or C:/path)
		if len(targetDir) >= 3 && targetDir[1] == ':' && (targetDir[2] == '\\' || targetDir[2] == '/') {
			isAbs = true
		}
		// Also check for UNC paths (\\server\share)
		if len(targetDir) >= 2 && targetDir[0] == '\\' && targetDir[1] == '\\' {
			isAbs = true
		}
	}

	if isAbs {
		// For absolute paths, just clean but don't join with current directory
		// On Windows, ensure we use the correct path separator
		if runtime.GOOS == "windows" {
			targetDir = filepath.Clean(targetDir)
			// Convert forward slashes to backslashes for consistency on Windows
			targetDir = filepath.FromSlash(targetDir)
		} else {
			targetDir = filepath.Clean(targetDir)
		}
	} else if resolved, ok := resolveAgainstCdpath(env.Get("CDPATH").String(), targetDir); ok {
		targetDir = resolved
	} else {
		// For relative paths, resolve relative to current directory
		currentDir, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cd: unable to get current directory: %v\n", err)
			return err
		}

		// On Windows, ensure we use the correct path separator
		if runtime.GOOS == "windows" {
			// Convert forward slashes to backslashes in targetDir before joining
			targetDir = filepath.FromSlash(targetDir)
		}

		targetDir = filepath.Join(currentDir, targetDir)
		targetDir = filepath.Clean(targetDir)

		// Debug: Log final path after joining
	}

	// Check if the directory exists
	info, err := os.Stat(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "cd: no such file or directory: %s\n", targetDir)
			return fmt.Errorf("directory not found")
		}
		fmt.Fprintf(os.Stderr, "cd: %s: %v\n", targetDir, err)
		return err
	}

	// Check if it's actually a directory
	if !info.IsDir() {
		fmt.Fprintf(os.Stderr, "cd: not a directory: %s\n", targetDir)
		return fmt.Errorf("directory not found") // Use consistent error message for cross-platform compatibility
	}

	// Check for read and execute permissions
	if err := os.Chdir(targetDir); err != nil {
		if os.IsPermission(err) {
			fmt.Fprintf(os.Stderr, "cd: permission denied: %s\n", targetDir)
			return fmt.Errorf("permission denied")
		}
		fmt.Fprintf(os.Stderr, "cd: %s: %v\n", targetDir, err)
		return err
	}

	// Update PWD and OLDPWD environment variables
	oldPwd := env.Get("PWD").String()

	// Update OS environment variables (for child processes)
	if err := os.Setenv("OLDPWD", oldPwd); err != nil {
		fmt.Fprintf(os.Stderr, "cd: failed to set OLDPWD: %v\n", err)
	}
	if err := os.Setenv("PWD", targetDir); err != nil {
		fmt.Fprintf(os.Stderr, "cd: failed to set PWD: %v\n", err)
	}

	// Update the runner recorded by SetCdRunner (its directory and its own
	// PWD/OLDPWD variables), so the interpreter follows the process.
	if cdRunner != nil {
		cdRunner.Dir = targetDir
		if cdRunner.Vars != nil {
			cdRunner.Vars["OLDPWD"] = expand.Variable{Exported: true, Kind: expand.String, Str: oldPwd}
			cdRunner.Vars["PWD"] = expand.Variable{Exported: true, Kind: expand.String, Str: targetDir}
		}
	}

	// `cd -` prints the directory it changed to.
	if len(args) > 1 && args[1] == "-" {
		fmt.Fprintln(hc.Stdout, targetDir)
	}

	return nil
}

var cdRunner *interp.Runner

// SetCdRunner records the active runner so bish_cd and bish_cd_hook (invoked
// after the interpreter's own builtin cd) can resync its view of the working
// directory and of PWD/OLDPWD.
func SetCdRunner(runner *interp.Runner) { cdRunner = runner }

// NewCdHookHandler intercepts bish_cd_hook, the function wrapper around
// `cd` calls after the interpreter's own builtin cd has already changed its
// internal directory tracking. It brings the OS process (os.Chdir, $PWD,
// $OLDPWD) in line with that new directory.
func NewCdHookHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "bish_cd_hook" {
				return next(ctx, args)
			}
			if len(args) < 2 {
				return nil
			}
			newDir := args[1]

			oldPwd := ""
			if cdRunner != nil {
				oldPwd = cdRunner.Vars["PWD"].String()
			} else {
				oldPwd, _ = os.Getwd()
			}

			if err := os.Chdir(newDir); err != nil {
				fmt.Fprintf(os.Stderr, "cd: %s: %v\n", newDir, err)
				return err
			}

			_ = os.Setenv("OLDPWD", oldPwd)
			_ = os.Setenv("PWD", newDir)

			if cdRunner != nil {
				cdRunner.Vars["OLDPWD"] = cdRunner.Vars["PWD"]
				cdRunner.Vars["PWD"] = expand.Variable{Exported: true, Kind: expand.String, Str: newDir}
			}

			return nil
		}
	}
}

// resolveAgainstCdpath searches path's ':'-delimited CDPATH entries for a
// directory named target, mirroring special CDPATH handling a wildcard
// expansion under SpecialForCD honors (see internal/argexpand/wildcard.go).
// It only applies to bare relative names with no path separator, matching
// CDPATH's own restriction.
func resolveAgainstCdpath(cdpath, target string) (string, bool) {
	if cdpath == "" || strings.ContainsAny(target, "/\\") || target == "." || target == ".." {
		return "", false
	}
	for _, dir := range strings.Split(cdpath, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, target)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
