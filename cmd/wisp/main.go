package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"github.com/wispshell/wisp/internal/argexpand"
	"github.com/wispshell/wisp/internal/argexpand/envadapter"
	"github.com/wispshell/wisp/internal/argexpand/historyadapter"
	"github.com/wispshell/wisp/internal/argexpand/jobtable"
	"github.com/wispshell/wisp/internal/argexpand/procenum"
	"github.com/wispshell/wisp/internal/argexpand/subshell"
	"github.com/wispshell/wisp/internal/argexpand/wildcardmatcher"
	"github.com/wispshell/wisp/internal/bash"
	"github.com/wispshell/wisp/internal/completion"
	"github.com/wispshell/wisp/internal/config"
	"github.com/wispshell/wisp/internal/core"
	"github.com/wispshell/wisp/internal/environment"
	"github.com/wispshell/wisp/internal/history"
	"github.com/wispshell/wisp/internal/styles"
)

var BUILD_VERSION = "dev"

//go:embed .wisprc.default
var DEFAULT_VARS []byte

var command = flag.String("c", "", "run a command")
var loginShell = flag.Bool("l", false, "run as a login shell")
var rcFile = flag.String("rcfile", "", "use a custom rc file instead of ~/.wisprc")
var strictConfig = flag.Bool("strict-config", false, "fail fast if configuration files contain errors (like bash 'set -e')")

var helpFlag bool
var versionFlag bool

func init() {
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "ver", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

// main is the entry point of the wisp shell program. It supports:
// 1. Version display: wisp -v
// 2. Help display: wisp -h
// 3. Command execution: wisp -c "command"
// 4. Interactive shell: wisp (when stdin is a terminal)
// 5. Script execution: wisp script.sh
func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if helpFlag {
		printUsage()
		return
	}

	historyManager, err := initializeHistoryManager()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize history manager: %v", err))
	}
	defer func() {
		if err := historyManager.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close history manager: %v\n", err)
		}
	}()

	completionManager := completion.NewCompletionManager()

	runner, engine, err := initializeRunner(historyManager, completionManager)
	if err != nil {
		panic(err)
	}

	logger, err := initializeLogger(runner)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("-------- new wisp session --------", zap.Any("args", os.Args))

	err = run(runner, historyManager, engine, logger)

	if code, ok := interp.IsExitStatus(err); ok {
		os.Exit(int(code))
	}

	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		os.Exit(1)
	}
}

func run(
	runner *interp.Runner,
	historyManager *history.HistoryManager,
	engine *argexpand.Engine,
	logger *zap.Logger,
) error {
	ctx := context.Background()

	// wisp -c "echo hello"
	if *command != "" {
		return bash.RunBashScriptFromReader(ctx, runner, strings.NewReader(*command), "wisp")
	}

	// wisp
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return core.RunInteractiveShell(ctx, runner, historyManager, engine, logger)
		}
		return bash.RunBashScriptFromReader(ctx, runner, os.Stdin, "wisp")
	}

	// wisp script.sh
	for _, filePath := range flag.Args() {
		if err := bash.RunBashScriptFromFile(ctx, runner, filePath); err != nil {
			return err
		}
	}

	return nil
}

func printUsage() {
	fmt.Println(styles.HEADING("Usage:") + " wisp [flags] [script]")
	fmt.Println("\nA POSIX-compatible shell with fish-style argument expansion.")
	fmt.Println()

	fmt.Println(styles.HEADING("Options:"))

	printed := make(map[string]bool)

	flag.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		aliases := []string{f.Name}
		flag.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}

		flagStr := ""
		if len(shortFlags) > 0 {
			flagStr = strings.Join(shortFlags, ", ")
		}
		if len(longFlags) > 0 {
			if flagStr != "" {
				flagStr += ", "
			}
			flagStr += strings.Join(longFlags, ", ")
		}

		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		fmt.Printf("  %-28s %s\n", flagStr, usage)
	})

	fmt.Println()
	fmt.Println(styles.HEADING("Argument expansion:"))
	fmt.Printf("  %-28s %s\n", "*, **", "wildcard and recursive-wildcard globbing")
	fmt.Printf("  %-28s %s\n", "{a,b}", "brace expansion")
	fmt.Printf("  %-28s %s\n", "~user", "home directory expansion")
	fmt.Printf("  %-28s %s\n", "%job", "job and process expansion")
}

// newCompressedSink creates a new compressed sink from a URL. The URL path
// should point to the log file location. Implements proper zstd frame
// continuation by checking if the existing file contains valid zstd frames
// and appending new frames appropriately.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path

	flags := os.O_CREATE | os.O_WRONLY

	fileInfo, err := os.Stat(filePath)
	if err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile checks if a file starts with a valid zstd magic number.
// Returns false if file doesn't exist, is empty, or has invalid header.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil || n < 4 {
		return false
	}

	return buf[0] == 0x28 && buf[1] == 0xB5 && buf[2] == 0x2F && buf[3] == 0xFD
}

// compressedSink wraps a zstd encoder to provide compressed log file writing.
// It implements the WriteSyncer interface required by zap's custom sinks.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

func (s *compressedSink) Write(p []byte) (int, error) {
	_, err := s.encoder.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}

func initializeLogger(runner *interp.Runner) (*zap.Logger, error) {
	logLevel := environment.GetLogLevel(runner)
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if environment.ShouldCleanLogFile(runner) {
		_ = os.Remove(core.LogFile())
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		"zstd://" + core.LogFile(),
	}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func initializeHistoryManager() (*history.HistoryManager, error) {
	return history.NewHistoryManager(core.HistoryFile())
}

// initializeRunner loads the shell configuration files, constructs the
// interpreter, and wires an argument expansion engine bound to that
// interpreter's environment and the same history store the interactive
// shell records commands into.
func initializeRunner(historyManager *history.HistoryManager, completionManager *completion.CompletionManager) (*interp.Runner, *argexpand.Engine, error) {
	shellPath, err := os.Executable()
	if err != nil {
		panic(err)
	}

	dynamicEnv := environment.NewDynamicEnviron()
	dynamicEnv.UpdateSystemEnv()
	dynamicEnv.UpdateBishVar("SHELL", shellPath)
	dynamicEnv.UpdateBishVar("BISH_BUILD_VERSION", BUILD_VERSION)
	env := expand.Environ(dynamicEnv)

	runner, err := interp.New(
		interp.Interactive(true),
		interp.Env(env),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.ExecHandlers(
			core.NewAutocdExecHandler(), // must be first to intercept path-like commands
			bash.NewCdCommandHandler(),
			bash.NewCdHookHandler(),
			bash.NewTypesetCommandHandler(),
			bash.SetBuiltinHandler(),
			completion.NewCompleteCommandHandler(completionManager),
		),
	)
	if err != nil {
		panic(err)
	}

	core.SetAutocdRunner(runner)
	bash.SetTypesetRunner(runner)
	bash.SetCdRunner(runner)

	jobs := jobtable.New()
	engine := &argexpand.Engine{
		Env:         envadapter.New(runner),
		History:     historyadapter.New(historyManager),
		Wildcard:    wildcardmatcher.New(),
		Subshell:    subshell.New(runner),
		ProcessEnum: procenum.New(),
		Jobs:        jobs,
		Background:  jobs,
	}

	if err := bash.RunBashScriptFromReader(
		context.Background(),
		runner,
		bytes.NewReader(DEFAULT_VARS),
		"wisp",
	); err != nil {
		panic(err)
	}

	// Builtin cd changes the interpreter's own directory tracking; the hook
	// resyncs os.Chdir/$PWD/$OLDPWD from it afterward.
	if _, _, err := bash.RunBashCommand(context.Background(), runner, `function cd() { builtin cd "$@" && bish_cd_hook "$PWD"; }`); err != nil {
		panic(err)
	}

	var configFiles []string

	if *rcFile != "" {
		configFiles = []string{*rcFile}
	} else {
		configFiles = []string{
			filepath.Join(core.HomeDir(), ".wisprc"),
			filepath.Join(core.HomeDir(), ".wispenv"),
		}

		if *loginShell || strings.HasPrefix(os.Args[0], "-") {
			configFiles = append(
				[]string{
					"/etc/profile",
					filepath.Join(core.HomeDir(), ".wisp_profile"),
				},
				configFiles...,
			)
		}
	}

	for _, configFile := range configFiles {
		stat, statErr := os.Stat(configFile)
		if statErr != nil || stat.Size() == 0 {
			continue
		}

		contents, readErr := os.ReadFile(configFile)
		if readErr == nil {
			if verErr := config.CheckSchemaVersion(string(contents)); verErr != nil {
				fmt.Fprintf(os.Stderr, "Configuration file %s: %v\n", configFile, verErr)
				if *strictConfig {
					return nil, nil, fmt.Errorf("aborting due to configuration error in %s: %w", configFile, verErr)
				}
				continue
			}
		}

		if err := bash.RunBashScriptFromFile(context.Background(), runner, configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration file %s contains errors: %v\n", configFile, err)
			if *strictConfig {
				return nil, nil, fmt.Errorf("aborting due to configuration error in %s: %w", configFile, err)
			}
		}
	}

	environment.SyncVariablesToEnv(runner)

	return runner, engine, nil
}
