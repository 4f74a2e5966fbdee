// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"metaview/internal/config"
	"metaview/internal/formatters"
	_ "metaview/internal/formatters/csv"
	_ "metaview/internal/formatters/json"
	_ "metaview/internal/formatters/msgpack"
	_ "metaview/internal/formatters/text"
	_ "metaview/internal/formatters/yaml"
	"metaview/internal/help"
	"metaview/internal/observability"
	"metaview/internal/router"
	"metaview/internal/version"
	"metaview/internal/web"

	"golang.org/x/term"
)

// cliFlags holds command line flag values
type cliFlags struct {
	inputFile    string
	configFile   string
	profileName  string
	outputFormat string
	outputFile   string
	noColor      bool
	noMap        bool
	strict       bool
	debug        bool
	webMode      bool
	port         int
	showVersion  bool
	showHelp     bool
	listFormats  bool
	listProfiles bool
}

// environment carries the process context run depends on
type environment struct {
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
}

func main() {
	env := environment{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "" && os.Getenv("CI") == "",
	}
	os.Exit(run(os.Args[1:], env))
}

// parseFlags parses args into cliFlags
func parseFlags(args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("metaview", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.inputFile, "file", "", "Path to the input file (.jpg, .jpeg, .png, .pdf, .docx, .doc)")
	fs.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&f.profileName, "profile", "", "Profile name to use from config file")
	fs.StringVar(&f.outputFormat, "format", "", "Output format: text, json, yaml, csv, msgpack (default: text)")
	fs.StringVar(&f.outputFile, "output", "", "Path to output file (if not specified, output to stdout)")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.noMap, "no-map", false, "Omit map links for geotagged images")
	fs.BoolVar(&f.strict, "strict", false, "Reject files whose content does not match the extension")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging to show routing and extraction flow")
	fs.BoolVar(&f.webMode, "web", false, "Start web server mode instead of reading a file")
	fs.IntVar(&f.port, "port", 0, "Port for web server (default: 8080)")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	fs.BoolVar(&f.showHelp, "help", false, "Show help information")
	fs.BoolVar(&f.listFormats, "list-formats", false, "List available output formats")
	fs.BoolVar(&f.listProfiles, "list-profiles", false, "List available profiles in config file")
	fs.Usage = func() {
		help.NewSystem(stderr, true).ShowGeneralHelp()
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}

// run executes the CLI and returns the process exit code
func run(args []string, env environment) int {
	flags, fs, err := parseFlags(args, env.stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	switch {
	case flags.showVersion:
		fmt.Fprintln(env.stdout, version.Info())
		return 0
	case flags.showHelp:
		h := help.NewSystem(env.stdout, flags.noColor || !env.interactive)
		if err := h.Show(fs.Arg(0)); err != nil {
			fmt.Fprintf(env.stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	case flags.listFormats:
		help.NewSystem(env.stdout, true).ShowFormatsHelp()
		return 0
	}

	cfg := loadConfiguration(flags.configFile, env.stderr)

	if flags.listProfiles {
		listProfiles(cfg, env.stdout)
		return 0
	}

	settings, err := cfg.Effective(flags.profileName)
	if err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(&settings, flags, fs)

	if !env.interactive || flags.outputFile != "" {
		settings.NoColor = true
	}

	if flags.webMode {
		if err := handleWebMode(cfg, settings, flags, fs, env); err != nil {
			fmt.Fprintf(env.stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	inputFile := flags.inputFile
	if inputFile == "" {
		inputFile = fs.Arg(0)
	}
	if inputFile == "" {
		fmt.Fprintln(env.stderr, "Error: no input file specified")
		fmt.Fprintln(env.stderr, "Usage: metaview -file <path> [options], or metaview -help")
		return 1
	}

	if _, ok := formatters.Get(settings.Format); !ok {
		fmt.Fprintf(env.stderr, "Error: unsupported format '%s'. Available formats: %s\n",
			settings.Format, strings.Join(formatters.List(), ", "))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var debugObs *observability.DebugObserver
	observer := observability.NewStandardObserver(observability.ObservabilityOff, env.stderr)
	if settings.Debug {
		debugObs = observability.NewDebugObserver(env.stderr)
		observer = debugObs.StandardObserver
		debugObs.LogDetail("main", fmt.Sprintf("Command line arguments: %v", args))
		debugObs.LogDetail("main", fmt.Sprintf("Resolved format=%s show_map=%t strict=%t max_size=%dMB",
			settings.Format, settings.ShowMap, settings.StrictContentCheck, settings.MaxFileSizeMB))
	}

	fileRouter := router.NewFileRouter(router.Options{
		AllowedExtensions:  settings.AllowedExtensions,
		MaxFileSize:        settings.MaxFileSizeBytes(),
		StrictContentCheck: settings.StrictContentCheck,
		ProcessingTimeout:  settings.ProcessingTimeout,
	}, observer)

	result := fileRouter.Route(ctx, inputFile, "")

	output, err := formatters.Export(settings.Format, result, formatters.FormatterOptions{
		NoColor:         settings.NoColor,
		NoMap:           !settings.ShowMap,
		MapsURLTemplate: cfg.Map.MapsURLTemplate,
		MapSpan:         cfg.Map.Span,
	})
	if err != nil {
		fmt.Fprintf(env.stderr, "Error formatting output: %v\n", err)
		return 1
	}

	if err := writeOutput(output, flags.outputFile, settings.Format, env.stdout); err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}

	if debugObs != nil {
		debugObs.LogMetric("main", "files_processed", fileRouter.GetMetrics().GetSummary()["files_processed"])
	}

	if result.IsError() {
		return 1
	}
	return 0
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string, stderr io.Writer) *config.Config {
	// If config file is not specified, try to find one in standard locations
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(stderr, "Using default configuration\n")
		cfg, _ = config.LoadConfig("") // Load default config
	}
	return cfg
}

// listProfiles prints the available profiles with their descriptions
func listProfiles(cfg *config.Config, out io.Writer) {
	fmt.Fprintln(out, "Available profiles:")
	for _, name := range cfg.ListProfiles() {
		profile := cfg.GetProfile(name)
		if profile.Description != "" {
			fmt.Fprintf(out, "  %-12s %s\n", name, profile.Description)
		} else {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
}

// applyFlags lets explicitly set flags override config and profile values
func applyFlags(settings *config.Defaults, flags *cliFlags, fs *flag.FlagSet) {
	if isFlagSet(fs, "format") {
		settings.Format = strings.ToLower(flags.outputFormat)
	}
	if isFlagSet(fs, "no-color") {
		settings.NoColor = flags.noColor
	}
	if isFlagSet(fs, "no-map") {
		settings.ShowMap = !flags.noMap
	}
	if isFlagSet(fs, "strict") {
		settings.StrictContentCheck = flags.strict
	}
	if isFlagSet(fs, "debug") {
		settings.Debug = flags.debug
	}
}

// isFlagSet checks if a flag was explicitly set on the command line
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// writeOutput writes to the output file, or stdout when none is given.
// Text formats get a trailing newline; binary formats are written as is.
func writeOutput(output, outputFile, format string, stdout io.Writer) error {
	if format != "msgpack" && !strings.HasSuffix(output, "\n") {
		output += "\n"
	}

	if outputFile == "" {
		_, err := io.WriteString(stdout, output)
		return err
	}

	cleanOutputPath, err := filepath.Abs(filepath.Clean(outputFile))
	if err != nil {
		return fmt.Errorf("invalid output file path %s: %w", outputFile, err)
	}
	// Ensure output directory exists with secure permissions (owner only)
	if err := os.MkdirAll(filepath.Dir(cleanOutputPath), 0o700); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	if err := os.WriteFile(cleanOutputPath, []byte(output), 0o600); err != nil {
		return fmt.Errorf("error writing to output file: %w", err)
	}
	return nil
}

// handleWebMode validates web mode flags and runs the web server until
// interrupted
func handleWebMode(cfg *config.Config, settings config.Defaults, flags *cliFlags, fs *flag.FlagSet, env environment) error {
	if err := validateWebModeFlags(flags, fs); err != nil {
		return err
	}

	webCfg := cfg.Web
	if flags.port != 0 {
		if flags.port < 1 || flags.port > 65535 {
			return fmt.Errorf("invalid port %d: must be between 1 and 65535", flags.port)
		}
		webCfg.Port = flags.port
	}

	observer := observability.NewStandardObserver(observability.ObservabilityOff, env.stderr)
	if settings.Debug {
		observer = observability.NewStandardObserver(observability.ObservabilityDebug, env.stderr)
	}

	server, err := web.NewWebServer(web.Options{
		Settings: settings,
		Web:      webCfg,
		Map:      cfg.Map,
		Observer: observer,
		Output:   env.stdout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Fprintln(env.stdout, "Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return <-errCh
	}
}

// validateWebModeFlags rejects flags that only apply to reading a single file
func validateWebModeFlags(flags *cliFlags, fs *flag.FlagSet) error {
	if flags.inputFile != "" || fs.NArg() > 0 {
		return fmt.Errorf("-web cannot be used with an input file\n" +
			"Web mode starts a server - use the web interface to upload files")
	}

	var incompatible []string
	for _, name := range []string{"output", "format", "no-color"} {
		if isFlagSet(fs, name) {
			incompatible = append(incompatible, "-"+name)
		}
	}
	if len(incompatible) > 0 {
		return fmt.Errorf("-web cannot be used with the following flags: %s\n"+
			"Web mode provides its own output interface; remove them and try again",
			strings.Join(incompatible, ", "))
	}
	return nil
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
