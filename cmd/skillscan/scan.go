package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/core"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/report"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanOptions mirrors the scan command flags
type scanOptions struct {
	workers      int
	maxSize      string
	exclude      []string
	excludeGlobs []string
	reportFormat string
	outputFile   string
	disable      []string
	isolate      bool
	strict       bool
	failOn       string
}

// apply overrides cfg with the flags the user actually set
func (o *scanOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("max-size") {
		cfg.MaxSize = o.maxSize
	}
	if flags.Changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if flags.Changed("exclude-glob") {
		cfg.ExcludeGlobs = o.excludeGlobs
	}
	if flags.Changed("report") {
		cfg.ReportFormat = o.reportFormat
	}
	if flags.Changed("output") {
		cfg.OutputFile = o.outputFile
	}
	if flags.Changed("disable") {
		cfg.Disable = o.disable
	}
	if flags.Changed("isolate") {
		cfg.IsolateFileErrors = o.isolate
	}
	if flags.Changed("strict") {
		cfg.StrictRules = o.strict
	}
	if flags.Changed("fail-on") {
		cfg.FailOn = o.failOn
	}
}

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a skill directory or file",
		Long:  `Recursively scan a skill for malware signatures, dangerous code constructs and risky shell commands.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", red("✗ Invalid parameter:"), err)
				return err
			}
			failOn, _ := cfg.FailOnLevel()

			interactive := cfg.ReportFormat == "" || cfg.ReportFormat == config.FormatConsole || cfg.OutputFile != ""
			if interactive {
				printBanner()
				fmt.Fprintf(os.Stderr, "  %s  %s\n", gray("Scanning:"), path)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			scanner := core.NewScanner(cfg, logger)
			if interactive {
				scanner.SetProgressCallback(progressPrinter())
			}

			rep, err := scanner.ScanSkill(ctx, path)
			if err != nil {
				logger.Error("Scan failed", zap.Error(err))
				return err
			}

			gen := report.NewGenerator(cfg, logger)
			reportPath, err := gen.Generate(rep)
			if err != nil {
				return err
			}
			if reportPath != "" {
				fmt.Fprintf(os.Stderr, "  %s    %s\n\n", gray("Report:"), accent(reportPath))
			}

			if failOn != "" && rep.ThreatLevel.AtLeast(failOn) {
				return &thresholdError{level: string(rep.ThreatLevel)}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of worker goroutines (default: CPU cores)")
	cmd.Flags().StringVar(&opts.maxSize, "max-size", "", "Maximum file size to analyse, e.g. 650K or 2M (default: unlimited)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Directory names to skip (default: node_modules)")
	cmd.Flags().StringSliceVar(&opts.excludeGlobs, "exclude-glob", nil, "Glob patterns of relative paths to skip, e.g. **/*.min.js")
	cmd.Flags().StringVarP(&opts.reportFormat, "report", "r", "", "Report format: console, json, text, md")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringSliceVar(&opts.disable, "disable", nil, "Disable detectors by name (comma-separated)")
	cmd.Flags().BoolVar(&opts.isolate, "isolate", false, "Report unreadable files as findings instead of aborting")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Abort when a detector emits an unregistered rule code")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Exit with status 2 when the threat level is at least LOW, MEDIUM, HIGH or SEVERE")

	return cmd
}

// progressPrinter renders scan progress on stderr
func progressPrinter() core.ProgressCallback {
	lastPhase := ""
	return func(phase string, current, total int, message string) {
		// rewrite the previous bar in place
		if lastPhase == phase && phase == "scanning" && !color.NoColor {
			fmt.Fprint(os.Stderr, "\033[1A\033[K")
		}
		lastPhase = phase

		switch phase {
		case "counting":
			if total > 0 {
				fmt.Fprintf(os.Stderr, "  %s     %s\n", gray("Files:"), message)
			}
		case "scanning":
			if total > 0 {
				pct := float64(current) / float64(total) * 100
				barWidth := 30
				filled := barWidth * current / total
				bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
				fmt.Fprintf(os.Stderr, "  %s  [%s] %s (%d/%d)\n",
					gray("Progress:"), accent(bar), accent(fmt.Sprintf("%.1f%%", pct)), current, total)
			}
		}
	}
}
