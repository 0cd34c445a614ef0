package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "1.0.0"
	verbose bool
)

var (
	accent = color.New(color.FgHiCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// thresholdError signals that the verdict reached --fail-on
type thresholdError struct {
	level string
}

func (e *thresholdError) Error() string {
	return fmt.Sprintf("threat level %s reached the fail-on threshold", e.level)
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var threshold *thresholdError
		if errors.As(err, &threshold) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skillscan",
		Short: "skillscan - security scanner for agent skills",
		Long: `Static security scanner for agent skill packages. Detects malware signatures,
dangerous JavaScript constructs and risky shell commands, and rates the skill.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// newLogger builds a development logger with --verbose, otherwise an error-only JSON logger
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	return cfg.Build()
}

func printBanner() {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, accent("┌─┐┬┌─┬┬  ┬  ┌─┐┌─┐┌─┐┌┐┌"))
	fmt.Fprintln(os.Stderr, accent("└─┐├┴┐││  │  └─┐│  ├─┤│││"))
	fmt.Fprintln(os.Stderr, accent("└─┘┴ ┴┴┴─┘┴─┘└─┘└─┘┴ ┴┘└┘"))
	fmt.Fprintf(os.Stderr, "%s\n\n", gray("Skill Security Scanner v"+version))
}
