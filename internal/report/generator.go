package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"go.uber.org/zap"
)

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.2fs", mins, secs)
}

// Generator renders scan reports in various formats
type Generator struct {
	config *config.Config
	logger *zap.Logger
	stdout io.Writer
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger) *Generator {
	return &Generator{
		config: cfg,
		logger: logger,
		stdout: os.Stdout,
	}
}

// SetOutput redirects stdout rendering, mainly for tests and the CLI
func (g *Generator) SetOutput(w io.Writer) {
	g.stdout = w
}

// Generate renders report in the configured format. Output goes to the
// configured file when set, otherwise to stdout. The absolute output path is
// returned, or "" for stdout.
func (g *Generator) Generate(report *models.ScanReport) (string, error) {
	format := normalizeFormat(g.config.ReportFormat)
	outputFile := g.config.OutputFile

	if outputFile == "" {
		return "", Render(g.stdout, format, report)
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var buf bytes.Buffer
	if err := Render(&buf, format, report); err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}
	if err := os.WriteFile(outputFile, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

// Render writes report to w in the given format
func Render(w io.Writer, format string, report *models.ScanReport) error {
	switch normalizeFormat(format) {
	case config.FormatConsole:
		return renderConsole(w, report)
	case config.FormatJSON:
		return renderJSON(w, report)
	case config.FormatText:
		return renderText(w, report)
	case config.FormatMarkdown:
		return renderMarkdown(w, report)
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

func normalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return config.FormatConsole
	case "txt":
		return config.FormatText
	case "markdown":
		return config.FormatMarkdown
	default:
		return f
	}
}

// displayPath shortens a finding path relative to the scan target
func displayPath(target, path string) string {
	if rel, err := filepath.Rel(target, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(path)
}
