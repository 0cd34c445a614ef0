package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors/javascript"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors/shell"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors/signature"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/filesystem"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/scoring"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/signatures"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"go.uber.org/zap"
)

// ProgressCallback is called to report scan progress
type ProgressCallback func(phase string, current, total int, message string)

// Scanner is the main scanner engine.
// A configured Scanner keeps no per-scan state and may run scans concurrently.
type Scanner struct {
	config           *config.Config
	logger           *zap.Logger
	catalog          *rules.Catalog
	detectors        []detectors.Detector
	progressCallback ProgressCallback
}

// NewScanner creates a scanner using the built-in rule catalog
func NewScanner(cfg *config.Config, logger *zap.Logger) *Scanner {
	return NewScannerWithCatalog(cfg, logger, rules.Default())
}

// NewScannerWithCatalog creates a scanner bound to catalog and registers the
// signature, structural and shell detectors.
func NewScannerWithCatalog(cfg *config.Config, logger *zap.Logger, catalog *rules.Catalog) *Scanner {
	s := &Scanner{
		config:  cfg,
		logger:  logger,
		catalog: catalog,
	}

	for _, problem := range catalog.Problems {
		logger.Warn("Rule catalog problem", zap.Error(problem))
	}

	matcher := signatures.NewMatcher(catalog)
	logger.Debug("Loaded rule catalog",
		zap.Int("signature_rules", matcher.Rules()),
		zap.Int("problems", len(catalog.Problems)))

	s.RegisterDetector(signature.NewDetector(matcher))
	s.RegisterDetector(javascript.NewStructuralDetector(catalog))
	s.RegisterDetector(shell.NewDetector(catalog))

	return s
}

// RegisterDetector registers a new detector.
// Detectors named in the config's disable list are registered switched off.
func (s *Scanner) RegisterDetector(d detectors.Detector) {
	if s.config.IsDisabled(d.Name()) {
		d.SetEnabled(false)
	}

	s.detectors = append(s.detectors, d)
	sort.SliceStable(s.detectors, func(i, j int) bool {
		return s.detectors[i].Priority() > s.detectors[j].Priority()
	})

	s.logger.Debug("Registered detector",
		zap.String("name", d.Name()),
		zap.Int("priority", d.Priority()),
		zap.Strings("extensions", d.SupportedExtensions()),
		zap.Bool("enabled", d.IsEnabled()))
}

// SetProgressCallback sets the progress callback function.
// The callback runs on a single collector goroutine.
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

// Catalog returns the rule catalog the scanner reports against
func (s *Scanner) Catalog() *rules.Catalog {
	return s.catalog
}

// reportProgress calls the progress callback if set
func (s *Scanner) reportProgress(phase string, current, total int, message string) {
	if s.progressCallback != nil {
		s.progressCallback(phase, current, total, message)
	}
}

// fileResult is the outcome of analysing one candidate file
type fileResult struct {
	index    int
	path     string
	findings []*models.Finding
	analysed bool
	err      error
}

// ScanSkill scans a skill directory or single file and returns its verdict.
// Enumeration completes before analysis starts; I/O failures return an error
// wrapping filesystem.ErrFatalIO and no report.
func (s *Scanner) ScanSkill(ctx context.Context, path string) (*models.ScanReport, error) {
	start := time.Now()
	s.logger.Info("Starting scan", zap.String("path", path))

	s.reportProgress("counting", 0, 0, "Enumerating files...")
	walker := filesystem.NewWalker(s.config, s.logger)
	files, err := walker.Collect(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", path, err)
	}
	s.reportProgress("counting", len(files), len(files), fmt.Sprintf("Found %d files to scan", len(files)))

	results, cacheHits, err := s.analyse(ctx, files)
	if err != nil {
		return nil, err
	}

	agg := scoring.NewAggregator(s.catalog)
	for _, res := range results {
		if res.analysed {
			agg.FileScanned()
		}
		for _, f := range res.findings {
			if err := agg.Record(f); err != nil {
				if s.config.StrictRules {
					return nil, err
				}
				s.logger.Error("Dropping finding with unknown rule code",
					zap.String("code", string(f.Code)),
					zap.String("file", f.File),
					zap.Error(err))
			}
		}
	}

	report := agg.Finalize(path)
	report.ScannedAt = start
	report.Duration = time.Since(start)

	s.logger.Info("Scan completed",
		zap.String("path", path),
		zap.Duration("duration", report.Duration),
		zap.Int("files_scanned", report.FilesScanned),
		zap.Int("findings", report.TotalFindings),
		zap.Int("cache_hits", cacheHits),
		zap.String("threat_level", string(report.ThreatLevel)))

	return report, nil
}

// analyse runs the detectors over files using a bounded worker pool.
// Results are returned in walk order regardless of completion order.
func (s *Scanner) analyse(ctx context.Context, files []*models.FileInfo) ([]*fileResult, int, error) {
	if len(files) == 0 {
		return nil, 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	maxSize, err := s.config.MaxSizeBytes()
	if err != nil {
		return nil, 0, err
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	cache := newAnalysisCache()
	jobs := make(chan int, workers*2)
	resultsChan := make(chan *fileResult, workers*2)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, files, maxSize, cache, jobs, resultsChan)
	}

	// Start results collector
	results := make([]*fileResult, len(files))
	var firstErr error
	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		processed := 0
		for res := range resultsChan {
			results[res.index] = res
			processed++
			if res.err != nil && firstErr == nil {
				firstErr = res.err
				cancel()
			}
			s.reportProgress("scanning", processed, len(files), res.path)
		}
	}()

	// Feed jobs
feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()
	close(resultsChan)
	collectWg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}
	if err := ctx.Err(); err != nil {
		// parent context ended before every file was analysed
		return nil, 0, fmt.Errorf("%w: %w", filesystem.ErrScanAborted, err)
	}

	return results, cache.Hits(), nil
}

// worker processes file indexes from the jobs channel
func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, files []*models.FileInfo, maxSize int64, cache *analysisCache, jobs <-chan int, resultsChan chan<- *fileResult) {
	defer wg.Done()

	for idx := range jobs {
		if ctx.Err() != nil {
			continue
		}
		res := s.scanFile(ctx, files[idx], maxSize, cache)
		res.index = idx
		resultsChan <- res
	}
}

// scanFile reads and analyses a single candidate file.
// A maxSize of zero disables the size limit.
func (s *Scanner) scanFile(ctx context.Context, fileInfo *models.FileInfo, maxSize int64, cache *analysisCache) *fileResult {
	result := &fileResult{path: fileInfo.Path}

	if maxSize > 0 && fileInfo.Size > maxSize {
		s.logger.Debug("File too large, skipping",
			zap.String("path", fileInfo.Path),
			zap.Int64("size", fileInfo.Size))
		result.findings = []*models.Finding{s.engineFinding(models.CodeFileTooLarge, fileInfo.Path,
			fmt.Sprintf("%d bytes", fileInfo.Size))}
		return result
	}

	file, err := filesystem.ReadFile(fileInfo)
	if err != nil {
		if s.config.IsolateFileErrors {
			s.logger.Warn("Unreadable file", zap.String("path", fileInfo.Path), zap.Error(err))
			result.findings = []*models.Finding{s.engineFinding(models.CodeUnreadableFile, fileInfo.Path, err.Error())}
			return result
		}
		result.err = fmt.Errorf("%w: %w", filesystem.ErrFatalIO, err)
		return result
	}

	key := cacheKey{hash: file.Hash, extension: file.Extension}
	findings, err := cache.do(key, file.Path, func() ([]*models.Finding, error) {
		return s.runDetectors(ctx, file)
	})
	if err != nil {
		result.err = err
		return result
	}

	result.findings = findings
	result.analysed = true
	return result
}

// runDetectors applies every enabled detector that supports the file.
// A failing or panicking detector is logged and skipped.
func (s *Scanner) runDetectors(ctx context.Context, file *models.File) ([]*models.Finding, error) {
	var findings []*models.Finding

	for _, detector := range s.detectors {
		if !detector.IsEnabled() || !detector.Accepts(file.Extension) {
			continue
		}

		found, err := s.safeDetect(ctx, detector, file)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, fmt.Errorf("%w: %w", filesystem.ErrScanAborted, err)
			}
			s.logger.Warn("Detector failed",
				zap.String("detector", detector.Name()),
				zap.String("file", file.Path),
				zap.Error(err))
			continue
		}

		findings = append(findings, found...)
	}

	return findings, nil
}

func (s *Scanner) safeDetect(ctx context.Context, d detectors.Detector, file *models.File) (findings []*models.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("detector %s panicked: %v", d.Name(), r)
		}
	}()
	return d.Detect(ctx, file)
}

// engineFinding builds a finding for one of the engine's reserved codes
func (s *Scanner) engineFinding(code models.RuleCode, path, detail string) *models.Finding {
	entry, ok := s.catalog.Lookup(code)
	if !ok {
		entry = rules.Entry{Code: code, Severity: models.SeverityWarning, Message: detail}
	}
	return &models.Finding{
		Severity: entry.Severity,
		Code:     code,
		File:     path,
		Message:  entry.Render(detail),
	}
}
