// Package server exposes the scanner over HTTP: skill uploads are stored under a
// per-request directory, unpacked when they are archives, scanned and removed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/filesystem"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/report"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "skill-scanner"

// SkillScanner runs one scan over a path on disk
type SkillScanner interface {
	ScanSkill(ctx context.Context, path string) (*models.ScanReport, error)
}

// QuotaGate decides whether a request may run a scan.
// A non-nil error rejects the request with 429 and the error text.
type QuotaGate interface {
	Allow(r *http.Request) error
}

// AllowAll is the default gate
type AllowAll struct{}

// Allow never rejects
func (AllowAll) Allow(*http.Request) error { return nil }

// Server serves the scan API
type Server struct {
	cfg     Config
	scanner SkillScanner
	quota   QuotaGate
	logger  *zap.Logger
	started time.Time

	scans     atomic.Int64
	malicious atomic.Int64
	safe      atomic.Int64
	scanNanos atomic.Int64
}

// New creates a server. A nil gate allows every request.
func New(cfg Config, scanner SkillScanner, gate QuotaGate, logger *zap.Logger) *Server {
	cfg.applyDefaults()
	if gate == nil {
		gate = AllowAll{}
	}
	return &Server{
		cfg:     cfg,
		scanner: scanner,
		quota:   gate,
		logger:  logger,
		started: time.Now(),
	}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type findingView struct {
	Severity models.Severity `json:"severity"`
	Code     models.RuleCode `json:"code"`
	Message  string          `json:"message"`
	File     string          `json:"file"`
}

type reportView struct {
	SafetyScore     int                `json:"safetyScore"`
	ThreatLevel     models.ThreatLevel `json:"threatLevel"`
	Rating          string             `json:"rating"`
	CriticalIssues  int                `json:"criticalIssues"`
	WarningIssues   int                `json:"warningIssues"`
	TotalFindings   int                `json:"totalFindings"`
	MalwareDetected bool               `json:"malwareDetected"`
	Summary         string             `json:"summary"`
	Findings        []findingView      `json:"findings"`
}

type scanResponse struct {
	Success bool        `json:"success"`
	Report  *reportView `json:"report,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func newReportView(r *models.ScanReport) *reportView {
	v := &reportView{
		SafetyScore:     r.SafetyScore,
		ThreatLevel:     r.ThreatLevel,
		Rating:          ratingLabel(r),
		CriticalIssues:  r.CriticalIssues,
		WarningIssues:   r.WarningIssues,
		TotalFindings:   r.TotalFindings,
		MalwareDetected: r.MalwareDetected,
		Summary:         r.Summary,
		Findings:        make([]findingView, 0, len(r.Findings)),
	}
	for _, f := range r.Findings {
		v.Findings = append(v.Findings, findingView{
			Severity: f.Severity,
			Code:     f.Code,
			Message:  f.Message,
			File:     filepath.Base(f.File),
		})
	}
	return v
}

// ratingLabel prefixes the rating with its icon, as the web client shows it
func ratingLabel(r *models.ScanReport) string {
	if r.Icon == "" {
		return r.Rating
	}
	return r.Icon + " " + r.Rating
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, scanResponse{Error: "method not allowed"})
		return
	}

	if err := s.quota.Allow(r); err != nil {
		writeJSON(w, http.StatusTooManyRequests, scanResponse{Error: err.Error()})
		return
	}

	// multipart framing needs a little room beyond the file itself
	limit := s.cfg.MaxUploadBytes + 64<<10
	if r.ContentLength > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, scanResponse{Error: "upload exceeds size limit"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, scanResponse{Error: "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, scanResponse{Error: "No file uploaded"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("skill")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, scanResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, scanResponse{Error: "upload exceeds size limit"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, scanResponse{Error: "could not read upload"})
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("upload", header.Filename))

	workDir := filepath.Join(s.cfg.UploadDir, requestID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		logger.Error("Create work dir", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, scanResponse{Error: "Scan failed: " + err.Error()})
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("Cleanup failed", zap.Error(err))
		}
	}()

	target, err := stageUpload(workDir, header.Filename, data)
	if err != nil {
		logger.Info("Rejected upload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, scanResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	rep, err := s.scanner.ScanSkill(r.Context(), target)
	if err != nil {
		logger.Error("Scan error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, scanResponse{Error: "Scan failed: " + err.Error()})
		return
	}
	s.record(rep, time.Since(start))

	logger.Info("Scan served",
		zap.Int("score", rep.SafetyScore),
		zap.String("threat_level", string(rep.ThreatLevel)))

	writeJSON(w, http.StatusOK, scanResponse{Success: true, Report: newReportView(rep)})
}

// stageUpload writes the upload below dir and returns the path to scan.
// Archives are unpacked into a skill/ subdirectory.
func stageUpload(dir, filename string, data []byte) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}

	if filesystem.IsArchive(name) {
		target := filepath.Join(dir, "skill")
		if _, err := filesystem.ExtractArchive(name, data, target); err != nil {
			return "", fmt.Errorf("invalid archive: %w", err)
		}
		// archives with no entries still get a directory to scan
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", err
		}
		return target, nil
	}

	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

func (s *Server) record(rep *models.ScanReport, elapsed time.Duration) {
	s.scans.Add(1)
	s.scanNanos.Add(int64(elapsed))
	switch {
	case rep.MalwareDetected || rep.ThreatLevel.AtLeast(models.ThreatHigh):
		s.malicious.Add(1)
	case rep.ThreatLevel == models.ThreatSafe:
		s.safe.Add(1)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": s.cfg.Version,
		"uptime":  time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	scans := s.scans.Load()
	avg := "n/a"
	if scans > 0 {
		avg = report.FormatDuration(time.Duration(s.scanNanos.Load() / scans))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scansPerformed":    scans,
		"maliciousDetected": s.malicious.Load(),
		"safeSkills":        s.safe.Load(),
		"avgScanTime":       avg,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
