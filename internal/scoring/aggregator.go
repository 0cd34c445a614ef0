package scoring

import (
	"errors"
	"fmt"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// ErrUnknownRule is returned when a finding carries a code absent from the catalog
var ErrUnknownRule = errors.New("unknown rule code")

// Aggregator accumulates findings for a single scan.
// It is not safe for concurrent use; the scanner records from one goroutine.
type Aggregator struct {
	catalog  *rules.Catalog
	findings []*models.Finding
	counts   Counts
	score    int
	malware  bool
	files    int
}

// NewAggregator creates an empty accumulator with a full score
func NewAggregator(catalog *rules.Catalog) *Aggregator {
	return &Aggregator{
		catalog: catalog,
		score:   MaxScore,
	}
}

// Record adds one finding. Findings whose code is not in the catalog are
// rejected with ErrUnknownRule and leave the aggregator unchanged.
func (a *Aggregator) Record(f *models.Finding) error {
	if f == nil {
		return nil
	}
	if !a.catalog.Has(f.Code) {
		return fmt.Errorf("%w: %s in %s", ErrUnknownRule, f.Code, f.File)
	}

	a.findings = append(a.findings, f)

	switch f.Severity {
	case models.SeverityCritical:
		a.counts.Critical++
	case models.SeverityWarning:
		a.counts.Warning++
	default:
		a.counts.Info++
	}

	a.score -= Deduction(f.Severity)
	if a.score < MinScore {
		a.score = MinScore
	}

	if f.Code == models.CodeMalwareSignature {
		a.malware = true
	}

	return nil
}

// FileScanned counts one analysed candidate file
func (a *Aggregator) FileScanned() {
	a.files++
}

// Score returns the running score
func (a *Aggregator) Score() int {
	return a.score
}

// Counts returns the running severity tally
func (a *Aggregator) Counts() Counts {
	return a.counts
}

// MalwareDetected reports whether a malware signature has been recorded
func (a *Aggregator) MalwareDetected() bool {
	return a.malware
}

// FilesScanned returns the number of analysed files
func (a *Aggregator) FilesScanned() int {
	return a.files
}

// Findings returns the recorded findings in recording order
func (a *Aggregator) Findings() []*models.Finding {
	out := make([]*models.Finding, len(a.findings))
	copy(out, a.findings)
	return out
}
