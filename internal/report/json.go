package report

import (
	"encoding/json"
	"io"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// renderJSON writes the report as indented JSON
func renderJSON(w io.Writer, report *models.ScanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}
