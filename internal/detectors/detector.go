// Package detectors defines the analysis layers the scan engine runs over each
// candidate file. Every layer reports findings under codes from the rule catalog.
package detectors

import (
	"context"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// Wildcard in an extension list makes a layer accept every candidate file
const Wildcard = "*"

// Detector is one analysis layer of the engine
type Detector interface {
	// Name is the identifier used by the disable list
	Name() string

	// Layer names the catalog layer whose codes this detector emits
	Layer() rules.Layer

	// Priority orders detectors, higher runs first
	Priority() int

	// SupportedExtensions lists the lower-case extensions the layer handles
	SupportedExtensions() []string

	// Accepts reports whether the layer runs on files with the extension
	Accepts(extension string) bool

	// Detect analyses a file and returns findings.
	// Detectors must not retain the file after returning.
	Detect(ctx context.Context, file *models.File) ([]*models.Finding, error)

	IsEnabled() bool

	// SetEnabled switches the layer on or off.
	// Only call before the detector is shared between scans.
	SetEnabled(enabled bool)
}

// Base carries the bookkeeping shared by every layer
type Base struct {
	name       string
	layer      rules.Layer
	priority   int
	extensions []string
	accepted   map[string]struct{}
	enabled    bool
}

// NewBase creates the shared part of a detector. An empty extension list, or
// one containing Wildcard, accepts every file.
func NewBase(name string, layer rules.Layer, priority int, extensions []string) *Base {
	b := &Base{
		name:       name,
		layer:      layer,
		priority:   priority,
		extensions: extensions,
		enabled:    true,
	}
	for _, ext := range extensions {
		if ext == Wildcard {
			return b
		}
	}
	if len(extensions) > 0 {
		b.accepted = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			b.accepted[ext] = struct{}{}
		}
	}
	return b
}

func (b *Base) Name() string { return b.name }

func (b *Base) Layer() rules.Layer { return b.layer }

func (b *Base) Priority() int { return b.priority }

func (b *Base) SupportedExtensions() []string { return b.extensions }

func (b *Base) IsEnabled() bool { return b.enabled }

func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }

// Accepts reports whether the layer handles the extension
func (b *Base) Accepts(extension string) bool {
	if b.accepted == nil {
		return true
	}
	_, ok := b.accepted[extension]
	return ok
}
