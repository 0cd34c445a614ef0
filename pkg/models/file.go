package models

import (
	"time"
)

// File represents a file to be scanned
type File struct {
	Path         string    // Full file path
	RelativePath string    // Path relative to scan root
	Name         string    // File name
	Extension    string    // File extension (without dot, lower case)
	Size         int64     // File size in bytes
	ModTime      time.Time // Modification time
	Content      []byte    // File content
	Hash         uint64    // xxhash of content
}

// FileInfo contains basic file information without content
type FileInfo struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
}

// Candidate extension classes. Files outside these are never opened.
var (
	ScriptExtensions        = []string{"js", "jsx", "ts", "tsx", "mjs", "cjs"}
	ShellExtensions         = []string{"sh", "bash"}
	InterpretedExtensions   = []string{"py"}
	DocumentationExtensions = []string{"md"}
)

// CandidateExtensions returns every extension the scanner analyses
func CandidateExtensions() []string {
	var all []string
	all = append(all, ScriptExtensions...)
	all = append(all, ShellExtensions...)
	all = append(all, InterpretedExtensions...)
	all = append(all, DocumentationExtensions...)
	return all
}

// IsCandidate reports whether a lower-case extension (without dot) is analysed
func IsCandidate(ext string) bool {
	for _, e := range CandidateExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}
