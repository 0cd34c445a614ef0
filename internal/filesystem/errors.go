package filesystem

import "errors"

var (
	// ErrFatalIO is returned when the target tree cannot be enumerated or a
	// candidate file cannot be read. No report is produced.
	ErrFatalIO = errors.New("fatal I/O error")

	// ErrScanAborted is returned when the scan context ends before the walk completes
	ErrScanAborted = errors.New("scan aborted")
)
