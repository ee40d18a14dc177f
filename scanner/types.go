package scanner

import (
	"wallsieve/imageprocessor"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	FolderPath string
	Edge       imageprocessor.EdgeOptions
	// MaxWorkers is the configured thread count; the pool never exceeds the queue size
	MaxWorkers int
	// ImagesOnly queues only files whose extension a registered loader claims
	ImagesOnly bool
	// Strict aborts the run on a duplicate insert instead of reporting it
	Strict    bool
	DebugMode bool
}

// outcome classifies what happened to one queued path
type outcome int

const (
	outcomeInserted outcome = iota
	outcomeKnown
	outcomeDuplicate
	outcomeFailed
)

// ProcessImageResult holds the result of processing one path
type ProcessImageResult struct {
	Path    string
	Outcome outcome
	Error   error
}
