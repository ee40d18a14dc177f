package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"wallsieve/database"
	"wallsieve/imageprocessor"
	"wallsieve/logging"
	"wallsieve/types"
)

// RecordStore is the part of the record store a scan writes to
type RecordStore interface {
	KnownHashes() (map[string]struct{}, error)
	Insert(rec types.PictureRecord) error
}

// ImageDecoder turns a file into a decoded image
type ImageDecoder interface {
	CanLoadFile(path string) bool
	LoadImage(path string) (image.Image, error)
}

// Scanner runs scans against one store with one decoder
type Scanner struct {
	store   RecordStore
	decoder ImageDecoder
	now     func() time.Time
}

// NewScanner creates a scanner
func NewScanner(store RecordStore, decoder ImageDecoder) *Scanner {
	return &Scanner{
		store:   store,
		decoder: decoder,
		now:     time.Now,
	}
}

// coordinator is shared by all workers of one run
type coordinator struct {
	store   RecordStore
	decoder ImageDecoder
	options ScanOptions
	now     func() time.Time
	events  chan<- types.Event
	gate    *hashGate

	// writeMu serializes inserts; at most one worker writes at a time
	writeMu sync.Mutex

	scanned    atomic.Int64
	inserted   atomic.Int64
	known      atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// Run scans options.FolderPath and stores one record per unseen content hash.
//
// Events go to events (which may be nil) and the channel is never closed by Run.
// An invalid root or an unreadable store fails before any event is sent.
// Per-file problems are reported as message events and never stop the pool.
// Every queued file advances the progress count, so the last progress event
// equals the initialized total unless ctx is cancelled.
func (s *Scanner) Run(ctx context.Context, options ScanOptions, events chan<- types.Event) (*types.ScanSummary, error) {
	if err := options.Edge.Validate(); err != nil {
		return nil, err
	}
	if err := checkScanRoot(options.FolderPath); err != nil {
		return nil, err
	}

	known, err := s.store.KnownHashes()
	if err != nil {
		return nil, fmt.Errorf("cannot load known hashes: %w", err)
	}

	c := &coordinator{
		store:   s.store,
		decoder: s.decoder,
		options: options,
		now:     s.now,
		events:  events,
		gate:    newHashGate(known),
	}

	paths, skipped := c.enumerate()
	slog.Info("scan starting", "root", options.FolderPath, "files", len(paths), "known", len(known),
		"algorithm", options.Edge.Algorithm, "stride", options.Edge.SampleStride)

	c.emit(ctx, types.Initialized(len(paths)))
	for _, msg := range skipped {
		c.emit(ctx, types.Message(msg))
	}

	if len(paths) == 0 {
		return c.summary(0), ctx.Err()
	}

	// The queue is filled and closed up front, so a worker's receive never blocks
	queue := make(chan string, len(paths))
	for _, p := range paths {
		queue <- p
	}
	close(queue)

	workers := min(max(options.MaxWorkers, 1), len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			return c.work(gctx, queue)
		})
	}

	err = g.Wait()
	summary := c.summary(len(paths))
	slog.Info("scan finished", "total", summary.Total, "inserted", summary.Inserted, "known", summary.Known,
		"duplicates", summary.Duplicates, "failed", summary.Failed)

	return summary, err
}

// enumerate lists the files to queue, collecting messages for skipped paths
func (c *coordinator) enumerate() ([]string, []string) {
	var paths, skipped []string
	onSkip := func(path string, err error) {
		slog.Warn("skipping unreadable path", "path", path, "error", err)
		skipped = append(skipped, fmt.Sprintf("Could not read %s: %v", path, err))
	}

	for path := range EnumerateFiles(c.options.FolderPath, onSkip) {
		if c.options.ImagesOnly && !c.decoder.CanLoadFile(path) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, skipped
}

// work drains the queue until it is empty or ctx is done
func (c *coordinator) work(ctx context.Context, queue <-chan string) error {
	for path := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := c.processPath(path)
		if err := c.advance(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// processPath hashes, deduplicates, analyzes and stores one file
func (c *coordinator) processPath(path string) ProcessImageResult {
	result := ProcessImageResult{Path: path, Outcome: outcomeFailed}

	hash, err := imageprocessor.ComputeContentHash(path)
	if err != nil {
		result.Error = err
		return result
	}

	if c.gate.isKnown(hash) {
		result.Outcome = outcomeKnown
		return result
	}
	if first, other := c.gate.claim(hash, path); !first {
		slog.Debug("same content already claimed in this run", "path", path, "first", other)
		result.Outcome = outcomeDuplicate
		return result
	}

	img, err := c.decoder.LoadImage(path)
	if err != nil {
		result.Error = err
		return result
	}

	deviation, err := imageprocessor.AnalyzeEdges(img, c.options.Edge)
	if err != nil {
		result.Error = fmt.Errorf("cannot analyze %s: %w", path, err)
		return result
	}

	now := c.now()
	bounds := img.Bounds()
	record := types.PictureRecord{
		ContentHash:         hash,
		Path:                path,
		Width:               bounds.Dx(),
		Height:              bounds.Dy(),
		TopCropFraction:     c.options.Edge.TopCrop,
		BottomCropFraction:  c.options.Edge.BottomCrop,
		LeftDeviation:       deviation.Left,
		RightDeviation:      deviation.Right,
		ComparisonAlgorithm: c.options.Edge.Algorithm.String(),
		SampleStride:        c.options.Edge.SampleStride,
		CreatedDate:         now.Format(time.DateOnly),
		CreatedTime:         now.Format(time.TimeOnly),
	}

	c.writeMu.Lock()
	err = c.store.Insert(record)
	c.writeMu.Unlock()

	if err != nil {
		if errors.Is(err, database.ErrDuplicateHash) {
			result.Outcome = outcomeDuplicate
		}
		result.Error = err
		return result
	}

	result.Outcome = outcomeInserted
	return result
}

// advance counts one processed path, reports problems and emits progress
func (c *coordinator) advance(ctx context.Context, result ProcessImageResult) error {
	var abort error

	switch result.Outcome {
	case outcomeInserted:
		c.inserted.Add(1)
		if c.options.DebugMode {
			logging.LogImageProcessed(result.Path, nil)
		}
	case outcomeKnown:
		c.known.Add(1)
		slog.Debug("skipping known content", "path", result.Path)
	case outcomeDuplicate:
		c.duplicates.Add(1)
		if result.Error != nil {
			// The store already held a hash the pre-scan snapshot did not
			slog.Error("duplicate insert rejected by store", "path", result.Path, "error", result.Error)
			c.emit(ctx, types.Message(fmt.Sprintf("Internal error: %v", result.Error)))
			if c.options.Strict {
				abort = result.Error
			}
		}
	case outcomeFailed:
		c.failed.Add(1)
		logging.LogImageProcessed(result.Path, result.Error)
		c.emit(ctx, types.Message(fmt.Sprintf("Could not process %s: %v", result.Path, result.Error)))
	}

	n := c.scanned.Add(1)
	c.emit(ctx, types.Progress(int(n)))
	return abort
}

// emit sends ev unless nobody listens or ctx is done
func (c *coordinator) emit(ctx context.Context, ev types.Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *coordinator) summary(total int) *types.ScanSummary {
	return &types.ScanSummary{
		Total:      total,
		Inserted:   int(c.inserted.Load()),
		Known:      int(c.known.Load()),
		Duplicates: int(c.duplicates.Load()),
		Failed:     int(c.failed.Load()),
	}
}
