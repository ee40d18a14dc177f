package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wallsieve/types"
)

// CollisionPolicy decides what happens when the destination file already exists
type CollisionPolicy string

const (
	// CollisionOverwrite replaces the existing file
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionRename writes name_copyN.ext next to it
	CollisionRename CollisionPolicy = "rename"
)

// maxCopies caps the name_copyN variants CollisionRename creates
const maxCopies = 3

var errTooManyCopies = errors.New("too many copies in destination")

// Options configures a select run
type Options struct {
	Criteria
	Destination string
	Collision   CollisionPolicy
	DryRun      bool
}

// RecordSource provides the stored records
type RecordSource interface {
	Records() ([]types.PictureRecord, error)
}

// Selector copies qualifying pictures out of a record store
type Selector struct {
	source RecordSource
}

// NewSelector creates a selector reading from source
func NewSelector(source RecordSource) *Selector {
	return &Selector{source: source}
}

// Run checks every record and copies the accepted ones whose file still exists.
// Events go to events (which may be nil); the channel is never closed by Run.
// Missing or uncopyable files are reported as messages and do not stop the run.
func (s *Selector) Run(ctx context.Context, opts Options, events chan<- types.Event) (*types.SelectionSummary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Destination == "" {
		return nil, fmt.Errorf("%w: destination folder is required", ErrInvalidCriteria)
	}
	switch opts.Collision {
	case "":
		opts.Collision = CollisionOverwrite
	case CollisionOverwrite, CollisionRename:
	default:
		return nil, fmt.Errorf("%w: unknown collision policy %q", ErrInvalidCriteria, opts.Collision)
	}

	records, err := s.source.Records()
	if err != nil {
		return nil, fmt.Errorf("cannot read records: %w", err)
	}

	if !opts.DryRun {
		if err := os.MkdirAll(opts.Destination, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create destination %s: %w", opts.Destination, err)
		}
	}

	lo, hi := opts.RatioWindow()
	slog.Info("select starting", "records", len(records), "ratio_min", lo, "ratio_max", hi,
		"max_deviation", opts.MaxDeviation, "destination", opts.Destination, "dry_run", opts.DryRun)

	emit(ctx, events, types.Initialized(len(records)))
	if opts.Algorithm == "" {
		if algs := distinctAlgorithms(records); len(algs) > 1 {
			emit(ctx, events, types.Message(fmt.Sprintf(
				"Store mixes deviations from %s; they are not comparable", strings.Join(algs, ", "))))
		}
	}

	summary := &types.SelectionSummary{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if opts.Accepts(rec) {
			summary.Selected++
			s.deliver(ctx, rec, opts, summary, events)
		}

		summary.Checked++
		emit(ctx, events, types.Progress(summary.Checked))
	}

	slog.Info("select finished", "checked", summary.Checked, "selected", summary.Selected,
		"copied", summary.Copied, "missing", summary.Missing, "skipped", summary.Skipped)
	return summary, nil
}

// deliver copies one accepted record, reporting problems as messages
func (s *Selector) deliver(ctx context.Context, rec types.PictureRecord, opts Options, summary *types.SelectionSummary, events chan<- types.Event) {
	if _, err := os.Stat(rec.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			summary.Missing++
			slog.Warn("selected file no longer exists", "path", rec.Path)
			emit(ctx, events, types.Message(fmt.Sprintf("Could not find file %s", rec.Path)))
			return
		}
		summary.Skipped++
		emit(ctx, events, types.Message(fmt.Sprintf("Could not access %s: %v", rec.Path, err)))
		return
	}

	if opts.DryRun {
		slog.Info("would copy", "path", rec.Path)
		return
	}

	dst, err := copyToFolder(rec.Path, opts.Destination, opts.Collision)
	if err != nil {
		summary.Skipped++
		slog.Warn("copy failed", "path", rec.Path, "error", err)
		emit(ctx, events, types.Message(fmt.Sprintf("Could not copy %s: %v", rec.Path, err)))
		return
	}

	summary.Copied++
	slog.Debug("copied", "from", rec.Path, "to", dst)
}

// copyToFolder copies src into folder keeping its base name and returns the written path
func copyToFolder(src, folder string, policy CollisionPolicy) (string, error) {
	dst := filepath.Join(folder, filepath.Base(src))

	if same, err := samePath(src, dst); err == nil && same {
		return dst, nil
	}

	if policy == CollisionRename {
		free, err := freeName(dst)
		if err != nil {
			return "", err
		}
		dst = free
	}

	return dst, copyFile(src, dst)
}

// freeName returns dst if unused, otherwise the first unused name_copyN.ext
func freeName(dst string) (string, error) {
	if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
		return dst, nil
	}

	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(dst, ext)
	for i := 1; i <= maxCopies; i++ {
		candidate := fmt.Sprintf("%s_copy%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errTooManyCopies, dst)
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func distinctAlgorithms(records []types.PictureRecord) []string {
	seen := make(map[string]bool)
	var algs []string
	for _, rec := range records {
		if !seen[rec.ComparisonAlgorithm] {
			seen[rec.ComparisonAlgorithm] = true
			algs = append(algs, rec.ComparisonAlgorithm)
		}
	}
	return algs
}

func emit(ctx context.Context, events chan<- types.Event, ev types.Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
