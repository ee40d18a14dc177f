package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// ErrScanRoot is returned when the scan root is missing or not a directory
var ErrScanRoot = errors.New("invalid scan root")

// checkScanRoot verifies the folder exists and is a directory
func checkScanRoot(folderPath string) error {
	info, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScanRoot, folderPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrScanRoot, folderPath)
	}
	return nil
}

// EnumerateFiles lazily yields every regular file under root.
// Unreadable directories and dangling links are passed to onSkip and skipped.
// A symlinked root is resolved once; symlinked directories below it are not
// followed, so link cycles cannot occur.
func EnumerateFiles(root string, onSkip func(path string, err error)) iter.Seq[string] {
	if onSkip == nil {
		onSkip = func(string, error) {}
	}

	return func(yield func(string) bool) {
		walkRoot, err := resolveRoot(root)
		if err != nil {
			onSkip(root, err)
			return
		}

		stop := errors.New("stop")
		err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				onSkip(path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			switch {
			case d.Type().IsRegular():
			case d.Type()&fs.ModeSymlink != 0:
				// Links to regular files count, links to directories are not followed
				info, err := os.Stat(path)
				if err != nil {
					onSkip(path, err)
					return nil
				}
				if !info.Mode().IsRegular() {
					return nil
				}
			default:
				return nil
			}

			if !yield(path) {
				return stop
			}
			return nil
		})
		if err != nil && !errors.Is(err, stop) {
			onSkip(walkRoot, err)
		}
	}
}

// resolveRoot follows root when it is itself a symlink, since WalkDir does not
func resolveRoot(root string) (string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return "", err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return root, nil
	}
	return filepath.EvalSymlinks(root)
}
