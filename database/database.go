package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"wallsieve/types"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	// DriverCGO is github.com/mattn/go-sqlite3
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite
	DriverPure = "sqlite"
)

// ErrDuplicateHash is returned by Insert when the content hash is already stored.
// Deduplication happens before insert, so seeing it means that check was bypassed.
var ErrDuplicateHash = errors.New("content hash already recorded")

const createTableSQL = `
CREATE TABLE IF NOT EXISTS pictures (
	content_hash TEXT PRIMARY KEY,
	path TEXT,
	width INTEGER,
	height INTEGER,
	top_crop_fraction REAL,
	bottom_crop_fraction REAL,
	left_deviation REAL,
	right_deviation REAL,
	comparison_algorithm TEXT,
	sample_stride INTEGER,
	created_date TEXT,
	created_time TEXT
);`

const recordColumns = `content_hash, path, width, height, top_crop_fraction, bottom_crop_fraction,
	left_deviation, right_deviation, comparison_algorithm, sample_stride, created_date, created_time`

// Store is the durable table of picture records. It never updates or deletes.
type Store struct {
	db     *sql.DB
	driver string
}

// OpenDatabase opens the store without touching the schema
func OpenDatabase(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %s: %w", dsn, err)
	}

	// One connection: writes are serialized anyway and ":memory:" stays a single database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to database %s: %w", dsn, err)
	}

	return &Store{db: db, driver: driver}, nil
}

// InitDatabase opens the store and makes sure the pictures table exists
func InitDatabase(driver, dsn string) (*Store, error) {
	store, err := OpenDatabase(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// EnsureSchema creates the pictures table if it is absent
func (s *Store) EnsureSchema() error {
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("cannot create pictures table: %w", err)
	}
	slog.Debug("database schema ready", "driver", s.driver)
	return nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// KnownHashes returns every content hash already recorded
func (s *Store) KnownHashes() (map[string]struct{}, error) {
	rows, err := s.db.Query("SELECT content_hash FROM pictures")
	if err != nil {
		return nil, fmt.Errorf("cannot query known hashes: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("cannot scan known hash: %w", err)
		}
		known[hash] = struct{}{}
	}

	return known, rows.Err()
}

// Insert appends one record. A hash that is already stored leaves the
// table untouched and returns ErrDuplicateHash.
func (s *Store) Insert(rec types.PictureRecord) error {
	res, err := s.db.Exec(`
		INSERT INTO pictures (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		rec.ContentHash,
		rec.Path,
		rec.Width,
		rec.Height,
		rec.TopCropFraction,
		rec.BottomCropFraction,
		rec.LeftDeviation,
		rec.RightDeviation,
		rec.ComparisonAlgorithm,
		rec.SampleStride,
		rec.CreatedDate,
		rec.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("cannot insert record for %s: %w", rec.Path, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cannot confirm insert for %s: %w", rec.Path, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s (%s)", ErrDuplicateHash, rec.ContentHash, rec.Path)
	}

	return nil
}

// CountRecords returns the number of stored records
func (s *Store) CountRecords() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM pictures").Scan(&count); err != nil {
		return 0, fmt.Errorf("cannot count records: %w", err)
	}
	return count, nil
}

// Records returns every stored record ordered by path
func (s *Store) Records() ([]types.PictureRecord, error) {
	rows, err := s.db.Query("SELECT " + recordColumns + " FROM pictures ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("cannot query records: %w", err)
	}
	defer rows.Close()

	var records []types.PictureRecord
	for rows.Next() {
		var rec types.PictureRecord
		err := rows.Scan(
			&rec.ContentHash,
			&rec.Path,
			&rec.Width,
			&rec.Height,
			&rec.TopCropFraction,
			&rec.BottomCropFraction,
			&rec.LeftDeviation,
			&rec.RightDeviation,
			&rec.ComparisonAlgorithm,
			&rec.SampleStride,
			&rec.CreatedDate,
			&rec.CreatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("cannot scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ScanStats contains statistics about the stored records
type ScanStats struct {
	TotalImages int
	ByAlgorithm map[string]int
}

// GetScanStats counts the stored records, in total and per comparison algorithm
func (s *Store) GetScanStats() (*ScanStats, error) {
	stats := &ScanStats{ByAlgorithm: make(map[string]int)}

	total, err := s.CountRecords()
	if err != nil {
		return nil, err
	}
	stats.TotalImages = total

	rows, err := s.db.Query("SELECT comparison_algorithm, COUNT(*) FROM pictures GROUP BY comparison_algorithm")
	if err != nil {
		return nil, fmt.Errorf("failed to count records per algorithm: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var alg string
		var count int
		if err := rows.Scan(&alg, &count); err != nil {
			return nil, fmt.Errorf("failed to scan algorithm count: %w", err)
		}
		stats.ByAlgorithm[alg] = count
	}

	return stats, rows.Err()
}
