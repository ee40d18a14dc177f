package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"wallsieve/colorutil"
	"wallsieve/config"
	"wallsieve/database"
	"wallsieve/imageprocessor"
	"wallsieve/logging"
	"wallsieve/progress"
	"wallsieve/scanner"
	"wallsieve/selector"
	"wallsieve/signalhandler"
	"wallsieve/types"
	"wallsieve/utils"
)

// app carries the loaded configuration and the persistent flags
type app struct {
	cfg        *config.Config
	configPath string
	storeName  string
	storeDir   string
	driver     string
	logPath    string
	debugMode  bool
	quiet      bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and closes the log file whether or not the command failed
func run(args []string) int {
	defer logging.CloseLogger()

	root := newRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "wallsieve",
		Short:        "Score image edges for uniformity and pick wallpapers by ratio or border",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $CONFIG_PATH or ./config.yaml)")
	pf.StringVar(&a.storeName, "db", "", "store name; the database file is <name>.db")
	pf.StringVar(&a.storeDir, "db-dir", "", "directory holding the database file")
	pf.StringVar(&a.driver, "driver", "", "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	pf.BoolVar(&a.debugMode, "debug", false, "enable debug logging")
	pf.StringVar(&a.logPath, "logfile", "", "write logs to this file instead of stderr")
	pf.BoolVar(&a.quiet, "quiet", false, "hide the progress bar and messages")

	root.AddCommand(newScanCommand(a), newSelectCommand(a), newStatsCommand(a))
	return root
}

// setup loads the config, applies persistent flag overrides and starts logging
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(config.ResolvePath(a.configPath))
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("db") {
		cfg.Database.StoreName = a.storeName
	}
	if f.Changed("db-dir") {
		cfg.Database.Dir = a.storeDir
	}
	if f.Changed("driver") {
		cfg.Database.Driver = a.driver
	}
	if f.Changed("debug") {
		cfg.Log.Debug = a.debugMode
	}
	if f.Changed("logfile") {
		cfg.Log.File = a.logPath
	}

	if err := logging.SetupLogger(cfg.Log.File, cfg.Log.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
	} else if cfg.Log.Debug && cfg.Log.File != "" {
		fmt.Printf("Debug mode enabled. Logging to: %s\n", cfg.Log.File)
	}

	a.cfg = cfg
	return nil
}

func newScanCommand(a *app) *cobra.Command {
	var (
		folder     string
		threads    int
		algorithm  string
		top        float64
		bottom     float64
		stride     int
		imagesOnly bool
		strict     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Measure edge uniformity of every file under a folder and store the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := &a.cfg.Scan
			f := cmd.Flags()
			if len(args) == 1 {
				sc.Folder = args[0]
			}
			if f.Changed("folder") {
				sc.Folder = folder
			}
			if f.Changed("threads") {
				sc.Threads = threads
			}
			if f.Changed("algorithm") {
				sc.Algorithm = algorithm
			}
			if f.Changed("top") {
				sc.TopCrop = top
			}
			if f.Changed("bottom") {
				sc.BottomCrop = bottom
			}
			if f.Changed("stride") {
				sc.SampleStride = stride
			}
			if f.Changed("images-only") {
				sc.ImagesOnly = imagesOnly
			}
			if f.Changed("strict") {
				sc.Strict = strict
			}
			if f.Changed("timeout") {
				sc.Timeout = timeout
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.handleScanCommand(cmd.Context())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&folder, "folder", "", "folder to scan (alternative to the argument)")
	fl.IntVar(&threads, "threads", 0, "number of scan workers")
	fl.StringVar(&algorithm, "algorithm", "", "delta-E formula: 0|cie76, 1|cmc, 2|cie94, 3|cie2000")
	fl.Float64Var(&top, "top", 0, "fraction of rows ignored at the top")
	fl.Float64Var(&bottom, "bottom", 0, "fraction of rows ignored at the bottom")
	fl.IntVar(&stride, "stride", 0, "sample every n-th row of each edge")
	fl.BoolVar(&imagesOnly, "images-only", false, "queue only files with a known image extension")
	fl.BoolVar(&strict, "strict", false, "abort when the store rejects a duplicate hash")
	fl.DurationVar(&timeout, "timeout", 0, "stop the scan after this long")
	return cmd
}

func (a *app) handleScanCommand(ctx context.Context) error {
	sc := a.cfg.Scan
	if sc.Folder == "" {
		return errors.New("missing folder path (use scan FOLDER or --folder=PATH)")
	}
	alg, err := colorutil.ParseAlgorithm(sc.Algorithm)
	if err != nil {
		return err
	}

	ctx, cancel := signalhandler.SetupHandler(ctx)
	defer cancel()
	if sc.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, sc.Timeout)
		defer cancelTimeout()
	}

	store, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := imageprocessor.NewImageLoaderRegistry()
	defer registry.Close()

	scanOptions := scanner.ScanOptions{
		FolderPath: sc.Folder,
		Edge: imageprocessor.EdgeOptions{
			TopCrop:      sc.TopCrop,
			BottomCrop:   sc.BottomCrop,
			SampleStride: sc.SampleStride,
			Algorithm:    alg,
		},
		MaxWorkers: sc.Threads,
		ImagesOnly: sc.ImagesOnly,
		Strict:     sc.Strict,
		DebugMode:  a.cfg.Log.Debug,
	}

	fmt.Printf("Scanning %s with %s, stride %d, %d workers\n", sc.Folder, alg, sc.SampleStride, sc.Threads)
	startTime := time.Now()

	tracker := progress.NewTracker("Scanning", os.Stderr, a.quiet)
	events := make(chan types.Event, 64)
	tracker.Start(events)

	summary, err := scanner.NewScanner(store, registry).Run(ctx, scanOptions, events)
	close(events)
	tracker.Wait()

	if summary != nil {
		fmt.Printf("\nScanned %d files in %v\n", summary.Total, time.Since(startTime).Round(time.Millisecond))
		fmt.Printf("- New records: %d\n", summary.Inserted)
		fmt.Printf("- Already stored: %d\n", summary.Known)
		fmt.Printf("- Duplicate content: %d\n", summary.Duplicates)
		fmt.Printf("- Failed: %d\n", summary.Failed)
		fmt.Printf("Database: %s\n", a.cfg.DatabasePath())
	}
	if err != nil {
		return fmt.Errorf("error scanning folder: %w", err)
	}
	return nil
}

func newSelectCommand(a *app) *cobra.Command {
	var (
		dest           string
		ratio          string
		ratioDeviation string
		minWidth       int
		minHeight      int
		maxDeviation   float64
		algorithm      string
		collision      string
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "select [destination]",
		Short: "Copy stored pictures with uniform edges or a matching ratio into a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := &a.cfg.Select
			f := cmd.Flags()
			if len(args) == 1 {
				sc.Destination = args[0]
			}
			if f.Changed("dest") {
				sc.Destination = dest
			}
			if f.Changed("ratio") {
				sc.Ratio = ratio
			}
			if f.Changed("ratio-deviation") {
				sc.RatioDeviation = ratioDeviation
			}
			if f.Changed("min-width") {
				sc.MinWidth = minWidth
			}
			if f.Changed("min-height") {
				sc.MinHeight = minHeight
			}
			if f.Changed("max-deviation") {
				sc.MaxDeviation = maxDeviation
			}
			if f.Changed("algorithm") {
				sc.Algorithm = algorithm
			}
			if f.Changed("collision") {
				sc.Collision = collision
			}
			if f.Changed("dry-run") {
				sc.DryRun = dryRun
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.handleSelectCommand(cmd.Context())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&dest, "dest", "", "destination folder (alternative to the argument)")
	fl.StringVar(&ratio, "ratio", "", "target aspect ratio, e.g. 16x9")
	fl.StringVar(&ratioDeviation, "ratio-deviation", "", "allowed ratio deviation, e.g. 10%")
	fl.IntVar(&minWidth, "min-width", 0, "minimum width in pixels")
	fl.IntVar(&minHeight, "min-height", 0, "minimum height in pixels")
	fl.Float64Var(&maxDeviation, "max-deviation", 0, "maximum edge deviation")
	fl.StringVar(&algorithm, "algorithm", "", "only trust deviations scored with this algorithm")
	fl.StringVar(&collision, "collision", "", "existing destination file: overwrite or rename")
	fl.BoolVar(&dryRun, "dry-run", false, "report what would be copied without copying")
	return cmd
}

func (a *app) handleSelectCommand(ctx context.Context) error {
	sc := a.cfg.Select
	if sc.Destination == "" {
		return errors.New("missing destination folder (use select DEST or --dest=PATH)")
	}

	ratio, err := utils.ParseRatio(sc.Ratio)
	if err != nil {
		return err
	}
	deviation, err := utils.ParsePercent(sc.RatioDeviation)
	if err != nil {
		return err
	}
	var algorithm string
	if sc.Algorithm != "" {
		alg, err := colorutil.ParseAlgorithm(sc.Algorithm)
		if err != nil {
			return err
		}
		algorithm = alg.String()
	}

	if err := requireExistingStore(a.cfg); err != nil {
		return err
	}

	ctx, cancel := signalhandler.SetupHandler(ctx)
	defer cancel()

	store, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := selector.Options{
		Criteria: selector.Criteria{
			TargetRatio:    ratio,
			RatioDeviation: deviation,
			MinWidth:       sc.MinWidth,
			MinHeight:      sc.MinHeight,
			MaxDeviation:   sc.MaxDeviation,
			Algorithm:      algorithm,
		},
		Destination: sc.Destination,
		Collision:   selector.CollisionPolicy(sc.Collision),
		DryRun:      sc.DryRun,
	}

	tracker := progress.NewTracker("Selecting", os.Stderr, a.quiet)
	events := make(chan types.Event, 64)
	tracker.Start(events)

	summary, err := selector.NewSelector(store).Run(ctx, opts, events)
	close(events)
	tracker.Wait()

	if summary != nil {
		fmt.Printf("\nChecked %d records, selected %d\n", summary.Checked, summary.Selected)
		fmt.Printf("- Copied: %d\n", summary.Copied)
		fmt.Printf("- Missing files: %d\n", summary.Missing)
		fmt.Printf("- Skipped: %d\n", summary.Skipped)
	}
	if err != nil {
		return fmt.Errorf("error selecting pictures: %w", err)
	}
	return nil
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many pictures the store holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireExistingStore(a.cfg); err != nil {
				return err
			}
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.GetScanStats()
			if err != nil {
				return err
			}

			fmt.Printf("Database: %s\n", a.cfg.DatabasePath())
			fmt.Printf("Total records: %d\n", stats.TotalImages)
			algs := make([]string, 0, len(stats.ByAlgorithm))
			for alg := range stats.ByAlgorithm {
				algs = append(algs, alg)
			}
			sort.Strings(algs)
			for _, alg := range algs {
				fmt.Printf("- %s: %d\n", alg, stats.ByAlgorithm[alg])
			}
			return nil
		},
	}
}

// openStore initializes the database with retry logic
func openStore(cfg *config.Config) (*database.Store, error) {
	dbPath := cfg.DatabasePath()

	var store *database.Store
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		store, err = database.InitDatabase(cfg.Database.Driver, dbPath)
		if err == nil {
			return store, nil
		}

		if i < maxRetries-1 {
			slog.Warn("error initializing database, retrying", "attempt", i+1, "max", maxRetries, "error", err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	return nil, fmt.Errorf("error initializing database after %d attempts: %w", maxRetries, err)
}

// requireExistingStore refuses to read from a store that was never scanned into
func requireExistingStore(cfg *config.Config) error {
	dbPath := cfg.DatabasePath()
	if dbPath == ":memory:" {
		return nil
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("database does not exist: %s. Run scan command first", dbPath)
	}
	return nil
}
