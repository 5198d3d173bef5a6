package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eddic/gr-gs/internal/codec"
	"github.com/eddic/gr-gs/internal/config"
	"github.com/eddic/gr-gs/internal/database"
	"github.com/eddic/gr-gs/internal/metrics"
)

const VERSION = "1.0.0"

func main() {
	var (
		configFile = flag.String("config", "gs.ini", "Configuration file path")
		inFile     = flag.String("in", "", "Input file")
		outFile    = flag.String("out", "", "Output container file")
		sideFile   = flag.String("side", "", "Selection index file (optional)")
		name       = flag.String("name", "", "Run name stored in the database (default: input file name)")
		linger     = flag.Duration("linger", 0, "Keep serving metrics for this long after encoding")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("gsencode v%s\n", VERSION)
		return
	}
	if *inFile == "" || *outFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.NewConfig(*configFile)
	if err := cfg.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.SetFlags(log.LstdFlags)
	if cfg.GetLogDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	log.Printf("gsencode v%s starting with config: %s", VERSION, *configFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	opts := codec.EncodeOptions{
		Name:   *name,
		Logger: log.Default(),
	}
	if opts.Name == "" {
		opts.Name = filepath.Base(*inFile)
	}

	if cfg.GetMetricsEnabled() {
		collector, stop, err := startMetrics(cfg.GetMetricsAddress())
		if err != nil {
			log.Fatalf("Failed to start metrics: %v", err)
		}
		defer stop()
		opts.Collector = collector
	}

	if cfg.GetDatabaseEnabled() {
		db, err := openDatabase(cfg)
		if err != nil {
			log.Printf("Failed to open run store: %v", err)
			log.Printf("Continuing without run store...")
		} else {
			defer db.Close()
			opts.Runs = db.Runs()
			if cfg.GetDatabaseDebug() {
				defer logStoreStats(db)
			}
		}
	}

	if err := run(ctx, cfg, *inFile, *outFile, *sideFile, opts); err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}

	if *linger > 0 && opts.Collector != nil {
		log.Printf("Serving metrics for %s", *linger)
		select {
		case <-time.After(*linger):
		case <-ctx.Done():
		}
	}
	log.Printf("gsencode stopped")
}

func run(ctx context.Context, cfg *config.Config, inFile, outFile, sideFile string, opts codec.EncodeOptions) error {
	src, err := os.ReadFile(inFile)
	if err != nil {
		return err
	}

	out, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	var side io.Writer
	var sideOut *os.File
	if sideFile != "" {
		sideOut, err = os.Create(sideFile)
		if err != nil {
			return err
		}
		defer sideOut.Close()
		side = sideOut
	}

	start := time.Now()
	report, err := codec.Encode(ctx, cfg, src, out, side, opts)
	if err != nil {
		return err
	}

	log.Printf("Encoded %d bytes into %d words in %s, final RDS %.3g",
		report.Header.OriginalLength, report.Header.Words, time.Since(start).Round(time.Millisecond), report.FinalRDS)
	log.Printf("Selections: %v", report.Selections)

	if err := out.Close(); err != nil {
		return err
	}
	if sideOut != nil {
		return sideOut.Close()
	}
	return nil
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	if dir := filepath.Dir(cfg.GetDatabasePath()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := database.NewDB(database.Config{
		Path:  cfg.GetDatabasePath(),
		Debug: cfg.GetDatabaseDebug(),
	}, log.New(os.Stdout, "[DB] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}
	if err := db.Health(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func logStoreStats(db *database.DB) {
	stats, err := db.Stats()
	if err != nil {
		log.Printf("Run store stats unavailable: %v", err)
		return
	}
	log.Printf("Run store: %d open connections, %d in use, %d waits", stats.OpenConnections, stats.InUse, stats.WaitCount)
}

// startMetrics serves a dedicated registry on address.
func startMetrics(address string) (*metrics.Collector, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	log.Printf("Serving metrics on %s/metrics", address)

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
	}
	return collector, stop, nil
}
