package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eddic/gr-gs/internal/codec"
	"github.com/eddic/gr-gs/internal/config"
)

const VERSION = "1.0.0"

func main() {
	var (
		configFile = flag.String("config", "gs.ini", "Configuration file path")
		inFile     = flag.String("in", "", "Input container file")
		outFile    = flag.String("out", "", "Output file")
		sideFile   = flag.String("side", "", "Selection index file to verify against (optional)")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("gsdecode v%s\n", VERSION)
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
	if cfg.GetLogDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	log.Printf("gsdecode v%s starting with config: %s", VERSION, *configFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *inFile, *outFile, *sideFile); err != nil {
		log.Fatalf("Decoding failed: %v", err)
	}
	log.Printf("gsdecode stopped")
}

func run(ctx context.Context, cfg *config.Config, inFile, outFile, sideFile string) error {
	in, err := os.Open(inFile)
	if err != nil {
		return err
	}
	defer in.Close()

	var side io.Reader
	if sideFile != "" {
		f, err := os.Open(sideFile)
		if err != nil {
			return err
		}
		defer f.Close()
		side = f
	}

	out, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	report, err := codec.Decode(ctx, cfg, in, side, out, log.Default())
	if err != nil {
		return err
	}
	if report.Verified {
		log.Printf("All %d codewords match their side channel selections", report.Header.Words)
	}
	return out.Close()
}
