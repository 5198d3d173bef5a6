// Package codec runs whole files through the guided scrambling line code:
// bytes are packed into field symbols, encoded into a container and the
// selection indices are written to a protected side channel.
package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/eddic/gr-gs/internal/config"
	"github.com/eddic/gr-gs/internal/database"
	"github.com/eddic/gr-gs/internal/distribution"
	"github.com/eddic/gr-gs/internal/gs"
	"github.com/eddic/gr-gs/internal/metrics"
	"github.com/eddic/gr-gs/internal/sidechannel"
	"github.com/eddic/gr-gs/internal/stream"
)

// ChunkSize is the number of symbols handed to the stream adapters per call.
const ChunkSize = 4096

var ErrConfigMismatch = errors.New("codec: container does not match configuration")

// EncodeOptions carries the optional collaborators of Encode.
type EncodeOptions struct {
	Name      string
	Logger    *log.Logger
	Collector *metrics.Collector
	Runs      *database.RunRepository
}

// EncodeReport summarizes an encoded file.
type EncodeReport struct {
	Header       stream.Header
	Selections   []uint64
	FinalRDS     complex128
	Distribution []float64
	RunID        uint
}

// recorder feeds the running digital sum into the distribution and takes
// periodic snapshots of it.
type recorder struct {
	dist      *distribution.InfiniteDistribution
	interval  uint64
	snapshots []database.DistributionSnapshot
}

func (r *recorder) Observe(_ gs.Result, state gs.AnalyzerState) {
	r.dist.Accumulate(real(state.RDS))
	if r.interval > 0 && state.Words%r.interval == 0 {
		r.snapshots = append(r.snapshots, database.NewSnapshot(state.Words, r.dist))
	}
}

// Encode encodes src into dst. When side is non-nil the selection indices
// are written to it as a Reed-Solomon protected index file.
func Encode(ctx context.Context, cfg *config.Config, src []byte, dst, side io.Writer, opts EncodeOptions) (*EncodeReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gsConfig, err := cfg.GSConfig()
	if err != nil {
		return nil, err
	}

	dist, err := distribution.NewInfiniteDistribution(
		cfg.GetDistributionBins(),
		cfg.GetDistributionBinSize(),
		cfg.GetDistributionLeftBinCenter(),
		cfg.GetDistributionDecimation(),
	)
	if err != nil {
		return nil, err
	}
	rec := &recorder{dist: dist, interval: uint64(max(cfg.GetSnapshotInterval(), 0))}

	scramblerOpts := []gs.Option{gs.WithObserver(rec)}
	if opts.Collector != nil {
		scramblerOpts = append(scramblerOpts, gs.WithObserver(opts.Collector))
	}
	scrambler, err := gs.NewGuidedScrambler(gsConfig, scramblerOpts...)
	if err != nil {
		return nil, err
	}

	q := scrambler.Field().Size()
	symbols := stream.Pack(src, q)
	if opts.Collector != nil {
		opts.Collector.AddBytes(len(src))
	}

	header := stream.Header{
		FieldSize:        uint32(q),
		CodewordLength:   uint32(scrambler.CodewordLength()),
		AugmentingLength: uint32(gsConfig.AugmentingLength),
		Continuous:       scrambler.Continuous(),
		OriginalLength:   uint64(len(src)),
		Words:            stream.WordCount(uint64(len(src)), q, scrambler.PayloadLength()),
	}
	if opts.Logger != nil {
		opts.Logger.Printf("Encoding %d bytes as %d words over %s, %d candidates, method %s",
			len(src), header.Words, scrambler.Field(), scrambler.Candidates(), scrambler.Analyzer().Method())
	}

	w, err := stream.NewWriter(dst, header)
	if err != nil {
		return nil, err
	}

	enc := stream.NewEncoder(scrambler)
	indices := make([]int, 0, header.Words)
	for len(symbols) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(ChunkSize, len(symbols))
		out, idx, err := enc.Work(symbols[:n])
		if err != nil {
			if opts.Collector != nil {
				opts.Collector.Error("encode")
			}
			return nil, fmt.Errorf("encoding word %d: %w", enc.Words(), err)
		}
		if err := w.Write(out); err != nil {
			return nil, err
		}
		indices = append(indices, idx...)
		symbols = symbols[n:]
	}
	out, idx, err := enc.Flush()
	if err != nil {
		return nil, err
	}
	if err := w.Write(out); err != nil {
		return nil, err
	}
	indices = append(indices, idx...)
	if err := w.Flush(); err != nil {
		return nil, err
	}

	if side != nil {
		if err := writeSideChannel(cfg, side, indices); err != nil {
			return nil, err
		}
	}

	report := &EncodeReport{
		Header:       header,
		Selections:   scrambler.Selections(),
		FinalRDS:     scrambler.Analyzer().State().RDS,
		Distribution: dist.Snapshot(),
	}

	if opts.Runs != nil {
		id, err := storeRun(opts, gsConfig, report, rec)
		if err != nil {
			return nil, err
		}
		report.RunID = id
	}
	return report, nil
}

func writeSideChannel(cfg *config.Config, side io.Writer, indices []int) error {
	sc, err := sidechannel.NewCodec(cfg.GetSideDataShards(), cfg.GetSideParityShards())
	if err != nil {
		return err
	}
	shards, err := sc.Encode(indices)
	if err != nil {
		return err
	}
	return sc.WriteFile(side, shards, len(indices))
}

func storeRun(opts EncodeOptions, gsConfig gs.Config, report *EncodeReport, rec *recorder) (uint, error) {
	multiplier := make(database.Uint64s, len(gsConfig.Multiplier))
	for i, s := range gsConfig.Multiplier {
		multiplier[i] = uint64(s)
	}

	run := &database.Run{
		Name:             opts.Name,
		FieldSize:        gsConfig.FieldSize,
		CodewordLength:   gsConfig.CodewordLength,
		AugmentingLength: gsConfig.AugmentingLength,
		Continuous:       gsConfig.Continuous,
		Method:           gsConfig.SelectionMethod,
		Multiplier:       multiplier,
		Bytes:            report.Header.OriginalLength,
		Words:            report.Header.Words,
		SelectionCounts:  database.Uint64s(report.Selections),
		FinalRDSReal:     real(report.FinalRDS),
		FinalRDSImag:     imag(report.FinalRDS),
	}
	if err := opts.Runs.Create(run); err != nil {
		return 0, fmt.Errorf("storing run: %w", err)
	}

	snapshots := rec.snapshots
	if n := len(snapshots); n == 0 || snapshots[n-1].Words != report.Header.Words {
		snapshots = append(snapshots, database.NewSnapshot(report.Header.Words, rec.dist))
	}
	if err := opts.Runs.AddSnapshots(run.ID, snapshots); err != nil {
		return 0, err
	}
	if opts.Logger != nil {
		opts.Logger.Printf("Stored run %s with %d snapshots", run, len(snapshots))
	}
	return run.ID, nil
}
