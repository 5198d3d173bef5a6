package codec

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/eddic/gr-gs/internal/config"
	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
	"github.com/eddic/gr-gs/internal/sidechannel"
	"github.com/eddic/gr-gs/internal/stream"
)

// DecodeReport summarizes a decoded container.
type DecodeReport struct {
	Header stream.Header

	// Indices holds the side channel selection indices, when one was given.
	Indices []int

	// Verified is set when every codeword was reproduced by re-encoding
	// the decoded payload with its recorded augmenting word.
	Verified bool
}

// Decode reads a container from src and writes the original bytes to dst.
// When side is non-nil its selection indices are decoded and each codeword
// is checked against the candidate the index names.
func Decode(ctx context.Context, cfg *config.Config, src, side io.Reader, dst io.Writer, logger *log.Logger) (*DecodeReport, error) {
	gsConfig, err := cfg.GSConfig()
	if err != nil {
		return nil, err
	}
	header, symbols, err := stream.ReadContainer(src)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(header, gsConfig); err != nil {
		return nil, err
	}

	descrambler, err := gs.NewDescramblerFromConfig(gsConfig)
	if err != nil {
		return nil, err
	}
	sc := descrambler.Config()

	report := &DecodeReport{Header: header}
	var group *gs.ScramblerGroup
	if side != nil {
		report.Indices, err = readSideChannel(side, header.Words)
		if err != nil {
			return nil, err
		}
		_, words, err := gsConfig.Build()
		if err != nil {
			return nil, err
		}
		if group, err = gs.NewScramblerGroup(sc, words, gs.WithWorkers(gsConfig.Workers)); err != nil {
			return nil, err
		}
	}

	dec := stream.NewDecoder(descrambler)
	n := sc.CodewordLength
	chunk := max(ChunkSize/n, 1) * n
	payload := make([]gf.Symbol, 0, len(symbols)/n*sc.PayloadLength())
	for len(symbols) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := min(chunk, len(symbols))
		words := dec.Words()
		out, err := dec.Work(symbols[:size])
		if err != nil {
			return nil, fmt.Errorf("decoding word %d: %w", dec.Words(), err)
		}
		if group != nil {
			if err := verify(group, report.Indices[words:], symbols[:size], out); err != nil {
				return nil, err
			}
		}
		payload = append(payload, out...)
		symbols = symbols[size:]
	}
	report.Verified = group != nil

	data, err := stream.Unpack(payload, sc.Field.Size(), int(header.OriginalLength))
	if err != nil {
		return nil, err
	}
	if _, err := dst.Write(data); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Printf("Decoded %d words into %d bytes", header.Words, len(data))
	}
	return report, nil
}

func checkHeader(h stream.Header, c gs.Config) error {
	switch {
	case int(h.FieldSize) != c.FieldSize:
		return fmt.Errorf("%w: field size %d, configured %d", ErrConfigMismatch, h.FieldSize, c.FieldSize)
	case int(h.CodewordLength) != c.CodewordLength:
		return fmt.Errorf("%w: codeword length %d, configured %d", ErrConfigMismatch, h.CodewordLength, c.CodewordLength)
	case int(h.AugmentingLength) != c.AugmentingLength:
		return fmt.Errorf("%w: augmenting length %d, configured %d", ErrConfigMismatch, h.AugmentingLength, c.AugmentingLength)
	case h.Continuous != c.Continuous:
		return fmt.Errorf("%w: continuous %v, configured %v", ErrConfigMismatch, h.Continuous, c.Continuous)
	}
	return nil
}

func readSideChannel(side io.Reader, words uint64) ([]int, error) {
	sc, shards, count, err := sidechannel.ReadFile(side)
	if err != nil {
		return nil, err
	}
	if uint64(count) != words {
		return nil, fmt.Errorf("%w: %d indices for %d words", sidechannel.ErrCountMismatch, count, words)
	}
	return sc.Decode(shards, count)
}

// verify re-encodes each decoded payload word and compares the candidate
// named by its index with the received codeword.
func verify(group *gs.ScramblerGroup, indices []int, codewords, payload []gf.Symbol) error {
	sc := group.Config()
	n, k := sc.CodewordLength, sc.PayloadLength()

	for i := 0; i*n < len(codewords); i++ {
		if indices[i] >= group.Size() {
			return fmt.Errorf("%w: index %d with %d candidates", sidechannel.ErrIndexRange, indices[i], group.Size())
		}
		word, err := gf.NewWord(sc.Field, payload[i*k:(i+1)*k])
		if err != nil {
			return err
		}
		candidates, err := group.Candidates(word)
		if err != nil {
			return err
		}
		if got := candidates[indices[i]].Symbols(); !slices.Equal(got, codewords[i*n:(i+1)*n]) {
			return fmt.Errorf("%w: codeword %d does not match augmenting word %d", ErrConfigMismatch, i, indices[i])
		}
	}
	return nil
}
