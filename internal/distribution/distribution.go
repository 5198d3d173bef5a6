// Package distribution accumulates histograms of the running digital sum.
package distribution

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var ErrBadParameters = errors.New("distribution: bins, bin size and decimation must be positive")

// InfiniteDistribution is a histogram that keeps accumulating until it is
// reset. Bin i is centred on leftBinCenter + i*binSize; samples beyond the
// outer edges are counted in the outermost bins. NaN samples are ignored.
//
// Every decimation samples the normalized histogram is published; Snapshot
// returns the latest publication. All methods are safe for concurrent use.
type InfiniteDistribution struct {
	mu sync.Mutex

	binSize       float64
	leftBinCenter float64
	decimation    int

	counts  []uint64
	total   uint64
	pending int
	ticks   uint64
	output  []float64
}

// NewInfiniteDistribution creates an empty distribution.
func NewInfiniteDistribution(bins int, binSize, leftBinCenter float64, decimation int) (*InfiniteDistribution, error) {
	if bins < 1 || !(binSize > 0) || decimation < 1 {
		return nil, fmt.Errorf("%w: bins=%d binSize=%g decimation=%d", ErrBadParameters, bins, binSize, decimation)
	}
	return &InfiniteDistribution{
		binSize:       binSize,
		leftBinCenter: leftBinCenter,
		decimation:    decimation,
		counts:        make([]uint64, bins),
		output:        make([]float64, bins),
	}, nil
}

// Accumulate adds one sample.
func (d *InfiniteDistribution) Accumulate(x float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accumulate(x)
}

// AccumulateAll adds samples in order under a single lock.
func (d *InfiniteDistribution) AccumulateAll(xs []float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, x := range xs {
		d.accumulate(x)
	}
}

func (d *InfiniteDistribution) accumulate(x float64) {
	if math.IsNaN(x) {
		return
	}

	d.counts[d.bin(x)]++
	d.total++
	d.pending++
	if d.pending == d.decimation {
		d.pending = 0
		d.ticks++
		d.publish()
	}
}

func (d *InfiniteDistribution) bin(x float64) int {
	pos := math.Floor((x-d.leftBinCenter)/d.binSize + 0.5)
	switch {
	case pos < 0:
		return 0
	case pos >= float64(len(d.counts)):
		return len(d.counts) - 1
	}
	return int(pos)
}

func (d *InfiniteDistribution) publish() {
	for i, c := range d.counts {
		d.output[i] = float64(c) / float64(d.total)
	}
}

// Snapshot returns the bin probabilities published at the last tick. Before
// the first tick, and after Reset, every bin is zero.
func (d *InfiniteDistribution) Snapshot() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]float64, len(d.output))
	copy(out, d.output)
	return out
}

// Counts returns the raw bin counts and the total they sum to.
func (d *InfiniteDistribution) Counts() ([]uint64, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]uint64, len(d.counts))
	copy(out, d.counts)
	return out, d.total
}

// Total returns the number of samples accumulated since the last reset.
func (d *InfiniteDistribution) Total() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// Ticks returns the number of published outputs since the last reset.
func (d *InfiniteDistribution) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Bins returns the number of bins.
func (d *InfiniteDistribution) Bins() int { return len(d.counts) }

// BinSize returns the width of every bin.
func (d *InfiniteDistribution) BinSize() float64 { return d.binSize }

// LeftBinCenter returns the centre of bin 0.
func (d *InfiniteDistribution) LeftBinCenter() float64 { return d.leftBinCenter }

// BinCenter returns the centre of bin i.
func (d *InfiniteDistribution) BinCenter(i int) float64 {
	return d.leftBinCenter + float64(i)*d.binSize
}

// Reset zeroes every bin, the total and the published output.
func (d *InfiniteDistribution) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.counts {
		d.counts[i] = 0
		d.output[i] = 0
	}
	d.total = 0
	d.pending = 0
	d.ticks = 0
}
