package gs

import (
	"golang.org/x/sync/errgroup"

	"github.com/eddic/gr-gs/internal/gf"
)

// ScramblerGroup runs one Scrambler per augmenting word against the same
// payload. Slots are indexed like the augmenting word set and never share
// state.
type ScramblerGroup struct {
	config  ScramblerConfig
	slots   []*Scrambler
	workers int
}

// GroupOption configures a ScramblerGroup.
type GroupOption func(*ScramblerGroup)

// WithWorkers scrambles up to n slots concurrently. n <= 1 runs sequentially.
func WithWorkers(n int) GroupOption {
	return func(g *ScramblerGroup) {
		g.workers = n
	}
}

// NewScramblerGroup creates one slot per augmenting word.
func NewScramblerGroup(config ScramblerConfig, words []gf.Word, opts ...GroupOption) (*ScramblerGroup, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrBadAugmentingWords
	}
	for _, w := range words {
		if err := config.checkAugmenting(w); err != nil {
			return nil, err
		}
	}

	g := &ScramblerGroup{
		config: config,
		slots:  make([]*Scrambler, len(words)),
	}
	for _, opt := range opts {
		opt(g)
	}
	for i, w := range words {
		s, err := NewScrambler(config, w)
		if err != nil {
			return nil, err
		}
		g.slots[i] = s
	}
	return g, nil
}

// Candidates returns exactly Size() codewords, index-aligned with the
// augmenting word set. In continuous mode every slot advances, whichever
// candidate is selected later.
func (g *ScramblerGroup) Candidates(payload gf.Word) ([]gf.Word, error) {
	if err := g.config.checkPayload(payload); err != nil {
		return nil, err
	}

	out := make([]gf.Word, len(g.slots))
	if g.workers <= 1 {
		for i, s := range g.slots {
			w, err := s.Scramble(payload)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	}

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i, s := range g.slots {
		i, s := i, s
		eg.Go(func() error {
			w, err := s.Scramble(payload)
			if err != nil {
				return err
			}
			out[i] = w
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the number of slots.
func (g *ScramblerGroup) Size() int { return len(g.slots) }

// Slot returns the scrambler for augmenting word i.
func (g *ScramblerGroup) Slot(i int) *Scrambler { return g.slots[i] }

// Config returns the shared scrambler configuration.
func (g *ScramblerGroup) Config() ScramblerConfig { return g.config }

// Reset zeroes every slot's carried state.
func (g *ScramblerGroup) Reset() {
	for _, s := range g.slots {
		s.Reset()
	}
}

func (g *ScramblerGroup) setContinuous(continuous bool) {
	g.config.Continuous = continuous
	for _, s := range g.slots {
		s.setContinuous(continuous)
	}
}
