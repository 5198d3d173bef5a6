package gs

import (
	"fmt"

	"github.com/eddic/gr-gs/internal/gf"
)

// Result is one committed encoding step.
type Result struct {
	Codeword gf.Word
	Index    int
	Score    float64
}

// Observer is notified after every committed word.
type Observer interface {
	Observe(r Result, state AnalyzerState)
}

// Option configures a GuidedScrambler.
type Option func(*GuidedScrambler)

// WithObserver registers an observer called after each commit.
func WithObserver(o Observer) Option {
	return func(g *GuidedScrambler) {
		g.observers = append(g.observers, o)
	}
}

// GuidedScrambler encodes payload words by scrambling each with every
// augmenting word, selecting the candidate the analyzer ranks best and
// committing it. Words must be fed sequentially; it is not safe for
// concurrent use.
type GuidedScrambler struct {
	config    Config
	group     *ScramblerGroup
	analyzer  *Analyzer
	history   *History
	counts    []uint64
	observers []Observer
}

// NewGuidedScrambler validates config completely before creating any state.
func NewGuidedScrambler(config Config, opts ...Option) (*GuidedScrambler, error) {
	sc, words, err := config.Build()
	if err != nil {
		return nil, err
	}

	method := config.SelectionMethod
	if method == "" {
		method = "msw"
	}
	analyzer, err := NewAnalyzer(sc.Field, method, config.Constellation)
	if err != nil {
		return nil, err
	}

	group, err := NewScramblerGroup(sc, words, WithWorkers(config.Workers))
	if err != nil {
		return nil, err
	}

	config.SelectionMethod = method
	g := &GuidedScrambler{
		config:   config,
		group:    group,
		analyzer: analyzer,
		history:  NewHistory(config.HistoryLength),
		counts:   make([]uint64, group.Size()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Encode scrambles one payload word and commits the best candidate.
func (g *GuidedScrambler) Encode(payload gf.Word) (Result, error) {
	candidates, err := g.group.Candidates(payload)
	if err != nil {
		return Result{}, err
	}

	sel, err := g.analyzer.Select(candidates)
	if err != nil {
		return Result{}, err
	}

	g.analyzer.Commit(sel)
	g.history.Add(sel.Index)
	g.counts[sel.Index]++

	r := Result{
		Codeword: candidates[sel.Index],
		Index:    sel.Index,
		Score:    sel.Score,
	}
	for _, o := range g.observers {
		o.Observe(r, sel.State)
	}
	return r, nil
}

// EncodeSymbols wraps raw symbols into a payload word and encodes it.
func (g *GuidedScrambler) EncodeSymbols(symbols []gf.Symbol) (Result, error) {
	payload, err := gf.NewWord(g.group.config.Field, symbols)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadInputLength, err)
	}
	return g.Encode(payload)
}

// SetContinuous switches mode. Every slot, the analyzer and the history are
// reset so no state crosses the switch.
func (g *GuidedScrambler) SetContinuous(continuous bool) error {
	if continuous && g.group.config.PayloadLength() < g.group.config.DivisorLength()-1 {
		return ErrDivisorTooLong
	}
	g.config.Continuous = continuous
	g.group.setContinuous(continuous)
	g.resetRunning()
	return nil
}

// Reset clears all carried and running state.
func (g *GuidedScrambler) Reset() {
	g.group.Reset()
	g.resetRunning()
}

func (g *GuidedScrambler) resetRunning() {
	g.analyzer.Reset()
	g.history.Clear()
	for i := range g.counts {
		g.counts[i] = 0
	}
}

// Continuous reports the current mode.
func (g *GuidedScrambler) Continuous() bool { return g.group.config.Continuous }

// ScramblerConfig returns the configuration a matching Descrambler needs.
func (g *GuidedScrambler) ScramblerConfig() ScramblerConfig { return g.group.config }

// Config returns the configuration the scrambler was built from.
func (g *GuidedScrambler) Config() Config { return g.config }

// Field returns the symbol field.
func (g *GuidedScrambler) Field() *gf.Field { return g.group.config.Field }

// PayloadLength returns the number of input symbols per word.
func (g *GuidedScrambler) PayloadLength() int { return g.group.config.PayloadLength() }

// CodewordLength returns the number of output symbols per word.
func (g *GuidedScrambler) CodewordLength() int { return g.group.config.CodewordLength }

// Candidates returns the size of the augmenting word set.
func (g *GuidedScrambler) Candidates() int { return g.group.Size() }

// AugmentingWord returns augmenting word i.
func (g *GuidedScrambler) AugmentingWord(i int) gf.Word { return g.group.Slot(i).AugmentingWord() }

// Analyzer exposes the committed analyzer for inspection.
func (g *GuidedScrambler) Analyzer() *Analyzer { return g.analyzer }

// History returns the selection indices, oldest first.
func (g *GuidedScrambler) History() []int { return g.history.Values() }

// Selections returns how often each augmenting word has been chosen.
func (g *GuidedScrambler) Selections() []uint64 {
	out := make([]uint64, len(g.counts))
	copy(out, g.counts)
	return out
}
