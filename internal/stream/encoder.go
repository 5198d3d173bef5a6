package stream

import (
	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
)

// Encoder adapts a GuidedScrambler to a sample-buffer work function. Input
// buffers may end mid-word; the remainder is held until the next call.
type Encoder struct {
	scrambler *gs.GuidedScrambler
	pending   []gf.Symbol
	words     uint64
}

// NewEncoder wraps scrambler.
func NewEncoder(scrambler *gs.GuidedScrambler) *Encoder {
	return &Encoder{
		scrambler: scrambler,
		pending:   make([]gf.Symbol, 0, scrambler.PayloadLength()),
	}
}

// Work consumes in and returns the codeword symbols and selection indices of
// every word completed by it. On error, words completed before the failing
// one are still returned and the failing word is dropped.
func (e *Encoder) Work(in []gf.Symbol) ([]gf.Symbol, []int, error) {
	k := e.scrambler.PayloadLength()
	n := e.scrambler.CodewordLength()

	words := (len(e.pending) + len(in)) / k
	out := make([]gf.Symbol, 0, words*n)
	indices := make([]int, 0, words)

	for len(in) > 0 {
		take := k - len(e.pending)
		if take > len(in) {
			take = len(in)
		}
		e.pending = append(e.pending, in[:take]...)
		in = in[take:]

		if len(e.pending) < k {
			break
		}

		res, err := e.scrambler.EncodeSymbols(e.pending)
		e.pending = e.pending[:0]
		if err != nil {
			return out, indices, err
		}
		out = append(out, res.Codeword.Symbols()...)
		indices = append(indices, res.Index)
		e.words++
	}
	return out, indices, nil
}

// Flush zero-pads and encodes a partially filled word, if any.
func (e *Encoder) Flush() ([]gf.Symbol, []int, error) {
	if len(e.pending) == 0 {
		return nil, nil, nil
	}
	pad := make([]gf.Symbol, e.scrambler.PayloadLength()-len(e.pending))
	return e.Work(pad)
}

// Pending returns the number of buffered input symbols.
func (e *Encoder) Pending() int { return len(e.pending) }

// Words returns the number of encoded words.
func (e *Encoder) Words() uint64 { return e.words }

// Reset drops buffered input and resets the scrambler.
func (e *Encoder) Reset() {
	e.pending = e.pending[:0]
	e.words = 0
	e.scrambler.Reset()
}
