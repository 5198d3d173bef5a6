package stream

import (
	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
)

// Decoder adapts a Descrambler to a sample-buffer work function.
type Decoder struct {
	descrambler *gs.Descrambler
	pending     []gf.Symbol
	words       uint64
}

// NewDecoder wraps descrambler.
func NewDecoder(descrambler *gs.Descrambler) *Decoder {
	return &Decoder{
		descrambler: descrambler,
		pending:     make([]gf.Symbol, 0, descrambler.Config().CodewordLength),
	}
}

// Work consumes codeword symbols and returns the payload symbols of every
// completed codeword.
func (d *Decoder) Work(in []gf.Symbol) ([]gf.Symbol, error) {
	n := d.descrambler.Config().CodewordLength
	k := d.descrambler.Config().PayloadLength()

	out := make([]gf.Symbol, 0, (len(d.pending)+len(in))/n*k)
	for len(in) > 0 {
		take := n - len(d.pending)
		if take > len(in) {
			take = len(in)
		}
		d.pending = append(d.pending, in[:take]...)
		in = in[take:]

		if len(d.pending) < n {
			break
		}

		payload, err := d.descrambler.DescrambleSymbols(d.pending)
		d.pending = d.pending[:0]
		if err != nil {
			return out, err
		}
		out = append(out, payload.Symbols()...)
		d.words++
	}
	return out, nil
}

// Pending returns the number of buffered codeword symbols.
func (d *Decoder) Pending() int { return len(d.pending) }

// Words returns the number of decoded words.
func (d *Decoder) Words() uint64 { return d.words }

// Reset drops buffered input and the carried state.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.words = 0
	d.descrambler.Reset()
}
