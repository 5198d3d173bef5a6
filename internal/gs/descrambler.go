package gs

import (
	"fmt"

	"github.com/eddic/gr-gs/internal/gf"
)

// Descrambler recovers payload words by dividing codewords by the
// multiplier and dropping the augmenting symbols. It does not need to know
// which augmenting word was chosen.
type Descrambler struct {
	config    ScramblerConfig
	remainder gf.Word
}

// NewDescrambler creates a descrambler. config must match the encoder's.
func NewDescrambler(config ScramblerConfig) (*Descrambler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Descrambler{
		config:    config,
		remainder: gf.Zero(config.Field, config.DivisorLength()-1),
	}, nil
}

// NewDescramblerFromConfig builds the descrambler matching a GuidedScrambler
// configuration.
func NewDescramblerFromConfig(config Config) (*Descrambler, error) {
	sc, _, err := config.Build()
	if err != nil {
		return nil, err
	}
	return NewDescrambler(sc)
}

// Descramble decodes one codeword. On error the carried state is left
// untouched.
func (d *Descrambler) Descramble(codeword gf.Word) (gf.Word, error) {
	n := d.config.CodewordLength
	if codeword.Field() != d.config.Field || codeword.Len() != n {
		return gf.Word{}, fmt.Errorf("%w: got %d symbols, want %d", ErrBadScrambleInput, codeword.Len(), n)
	}

	f := d.config.Field
	dividend := make([]gf.Symbol, n+d.remainder.Len())
	for i := 0; i < n; i++ {
		dividend[i] = codeword.At(i)
	}
	if d.config.Continuous {
		for i := 0; i < d.remainder.Len(); i++ {
			dividend[i] = f.Sub(dividend[i], d.remainder.At(i))
		}
	}

	w, err := gf.NewWord(f, dividend)
	if err != nil {
		return gf.Word{}, err
	}
	quotient, rem, err := w.Divide(d.config.Multiplier)
	if err != nil {
		return gf.Word{}, err
	}

	if d.config.Continuous {
		d.remainder = rem.Neg()
	}
	return quotient.Slice(d.config.AugmentingLength, n), nil
}

// DescrambleSymbols wraps raw symbols into a codeword and decodes it.
func (d *Descrambler) DescrambleSymbols(symbols []gf.Symbol) (gf.Word, error) {
	w, err := gf.NewWord(d.config.Field, symbols)
	if err != nil {
		return gf.Word{}, fmt.Errorf("%w: %v", ErrBadScrambleInput, err)
	}
	return d.Descramble(w)
}

// Config returns the descrambler configuration.
func (d *Descrambler) Config() ScramblerConfig { return d.config }

// State returns the carried remainder.
func (d *Descrambler) State() gf.Word { return d.remainder }

// SetState replaces the carried remainder, e.g. to resume a stream.
func (d *Descrambler) SetState(remainder gf.Word) error {
	if remainder.Field() != d.config.Field || remainder.Len() != d.config.DivisorLength()-1 {
		return ErrBadScrambleInput
	}
	d.remainder = remainder
	return nil
}

// Reset zeroes the carried remainder.
func (d *Descrambler) Reset() {
	d.remainder = gf.Zero(d.config.Field, d.config.DivisorLength()-1)
}
