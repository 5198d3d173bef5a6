package gs

import (
	"github.com/eddic/gr-gs/internal/gf"
)

// Scrambler produces one candidate codeword per payload word: the augmenting
// word is prepended to the payload and the result is multiplied by the
// scrambling polynomial.
//
// In continuous mode the product overflow (DivisorLength-1 symbols beyond the
// codeword) is carried and added into the head of the next product, which
// makes successive codewords one uninterrupted convolution of the augmented
// stream with the multiplier.
type Scrambler struct {
	config     ScramblerConfig
	augmenting gf.Word
	remainder  gf.Word
}

// NewScrambler creates a scrambler bound to one augmenting word.
func NewScrambler(config ScramblerConfig, augmenting gf.Word) (*Scrambler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := config.checkAugmenting(augmenting); err != nil {
		return nil, err
	}

	return &Scrambler{
		config:     config,
		augmenting: augmenting,
		remainder:  gf.Zero(config.Field, config.DivisorLength()-1),
	}, nil
}

// Scramble encodes one payload word. On error the carried state is left
// untouched.
func (s *Scrambler) Scramble(payload gf.Word) (gf.Word, error) {
	if err := s.config.checkPayload(payload); err != nil {
		return gf.Word{}, err
	}

	augmented, err := s.augmenting.Concat(payload)
	if err != nil {
		return gf.Word{}, err
	}
	product, err := augmented.Multiply(s.config.Multiplier)
	if err != nil {
		return gf.Word{}, err
	}

	n := s.config.CodewordLength
	if !s.config.Continuous {
		return product.Slice(0, n), nil
	}

	carry := s.remainder.Len()
	head, err := product.Slice(0, carry).Add(s.remainder)
	if err != nil {
		return gf.Word{}, err
	}
	product, err = head.Concat(product.Slice(carry, product.Len()))
	if err != nil {
		return gf.Word{}, err
	}

	s.remainder = product.Slice(n, product.Len())
	return product.Slice(0, n), nil
}

// AugmentingWord returns the word this scrambler prepends.
func (s *Scrambler) AugmentingWord() gf.Word { return s.augmenting }

// Continuous reports whether state is carried between calls.
func (s *Scrambler) Continuous() bool { return s.config.Continuous }

// State returns the carried remainder. Always zero in block mode.
func (s *Scrambler) State() gf.Word { return s.remainder }

// SetState replaces the carried remainder.
func (s *Scrambler) SetState(remainder gf.Word) error {
	if remainder.Field() != s.config.Field || remainder.Len() != s.config.DivisorLength()-1 {
		return ErrBadInputLength
	}
	s.remainder = remainder
	return nil
}

// Reset zeroes the carried remainder.
func (s *Scrambler) Reset() {
	s.remainder = gf.Zero(s.config.Field, s.config.DivisorLength()-1)
}

func (s *Scrambler) setContinuous(continuous bool) {
	s.config.Continuous = continuous
	s.Reset()
}
