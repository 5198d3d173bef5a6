package gs

import (
	"fmt"

	"github.com/eddic/gr-gs/internal/gf"
)

// MaxAugmentingWords bounds the enumerated augmenting word set.
const MaxAugmentingWords = 4096

// ScramblerConfig is shared read-only by every Scrambler of a group and by
// the matching Descrambler. Encoder and decoder must agree on all fields.
type ScramblerConfig struct {
	Field            *gf.Field
	CodewordLength   int
	AugmentingLength int
	Multiplier       gf.Word
	Continuous       bool
}

// PayloadLength is the number of input symbols per codeword.
func (c ScramblerConfig) PayloadLength() int {
	return c.CodewordLength - c.AugmentingLength
}

// DivisorLength is the number of multiplier symbols.
func (c ScramblerConfig) DivisorLength() int {
	return c.Multiplier.Len()
}

func (c ScramblerConfig) validate() error {
	if c.Field == nil {
		return ErrBadFieldSize
	}
	if c.AugmentingLength < 1 {
		return fmt.Errorf("%w: got %d", ErrAugmentingLengthTooSmall, c.AugmentingLength)
	}
	if c.CodewordLength <= c.AugmentingLength {
		return fmt.Errorf("%w: codeword %d, augmenting %d",
			ErrAugmentingCodewordLengthMismatch, c.CodewordLength, c.AugmentingLength)
	}
	if c.Multiplier.Len() < 2 {
		return fmt.Errorf("%w: got %d", ErrDivisorLengthTooSmall, c.Multiplier.Len())
	}
	if c.Multiplier.Field() != c.Field {
		return fmt.Errorf("%w: %v", ErrBadDivisor, gf.ErrFieldMismatch)
	}
	if c.Multiplier.At(0) == 0 {
		return ErrBadDivisor
	}
	return nil
}

func (c ScramblerConfig) checkPayload(w gf.Word) error {
	if w.Field() != c.Field || w.Len() != c.PayloadLength() {
		return fmt.Errorf("%w: got %d symbols, want %d", ErrBadInputLength, w.Len(), c.PayloadLength())
	}
	return nil
}

func (c ScramblerConfig) checkAugmenting(w gf.Word) error {
	if w.Field() != c.Field || w.Len() != c.AugmentingLength {
		return fmt.Errorf("%w: augmenting word %s has %d symbols, want %d",
			ErrBadAugmentingWords, w, w.Len(), c.AugmentingLength)
	}
	return nil
}

// Config is the complete configuration surface of a GuidedScrambler, in
// raw symbols so it can be filled from a configuration file.
type Config struct {
	FieldSize        int
	CodewordLength   int
	AugmentingLength int
	Continuous       bool
	Multiplier       []gf.Symbol

	// AugmentingWords lists the selectable words. Empty enumerates every
	// word of AugmentingLength symbols.
	AugmentingWords [][]gf.Symbol

	SelectionMethod string
	Constellation   Constellation

	// HistoryLength bounds the selection index history. Zero keeps all.
	HistoryLength int

	// Workers > 1 scrambles candidates in parallel.
	Workers int
}

// Build validates c and returns the field-bound scrambler configuration and
// augmenting word set.
func (c Config) Build() (ScramblerConfig, []gf.Word, error) {
	field, err := gf.NewField(c.FieldSize)
	if err != nil {
		return ScramblerConfig{}, nil, err
	}

	multiplier, err := gf.NewWord(field, c.Multiplier)
	if err != nil {
		return ScramblerConfig{}, nil, fmt.Errorf("%w: %v", ErrBadDivisor, err)
	}

	sc := ScramblerConfig{
		Field:            field,
		CodewordLength:   c.CodewordLength,
		AugmentingLength: c.AugmentingLength,
		Multiplier:       multiplier,
		Continuous:       c.Continuous,
	}
	if err := sc.validate(); err != nil {
		return ScramblerConfig{}, nil, err
	}
	if sc.Continuous && sc.PayloadLength() < sc.DivisorLength()-1 {
		return ScramblerConfig{}, nil, fmt.Errorf("%w: payload %d, divisor %d",
			ErrDivisorTooLong, sc.PayloadLength(), sc.DivisorLength())
	}

	words, err := c.buildAugmentingWords(sc)
	if err != nil {
		return ScramblerConfig{}, nil, err
	}
	return sc, words, nil
}

func (c Config) buildAugmentingWords(sc ScramblerConfig) ([]gf.Word, error) {
	if len(c.AugmentingWords) == 0 {
		return EnumerateWords(sc.Field, sc.AugmentingLength)
	}

	words := make([]gf.Word, len(c.AugmentingWords))
	for i, symbols := range c.AugmentingWords {
		w, err := gf.NewWord(sc.Field, symbols)
		if err != nil {
			return nil, fmt.Errorf("%w: word %d: %v", ErrBadAugmentingWords, i, err)
		}
		if err := sc.checkAugmenting(w); err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// EnumerateWords returns every word of length n over f in lexicographic
// order, first symbol most significant.
func EnumerateWords(f *gf.Field, n int) ([]gf.Word, error) {
	count := 1
	for i := 0; i < n; i++ {
		count *= f.Size()
		if count > MaxAugmentingWords {
			return nil, fmt.Errorf("%w: %s^%d exceeds %d words", ErrBadAugmentingWords, f, n, MaxAugmentingWords)
		}
	}

	words := make([]gf.Word, count)
	symbols := make([]gf.Symbol, n)
	for i := 0; i < count; i++ {
		x := i
		for j := n - 1; j >= 0; j-- {
			symbols[j] = gf.Symbol(x % f.Size())
			x /= f.Size()
		}
		words[i] = gf.MustWord(f, symbols...)
	}
	return words, nil
}
