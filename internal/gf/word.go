package gf

import (
	"fmt"
	"strings"
)

// Word is an immutable, fixed-length vector of field symbols.
//
// As a polynomial, index 0 holds the highest-degree coefficient, so the
// first transmitted symbol leads. Multiply and Divide use that convention:
// long division consumes symbols in transmission order.
type Word struct {
	field   *Field
	symbols []Symbol
}

// NewWord copies symbols into a new Word over f.
func NewWord(f *Field, symbols []Symbol) (Word, error) {
	for i, s := range symbols {
		if !f.Valid(s) {
			return Word{}, fmt.Errorf("%w: symbol %d at position %d not in %s", ErrSymbolOutOfRange, s, i, f)
		}
	}
	w := Word{field: f, symbols: make([]Symbol, len(symbols))}
	copy(w.symbols, symbols)
	return w, nil
}

// MustWord is NewWord that panics on invalid symbols. Intended for constants
// and tests.
func MustWord(f *Field, symbols ...Symbol) Word {
	w, err := NewWord(f, symbols)
	if err != nil {
		panic(err)
	}
	return w
}

// Zero returns the all-zero word of length n.
func Zero(f *Field, n int) Word {
	return Word{field: f, symbols: make([]Symbol, n)}
}

// Field returns the field the word is defined over.
func (w Word) Field() *Field { return w.field }

// Len returns the number of symbols.
func (w Word) Len() int { return len(w.symbols) }

// At returns the symbol at position i.
func (w Word) At(i int) Symbol { return w.symbols[i] }

// Symbols returns a copy of the word's symbols.
func (w Word) Symbols() []Symbol {
	out := make([]Symbol, len(w.symbols))
	copy(out, w.symbols)
	return out
}

// Equal reports whether both words hold the same symbols over the same field.
func (w Word) Equal(o Word) bool {
	if w.field != o.field || len(w.symbols) != len(o.symbols) {
		return false
	}
	for i := range w.symbols {
		if w.symbols[i] != o.symbols[i] {
			return false
		}
	}
	return true
}

func (w Word) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range w.symbols {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", s)
	}
	b.WriteByte(']')
	return b.String()
}

// Slice returns the symbols in [from, to) as a new word.
func (w Word) Slice(from, to int) Word {
	out := Word{field: w.field, symbols: make([]Symbol, to-from)}
	copy(out.symbols, w.symbols[from:to])
	return out
}

// Concat returns w followed by o.
func (w Word) Concat(o Word) (Word, error) {
	if w.field != o.field {
		return Word{}, ErrFieldMismatch
	}
	out := Word{field: w.field, symbols: make([]Symbol, 0, len(w.symbols)+len(o.symbols))}
	out.symbols = append(out.symbols, w.symbols...)
	out.symbols = append(out.symbols, o.symbols...)
	return out, nil
}

// Add returns the elementwise field sum of two equal-length words.
func (w Word) Add(o Word) (Word, error) {
	if w.field != o.field {
		return Word{}, ErrFieldMismatch
	}
	if len(w.symbols) != len(o.symbols) {
		return Word{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(w.symbols), len(o.symbols))
	}
	out := Word{field: w.field, symbols: make([]Symbol, len(w.symbols))}
	for i := range w.symbols {
		out.symbols[i] = w.field.Add(w.symbols[i], o.symbols[i])
	}
	return out, nil
}

// Neg returns the elementwise additive inverse.
func (w Word) Neg() Word {
	out := Word{field: w.field, symbols: make([]Symbol, len(w.symbols))}
	for i, s := range w.symbols {
		out.symbols[i] = w.field.Neg(s)
	}
	return out
}

// Multiply returns the polynomial product w * m, of length
// w.Len() + m.Len() - 1.
func (w Word) Multiply(m Word) (Word, error) {
	if w.field != m.field {
		return Word{}, ErrFieldMismatch
	}
	if len(w.symbols) == 0 || len(m.symbols) == 0 {
		return Word{field: w.field}, nil
	}

	f := w.field
	out := Word{field: f, symbols: make([]Symbol, len(w.symbols)+len(m.symbols)-1)}
	for i, a := range w.symbols {
		if a == 0 {
			continue
		}
		for j, b := range m.symbols {
			out.symbols[i+j] = f.Add(out.symbols[i+j], f.Mul(a, b))
		}
	}
	return out, nil
}

// Divide performs long division of w by m in transmission order. The
// quotient has w.Len() - m.Len() + 1 symbols and the remainder m.Len() - 1.
// The leading symbol of m must be invertible.
func (w Word) Divide(m Word) (quotient, remainder Word, err error) {
	if w.field != m.field {
		return Word{}, Word{}, ErrFieldMismatch
	}
	if len(m.symbols) == 0 || len(w.symbols) < len(m.symbols) {
		return Word{}, Word{}, fmt.Errorf("%w: dividend %d shorter than divisor %d",
			ErrLengthMismatch, len(w.symbols), len(m.symbols))
	}

	f := w.field
	lead, err := f.Inv(m.symbols[0])
	if err != nil {
		return Word{}, Word{}, fmt.Errorf("divisor leading coefficient %d: %w", m.symbols[0], err)
	}

	r := make([]Symbol, len(w.symbols))
	copy(r, w.symbols)

	qLen := len(w.symbols) - len(m.symbols) + 1
	q := make([]Symbol, qLen)
	for i := 0; i < qLen; i++ {
		c := f.Mul(r[i], lead)
		q[i] = c
		if c == 0 {
			continue
		}
		for j, b := range m.symbols {
			r[i+j] = f.Sub(r[i+j], f.Mul(c, b))
		}
	}

	quotient = Word{field: f, symbols: q}
	remainder = Word{field: f, symbols: make([]Symbol, len(m.symbols)-1)}
	copy(remainder.symbols, r[qLen:])
	return quotient, remainder, nil
}
