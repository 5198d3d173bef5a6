package stream

import (
	"fmt"

	"github.com/eddic/gr-gs/internal/gf"
)

// SymbolsPerByte returns how many base-q digits encode one byte.
func SymbolsPerByte(q int) int {
	n, span := 0, 1
	for span < 256 {
		span *= q
		n++
	}
	return n
}

// Pack splits each byte into SymbolsPerByte(q) base-q digits, most
// significant first.
func Pack(data []byte, q int) []gf.Symbol {
	per := SymbolsPerByte(q)
	out := make([]gf.Symbol, len(data)*per)
	for i, b := range data {
		x := int(b)
		for j := per - 1; j >= 0; j-- {
			out[i*per+j] = gf.Symbol(x % q)
			x /= q
		}
	}
	return out
}

// Unpack reverses Pack for the first n bytes. Trailing padding symbols are
// ignored.
func Unpack(symbols []gf.Symbol, q, n int) ([]byte, error) {
	per := SymbolsPerByte(q)
	if len(symbols) < n*per {
		return nil, fmt.Errorf("unpack: %d symbols hold fewer than %d bytes", len(symbols), n)
	}

	out := make([]byte, n)
	for i := range out {
		x := 0
		for j := 0; j < per; j++ {
			s := int(symbols[i*per+j])
			if s >= q {
				return nil, fmt.Errorf("unpack: symbol %d at %d: %w", s, i*per+j, gf.ErrSymbolOutOfRange)
			}
			x = x*q + s
		}
		if x > 0xFF {
			return nil, fmt.Errorf("unpack: digits at byte %d encode %d", i, x)
		}
		out[i] = byte(x)
	}
	return out, nil
}
