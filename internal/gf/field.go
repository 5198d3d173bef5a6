package gf

import (
	"errors"
	"fmt"
)

// MaxFieldSize is the largest field supported. Symbols are stored as uint16
// and every field keeps full log/antilog tables.
const MaxFieldSize = 1 << 16

var (
	ErrBadFieldSize     = errors.New("gf: field size must be a prime or prime power in [2, 65536]")
	ErrSymbolOutOfRange = errors.New("gf: symbol out of range")
	ErrNotInvertible    = errors.New("gf: element is not invertible")
	ErrLengthMismatch   = errors.New("gf: word length mismatch")
	ErrFieldMismatch    = errors.New("gf: words belong to different fields")
)

// Symbol is one element of a finite field, encoded as an integer in [0, q).
// For GF(p^k) the base-p digits of the integer are the coefficients of the
// element's polynomial representation, lowest degree first.
type Symbol uint16

// Field implements arithmetic over GF(q) for prime or prime-power q.
//
// Multiplication uses log/antilog tables built from the smallest primitive
// element. Prime-power fields reduce by the smallest monic irreducible
// polynomial of the extension degree.
type Field struct {
	size    int
	char    int
	degree  int
	modulus []int // low-to-high, monic, nil for prime fields

	exp []Symbol // exp[i] = g^i, doubled so log sums need no reduction
	log []int
}

// NewField creates GF(size).
func NewField(size int) (*Field, error) {
	if size < 2 || size > MaxFieldSize {
		return nil, fmt.Errorf("%w: %d", ErrBadFieldSize, size)
	}
	p, k := primePower(size)
	if p == 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadFieldSize, size)
	}

	f := &Field{
		size:   size,
		char:   p,
		degree: k,
	}
	if k > 1 {
		f.modulus = smallestIrreducible(p, k)
	}
	f.buildTables()
	return f, nil
}

// MustField is NewField for sizes known to be valid. It panics otherwise.
func MustField(size int) *Field {
	f, err := NewField(size)
	if err != nil {
		panic(err)
	}
	return f
}

// Size returns q.
func (f *Field) Size() int { return f.size }

// Char returns the field characteristic p.
func (f *Field) Char() int { return f.char }

// Degree returns the extension degree k, q = p^k.
func (f *Field) Degree() int { return f.degree }

// Valid reports whether s is an element of the field.
func (f *Field) Valid(s Symbol) bool { return int(s) < f.size }

// Add returns a + b.
func (f *Field) Add(a, b Symbol) Symbol {
	switch {
	case f.char == 2:
		return a ^ b
	case f.degree == 1:
		return Symbol((int(a) + int(b)) % f.size)
	}

	p := f.char
	x, y := int(a), int(b)
	r, scale := 0, 1
	for i := 0; i < f.degree; i++ {
		r += ((x%p + y%p) % p) * scale
		x /= p
		y /= p
		scale *= p
	}
	return Symbol(r)
}

// Neg returns the additive inverse of a.
func (f *Field) Neg(a Symbol) Symbol {
	switch {
	case f.char == 2:
		return a
	case f.degree == 1:
		return Symbol((f.size - int(a)) % f.size)
	}

	p := f.char
	x := int(a)
	r, scale := 0, 1
	for i := 0; i < f.degree; i++ {
		r += ((p - x%p) % p) * scale
		x /= p
		scale *= p
	}
	return Symbol(r)
}

// Sub returns a - b.
func (f *Field) Sub(a, b Symbol) Symbol {
	return f.Add(a, f.Neg(b))
}

// Mul returns a * b.
func (f *Field) Mul(a, b Symbol) Symbol {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[f.log[a]+f.log[b]]
}

// Inv returns the multiplicative inverse of a.
func (f *Field) Inv(a Symbol) (Symbol, error) {
	if a == 0 || !f.Valid(a) {
		return 0, ErrNotInvertible
	}
	if a == 1 {
		return 1, nil
	}
	return f.exp[(f.size-1)-f.log[a]], nil
}

// Div returns a / b.
func (f *Field) Div(a, b Symbol) (Symbol, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return 0, err
	}
	return f.Mul(a, inv), nil
}

// String describes the field, e.g. "GF(9)" or "GF(2^4)".
func (f *Field) String() string {
	if f.degree == 1 {
		return fmt.Sprintf("GF(%d)", f.size)
	}
	return fmt.Sprintf("GF(%d^%d)", f.char, f.degree)
}

func (f *Field) buildTables() {
	order := f.size - 1
	g := f.primitiveElement()

	f.exp = make([]Symbol, 2*order)
	f.log = make([]int, f.size)

	x := 1
	for i := 0; i < order; i++ {
		f.exp[i] = Symbol(x)
		f.log[x] = i
		x = f.mulRaw(x, g)
	}
	for i := order; i < 2*order; i++ {
		f.exp[i] = f.exp[i-order]
	}
}

// primitiveElement finds the smallest generator of the multiplicative group.
func (f *Field) primitiveElement() int {
	order := f.size - 1
	factors := primeFactors(order)

	for g := 1; g < f.size; g++ {
		primitive := true
		for _, r := range factors {
			if f.powRaw(g, order/r) == 1 {
				primitive = false
				break
			}
		}
		if primitive {
			return g
		}
	}
	// unreachable for a valid field
	return 1
}

func (f *Field) powRaw(base, e int) int {
	result := 1
	for e > 0 {
		if e&1 == 1 {
			result = f.mulRaw(result, base)
		}
		base = f.mulRaw(base, base)
		e >>= 1
	}
	return result
}

// mulRaw multiplies without tables. Only used while building them.
func (f *Field) mulRaw(a, b int) int {
	if f.degree == 1 {
		return a * b % f.size
	}
	prod := polyMul(digits(a, f.char, f.degree), digits(b, f.char, f.degree), f.char)
	rem := polyMod(prod, f.modulus, f.char)
	return undigits(rem, f.char)
}

// primePower returns p, k with n = p^k, or 0, 0.
func primePower(n int) (int, int) {
	p := 0
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			p = d
			break
		}
	}
	if p == 0 {
		return n, 1
	}

	k := 0
	for n%p == 0 {
		n /= p
		k++
	}
	if n != 1 {
		return 0, 0
	}
	return p, k
}

func primeFactors(n int) []int {
	var factors []int
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			factors = append(factors, d)
			for n%d == 0 {
				n /= d
			}
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}

// smallestIrreducible returns the first monic irreducible polynomial of
// degree k over GF(p), ordered by the integer value of its lower coefficients.
func smallestIrreducible(p, k int) []int {
	count := 1
	for i := 0; i < k; i++ {
		count *= p
	}

	for c := 0; c < count; c++ {
		poly := append(digits(c, p, k), 1)
		if poly[0] == 0 {
			continue
		}
		if isIrreducible(poly, p) {
			return poly
		}
	}
	// an irreducible polynomial exists for every degree
	return nil
}

// isIrreducible trial-divides by every monic polynomial of degree 1..k/2.
func isIrreducible(poly []int, p int) bool {
	k := len(poly) - 1
	for d := 1; d <= k/2; d++ {
		count := 1
		for i := 0; i < d; i++ {
			count *= p
		}
		for c := 0; c < count; c++ {
			divisor := append(digits(c, p, d), 1)
			if isZeroPoly(polyMod(poly, divisor, p)) {
				return false
			}
		}
	}
	return true
}

func digits(x, p, n int) []int {
	d := make([]int, n)
	for i := 0; i < n; i++ {
		d[i] = x % p
		x /= p
	}
	return d
}

func undigits(d []int, p int) int {
	x := 0
	for i := len(d) - 1; i >= 0; i-- {
		x = x*p + d[i]
	}
	return x
}

func isZeroPoly(a []int) bool {
	for _, c := range a {
		if c != 0 {
			return false
		}
	}
	return true
}

// polyMul multiplies low-to-high coefficient vectors over GF(p).
func polyMul(a, b []int, p int) []int {
	out := make([]int, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] = (out[i+j] + x*y) % p
		}
	}
	return out
}

// polyMod reduces a modulo the monic polynomial m over GF(p). The result
// has len(m)-1 coefficients.
func polyMod(a, m []int, p int) []int {
	r := make([]int, len(a))
	copy(r, a)
	dm := len(m) - 1

	for i := len(r) - 1; i >= dm; i-- {
		c := r[i]
		if c == 0 {
			continue
		}
		for j := 0; j <= dm; j++ {
			r[i-dm+j] = ((r[i-dm+j]-c*m[j])%p + p) % p
		}
	}

	out := make([]int, dm)
	copy(out, r)
	return out
}
