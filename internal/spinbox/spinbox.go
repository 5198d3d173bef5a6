// Package spinbox models an integer spin box whose displayed text is
// base^value. It covers the text conversion and stepping logic of the
// control; rendering belongs to whatever toolkit hosts it.
package spinbox

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	ErrInvalidText   = errors.New("spinbox: text is not a positive number")
	ErrNotExactPower = errors.New("spinbox: text is not an exact power of the base")
	ErrBadBase       = errors.New("spinbox: base must be at least 2")
	ErrBadRange      = errors.New("spinbox: minimum exceeds maximum")
)

// ExpSpinBox holds the value (the exponent) and its allowed range.
type ExpSpinBox struct {
	base  int
	min   int
	max   int
	value int
}

// New creates a spin box showing base^value for value in [min, max]. The
// initial value is min.
func New(base, min, max int) (*ExpSpinBox, error) {
	if base < 2 {
		return nil, fmt.Errorf("%w: %d", ErrBadBase, base)
	}
	if min > max {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrBadRange, min, max)
	}
	return &ExpSpinBox{base: base, min: min, max: max, value: min}, nil
}

// Base returns the base.
func (s *ExpSpinBox) Base() int { return s.base }

// Value returns the current exponent.
func (s *ExpSpinBox) Value() int { return s.value }

// SetValue stores v clamped to the range.
func (s *ExpSpinBox) SetValue(v int) { s.value = s.Clamp(v) }

// Clamp limits v to [min, max].
func (s *ExpSpinBox) Clamp(v int) int {
	if v < s.min {
		return s.min
	}
	if v > s.max {
		return s.max
	}
	return v
}

// StepBy moves the value by steps, clamped to the range.
func (s *ExpSpinBox) StepBy(steps int) {
	s.SetValue(s.value + steps)
}

// Text returns the displayed text for the current value.
func (s *ExpSpinBox) Text() string { return s.TextFromValue(s.value) }

// TextFromValue formats base^v in decimal.
func (s *ExpSpinBox) TextFromValue(v int) string {
	if v >= 0 {
		return new(big.Int).Exp(big.NewInt(int64(s.base)), big.NewInt(int64(v)), nil).String()
	}
	return strconv.FormatFloat(math.Pow(float64(s.base), float64(v)), 'g', -1, 64)
}

// ValueFromText parses displayed text and rounds it to the nearest power of
// the base in log space. The result is clamped to the range.
func (s *ExpSpinBox) ValueFromText(text string) (int, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !(x > 0) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidText, text)
	}
	v := math.Round(math.Log(x) / math.Log(float64(s.base)))
	return s.Clamp(int(v)), nil
}

// ExactValueFromText is ValueFromText that also requires the text to be
// exactly base^value, in range.
func (s *ExpSpinBox) ExactValueFromText(text string) (int, error) {
	v, err := s.ValueFromText(text)
	if err != nil {
		return 0, err
	}
	if s.TextFromValue(v) != strings.TrimSpace(text) {
		return 0, fmt.Errorf("%w: %q, nearest %s^%d = %s", ErrNotExactPower, text, strconv.Itoa(s.base), v, s.TextFromValue(v))
	}
	return v, nil
}

// Validate reports whether text parses. Rounding makes every positive
// number acceptable.
func (s *ExpSpinBox) Validate(text string) bool {
	_, err := s.ValueFromText(text)
	return err == nil
}
