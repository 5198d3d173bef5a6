package gs

import (
	"errors"

	"github.com/eddic/gr-gs/internal/gf"
)

// Construction-time errors. A configuration failing with one of these never
// allocates scrambler or analyzer state.
var (
	ErrAugmentingLengthTooSmall         = errors.New("gs: augmenting length must be at least 1")
	ErrAugmentingCodewordLengthMismatch = errors.New("gs: codeword length must exceed augmenting length")
	ErrDivisorLengthTooSmall            = errors.New("gs: divisor must hold at least 2 symbols")
	ErrBadDivisor                       = errors.New("gs: divisor leading symbol must be invertible")
	ErrBadFieldSize                     = gf.ErrBadFieldSize
	ErrBadSelectionMethod               = errors.New("gs: bad selection method")
	ErrBadAugmentingWords               = errors.New("gs: bad augmenting word set")
	ErrDivisorTooLong                   = errors.New("gs: continuous mode needs payload length >= divisor length - 1")
)

// Per-call errors. The call is rejected and no state changes.
var (
	ErrBadInputLength   = errors.New("gs: payload word has wrong length")
	ErrBadScrambleInput = errors.New("gs: codeword has wrong length")
)
