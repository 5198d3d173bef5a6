package gs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eddic/gr-gs/internal/gf"
)

func randomPayload(r *rand.Rand, f *gf.Field, n int) gf.Word {
	s := make([]gf.Symbol, n)
	for i := range s {
		s[i] = gf.Symbol(r.Intn(f.Size()))
	}
	return gf.MustWord(f, s...)
}

func scramblerConfig(t *testing.T, q, n, a int, continuous bool, multiplier ...gf.Symbol) ScramblerConfig {
	t.Helper()
	f := gf.MustField(q)
	return ScramblerConfig{
		Field:            f,
		CodewordLength:   n,
		AugmentingLength: a,
		Multiplier:       gf.MustWord(f, multiplier...),
		Continuous:       continuous,
	}
}

func TestScrambler_BlockRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	testCases := []struct {
		q, n, a    int
		multiplier []gf.Symbol
	}{
		{2, 8, 1, []gf.Symbol{1, 1}},
		{2, 16, 3, []gf.Symbol{1, 0, 0, 1, 1}},
		{3, 9, 2, []gf.Symbol{2, 1, 1}},
		{4, 12, 2, []gf.Symbol{1, 2, 3}},
		{5, 6, 1, []gf.Symbol{3, 0, 4, 1}},
		{9, 10, 2, []gf.Symbol{1, 8}},
		{256, 32, 1, []gf.Symbol{1, 29, 7}},
	}

	for _, tc := range testCases {
		config := scramblerConfig(t, tc.q, tc.n, tc.a, false, tc.multiplier...)
		words, err := EnumerateWords(config.Field, tc.a)
		if err != nil {
			words = []gf.Word{gf.Zero(config.Field, tc.a), randomPayload(r, config.Field, tc.a)}
		}
		d, err := NewDescrambler(config)
		require.NoError(t, err)

		for _, aug := range words {
			s, err := NewScrambler(config, aug)
			require.NoError(t, err)

			for trial := 0; trial < 5; trial++ {
				payload := randomPayload(r, config.Field, config.PayloadLength())
				codeword, err := s.Scramble(payload)
				require.NoError(t, err)
				require.Equal(t, tc.n, codeword.Len())

				decoded, err := d.Descramble(codeword)
				require.NoError(t, err)
				require.True(t, decoded.Equal(payload), "%s aug %s: %s -> %s -> %s",
					config.Field, aug, payload, codeword, decoded)
			}
		}
	}
}

func TestScrambler_BlockIsPure(t *testing.T) {
	config := scramblerConfig(t, 2, 8, 2, false, 1, 1, 1)
	s, err := NewScrambler(config, gf.MustWord(config.Field, 1, 0))
	require.NoError(t, err)

	payload := gf.MustWord(config.Field, 1, 0, 1, 1, 0, 1)
	first, err := s.Scramble(payload)
	require.NoError(t, err)
	second, err := s.Scramble(payload)
	require.NoError(t, err)
	require.True(t, first.Equal(second))
	require.True(t, s.State().Equal(gf.Zero(config.Field, 2)))
}

func TestScrambler_KnownCodeword(t *testing.T) {
	// (1 0 | 1 1) * (1 1) = 1 1 1 0 1, truncated to four symbols
	config := scramblerConfig(t, 2, 4, 2, false, 1, 1)
	s, err := NewScrambler(config, gf.MustWord(config.Field, 1, 0))
	require.NoError(t, err)

	codeword, err := s.Scramble(gf.MustWord(config.Field, 1, 1))
	require.NoError(t, err)
	require.Equal(t, []gf.Symbol{1, 1, 1, 0}, codeword.Symbols())
}

func TestScrambler_ContinuousRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	testCases := []struct {
		q, n, a    int
		multiplier []gf.Symbol
	}{
		{2, 8, 1, []gf.Symbol{1, 1}},
		{2, 6, 2, []gf.Symbol{1, 0, 1, 1, 1, 0, 1}}, // divisor longer than the codeword
		{3, 9, 2, []gf.Symbol{2, 1, 1}},
		{4, 12, 2, []gf.Symbol{1, 2, 3}},
		{7, 5, 1, []gf.Symbol{3, 6, 0, 1}},
	}

	for _, tc := range testCases {
		config := scramblerConfig(t, tc.q, tc.n, tc.a, true, tc.multiplier...)
		aug := randomPayload(r, config.Field, tc.a)

		s, err := NewScrambler(config, aug)
		require.NoError(t, err)
		d, err := NewDescrambler(config)
		require.NoError(t, err)

		for i := 0; i < 40; i++ {
			payload := randomPayload(r, config.Field, config.PayloadLength())
			codeword, err := s.Scramble(payload)
			require.NoError(t, err)

			decoded, err := d.Descramble(codeword)
			require.NoError(t, err)
			require.True(t, decoded.Equal(payload), "%s word %d", config.Field, i)
			require.True(t, d.State().Equal(s.State()), "%s word %d: carried state diverged", config.Field, i)
		}
	}
}

func TestScrambler_ContinuousCarriesState(t *testing.T) {
	config := scramblerConfig(t, 2, 4, 1, true, 1, 1)
	s, err := NewScrambler(config, gf.MustWord(config.Field, 0))
	require.NoError(t, err)

	// (0 1 0 1) * (1 1) = 0 1 1 1 1: codeword 0 1 1 1, carry 1
	c1, err := s.Scramble(gf.MustWord(config.Field, 1, 0, 1))
	require.NoError(t, err)
	require.Equal(t, []gf.Symbol{0, 1, 1, 1}, c1.Symbols())
	require.Equal(t, []gf.Symbol{1}, s.State().Symbols())

	// the carry lands on the first symbol of the next codeword
	c2, err := s.Scramble(gf.MustWord(config.Field, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, []gf.Symbol{1, 0, 0, 0}, c2.Symbols())
	require.Equal(t, []gf.Symbol{0}, s.State().Symbols())
}

func TestScrambler_ConstructionErrors(t *testing.T) {
	f := gf.MustField(2)
	aug := gf.MustWord(f, 1)
	mult := gf.MustWord(f, 1, 1)

	testCases := []struct {
		name   string
		config ScramblerConfig
		aug    gf.Word
		want   error
	}{
		{"augmenting zero", ScramblerConfig{Field: f, CodewordLength: 4, AugmentingLength: 0, Multiplier: mult}, gf.Word{}, ErrAugmentingLengthTooSmall},
		{"codeword too short", ScramblerConfig{Field: f, CodewordLength: 1, AugmentingLength: 1, Multiplier: mult}, aug, ErrAugmentingCodewordLengthMismatch},
		{"divisor too short", ScramblerConfig{Field: f, CodewordLength: 4, AugmentingLength: 1, Multiplier: gf.MustWord(f, 1)}, aug, ErrDivisorLengthTooSmall},
		{"divisor leading zero", ScramblerConfig{Field: f, CodewordLength: 4, AugmentingLength: 1, Multiplier: gf.MustWord(f, 0, 1)}, aug, ErrBadDivisor},
		{"divisor other field", ScramblerConfig{Field: f, CodewordLength: 4, AugmentingLength: 1, Multiplier: gf.MustWord(gf.MustField(3), 1, 1)}, aug, ErrBadDivisor},
		{"no field", ScramblerConfig{CodewordLength: 4, AugmentingLength: 1, Multiplier: mult}, aug, ErrBadFieldSize},
		{"augmenting word length", ScramblerConfig{Field: f, CodewordLength: 4, AugmentingLength: 2, Multiplier: mult}, aug, ErrBadAugmentingWords},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScrambler(tc.config, tc.aug)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestScrambler_BadInputLengthKeepsState(t *testing.T) {
	config := scramblerConfig(t, 2, 6, 1, true, 1, 0, 1)
	s, err := NewScrambler(config, gf.MustWord(config.Field, 1))
	require.NoError(t, err)

	_, err = s.Scramble(gf.MustWord(config.Field, 1, 1, 0, 1, 1))
	require.NoError(t, err)
	before := s.State()

	_, err = s.Scramble(gf.MustWord(config.Field, 1, 1))
	require.ErrorIs(t, err, ErrBadInputLength)
	_, err = s.Scramble(gf.MustWord(gf.MustField(3), 1, 1, 0, 1, 1))
	require.ErrorIs(t, err, ErrBadInputLength)
	require.True(t, s.State().Equal(before))
}

func TestDescrambler_BadScrambleInput(t *testing.T) {
	config := scramblerConfig(t, 4, 6, 1, true, 1, 2)
	d, err := NewDescrambler(config)
	require.NoError(t, err)
	require.NoError(t, d.SetState(gf.MustWord(config.Field, 3)))

	_, err = d.Descramble(gf.MustWord(config.Field, 1, 2, 3))
	require.ErrorIs(t, err, ErrBadScrambleInput)
	_, err = d.DescrambleSymbols([]gf.Symbol{1, 2, 3, 4, 0, 0})
	require.ErrorIs(t, err, ErrBadScrambleInput)
	require.Equal(t, []gf.Symbol{3}, d.State().Symbols())

	d.Reset()
	require.Equal(t, []gf.Symbol{0}, d.State().Symbols())
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory(3)
	_, ok := h.Last()
	require.False(t, ok)

	for i := 1; i <= 5; i++ {
		h.Add(i)
	}
	require.Equal(t, []int{3, 4, 5}, h.Values())
	require.Equal(t, 3, h.Len())
	last, ok := h.Last()
	require.True(t, ok)
	require.Equal(t, 5, last)

	h.Add(6)
	h.Add(7)
	require.Equal(t, []int{5, 6, 7}, h.Values())

	h.Clear()
	require.Empty(t, h.Values())
}

func TestHistory_Unbounded(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 100; i++ {
		h.Add(i % 4)
	}
	require.Equal(t, 100, h.Len())
	require.Equal(t, 0, h.Capacity())
	require.Equal(t, []int{0, 1, 2, 3}, h.Values()[:4])
}
