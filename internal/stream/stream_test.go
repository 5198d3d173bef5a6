package stream

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
)

func TestSymbolsPerByte(t *testing.T) {
	testCases := map[int]int{2: 8, 3: 6, 4: 4, 5: 4, 16: 2, 17: 2, 255: 2, 256: 1, 257: 1, 65536: 1}
	for q, want := range testCases {
		assert.Equal(t, want, SymbolsPerByte(q), "q=%d", q)
	}
}

func TestPackUnpack(t *testing.T) {
	data := []byte{0x00, 0x01, 0x7F, 0x80, 0xFF, 0xA5}
	for _, q := range []int{2, 3, 4, 7, 16, 256, 65536} {
		symbols := Pack(data, q)
		require.Len(t, symbols, len(data)*SymbolsPerByte(q))
		for _, s := range symbols {
			require.Less(t, int(s), q)
		}

		got, err := Unpack(symbols, q, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, got, "q=%d", q)
	}
}

func TestPack_MostSignificantFirst(t *testing.T) {
	assert.Equal(t, []gf.Symbol{1, 0, 1, 0, 0, 1, 0, 1}, Pack([]byte{0xA5}, 2))
	assert.Equal(t, []gf.Symbol{0xA, 0x5}, Pack([]byte{0xA5}, 16))
}

func TestUnpack_Errors(t *testing.T) {
	_, err := Unpack([]gf.Symbol{1, 0}, 2, 1)
	assert.Error(t, err)

	_, err = Unpack([]gf.Symbol{0, 0, 0, 0, 0, 0, 0, 2}, 2, 1)
	assert.ErrorIs(t, err, gf.ErrSymbolOutOfRange)

	// 3^6 = 729 > 255
	_, err = Unpack([]gf.Symbol{2, 2, 2, 2, 2, 2}, 3, 1)
	assert.Error(t, err)

	// padding is ignored
	got, err := Unpack([]gf.Symbol{0xA, 0x5, 0x3}, 16, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5}, got)
}

func newCodec(t *testing.T, continuous bool) (*gs.GuidedScrambler, *gs.Descrambler) {
	t.Helper()
	config := gs.Config{
		FieldSize:        4,
		CodewordLength:   8,
		AugmentingLength: 2,
		Continuous:       continuous,
		Multiplier:       []gf.Symbol{1, 2, 3},
	}
	scrambler, err := gs.NewGuidedScrambler(config)
	require.NoError(t, err)
	descrambler, err := gs.NewDescrambler(scrambler.ScramblerConfig())
	require.NoError(t, err)
	return scrambler, descrambler
}

func TestEncoder_PartialBuffers(t *testing.T) {
	scrambler, _ := newCodec(t, true)
	e := NewEncoder(scrambler)

	// payload length is 6
	out, indices, err := e.Work([]gf.Symbol{1, 2, 3, 0})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, indices)
	assert.Equal(t, 4, e.Pending())

	out, indices, err = e.Work([]gf.Symbol{1, 1, 2, 2, 3, 3, 0, 0, 1, 1})
	require.NoError(t, err)
	assert.Len(t, out, 16)
	assert.Len(t, indices, 2)
	assert.Equal(t, 2, e.Pending())
	assert.Equal(t, uint64(2), e.Words())

	out, indices, err = e.Flush()
	require.NoError(t, err)
	assert.Len(t, out, 8)
	assert.Len(t, indices, 1)
	assert.Zero(t, e.Pending())

	out, indices, err = e.Flush()
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Nil(t, indices)
}

func TestEncoderDecoder_ChunkedRoundTrip(t *testing.T) {
	for _, continuous := range []bool{false, true} {
		scrambler, descrambler := newCodec(t, continuous)
		e := NewEncoder(scrambler)
		d := NewDecoder(descrambler)

		r := rand.New(rand.NewSource(3))
		data := make([]byte, 257)
		r.Read(data)
		symbols := Pack(data, 4)

		var encoded []gf.Symbol
		for len(symbols) > 0 {
			n := 1 + r.Intn(13)
			if n > len(symbols) {
				n = len(symbols)
			}
			out, _, err := e.Work(symbols[:n])
			require.NoError(t, err)
			encoded = append(encoded, out...)
			symbols = symbols[n:]
		}
		out, _, err := e.Flush()
		require.NoError(t, err)
		encoded = append(encoded, out...)
		require.Equal(t, WordCount(uint64(len(data)), 4, 6)*8, uint64(len(encoded)))

		var decoded []gf.Symbol
		for len(encoded) > 0 {
			n := 1 + r.Intn(11)
			if n > len(encoded) {
				n = len(encoded)
			}
			out, err := d.Work(encoded[:n])
			require.NoError(t, err)
			decoded = append(decoded, out...)
			encoded = encoded[n:]
		}
		assert.Zero(t, d.Pending())

		got, err := Unpack(decoded, 4, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, got, "continuous=%v", continuous)
	}
}

func TestEncoder_BadSymbol(t *testing.T) {
	scrambler, _ := newCodec(t, false)
	e := NewEncoder(scrambler)

	out, indices, err := e.Work([]gf.Symbol{0, 1, 2, 3, 0, 1, 0, 1, 2, 9, 0, 1})
	assert.ErrorIs(t, err, gs.ErrBadInputLength)
	assert.Len(t, out, 8)
	assert.Len(t, indices, 1)
	assert.Zero(t, e.Pending())
}

func TestHeader_RoundTrip(t *testing.T) {
	h := Header{
		FieldSize:        256,
		CodewordLength:   32,
		AugmentingLength: 1,
		Continuous:       true,
		OriginalLength:   31 * 12345,
		Words:            12345,
	}
	data := h.Marshal()
	require.Len(t, data, HeaderLength)

	got, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestParseHeader_Errors(t *testing.T) {
	valid := Header{FieldSize: 4, CodewordLength: 8, AugmentingLength: 2}.Marshal()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"too short", func(b []byte) []byte { return b[:10] }},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad flag", func(b []byte) []byte { b[16] = 2; return b }},
		{"bad field", func(b []byte) []byte { b[7] = 1; return b }},
		{"no payload", func(b []byte) []byte { b[15] = 8; return b }},
		{"words overflow", func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[17:25], 1)
			binary.BigEndian.PutUint64(b[25:33], 1<<62)
			return b
		}},
		{"words wrap", func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[17:25], 1)
			binary.BigEndian.PutUint64(b[25:33], 1<<62+1)
			return b
		}},
		{"word count mismatch", func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[17:25], 1)
			binary.BigEndian.PutUint64(b[25:33], 3)
			return b
		}},
		{"length overflow", func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[17:25], 1<<62)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), valid...)
			_, err := ParseHeader(tt.mutate(data))
			assert.ErrorIs(t, err, ErrBadHeader)
		})
	}
}

func TestContainer_RoundTrip(t *testing.T) {
	for _, q := range []int{4, 256, 257, 65536} {
		h := Header{FieldSize: uint32(q), CodewordLength: 3, Words: 2, OriginalLength: uint64(6 / SymbolsPerByte(q))}
		symbols := []gf.Symbol{0, 1, 2, 3, 0, gf.Symbol(q - 1)}

		var buf bytes.Buffer
		w, err := NewWriter(&buf, h)
		require.NoError(t, err)
		require.NoError(t, w.Write(symbols[:4]))
		require.NoError(t, w.Write(symbols[4:]))
		require.NoError(t, w.Flush())
		assert.Equal(t, HeaderLength+len(symbols)*SymbolWidth(q), buf.Len())

		gotHeader, got, err := ReadContainer(&buf)
		require.NoError(t, err)
		assert.Equal(t, h, gotHeader)
		assert.Equal(t, symbols, got, "q=%d", q)
	}
}

func TestReadContainer_Truncated(t *testing.T) {
	h := Header{FieldSize: 4, CodewordLength: 8, Words: 2, OriginalLength: 4}
	data := append(h.Marshal(), 0, 1, 2)
	_, _, err := ReadContainer(bytes.NewReader(data))
	assert.Error(t, err)

	data = append(h.Marshal(), make([]byte, 16)...)
	data[HeaderLength+3] = 7
	_, _, err = ReadContainer(bytes.NewReader(data))
	assert.ErrorIs(t, err, gf.ErrSymbolOutOfRange)
}

func TestReadContainer_HugeWordCount(t *testing.T) {
	h := Header{FieldSize: 2, CodewordLength: 12, AugmentingLength: 3, Continuous: true, OriginalLength: 1, Words: 1 << 62}
	data := append(h.Marshal(), make([]byte, 12)...)
	_, _, err := ReadContainer(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadHeader)
}
