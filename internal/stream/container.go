package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/eddic/gr-gs/internal/gf"
)

// Container layout
const (
	Magic        = "GSC1"
	HeaderLength = 33
)

var ErrBadHeader = errors.New("stream: bad container header")

// Header describes a container of encoded symbols. The symbols follow the
// header, one byte each for fields up to 256 elements and two bytes big
// endian otherwise.
type Header struct {
	FieldSize        uint32
	CodewordLength   uint32
	AugmentingLength uint32
	Continuous       bool
	OriginalLength   uint64
	Words            uint64
}

// Marshal encodes the header.
func (h Header) Marshal() []byte {
	data := make([]byte, HeaderLength)
	copy(data[0:4], Magic)
	binary.BigEndian.PutUint32(data[4:8], h.FieldSize)
	binary.BigEndian.PutUint32(data[8:12], h.CodewordLength)
	binary.BigEndian.PutUint32(data[12:16], h.AugmentingLength)
	if h.Continuous {
		data[16] = 1
	}
	binary.BigEndian.PutUint64(data[17:25], h.OriginalLength)
	binary.BigEndian.PutUint64(data[25:33], h.Words)
	return data
}

// ParseHeader decodes a header from the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderLength {
		return Header{}, fmt.Errorf("%w: got %d bytes, need %d", ErrBadHeader, len(data), HeaderLength)
	}
	if string(data[0:4]) != Magic {
		return Header{}, fmt.Errorf("%w: magic %q, want %q", ErrBadHeader, string(data[0:4]), Magic)
	}
	if data[16] > 1 {
		return Header{}, fmt.Errorf("%w: continuous flag %d", ErrBadHeader, data[16])
	}

	h := Header{
		FieldSize:        binary.BigEndian.Uint32(data[4:8]),
		CodewordLength:   binary.BigEndian.Uint32(data[8:12]),
		AugmentingLength: binary.BigEndian.Uint32(data[12:16]),
		Continuous:       data[16] == 1,
		OriginalLength:   binary.BigEndian.Uint64(data[17:25]),
		Words:            binary.BigEndian.Uint64(data[25:33]),
	}
	if err := h.check(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// check rejects headers whose word count cannot describe OriginalLength
// bytes or whose symbols would not fit in memory.
func (h Header) check() error {
	if h.FieldSize < 2 || h.FieldSize > gf.MaxFieldSize {
		return fmt.Errorf("%w: field size %d", ErrBadHeader, h.FieldSize)
	}
	if h.CodewordLength == 0 || h.AugmentingLength >= h.CodewordLength {
		return fmt.Errorf("%w: codeword length %d, augmenting length %d", ErrBadHeader, h.CodewordLength, h.AugmentingLength)
	}

	q := int(h.FieldSize)
	if h.Words > uint64(math.MaxInt)/(uint64(h.CodewordLength)*uint64(SymbolWidth(q))) {
		return fmt.Errorf("%w: %d words", ErrBadHeader, h.Words)
	}
	if h.OriginalLength > uint64(math.MaxInt)/uint64(SymbolsPerByte(q)) {
		return fmt.Errorf("%w: original length %d", ErrBadHeader, h.OriginalLength)
	}
	k := int(h.CodewordLength - h.AugmentingLength)
	if want := WordCount(h.OriginalLength, q, k); h.Words != want {
		return fmt.Errorf("%w: %d words for %d bytes, want %d", ErrBadHeader, h.Words, h.OriginalLength, want)
	}
	return nil
}

// SymbolWidth returns the bytes used per symbol for a field of size q.
func SymbolWidth(q int) int {
	if q <= 256 {
		return 1
	}
	return 2
}

// WriteSymbols writes symbols in container format.
func WriteSymbols(w io.Writer, symbols []gf.Symbol, q int) error {
	width := SymbolWidth(q)
	buf := make([]byte, len(symbols)*width)
	for i, s := range symbols {
		if width == 1 {
			buf[i] = byte(s)
		} else {
			binary.BigEndian.PutUint16(buf[2*i:], uint16(s))
		}
	}
	_, err := w.Write(buf)
	return err
}

// ReadSymbols reads n symbols in container format. The buffer grows with
// the data actually read, so a large n on a short input costs nothing.
func ReadSymbols(r io.Reader, n, q int) ([]gf.Symbol, error) {
	width := SymbolWidth(q)
	buf, err := io.ReadAll(io.LimitReader(r, int64(n)*int64(width)))
	if err != nil {
		return nil, fmt.Errorf("read %d symbols: %w", n, err)
	}
	if len(buf) != n*width {
		return nil, fmt.Errorf("read %d symbols: %w", n, io.ErrUnexpectedEOF)
	}

	out := make([]gf.Symbol, n)
	for i := range out {
		if width == 1 {
			out[i] = gf.Symbol(buf[i])
		} else {
			out[i] = gf.Symbol(binary.BigEndian.Uint16(buf[2*i:]))
		}
		if int(out[i]) >= q {
			return nil, fmt.Errorf("symbol %d at %d: %w", out[i], i, gf.ErrSymbolOutOfRange)
		}
	}
	return out, nil
}

// Writer streams a container after its header. Words must be known when
// the header is written; see WordCount.
type Writer struct {
	w      *bufio.Writer
	header Header
}

// NewWriter writes h and returns a Writer for the symbols that follow.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(h.Marshal()); err != nil {
		return nil, err
	}
	return &Writer{w: bw, header: h}, nil
}

// Write appends symbols.
func (cw *Writer) Write(symbols []gf.Symbol) error {
	return WriteSymbols(cw.w, symbols, int(cw.header.FieldSize))
}

// Flush flushes buffered output.
func (cw *Writer) Flush() error { return cw.w.Flush() }

// WordCount returns the number of codewords needed for length bytes packed
// into a field of size q, with k payload symbols per word.
func WordCount(length uint64, q, k int) uint64 {
	symbols := length * uint64(SymbolsPerByte(q))
	return (symbols + uint64(k) - 1) / uint64(k)
}

// ReadContainer reads a complete container.
func ReadContainer(r io.Reader) (Header, []gf.Symbol, error) {
	br := bufio.NewReader(r)
	raw := make([]byte, HeaderLength)
	if _, err := io.ReadFull(br, raw); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return Header{}, nil, err
	}

	n := int(h.Words) * int(h.CodewordLength)
	symbols, err := ReadSymbols(br, n, int(h.FieldSize))
	if err != nil {
		return Header{}, nil, err
	}
	return h, symbols, nil
}
