// Package sidechannel carries the selection index of every encoded word to
// the receiver, protected by Reed-Solomon parity shards.
package sidechannel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/reedsolomon"
)

const (
	Magic = "GSI1"

	// MaxIndex is the largest selection index that can be framed.
	MaxIndex = 0xFFFF

	headerLength = 14
	crcLength    = 4
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

var (
	ErrBadShards     = errors.New("sidechannel: bad shard configuration")
	ErrIndexRange    = errors.New("sidechannel: selection index out of range")
	ErrCorrupt       = errors.New("sidechannel: shards failed verification")
	ErrBadFile       = errors.New("sidechannel: bad index file")
	ErrCountMismatch = errors.New("sidechannel: index count mismatch")
)

// Codec frames selection indices into data shards and adds parity.
// Indices below 256 take one byte each; otherwise every index takes two.
type Codec struct {
	dataShards   int
	parityShards int
	enc          reedsolomon.Encoder
}

// NewCodec creates a codec. Up to parityShards shards may be lost.
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards < 1 || parityShards < 0 || dataShards+parityShards > 256 {
		return nil, fmt.Errorf("%w: data %d, parity %d", ErrBadShards, dataShards, parityShards)
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadShards, err)
	}
	return &Codec{dataShards: dataShards, parityShards: parityShards, enc: enc}, nil
}

// DataShards returns the number of data shards.
func (c *Codec) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *Codec) ParityShards() int { return c.parityShards }

// Encode frames indices and returns data shards followed by parity shards.
func (c *Codec) Encode(indices []int) ([][]byte, error) {
	width := 1
	for i, idx := range indices {
		if idx < 0 || idx > MaxIndex {
			return nil, fmt.Errorf("%w: %d at %d", ErrIndexRange, idx, i)
		}
		if idx > 0xFF {
			width = 2
		}
	}

	data := make([]byte, 1, 1+len(indices)*width)
	data[0] = byte(width)
	for _, idx := range indices {
		if width == 1 {
			data = append(data, byte(idx))
		} else {
			data = binary.BigEndian.AppendUint16(data, uint16(idx))
		}
	}

	shards, err := c.enc.Split(data)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Decode reconstructs missing shards, which must be nil, and returns count
// indices.
func (c *Codec) Decode(shards [][]byte, count int) ([]int, error) {
	if len(shards) != c.dataShards+c.parityShards {
		return nil, fmt.Errorf("%w: got %d shards, want %d", ErrBadShards, len(shards), c.dataShards+c.parityShards)
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	ok, err := c.enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !ok {
		return nil, ErrCorrupt
	}

	width := int(shards[0][0])
	if width != 1 && width != 2 {
		return nil, fmt.Errorf("%w: index width %d", ErrCorrupt, width)
	}

	var buf bytes.Buffer
	if err := c.enc.Join(&buf, shards, 1+count*width); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCountMismatch, err)
	}
	data := buf.Bytes()[1:]

	indices := make([]int, count)
	for i := range indices {
		if width == 1 {
			indices[i] = int(data[i])
		} else {
			indices[i] = int(binary.BigEndian.Uint16(data[2*i:]))
		}
	}
	return indices, nil
}

// WriteFile writes an index file: the header, then every shard in order,
// each preceded by its CRC-32C.
func (c *Codec) WriteFile(w io.Writer, shards [][]byte, count int) error {
	if len(shards) != c.dataShards+c.parityShards {
		return fmt.Errorf("%w: got %d shards", ErrBadShards, len(shards))
	}
	shardSize := len(shards[0])

	header := make([]byte, headerLength)
	copy(header[0:4], Magic)
	header[4] = byte(c.dataShards - 1)
	header[5] = byte(c.parityShards)
	binary.BigEndian.PutUint32(header[6:10], uint32(count))
	binary.BigEndian.PutUint32(header[10:14], uint32(shardSize))
	if _, err := w.Write(header); err != nil {
		return err
	}

	sum := make([]byte, crcLength)
	for i, shard := range shards {
		if len(shard) != shardSize {
			return fmt.Errorf("%w: shard %d is %d bytes, want %d", ErrBadShards, i, len(shard), shardSize)
		}
		binary.BigEndian.PutUint32(sum, crc32.Checksum(shard, crcTable))
		if _, err := w.Write(sum); err != nil {
			return err
		}
		if _, err := w.Write(shard); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile reads an index file and returns a codec matching its shard
// layout, the shards and the index count. Shards that are cut short or fail
// their checksum are returned as nil so Decode can rebuild them.
func ReadFile(r io.Reader) (*Codec, [][]byte, int, error) {
	header := make([]byte, headerLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	if string(header[0:4]) != Magic {
		return nil, nil, 0, fmt.Errorf("%w: magic %q, want %q", ErrBadFile, string(header[0:4]), Magic)
	}

	codec, err := NewCodec(int(header[4])+1, int(header[5]))
	if err != nil {
		return nil, nil, 0, err
	}
	count := int(binary.BigEndian.Uint32(header[6:10]))
	shardSize := int(binary.BigEndian.Uint32(header[10:14]))

	// framed data is a width byte plus one or two bytes per index
	d := codec.dataShards
	minSize, maxSize := (1+count+d-1)/d, (1+2*count+d-1)/d
	if shardSize < minSize || shardSize > maxSize {
		return nil, nil, 0, fmt.Errorf("%w: shard size %d for %d indices, want %d to %d", ErrBadFile, shardSize, count, minSize, maxSize)
	}

	total := codec.dataShards + codec.parityShards
	stride := crcLength + shardSize
	body, err := io.ReadAll(io.LimitReader(r, int64(total)*int64(stride)))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrBadFile, err)
	}

	shards := make([][]byte, total)
	for i := range shards {
		if len(body) < (i+1)*stride {
			break
		}
		record := body[i*stride : (i+1)*stride : (i+1)*stride]
		if crc32.Checksum(record[crcLength:], crcTable) != binary.BigEndian.Uint32(record) {
			continue
		}
		shards[i] = record[crcLength:]
	}
	return codec, shards, count, nil
}
