// Package yaz0 implements the Yaz0 LZ codec used for compressed files inside
// Nintendo 64 ROM images.
//
// A Yaz0 buffer starts with a 16-byte header ("Yaz0", big-endian uncompressed
// size, 8 reserved bytes) followed by code groups: one control byte whose bits,
// MSB first, select either a literal byte (1) or a back-reference (0) for each
// of the following tokens.
package yaz0

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/noxer/bytewriter"
)

const (
	Magic      = "Yaz0"
	HeaderSize = 0x10

	// WindowSize is how far back a back-reference may point.
	WindowSize = 0x1000
	// MaxMatch is the longest run a single back-reference can copy.
	MaxMatch = 0xFF + 0x12

	minMatch    = 3
	extendedMin = 0x12 // shortest length stored in a 3-byte token
)

var (
	ErrBadMagic     = errors.New("yaz0: invalid magic")
	ErrSizeMismatch = errors.New("yaz0: uncompressed size mismatch")
	ErrCodecOverrun = errors.New("yaz0: corrupt stream")
)

// Header is the fixed 16-byte prefix of every Yaz0 buffer
type Header struct {
	Magic            [4]byte
	UncompressedSize uint32
	Reserved         [8]byte
}

// ParseHeader reads the Yaz0 header at the start of data
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &h); err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrCodecOverrun, err)
	}
	if string(h.Magic[:]) != Magic {
		return h, fmt.Errorf("%w: expected '%s', got '%s'", ErrBadMagic, Magic, string(h.Magic[:]))
	}
	return h, nil
}

// Encode compresses payload into a Yaz0 buffer. The result is zero padded so
// that its length is a multiple of 16.
func Encode(payload []byte) []byte {
	stream := encodeStream(payload)

	size := (len(stream) + 31) &^ 15
	out := make([]byte, size)

	w := bytewriter.New(out)
	header := Header{UncompressedSize: uint32(len(payload))}
	copy(header.Magic[:], Magic)
	// The buffer is sized above, writes cannot fall short.
	_ = binary.Write(w, binary.BigEndian, header)
	_, _ = w.Write(stream)

	return out
}

// encoder carries the lookahead state between match searches
type encoder struct {
	src []byte

	pending  bool
	nextLen  int
	nextFrom int
}

// search finds the longest run in the window before pos that matches the
// bytes at pos. Runs of two bytes cost as much as two literals and are
// reported as length 1.
func (e *encoder) search(pos int) (length, from int) {
	src := e.src

	start := pos - WindowSize
	if start < 0 {
		start = 0
	}
	limit := len(src) - pos
	if limit > MaxMatch {
		limit = MaxMatch
	}

	length = 1
	for i := start; i < pos && length < limit; i++ {
		// A candidate can only win if it also matches at the current best length.
		if src[i+length] != src[pos+length] {
			continue
		}
		j := 0
		for j < limit && src[i+j] == src[pos+j] {
			j++
		}
		if j > length {
			length = j
			from = i
		}
	}

	if length == 2 {
		length = 1
	}
	return length, from
}

// next picks the token at pos. A match is dropped in favour of a literal when
// the match starting one byte later is at least two bytes longer; that later
// match is then reused without searching again.
func (e *encoder) next(pos int) (length, from int) {
	if e.pending {
		e.pending = false
		return e.nextLen, e.nextFrom
	}

	length, from = e.search(pos)
	if length >= minMatch {
		e.nextLen, e.nextFrom = e.search(pos + 1)
		if e.nextLen >= length+2 {
			e.pending = true
			return 1, 0
		}
	}
	return length, from
}

func encodeStream(src []byte) []byte {
	e := &encoder{src: src}

	stream := make([]byte, 1, len(src)+len(src)/8+2)
	codePos := 0
	var code byte
	mask := byte(0x80)

	pos := 0
	for pos < len(src) {
		length, from := e.next(pos)
		if length < minMatch {
			stream = append(stream, src[pos])
			code |= mask
			pos++
		} else {
			dist := pos - from - 1
			if length >= extendedMin {
				stream = append(stream, byte(dist>>8), byte(dist), byte(length-extendedMin))
			} else {
				stream = append(stream, byte((length-2)<<4|dist>>8), byte(dist))
			}
			pos += length
		}

		mask >>= 1
		if mask == 0 {
			stream[codePos] = code
			codePos = len(stream)
			stream = append(stream, 0)
			code = 0
			mask = 0x80
		}
	}
	stream[codePos] = code

	return stream
}

// Decode validates the header of compressed and returns exactly expectedSize
// decoded bytes.
func Decode(compressed []byte, expectedSize int) ([]byte, error) {
	header, err := ParseHeader(compressed)
	if err != nil {
		return nil, err
	}
	if int64(header.UncompressedSize) != int64(expectedSize) {
		return nil, fmt.Errorf("%w: header says %d bytes, expected %d",
			ErrSizeMismatch, header.UncompressedSize, expectedSize)
	}

	out := make([]byte, expectedSize)
	if err := DecodeInto(compressed[HeaderSize:], out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto decodes the code groups in stream (the bytes following the
// header) until dst is full. Writes never go past len(dst): a token that
// would overflow it, point before its start, or read past the end of stream
// fails with ErrCodecOverrun.
func DecodeInto(stream, dst []byte) error {
	src, dp := 0, 0
	var code byte
	bits := 0

	for dp < len(dst) {
		if bits == 0 {
			if src >= len(stream) {
				return fmt.Errorf("%w: control byte at %d past end of stream", ErrCodecOverrun, src)
			}
			code = stream[src]
			src++
			bits = 8
		}

		if code&0x80 != 0 {
			if src >= len(stream) {
				return fmt.Errorf("%w: literal at %d past end of stream", ErrCodecOverrun, src)
			}
			dst[dp] = stream[src]
			dp++
			src++
		} else {
			if src+1 >= len(stream) {
				return fmt.Errorf("%w: token at %d past end of stream", ErrCodecOverrun, src)
			}
			b1, b2 := stream[src], stream[src+1]
			src += 2

			copyPos := dp - (int(b1&0x0F)<<8 | int(b2)) - 1
			if copyPos < 0 {
				return fmt.Errorf("%w: back-reference before start of output at %d", ErrCodecOverrun, dp)
			}

			length := int(b1 >> 4)
			if length == 0 {
				if src >= len(stream) {
					return fmt.Errorf("%w: length byte at %d past end of stream", ErrCodecOverrun, src)
				}
				length = int(stream[src]) + extendedMin
				src++
			} else {
				length += 2
			}

			if dp+length > len(dst) {
				return fmt.Errorf("%w: copy of %d bytes at %d exceeds %d bytes",
					ErrCodecOverrun, length, dp, len(dst))
			}
			// Byte by byte: the source may overlap the bytes being written.
			for i := 0; i < length; i++ {
				dst[dp] = dst[copyPos]
				dp++
				copyPos++
			}
		}

		code <<= 1
		bits--
	}

	common.LogDebug("yaz0: decoded %d bytes from %d stream bytes", dp, src)
	return nil
}
