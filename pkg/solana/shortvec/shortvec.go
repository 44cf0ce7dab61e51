// Package shortvec implements the compact-u16 length prefix used throughout
// the Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxEncodedLen is the number of bytes needed to encode math.MaxUint16.
const maxEncodedLen = 3

var ErrLenTooLarge = errors.Errorf("len exceeds %d", math.MaxUint16)

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, ErrLenTooLarge is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	encoded, err := AppendLen(nil, len)
	if err != nil {
		return 0, err
	}

	return w.Write(encoded)
}

// AppendLen appends the encoding of len to dst.
func AppendLen(dst []byte, len int) ([]byte, error) {
	if len < 0 || len > math.MaxUint16 {
		return dst, ErrLenTooLarge
	}

	for {
		b := byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			return append(dst, b), nil
		}

		dst = append(dst, b|0x80)
	}
}

// DecodeLen decodes a shortvec encoded len from the reader.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < maxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		val |= int(b&0x7f) << (i * 7)
		if b&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, ErrLenTooLarge
			}
			return val, nil
		}
	}

	return 0, errors.Errorf("invalid size (max %d bytes)", maxEncodedLen)
}
