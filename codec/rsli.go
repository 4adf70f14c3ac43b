// Package codec implements the RsLi obfuscation/compression schemes: the XOR
// keystream, the inverted-nibble LZSS ring decompressor, raw-deflate-with-
// zlib-fallback, and the method dispatch that picks among them.
//
// All decoders are pure functions of (packed, parameters); none retain state
// across calls.
package codec

import (
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
)

// RsLiDecode dispatches to the decoder named by method and enforces that the
// result is exactly unpackedSize bytes long.
// A WithMaxUnpackedSize option rejects an oversized declared size before any
// allocation happens; a WithBuffer option lets a batch caller supply a
// pooled output buffer instead of letting each call allocate its own.
func RsLiDecode(method format.RsLiMethod, packed []byte, sortKey uint16, unpackedSize int, opts ...DecodeOption) ([]byte, error) {
	cfg, err := resolveDecodeConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.MaxUnpackedSize > 0 && unpackedSize > cfg.MaxUnpackedSize {
		return nil, &errs.LimitExceeded{Where: "rsli", Limit: cfg.MaxUnpackedSize, Got: unpackedSize}
	}

	var out []byte

	switch method {
	case format.RsLiMethodIdentity:
		out = packed
	case format.RsLiMethodXOR:
		if len(packed) < unpackedSize {
			return nil, &errs.SizeMismatch{Where: "rsli.xor", Expected: unpackedSize, Got: len(packed)}
		}
		out = XOR(packed[:unpackedSize], sortKey)
	case format.RsLiMethodLZSS:
		out, err = LZSSDecode(packed, unpackedSize)
	case format.RsLiMethodXORLZSS:
		out, err = LZSSDecode(XOR(packed, sortKey), unpackedSize)
	case format.RsLiMethodDeflate:
		out, err = Deflate(packed, unpackedSize)
	default:
		return nil, &errs.UnsupportedMethod{Method: uint16(method)}
	}

	if err != nil {
		return nil, err
	}
	if len(out) != unpackedSize {
		return nil, &errs.SizeMismatch{Where: "rsli", Expected: unpackedSize, Got: len(out)}
	}

	if cfg.Buffer != nil {
		cfg.Buffer.Reset()
		cfg.Buffer.Write(out)
		out = cfg.Buffer.Bytes()
	}

	return out, nil
}
