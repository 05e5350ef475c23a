// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how the archive body is stored.
type Compression uint16

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0

	// CompressionLZ4 stores the body as one LZ4 block.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores the body as one zstd frame.
	CompressionZstd Compression = 2
)

// errIncompressible is returned by compressors when the output would not
// be smaller than the input; the writer then stores the body uncompressed.
var errIncompressible = errors.New("data is incompressible")

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(c))
	}
}

// ParseCompression parses a compression name as written by String.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("container: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRawSize))
	if err != nil {
		panic("container: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBody compresses data with c. It returns errIncompressible when
// compression does not pay off.
func compressBody(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return nil, errIncompressible
		}
		return dst[:n], nil
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, errIncompressible
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// decompressBody reverses compressBody. The result must be exactly rawSize
// bytes long.
func decompressBody(data []byte, c Compression, rawSize int) ([]byte, error) {
	var out []byte
	switch c {
	case CompressionNone:
		out = data
	case CompressionLZ4:
		if rawSize > len(data)*lz4MaxRatio {
			return nil, fmt.Errorf("lz4 body of %d bytes cannot expand to %d: %w", len(data), rawSize, ErrCorrupt)
		}
		out = make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %v: %w", err, ErrCorrupt)
		}
		out = out[:n]
	case CompressionZstd:
		var err error
		out, err = zstdDecoder.DecodeAll(data, make([]byte, 0, min(rawSize, lz4MaxRatio*len(data))))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %v: %w", err, ErrCorrupt)
		}
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("%s body is %d bytes, header declares %d: %w", c, len(out), rawSize, ErrCorrupt)
	}
	return out, nil
}
