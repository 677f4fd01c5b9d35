// Package pubkey locates and verifies the RSA1 public-key record embedded
// in a decompressed Xbox kernel image. It does not perform RSA operations;
// it only validates and slices the fixed-layout header and modulus.
package pubkey

import (
	"encoding/binary"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// HeaderSize is the size in bytes of the RSA1 header (magic, mod size,
// bits, max bytes, exponent).
const HeaderSize = 20

// ModulusSize is the size in bytes of the modulus that follows the header.
const ModulusSize = 264

// RecordSize is HeaderSize + ModulusSize: the full size of a public-key
// record as it appears embedded in a kernel image.
const RecordSize = HeaderSize + ModulusSize

// Canonical field values every valid Xbox public key must carry.
const (
	Magic      = "RSA1"
	Bits       = 2048
	MaxBytes   = 255
	Exponent   = 65537
	ModSizeFld = ModulusSize
)

// Header is the fixed 20-byte RSA1 header.
type Header struct {
	Magic    [4]byte
	ModSize  uint32
	Bits     uint32
	MaxBytes uint32
	Exponent uint32
}

// Key is a view into a buffer: the RSA1 header plus its modulus.
type Key struct {
	Header  Header
	Modulus []byte // view into the source buffer, ModulusSize bytes
}

func canonicalHeader() Header {
	var h Header
	copy(h.Magic[:], Magic)
	h.ModSize = ModSizeFld
	h.Bits = Bits
	h.MaxBytes = MaxBytes
	h.Exponent = Exponent
	return h
}

func decodeHeader(b []byte) Header {
	var h Header
	copy(h.Magic[:], b[0:4])
	h.ModSize = binary.LittleEndian.Uint32(b[4:8])
	h.Bits = binary.LittleEndian.Uint32(b[8:12])
	h.MaxBytes = binary.LittleEndian.Uint32(b[12:16])
	h.Exponent = binary.LittleEndian.Uint32(b[16:20])
	return h
}

// VerifyAt verifies the RSA1 header exactly at offset and returns the
// parsed Key if it matches the canonical header byte-exactly.
func VerifyAt(data []byte, offset int) (*Key, error) {
	const op = "pubkey.VerifyAt"
	if offset < 0 || offset+RecordSize > len(data) {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "offset %d out of range for buffer of %d bytes", offset, len(data))
	}
	h := decodeHeader(data[offset : offset+HeaderSize])
	if h != canonicalHeader() {
		return nil, xberrors.New(op, xberrors.InvalidData, "rsa1 header at offset %d does not match canonical header", offset)
	}
	return &Key{Header: h, Modulus: data[offset+HeaderSize : offset+RecordSize]}, nil
}

// Find sweeps every offset in data for a byte-exact RSA1 header match and
// returns the first Key found along with its offset.
func Find(data []byte) (*Key, int, error) {
	const op = "pubkey.Find"
	if len(data) < RecordSize {
		return nil, 0, xberrors.New(op, xberrors.InvalidArgs, "buffer smaller than a public key record")
	}
	for i := 0; i <= len(data)-RecordSize; i++ {
		k, err := VerifyAt(data, i)
		if err == nil {
			return k, i, nil
		}
	}
	return nil, 0, xberrors.New(op, xberrors.InvalidData, "no rsa1 public key found")
}
