package bios

import (
	"github.com/xboxdev/xbiostool/pkg/lzx"
	"github.com/xboxdev/xbiostool/pkg/pubkey"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// DecompressKernel LZX-decompresses the loaded (and, if necessary,
// already-decrypted) kernel into an owned decompressed buffer, appends
// the uncompressed kernel data tail, and caches the result for
// subsequent calls to DecompressedKernel/FindPublicKey/
// PatchPublicKeyModulus.
func (b *Bios) DecompressKernel() ([]byte, error) {
	const op = "bios.DecompressKernel"
	compressed := b.CompressedKernel()
	if compressed == nil {
		return nil, xberrors.New(op, xberrors.InvalidData, "compressed kernel region does not fit inside the loaded image")
	}

	out, err := lzx.Decompress(compressed)
	if err != nil {
		return nil, xberrors.Wrap(op, xberrors.DecompressFailed, err)
	}

	tail := b.KernelDataTail()
	full := make([]byte, 0, len(out)+len(tail))
	full = append(full, out...)
	full = append(full, tail...)
	b.decompressedKrnl = full
	return full, nil
}

// DecompressedKernel returns the buffer produced by the most recent
// DecompressKernel call, or nil if none has run yet.
func (b *Bios) DecompressedKernel() []byte { return b.decompressedKrnl }

// FindPublicKey scans the decompressed kernel for the embedded RSA1
// public-key record. DecompressKernel must have been called first.
func (b *Bios) FindPublicKey() (*pubkey.Key, int, error) {
	const op = "bios.FindPublicKey"
	if b.decompressedKrnl == nil {
		return nil, 0, xberrors.New(op, xberrors.InvalidArgs, "kernel has not been decompressed yet")
	}
	return pubkey.Find(b.decompressedKrnl)
}

// PatchPublicKeyModulus overwrites the modulus of the embedded public
// key in the decompressed kernel in place. DecompressKernel must have
// been called first; the replacement must be exactly pubkey.ModulusSize
// bytes.
func (b *Bios) PatchPublicKeyModulus(modulus []byte) error {
	const op = "bios.PatchPublicKeyModulus"
	if len(modulus) != pubkey.ModulusSize {
		return xberrors.New(op, xberrors.InvalidArgs, "replacement modulus must be %d bytes, got %d", pubkey.ModulusSize, len(modulus))
	}
	_, offset, err := b.FindPublicKey()
	if err != nil {
		return xberrors.Wrap(op, xberrors.InvalidData, err)
	}
	copy(b.decompressedKrnl[offset+pubkey.HeaderSize:offset+pubkey.RecordSize], modulus)
	return nil
}

// RecompressKernel LZX-compresses the decompressed kernel buffer (minus
// its uncompressed data tail, which the caller must already know the
// length of) back into the image's compressed-kernel region ahead of a
// Build call. translate selects the E8 call-offset post-filter.
func RecompressKernel(fullKernel []byte, tailSize int, translate bool) (compressed, tail []byte, err error) {
	const op = "bios.RecompressKernel"
	if tailSize < 0 || tailSize > len(fullKernel) {
		return nil, nil, xberrors.New(op, xberrors.InvalidArgs, "tail size %d out of range for kernel of %d bytes", tailSize, len(fullKernel))
	}
	body := fullKernel[:len(fullKernel)-tailSize]
	tail = fullKernel[len(fullKernel)-tailSize:]
	compressed = lzx.Compress(body, translate)
	return compressed, tail, nil
}
